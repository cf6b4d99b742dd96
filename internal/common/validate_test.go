package common

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type sampleInput struct {
	Email string          `json:"email" validate:"required,email"`
	Rate  decimal.Decimal `json:"rate" validate:"gte=0,lte=100"`
	Qty   int             `json:"qty" validate:"min=1"`
}

func TestValidateReportsJSONFieldNames(t *testing.T) {
	err := Validate(&sampleInput{Email: "nope", Rate: decimal.NewFromInt(120), Qty: 0})
	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, http.StatusUnprocessableEntity, appErr.HTTPStatus)
	fields := appErr.Details.(map[string]any)["fields"].([]FieldError)
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Field)
	}
	require.ElementsMatch(t, []string{"email", "rate", "qty"}, names)

	require.NoError(t, Validate(&sampleInput{Email: "a@b.co", Rate: decimal.NewFromInt(20), Qty: 2}))
}

func TestDecodeJSON(t *testing.T) {
	var in sampleInput
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co","rate":"7.5","qty":1}`))
	require.NoError(t, DecodeJSON(req, &in, false))
	require.Equal(t, "7.5", in.Rate.String())

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":`))
	err := DecodeJSON(req, &in, false)
	require.True(t, IsAppError(err))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"unknown":1}`))
	require.Error(t, DecodeJSON(req, &in, false))

	var empty struct {
		Name string `json:"name"`
	}
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	require.NoError(t, DecodeJSON(req, &empty, true))
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, NotFound("cart not found", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, `{"error":{"code":"NOT_FOUND","message":"cart not found"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	WriteError(rec, errors.New("boom"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
