package common

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// DecodeJSON reads the request body into dst and validates it. An empty body
// is rejected unless allowEmpty is set.
func DecodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			if allowEmpty {
				return nil
			}
			return BadRequest("", "request body is required", err)
		}
		return BadRequest("", "invalid JSON payload", err)
	}
	return Validate(dst)
}
