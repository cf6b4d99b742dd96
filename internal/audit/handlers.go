package audit

import (
	"encoding/json"
	"net/http"

	"github.com/noah-isme/toko-storefront/internal/common"
)

// Handler exposes HTTP endpoints for working with audit logs.
type Handler struct {
	Store Store
}

type entryDTO struct {
	Entry    any             `json:"entry"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// List handles GET /api/v1/admin/audit-logs?page=&limit=.
func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "AUDIT_NOT_CONFIGURED", "audit store not configured", nil)
		return
	}
	page, perPage := common.ParsePagination(r, 50, 200)
	rows, err := h.Store.ListAuditLogs(r.Context(), perPage, common.Offset(page, perPage))
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "AUDIT_QUERY_FAILED", "unable to fetch audit logs", nil)
		return
	}
	out := make([]entryDTO, 0, len(rows))
	for _, row := range rows {
		dto := entryDTO{Entry: row}
		if json.Valid(row.Metadata) {
			dto.Metadata = row.Metadata
		}
		out = append(out, dto)
	}
	common.Data(w, http.StatusOK, out)
}
