package notify

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/toko-storefront/internal/common"
	"github.com/noah-isme/toko-storefront/internal/store"
)

// AdminHandler exposes the merchant notification inbox.
type AdminHandler struct {
	Store Store
}

// List handles GET /api/v1/admin/notifications. ?unread=true limits the page
// to unread entries.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "notification store unavailable", nil)
		return
	}
	page, perPage := common.ParsePagination(r, 20, 100)
	unreadOnly := r.URL.Query().Get("unread") == "true"
	rows, err := h.Store.ListNotifications(r.Context(), unreadOnly, perPage, common.Offset(page, perPage))
	if err != nil {
		common.WriteError(w, common.Internal("unable to list notifications", err))
		return
	}
	unread, err := h.Store.CountUnreadNotifications(r.Context())
	if err != nil {
		common.WriteError(w, common.Internal("unable to count notifications", err))
		return
	}
	items := make([]map[string]any, 0, len(rows))
	for _, n := range rows {
		items = append(items, notificationDTO(n))
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":        items,
		"unreadCount": unread,
		"pagination":  map[string]int{"page": page, "per_page": perPage},
	})
}

// MarkRead handles POST /api/v1/admin/notifications/{id}/read.
func (h *AdminHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "notification store unavailable", nil)
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid id", nil)
		return
	}
	n, err := h.Store.MarkNotificationRead(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "notification not found", nil)
			return
		}
		common.WriteError(w, common.Internal("unable to update notification", err))
		return
	}
	common.Data(w, http.StatusOK, notificationDTO(n))
}

func notificationDTO(n store.Notification) map[string]any {
	out := map[string]any{
		"id":        n.ID,
		"type":      n.Type,
		"title":     n.Title,
		"message":   n.Message,
		"isRead":    n.IsRead,
		"createdAt": n.CreatedAt,
	}
	if n.OrderID != nil {
		out["orderId"] = *n.OrderID
	}
	if n.ProductID != nil {
		out["productId"] = *n.ProductID
	}
	return out
}
