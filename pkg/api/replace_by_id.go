package api

import (
	"net/http"
)

// HandleReplaceById handles PUT requests. The body is merged into the record
// with the given ID, which is created if it does not exist yet.
func (h *Handler) HandleReplaceById(w http.ResponseWriter, r *http.Request) {
	h.handleUpdate(w, r, true)
}
