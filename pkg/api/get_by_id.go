package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// HandleGetById handles GET requests to retrieve a specific record by ID
func (h *Handler) HandleGetById(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]
	recordId := vars["id"]

	h.logger.Debug("handleGetById called", "collection", collName, "id", recordId)

	record, err := h.provider.Get(r.Context(), collName, recordId)
	if err != nil {
		h.logger.Warn("get failed", "collection", collName, "id", recordId, "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}
