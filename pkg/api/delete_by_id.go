package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/adfharrison1/go-blobdb/pkg/domain"
)

// HandleDeleteById handles DELETE requests to remove a specific record by ID
func (h *Handler) HandleDeleteById(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]
	recordId := vars["id"]

	h.logger.Debug("handleDeleteById called", "collection", collName, "id", recordId)

	deleted, err := h.provider.Delete(r.Context(), collName, recordId)
	if err != nil {
		h.logger.Error("delete failed", "collection", collName, "id", recordId, "error", err)
		writeError(w, err)
		return
	}
	if !deleted {
		writeError(w, &domain.NotFoundError{Collection: collName, ID: recordId})
		return
	}

	h.logger.Info("deleted record", "collection", collName, "id", recordId)
	w.WriteHeader(http.StatusNoContent)
}
