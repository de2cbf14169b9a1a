package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// HandleUpdateById handles PATCH requests that merge fields into an
// existing record
func (h *Handler) HandleUpdateById(w http.ResponseWriter, r *http.Request) {
	h.handleUpdate(w, r, false)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, upsert bool) {
	vars := mux.Vars(r)
	collName := vars["coll"]
	recordId := vars["id"]

	h.logger.Debug("handleUpdate called", "collection", collName, "id", recordId, "upsert", upsert)

	patch, err := decodeRecord(r)
	if err != nil {
		h.logger.Warn("decoding body failed", "error", err)
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.provider.Update(r.Context(), collName, recordId, patch, upsert)
	if err != nil {
		h.logger.Error("update failed", "collection", collName, "id", recordId, "error", err)
		writeError(w, err)
		return
	}

	h.logger.Info("updated record", "collection", collName, "id", recordId)
	writeJSON(w, http.StatusOK, updated)
}
