package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// HandleInsert handles POST requests to create records in collections
func (h *Handler) HandleInsert(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]

	h.logger.Debug("handleInsert called", "collection", collName)

	record, err := decodeRecord(r)
	if err != nil {
		h.logger.Warn("decoding body failed", "error", err)
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.provider.Create(r.Context(), collName, record)
	if err != nil {
		h.logger.Error("insert failed", "collection", collName, "error", err)
		writeError(w, err)
		return
	}

	h.logger.Info("inserted record", "collection", collName, "id", created["_id"])
	writeJSON(w, http.StatusCreated, created)
}
