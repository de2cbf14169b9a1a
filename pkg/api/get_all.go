package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/adfharrison1/go-blobdb/pkg/domain"
)

// HandleGetAll handles GET requests for every record of a collection,
// optionally narrowed by query parameters
func (h *Handler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]

	h.logger.Debug("handleGetAll called", "collection", collName)

	records, err := h.provider.GetAll(r.Context(), collName)
	if err != nil {
		h.logger.Error("get all failed", "collection", collName, "error", err)
		writeError(w, err)
		return
	}

	filter := parseFilter(r.URL.Query())
	if len(filter) > 0 {
		matched := make([]domain.Record, 0, len(records))
		for _, record := range records {
			if MatchesFilter(record, filter) {
				matched = append(matched, record)
			}
		}
		records = matched
	}

	h.logger.Debug("found records", "collection", collName, "count", len(records), "filter", filter)
	writeJSON(w, http.StatusOK, records)
}
