package api

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API routes with the given router
func (h *Handler) RegisterRoutes(router *mux.Router) {
	// Collection operations
	router.HandleFunc("/collections/{coll}", h.HandleGetAll).Methods("GET")
	router.HandleFunc("/collections/{coll}", h.HandleInsert).Methods("POST")

	// Record operations (by ID)
	router.HandleFunc("/collections/{coll}/records/{id}", h.HandleGetById).Methods("GET")
	router.HandleFunc("/collections/{coll}/records/{id}", h.HandleUpdateById).Methods("PATCH") // Partial update
	router.HandleFunc("/collections/{coll}/records/{id}", h.HandleReplaceById).Methods("PUT")  // Upsert
	router.HandleFunc("/collections/{coll}/records/{id}", h.HandleDeleteById).Methods("DELETE")

	router.HandleFunc("/health", h.HandleHealth).Methods("GET")
}
