package api

import (
	"github.com/hashicorp/go-hclog"

	"github.com/adfharrison1/go-blobdb/pkg/domain"
)

// Handler provides HTTP handlers for the record API
type Handler struct {
	provider domain.RecordProvider
	logger   hclog.Logger
}

// NewHandler creates a new API handler with dependency injection
func NewHandler(provider domain.RecordProvider, logger hclog.Logger) *Handler {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Handler{
		provider: provider,
		logger:   logger,
	}
}
