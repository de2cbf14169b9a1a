package storage

import (
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"github.com/adfharrison1/go-blobdb/pkg/domain"
)

type storageOptions struct {
	defaultData *domain.Document
	mergeWrites bool
	force       bool
	codec       Codec
	fs          afero.Fs
	logger      hclog.Logger
	httpRetries int
	httpHeaders map[string]string
}

func defaultStorageOptions() storageOptions {
	return storageOptions{
		defaultData: domain.NewDocument(),
		mergeWrites: true,
		codec:       JSONCodec{},
		fs:          afero.NewOsFs(),
		logger:      hclog.NewNullLogger(),
		httpRetries: 2,
	}
}

func applyOptions(options []StorageOption) storageOptions {
	opts := defaultStorageOptions()
	for _, option := range options {
		option(&opts)
	}
	return opts
}

// emptyDocument returns a fresh copy of the configured default document
func (o storageOptions) emptyDocument() *domain.Document {
	doc := o.defaultData.Clone()
	doc.Revision = ""
	return doc
}

type StorageOption func(*storageOptions)

// WithDefaultData sets the document returned while nothing has been stored
func WithDefaultData(doc *domain.Document) StorageOption {
	return func(opts *storageOptions) {
		if doc == nil {
			doc = domain.NewDocument()
		}
		opts.defaultData = doc.Clone()
	}
}

// WithMergeWrites makes file writes keep collections that are on disk but
// missing from the written document (default: true)
func WithMergeWrites(enabled bool) StorageOption {
	return func(opts *storageOptions) {
		opts.mergeWrites = enabled
	}
}

// WithForce disables conflict detection: every write wins
func WithForce(enabled bool) StorageOption {
	return func(opts *storageOptions) {
		opts.force = enabled
	}
}

func WithCodec(codec Codec) StorageOption {
	return func(opts *storageOptions) {
		opts.codec = codec
	}
}

// WithFs sets the filesystem used by file backends
func WithFs(fs afero.Fs) StorageOption {
	return func(opts *storageOptions) {
		opts.fs = fs
	}
}

func WithLogger(logger hclog.Logger) StorageOption {
	return func(opts *storageOptions) {
		opts.logger = logger
	}
}

// WithHTTPRetries sets how often transport-level failures are retried
func WithHTTPRetries(retries int) StorageOption {
	return func(opts *storageOptions) {
		opts.httpRetries = retries
	}
}

// WithHTTPHeaders adds headers to every request
func WithHTTPHeaders(headers map[string]string) StorageOption {
	return func(opts *storageOptions) {
		opts.httpHeaders = headers
	}
}
