package storage

import "github.com/adfharrison1/go-blobdb/pkg/domain"

// Config selects and configures a backend
type Config struct {
	Backend     string
	DataFile    string
	MergeWrites bool
	Force       bool
	SQLitePath  string
	Slot        string
	HTTPURL     string
	HTTPRetries int
	HTTPHeaders map[string]string
}

// New creates a Backend based on the backend name.
//
// Supported backends:
//
//	"memory" - in-memory slot with conflict detection (default)
//	"file"   - JSON file at DataFile
//	"godb"   - binary .godb file at DataFile
//	"sqlite" - row Slot in the SQLite database at SQLitePath
//	"http"   - remote slot at HTTPURL
func New(cfg Config, options ...StorageOption) (domain.Backend, error) {
	options = append([]StorageOption{WithForce(cfg.Force)}, options...)

	switch cfg.Backend {
	case "memory", "":
		return NewMemoryStorage(options...), nil
	case "file":
		options = append(options, WithMergeWrites(cfg.MergeWrites), WithCodec(JSONCodec{}))
		return NewFileStorage(cfg.DataFile, options...)
	case "godb":
		options = append(options, WithMergeWrites(cfg.MergeWrites), WithCodec(GodbCodec{}))
		return NewFileStorage(cfg.DataFile, options...)
	case "sqlite":
		return NewSQLiteStorage(cfg.SQLitePath, cfg.Slot, options...)
	case "http":
		options = append(options, WithHTTPRetries(cfg.HTTPRetries), WithHTTPHeaders(cfg.HTTPHeaders))
		return NewHTTPStorage(cfg.HTTPURL, options...)
	default:
		return nil, domain.NewArgumentError("unknown storage backend: %q (supported: memory, file, godb, sqlite, http)", cfg.Backend)
	}
}
