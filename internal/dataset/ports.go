package dataset

import (
	"context"

	"semmelweis/internal/core"
)

// Ports for dataset backends.
type (
	// Source reads the yearly births/deaths table from somewhere.
	Source interface {
		// Name identifies the source in logs, e.g. "csv:data/x.csv".
		Name() string
		// Fingerprint identifies the current version of the underlying data.
		// It must change whenever Load would return different records.
		Fingerprint(ctx context.Context) (string, error)
		// Load reads and validates every record.
		Load(ctx context.Context) ([]core.Record, error)
	}
)
