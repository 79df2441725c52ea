package store

import (
	"context"
	"errors"
	"time"

	"github.com/OFFIS-RIT/ned/pkg/common"
	"github.com/OFFIS-RIT/ned/pkg/oracle"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("not found")

// OracleStore persists knowledge-base answers so a run can be repeated
// without network access. Every getter reports whether the entry exists;
// a stored empty answer exists.
type OracleStore interface {
	GetCandidates(ctx context.Context, mention string) ([]string, bool, error)
	PutCandidates(ctx context.Context, mention string, candidates []string) error

	GetLinks(ctx context.Context, title string) ([]string, bool, error)
	PutLinks(ctx context.Context, title string, links []string) error

	GetBacklinkPage(ctx context.Context, title string, continuation string) (oracle.BacklinkPage, bool, error)
	PutBacklinkPage(ctx context.Context, title string, continuation string, page oracle.BacklinkPage) error
}

// Status is the processing state of a stored document.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// DocumentRecord is a submitted document and, once processed, its result.
type DocumentRecord struct {
	ID              string                 `json:"id"`
	Status          Status                 `json:"status"`
	Mentions        []string               `json:"mentions"`
	Disambiguations common.Disambiguations `json:"disambiguations,omitempty"`
	Error           string                 `json:"error,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// ResultStore keeps submitted documents and their disambiguation results.
type ResultStore interface {
	CreateDocument(ctx context.Context, doc common.Document) error
	GetDocument(ctx context.Context, id string) (DocumentRecord, error)
	SaveResult(ctx context.Context, result common.DocumentResult) error
}

// Storage bundles both stores, as provided by one database.
type Storage interface {
	OracleStore
	ResultStore
}

// RecordFromResult derives the stored state of a processed document.
func RecordFromResult(rec DocumentRecord, result common.DocumentResult) DocumentRecord {
	rec.Disambiguations = result.Disambiguations
	rec.Error = result.Error
	if result.Err != nil && rec.Error == "" {
		rec.Error = result.Err.Error()
	}
	if rec.Error != "" {
		rec.Status = StatusFailed
	} else {
		rec.Status = StatusCompleted
	}
	return rec
}
