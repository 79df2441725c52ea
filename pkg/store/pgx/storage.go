// Package pgx implements store.Storage on PostgreSQL.
package pgx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/ned/internal/util"
	"github.com/OFFIS-RIT/ned/pkg/common"
	"github.com/OFFIS-RIT/ned/pkg/logger"
	"github.com/OFFIS-RIT/ned/pkg/oracle"
	"github.com/OFFIS-RIT/ned/pkg/store"

	"github.com/goccy/go-json"
	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
}

// DBStorage implements store.Storage. Schema lives in the migrations
// directory.
type DBStorage struct {
	conn pgxIConn
}

// NewDBStorageWithConnection creates a DBStorage on an existing pool or
// connection.
func NewDBStorageWithConnection(conn pgxIConn) *DBStorage {
	return &DBStorage{conn: conn}
}

func (s *DBStorage) GetCandidates(ctx context.Context, mention string) ([]string, bool, error) {
	return s.getTitles(ctx, getCandidatesSQL, mention)
}

func (s *DBStorage) PutCandidates(ctx context.Context, mention string, candidates []string) error {
	if candidates == nil {
		candidates = []string{}
	}
	_, err := s.conn.Exec(ctx, putCandidatesSQL, mention, candidates)
	return err
}

func (s *DBStorage) GetLinks(ctx context.Context, title string) ([]string, bool, error) {
	return s.getTitles(ctx, getLinksSQL, title)
}

func (s *DBStorage) PutLinks(ctx context.Context, title string, links []string) error {
	if links == nil {
		links = []string{}
	}
	_, err := s.conn.Exec(ctx, putLinksSQL, title, links)
	return err
}

func (s *DBStorage) getTitles(ctx context.Context, sql string, key string) ([]string, bool, error) {
	var titles []string
	err := s.conn.QueryRow(ctx, sql, key).Scan(&titles)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return titles, true, nil
}

func (s *DBStorage) GetBacklinkPage(ctx context.Context, title string, continuation string) (oracle.BacklinkPage, bool, error) {
	var page oracle.BacklinkPage
	err := s.conn.QueryRow(ctx, getBacklinkPageSQL, title, continuation).Scan(&page.Count, &page.Next)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return oracle.BacklinkPage{}, false, nil
	}
	if err != nil {
		return oracle.BacklinkPage{}, false, err
	}
	return page, true, nil
}

func (s *DBStorage) PutBacklinkPage(ctx context.Context, title string, continuation string, page oracle.BacklinkPage) error {
	_, err := s.conn.Exec(ctx, putBacklinkPageSQL, title, continuation, page.Count, page.Next)
	return err
}

func (s *DBStorage) CreateDocument(ctx context.Context, doc common.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document id is empty")
	}
	mentions := util.SanitizePostgresTexts(doc.Mentions)
	_, err := s.conn.Exec(ctx, createDocumentSQL, doc.ID, string(store.StatusPending), mentions)
	if err != nil {
		return fmt.Errorf("failed to create document %q: %w", doc.ID, err)
	}
	logger.Debug("[Store] Document created", "id", doc.ID, "mentions", len(mentions))
	return nil
}

func (s *DBStorage) GetDocument(ctx context.Context, id string) (store.DocumentRecord, error) {
	var (
		rec    store.DocumentRecord
		status string
		raw    []byte
	)
	err := s.conn.QueryRow(ctx, getDocumentSQL, id).Scan(
		&rec.ID,
		&status,
		&rec.Mentions,
		&raw,
		&rec.Error,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return store.DocumentRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.DocumentRecord{}, err
	}
	rec.Status = store.Status(status)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &rec.Disambiguations); err != nil {
			return store.DocumentRecord{}, fmt.Errorf("failed to decode result of %q: %w", id, err)
		}
	}
	return rec, nil
}

func (s *DBStorage) SaveResult(ctx context.Context, result common.DocumentResult) error {
	rec := store.RecordFromResult(store.DocumentRecord{}, result)

	var raw *string
	if rec.Disambiguations != nil {
		b, err := json.Marshal(rec.Disambiguations)
		if err != nil {
			return err
		}
		str := string(b)
		raw = &str
	}

	errText := util.SanitizePostgresText(rec.Error)
	tag, err := s.conn.Exec(ctx, saveResultSQL, result.DocumentID, string(rec.Status), raw, errText, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save result of %q: %w", result.DocumentID, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

const getCandidatesSQL = `SELECT candidates FROM ned_candidates WHERE mention = $1`

const putCandidatesSQL = `
INSERT INTO ned_candidates (mention, candidates, fetched_at)
VALUES ($1, $2, now())
ON CONFLICT (mention) DO UPDATE
SET candidates = EXCLUDED.candidates,
    fetched_at = EXCLUDED.fetched_at
`

const getLinksSQL = `SELECT links FROM ned_links WHERE title = $1`

const putLinksSQL = `
INSERT INTO ned_links (title, links, fetched_at)
VALUES ($1, $2, now())
ON CONFLICT (title) DO UPDATE
SET links      = EXCLUDED.links,
    fetched_at = EXCLUDED.fetched_at
`

const getBacklinkPageSQL = `
SELECT count, next FROM ned_backlink_pages
WHERE title = $1 AND continuation = $2
`

const putBacklinkPageSQL = `
INSERT INTO ned_backlink_pages (title, continuation, count, next, fetched_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (title, continuation) DO UPDATE
SET count      = EXCLUDED.count,
    next       = EXCLUDED.next,
    fetched_at = EXCLUDED.fetched_at
`

const createDocumentSQL = `
INSERT INTO ned_documents (id, status, mentions)
VALUES ($1, $2, $3)
`

const getDocumentSQL = `
SELECT id, status, mentions, disambiguations, error, created_at, updated_at
FROM ned_documents
WHERE id = $1
`

const saveResultSQL = `
UPDATE ned_documents
SET status          = $2,
    disambiguations = $3::jsonb,
    error           = $4,
    updated_at      = $5
WHERE id = $1
`
