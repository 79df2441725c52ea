package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/ned/internal/metrics"
	"github.com/OFFIS-RIT/ned/internal/util"
	"github.com/OFFIS-RIT/ned/pkg/common"
	"github.com/OFFIS-RIT/ned/pkg/graph"
	"github.com/OFFIS-RIT/ned/pkg/leaselock"
	"github.com/OFFIS-RIT/ned/pkg/loader"
	"github.com/OFFIS-RIT/ned/pkg/logger"
	"github.com/OFFIS-RIT/ned/pkg/oracle"
	"github.com/OFFIS-RIT/ned/pkg/store"
)

// Locker serialises work on one key across workers.
type Locker interface {
	WithLease(ctx context.Context, key string, opts leaselock.Options, fn func(ctx context.Context) error) error
}

// Processor handles disambiguate_queue messages.
type Processor struct {
	Graph   *graph.GraphClient
	Oracles oracle.Oracles
	Results store.ResultStore
	// Loader reads uploaded documents. Messages with a file key fail
	// permanently when it is nil.
	Loader loader.DocumentLoader
	Locks  Locker
	Lease  leaselock.Options
}

// ProcessDisambiguateMessage disambiguates the document named in body and
// stores its result. Returned errors are retried unless marked permanent;
// a document that fails for a non-retryable reason is stored as failed and
// the message counts as handled.
func (p *Processor) ProcessDisambiguateMessage(ctx context.Context, body []byte) error {
	msg, err := DecodeMessage(body)
	if err != nil {
		return util.Permanent(err)
	}

	run := func(ctx context.Context) error {
		return p.process(ctx, msg)
	}
	if p.Locks == nil {
		return run(ctx)
	}
	return p.Locks.WithLease(ctx, leaselock.DocumentKey(msg.DocumentID), p.Lease, run)
}

func (p *Processor) process(ctx context.Context, msg DisambiguateMsg) error {
	rec, err := p.Results.GetDocument(ctx, msg.DocumentID)
	if errors.Is(err, store.ErrNotFound) {
		return util.Permanent(fmt.Errorf("document %s: %w", msg.DocumentID, err))
	}
	if err != nil {
		return err
	}
	if rec.Status != store.StatusPending {
		logger.Info("[Queue] Document already processed", "document_id", msg.DocumentID, "status", rec.Status)
		return nil
	}

	mentions, err := p.mentions(ctx, msg, rec)
	if err != nil {
		if util.IsPermanent(err) {
			return p.fail(ctx, msg.DocumentID, err)
		}
		return err
	}

	start := time.Now()
	res, err := p.Graph.Disambiguate(ctx, mentions, p.Oracles)
	metrics.RecordDocument(err, time.Since(start))
	if err != nil {
		if ctx.Err() != nil || oracle.IsTransient(err) {
			return util.Retryable(err)
		}
		return p.fail(ctx, msg.DocumentID, err)
	}

	logger.Info(
		"[Queue] Document disambiguated",
		"document_id", msg.DocumentID,
		"mentions", len(mentions),
		"resolved", len(res),
		"duration", time.Since(start),
	)
	return p.Results.SaveResult(ctx, common.DocumentResult{
		DocumentID:      msg.DocumentID,
		Disambiguations: res,
	})
}

func (p *Processor) mentions(ctx context.Context, msg DisambiguateMsg, rec store.DocumentRecord) ([]string, error) {
	if msg.FileKey == "" {
		return rec.Mentions, nil
	}
	if p.Loader == nil {
		return nil, util.Permanent(errors.New("no document loader configured"))
	}
	file := loader.NewDocumentFile(loader.NewDocumentFileParams{
		ID:       msg.DocumentID,
		FilePath: msg.FileKey,
		Format:   msg.Format,
		Loader:   p.Loader,
	})
	data, err := file.GetBytes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %w", msg.DocumentID, err)
	}
	mentions, err := loader.ParseMentions(file.Format, data)
	if err != nil {
		return nil, util.Permanent(err)
	}
	return mentions, nil
}

func (p *Processor) fail(ctx context.Context, id string, cause error) error {
	logger.Error("[Queue] Document failed", "document_id", id, "err", cause)
	return p.Results.SaveResult(ctx, common.DocumentResult{
		DocumentID: id,
		Err:        cause,
		Error:      cause.Error(),
	})
}
