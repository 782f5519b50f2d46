// Package archive keeps an audit copy of every accepted batch payload
// in object storage. Archiving is asynchronous and best-effort; it
// never affects the outcome of an import.
package archive

import (
	"bytes"
	"context"
	"io"

	"github.com/bhagyaj/Markr/internal/ingest"
	"github.com/bhagyaj/Markr/internal/logger"
	"github.com/bhagyaj/Markr/internal/storage"
	"github.com/bhagyaj/Markr/internal/worker"
	"github.com/bhagyaj/Markr/pkg/errors"

	"github.com/rs/zerolog"
)

const keyPrefix = "batches/"

type Archiver struct {
	store storage.Storage
	pool  *worker.Pool
	log   zerolog.Logger
}

func New(store storage.Storage, workers int) *Archiver {
	return &Archiver{
		store: store,
		pool:  worker.NewPool(workers),
		log:   logger.For("archive"),
	}
}

func (a *Archiver) Start(ctx context.Context) {
	a.pool.Start(ctx)
}

func (a *Archiver) Stop() {
	a.pool.Stop()
}

// Submit queues the raw payload of an accepted batch for upload under
// the batch id.
func (a *Archiver) Submit(batchID, contentKind string, payload []byte) {
	key := keyPrefix + batchID + extensionFor(contentKind)

	a.pool.Submit(func(ctx context.Context) error {
		if err := a.store.Upload(ctx, key, bytes.NewReader(payload)); err != nil {
			a.log.Error().Err(err).Str("key", key).Msg("Failed to archive batch")
			return err
		}
		a.log.Debug().Str("key", key).Msg("Batch archived")
		return nil
	})
}

// Fetch streams an archived batch payload back, along with the content
// kind it was submitted under. Returns ErrBatchNotFound when no object
// exists for the batch id.
func (a *Archiver) Fetch(ctx context.Context, batchID string) (io.ReadCloser, string, error) {
	kinds := map[string]string{
		".xml":  ingest.ContentKindXML,
		".xlsx": ingest.ContentKindExcel,
	}
	for _, ext := range []string{".xml", ".xlsx"} {
		key := keyPrefix + batchID + ext
		// S3 HeadObject errors on absent keys, so a lookup failure
		// just means this extension is not the one.
		ok, err := a.store.Exists(ctx, key)
		if err != nil || !ok {
			continue
		}
		rc, err := a.store.Download(ctx, key)
		if err != nil {
			a.log.Error().Err(err).Str("key", key).Msg("Failed to fetch archived batch")
			return nil, "", err
		}
		return rc, kinds[ext], nil
	}
	return nil, "", errors.ErrBatchNotFound
}

func extensionFor(contentKind string) string {
	if ingest.NormalizeContentKind(contentKind) == ingest.ContentKindExcel {
		return ".xlsx"
	}
	return ".xml"
}
