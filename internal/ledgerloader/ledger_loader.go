// Package ledgerloader batches per-request lookups of verification records.
// Every key requested within one batch window is answered from a single read
// of the ledger file.
package ledgerloader

import (
	"context"
	"fmt"
	"time"

	"github.com/graph-gophers/dataloader"

	"github.com/rpattn/vendorfair/internal/domain"
	"github.com/rpattn/vendorfair/internal/ledger"
)

// Reader loads the whole verification ledger.
type Reader interface {
	LoadLedger(ctx context.Context) ([]domain.VerificationRecord, error)
}

type LedgerLoader struct {
	Loader *dataloader.Loader
}

func NewLedgerLoader(reader Reader) *LedgerLoader {
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		records, err := reader.LoadLedger(ctx)
		if err != nil {
			results := make([]*dataloader.Result, len(keys))
			for i := range results {
				results[i] = &dataloader.Result{Error: err}
			}
			return results
		}

		index := ledger.Index(records)

		// Results must line up with keys; a missing record is a nil Data.
		results := make([]*dataloader.Result, len(keys))
		for i, k := range keys {
			key, ok := domain.ParseVerificationKey(k.String())
			if !ok {
				results[i] = &dataloader.Result{Error: fmt.Errorf("invalid verification key %q", k.String())}
				continue
			}
			if rec, ok := index[key]; ok {
				results[i] = &dataloader.Result{Data: rec}
			} else {
				results[i] = &dataloader.Result{Data: nil}
			}
		}
		return results
	}

	loader := dataloader.NewBatchedLoader(batchFn, dataloader.WithWait(2*time.Millisecond))
	return &LedgerLoader{Loader: loader}
}

// LoadMany resolves keys in one batch. The result is aligned with keys.
func (l *LedgerLoader) LoadMany(ctx context.Context, keys []domain.VerificationKey) ([]*domain.VerificationRecord, error) {
	if len(keys) == 0 {
		return []*domain.VerificationRecord{}, nil
	}
	loaderKeys := make(dataloader.Keys, len(keys))
	for i, key := range keys {
		loaderKeys[i] = dataloader.StringKey(key.String())
	}

	values, errs := l.Loader.LoadMany(ctx, loaderKeys)()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	out := make([]*domain.VerificationRecord, len(keys))
	for i, value := range values {
		if rec, ok := value.(domain.VerificationRecord); ok {
			out[i] = &rec
		}
	}
	return out, nil
}

type ctxKey string

const loaderKey ctxKey = "ledgerLoader"

// WithLoader stores loader in ctx.
func WithLoader(ctx context.Context, loader *LedgerLoader) context.Context {
	return context.WithValue(ctx, loaderKey, loader)
}

// FromContext retrieves the request's loader, if any.
func FromContext(ctx context.Context) *LedgerLoader {
	if l, ok := ctx.Value(loaderKey).(*LedgerLoader); ok {
		return l
	}
	return nil
}
