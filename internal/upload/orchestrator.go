package upload

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/comichub/service/internal/storage"
)

// maxConcurrentFiles bounds the per-batch fan-out so a large batch cannot
// monopolize CPU (image transcoding) or store connections.
const maxConcurrentFiles = 4

// Orchestrator coordinates validate -> optimize -> store across a batch of
// candidates. Safe for concurrent use by multiple in-flight requests.
type Orchestrator struct {
	store storage.ObjectStore
	now   func() time.Time
}

// NewOrchestrator creates an Orchestrator backed by the given store.
func NewOrchestrator(store storage.ObjectStore) *Orchestrator {
	return &Orchestrator{store: store, now: time.Now}
}

// ProcessBatch runs the pipeline for every candidate and reports per-file
// outcomes in submission order, regardless of completion order.
//
// Validation failures do not abort the batch: the remaining files are still
// attempted, and the caller decides commit or abort based on whether its
// minimum-asset requirement was met. When the store reports it is not
// configured, the batch switches to degraded mode: every candidate that passed
// validation receives a placeholder URL and the result is flagged so the
// caller can warn the user.
func (o *Orchestrator) ProcessBatch(ctx context.Context, folder, ownerID string, candidates []Candidate, policy Policy) BatchResult {
	results := make([]FileResult, len(candidates))
	for i, c := range candidates {
		results[i] = FileResult{Filename: c.Filename}
	}

	if err := ValidateBatchSize(len(candidates), policy); err != nil {
		for i := range results {
			results[i].Err = err
		}
		return BatchResult{Files: results}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFiles)

	for i, c := range candidates {
		if err := Validate(c, policy); err != nil {
			results[i].Err = err
			continue
		}

		i, c := i, c
		g.Go(func() error {
			asset, err := o.processOne(gctx, folder, ownerID, c)
			if err != nil {
				results[i].Err = err
				return nil // per-file errors are recovered into the result
			}
			results[i].Asset = &asset
			return nil
		})
	}
	_ = g.Wait()

	batch := BatchResult{Files: results}
	if o.storeUnavailable(results) {
		o.degrade(&batch, ownerID, candidates, policy)
	}
	return batch
}

// processOne optimizes one accepted candidate and writes it to the store.
func (o *Orchestrator) processOne(ctx context.Context, folder, ownerID string, c Candidate) (storage.Asset, error) {
	optimized, err := Optimize(c.Data)
	if err != nil {
		return storage.Asset{}, err
	}

	key := storage.ObjectKey(folder, ownerID, c.Filename, o.now())
	asset, err := o.store.Put(ctx, key, optimized, OptimizedContentType)
	if err != nil {
		return storage.Asset{}, err
	}
	return asset, nil
}

// storeUnavailable reports whether any file failed because the store cannot
// serve requests at all, which taints the whole batch.
func (o *Orchestrator) storeUnavailable(results []FileResult) bool {
	for _, r := range results {
		if r.Err != nil && storage.IsNotConfigured(r.Err) {
			return true
		}
	}
	return false
}

// degrade substitutes a placeholder URL for every candidate that passed
// validation. Validation rejections keep their original per-file reason.
func (o *Orchestrator) degrade(batch *BatchResult, ownerID string, candidates []Candidate, policy Policy) {
	batch.Degraded = true
	stamp := o.now().UnixMilli()
	served := 0
	for i, c := range candidates {
		if Validate(c, policy) != nil {
			continue
		}
		batch.Files[i].Err = nil
		batch.Files[i].Asset = &storage.Asset{
			URL: fmt.Sprintf("https://picsum.photos/800/1200?random=%d-%d", stamp, i),
		}
		served++
	}
	log.Printf("upload: object store unavailable, served %d placeholder URLs (owner=%s)", served, ownerID)
}
