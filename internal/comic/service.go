package comic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/comichub/service/internal/storage"
	"github.com/comichub/service/internal/upload"
)

// minComicImages is the minimum-asset requirement for a comic record.
const minComicImages = 1

// ErrNoImagesStored is returned when an upload batch produced no stored
// images; no comic record is created and any stored assets are released.
var ErrNoImagesStored = errors.New("no images were stored")

// ErrForbidden is returned when a user acts on a comic they do not own.
var ErrForbidden = errors.New("not the comic's author")

// ErrNoDownloadableAsset is returned when a presigned download is requested
// for a page that has no real store key (placeholder pages in degraded mode).
var ErrNoDownloadableAsset = errors.New("page has no downloadable asset")

// Repo is the subset of repository operations the service depends on, so the
// publish flow can be tested against a fake datastore.
type Repo interface {
	Create(ctx context.Context, authorID, title, description, tags string, imageURLs, imageKeys []string) (*Comic, error)
	GetByID(ctx context.Context, id string) (*Comic, error)
	List(ctx context.Context, limit, offset int) ([]Comic, int, error)
	ListByAuthor(ctx context.Context, authorID string, limit, offset int) ([]Comic, int, error)
	Search(ctx context.Context, q string, limit, offset int) ([]Comic, int, error)
	Delete(ctx context.Context, id string) error
}

// Service contains business logic for publishing and managing comics.
type Service struct {
	repo    Repo
	store   storage.ObjectStore
	uploads *upload.Orchestrator
	cleanup *upload.Lifecycle
	policy  upload.Policy
}

// NewService creates a new comic Service. policy is the comic upload policy.
func NewService(repo Repo, store storage.ObjectStore, uploads *upload.Orchestrator, cleanup *upload.Lifecycle, policy upload.Policy) *Service {
	return &Service{repo: repo, store: store, uploads: uploads, cleanup: cleanup, policy: policy}
}

// Publish runs the upload pipeline for the submitted page images and creates
// the comic record once the minimum-asset requirement is met. Page order in
// the stored record equals submission order. If the batch falls short of the
// minimum, or the record insert fails, every stored asset of this batch is
// released and no record exists afterward.
func (s *Service) Publish(ctx context.Context, authorID, title, description, tags string, candidates []upload.Candidate) (*Comic, upload.BatchResult, error) {
	res := s.uploads.ProcessBatch(ctx, storage.FolderComics, authorID, candidates, s.policy)
	if !res.MeetsMinimum(minComicImages) {
		s.cleanup.Release(ctx, res.Keys())
		return nil, res, ErrNoImagesStored
	}

	assets := res.Assets()
	urls := make([]string, len(assets))
	keys := make([]string, 0, len(assets))
	for i, a := range assets {
		urls[i] = a.URL
		if a.Key != "" {
			keys = append(keys, a.Key)
		}
	}

	c, err := s.repo.Create(ctx, authorID, title, description, tags, urls, keys)
	if err != nil {
		s.cleanup.Release(ctx, res.Keys())
		return nil, res, fmt.Errorf("create comic record: %w", err)
	}
	return c, res, nil
}

// Get returns a comic by id.
func (s *Service) Get(ctx context.Context, id string) (*Comic, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns a page of comics, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Comic, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// ListByAuthor returns a page of one author's comics.
func (s *Service) ListByAuthor(ctx context.Context, authorID string, limit, offset int) ([]Comic, int, error) {
	return s.repo.ListByAuthor(ctx, authorID, limit, offset)
}

// Search returns comics matching q in title, description, or tags.
func (s *Service) Search(ctx context.Context, q string, limit, offset int) ([]Comic, int, error) {
	return s.repo.Search(ctx, q, limit, offset)
}

// Delete removes a comic owned by requesterID and releases its stored page
// objects best-effort after the row is gone.
func (s *Service) Delete(ctx context.Context, id, requesterID string) error {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if c.AuthorID != requesterID {
		return ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cleanup.Release(ctx, c.ImageKeys)
	return nil
}

// DownloadURL produces a time-limited presigned URL for one page of a comic.
func (s *Service) DownloadURL(ctx context.Context, id string, page int, ttl time.Duration) (string, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if page < 0 || page >= len(c.ImageKeys) {
		return "", ErrNoDownloadableAsset
	}
	return s.store.Presign(ctx, c.ImageKeys[page], ttl)
}

// IsNotFound returns true when the error indicates a comic was not found.
func (s *Service) IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
