package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/comichub/service/internal/storage"
	"github.com/comichub/service/internal/upload"
)

// ErrAvatarNotStored is returned when the avatar upload did not produce the
// one required stored asset; the user record is left untouched.
var ErrAvatarNotStored = errors.New("avatar was not stored")

// Repo is the subset of repository operations the service depends on, so the
// avatar flow can be tested against a fake datastore.
type Repo interface {
	Create(ctx context.Context, username, email, passwordHash string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	UpdateProfile(ctx context.Context, id string, bio *string) (*User, error)
	ReplaceAvatar(ctx context.Context, id, url, key string) (*string, *User, error)
	ClearAvatar(ctx context.Context, id string) (*string, error)
}

// Service contains business logic for user management and avatar lifecycle.
type Service struct {
	repo    Repo
	uploads *upload.Orchestrator
	cleanup *upload.Lifecycle
	policy  upload.Policy
}

// NewService creates a new user Service. policy is the avatar upload policy
// (single file, small size ceiling).
func NewService(repo Repo, uploads *upload.Orchestrator, cleanup *upload.Lifecycle, policy upload.Policy) *Service {
	return &Service{repo: repo, uploads: uploads, cleanup: cleanup, policy: policy}
}

// Create registers a new user account.
func (s *Service) Create(ctx context.Context, username, email, passwordHash string) (*User, error) {
	u, err := s.repo.Create(ctx, username, email, passwordHash)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByID returns a user by their UUID.
func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// UsernameTaken reports whether a username is already registered.
func (s *Service) UsernameTaken(ctx context.Context, username string) (bool, error) {
	_, err := s.repo.GetByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// UpdateProfile updates the user's mutable profile fields.
func (s *Service) UpdateProfile(ctx context.Context, id string, bio *string) (*User, error) {
	return s.repo.UpdateProfile(ctx, id, bio)
}

// SetAvatar runs the upload pipeline for the single avatar candidate, repoints
// the user's avatar reference at the stored asset, and then deletes the
// previous avatar object best-effort. The record is only mutated after the
// new asset is durably stored; the old object is only deleted after the
// repoint has committed.
func (s *Service) SetAvatar(ctx context.Context, userID string, c upload.Candidate) (*User, upload.BatchResult, error) {
	res := s.uploads.ProcessBatch(ctx, storage.FolderAvatars, userID, []upload.Candidate{c}, s.policy)
	if !res.MeetsMinimum(1) {
		return nil, res, ErrAvatarNotStored
	}

	asset := res.Assets()[0]
	prevKey, u, err := s.repo.ReplaceAvatar(ctx, userID, asset.URL, asset.Key)
	if err != nil {
		// The record was not repointed, so the freshly stored asset is an
		// orphan that will never be referenced.
		s.cleanup.Release(ctx, res.Keys())
		if errors.Is(err, ErrNotFound) {
			return nil, res, ErrNotFound
		}
		return nil, res, fmt.Errorf("replace avatar reference: %w", err)
	}

	if prevKey != nil {
		s.cleanup.Replace(ctx, []string{*prevKey})
	}
	return u, res, nil
}

// RemoveAvatar clears the user's avatar reference and releases the stored
// object best-effort.
func (s *Service) RemoveAvatar(ctx context.Context, userID string) error {
	prevKey, err := s.repo.ClearAvatar(ctx, userID)
	if err != nil {
		return err
	}
	if prevKey != nil {
		s.cleanup.Release(ctx, []string{*prevKey})
	}
	return nil
}

// IsNotFound returns true when the error indicates a user was not found.
func (s *Service) IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
