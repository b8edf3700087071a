package comic

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comichub/service/internal/storage"
	"github.com/comichub/service/internal/upload"
)

type fakeRepo struct {
	comics    map[string]*Comic
	createErr error
	created   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{comics: map[string]*Comic{}}
}

func (f *fakeRepo) Create(ctx context.Context, authorID, title, description, tags string, urls, keys []string) (*Comic, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created++
	c := &Comic{
		ID:        "comic-1",
		AuthorID:  authorID,
		Title:     title,
		ImageURLs: urls,
		ImageKeys: keys,
		CreatedAt: time.Now(),
	}
	f.comics[c.ID] = c
	return c, nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id string) (*Comic, error) {
	c, ok := f.comics[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (f *fakeRepo) List(ctx context.Context, limit, offset int) ([]Comic, int, error) {
	return nil, 0, nil
}

func (f *fakeRepo) ListByAuthor(ctx context.Context, authorID string, limit, offset int) ([]Comic, int, error) {
	return nil, 0, nil
}

func (f *fakeRepo) Search(ctx context.Context, q string, limit, offset int) ([]Comic, int, error) {
	return nil, 0, nil
}

func (f *fakeRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.comics[id]; !ok {
		return ErrNotFound
	}
	delete(f.comics, id)
	return nil
}

func comicPolicy() upload.Policy {
	return upload.Policy{
		AllowedMimeTypes:   []string{"image/jpeg", "image/png"},
		MaxFileSizeBytes:   50 << 20,
		MaxFilesPerRequest: 10,
	}
}

func jpegCandidate(t *testing.T, name string) upload.Candidate {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 64, 48)), nil))
	return upload.Candidate{Filename: name, ContentType: "image/jpeg", Data: buf.Bytes()}
}

func newTestService(repo Repo, store storage.ObjectStore) *Service {
	return NewService(repo, store, upload.NewOrchestrator(store), upload.NewLifecycle(store), comicPolicy())
}

func TestPublishStoresAllPagesInOrder(t *testing.T) {
	repo := newFakeRepo()
	mem := storage.NewMemory("http://store.test")
	svc := newTestService(repo, mem)

	c, res, err := svc.Publish(context.Background(), "author-1", "My Comic", "desc", "action",
		[]upload.Candidate{jpegCandidate(t, "p1.jpg"), jpegCandidate(t, "p2.jpg"), jpegCandidate(t, "p3.jpg")})

	require.NoError(t, err)
	assert.Equal(t, 3, res.Succeeded())
	require.Len(t, c.ImageURLs, 3)
	require.Len(t, c.ImageKeys, 3)
	assert.Equal(t, 3, mem.Len())

	// Display order equals submission order.
	assert.Contains(t, c.ImageKeys[0], "p1.jpg")
	assert.Contains(t, c.ImageKeys[1], "p2.jpg")
	assert.Contains(t, c.ImageKeys[2], "p3.jpg")
	for _, key := range c.ImageKeys {
		assert.True(t, strings.HasPrefix(key, "comics/author-1/"))
	}
}

func TestPublishPartialSuccessAboveMinimum(t *testing.T) {
	repo := newFakeRepo()
	mem := storage.NewMemory("http://store.test")
	svc := newTestService(repo, mem)

	c, res, err := svc.Publish(context.Background(), "author-1", "t", "", "",
		[]upload.Candidate{
			jpegCandidate(t, "good.jpg"),
			{Filename: "corrupt.jpg", ContentType: "image/jpeg", Data: []byte("junk")},
		})

	require.NoError(t, err, "3-of-5 style partial success is accepted above the minimum")
	assert.Equal(t, 1, res.Succeeded())
	assert.Len(t, c.ImageURLs, 1)

	report := res.Report()
	assert.True(t, report[0].OK)
	assert.False(t, report[1].OK)
	assert.NotEmpty(t, report[1].Error)
}

func TestPublishZeroSuccessesNeverTouchesDatastore(t *testing.T) {
	repo := newFakeRepo()
	mem := storage.NewMemory("http://store.test")
	svc := newTestService(repo, mem)

	_, res, err := svc.Publish(context.Background(), "author-1", "t", "", "",
		[]upload.Candidate{
			{Filename: "a.jpg", ContentType: "image/jpeg", Data: []byte("junk")},
			{Filename: "b.pdf", ContentType: "application/pdf", Data: []byte("%PDF")},
		})

	require.ErrorIs(t, err, ErrNoImagesStored)
	assert.Equal(t, 0, repo.created, "the record must never be created for a failed batch")
	assert.Equal(t, 0, res.Succeeded())
	assert.Equal(t, 0, mem.Len())
}

func TestPublishRecordFailureReleasesStoredAssets(t *testing.T) {
	repo := newFakeRepo()
	repo.createErr = errors.New("db down")
	mem := storage.NewMemory("http://store.test")
	svc := newTestService(repo, mem)

	_, _, err := svc.Publish(context.Background(), "author-1", "t", "", "",
		[]upload.Candidate{jpegCandidate(t, "p1.jpg")})

	require.Error(t, err)
	assert.Equal(t, 0, mem.Len(), "assets of an uncommitted batch must be released")
}

func TestPublishDegradedMode(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, storage.NewDisabled())

	c, res, err := svc.Publish(context.Background(), "author-1", "t", "", "",
		[]upload.Candidate{jpegCandidate(t, "p1.jpg")})

	require.NoError(t, err, "uploads are not blocked when storage is down")
	assert.True(t, res.Degraded)
	require.Len(t, c.ImageURLs, 1)
	assert.Contains(t, c.ImageURLs[0], "picsum.photos")
	assert.Empty(t, c.ImageKeys)
}

func TestDeleteReleasesStoredObjects(t *testing.T) {
	repo := newFakeRepo()
	mem := storage.NewMemory("http://store.test")
	svc := newTestService(repo, mem)

	c, _, err := svc.Publish(context.Background(), "author-1", "t", "", "",
		[]upload.Candidate{jpegCandidate(t, "p1.jpg"), jpegCandidate(t, "p2.jpg")})
	require.NoError(t, err)
	require.Equal(t, 2, mem.Len())

	require.NoError(t, svc.Delete(context.Background(), c.ID, "author-1"))
	assert.Equal(t, 0, mem.Len())

	_, err = svc.Get(context.Background(), c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRejectsNonAuthor(t *testing.T) {
	repo := newFakeRepo()
	mem := storage.NewMemory("http://store.test")
	svc := newTestService(repo, mem)

	c, _, err := svc.Publish(context.Background(), "author-1", "t", "", "",
		[]upload.Candidate{jpegCandidate(t, "p1.jpg")})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), c.ID, "someone-else")
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, 1, mem.Len(), "nothing is deleted on a forbidden request")
}

func TestDownloadURL(t *testing.T) {
	repo := newFakeRepo()
	mem := storage.NewMemory("http://store.test")
	svc := newTestService(repo, mem)

	c, _, err := svc.Publish(context.Background(), "author-1", "t", "", "",
		[]upload.Candidate{jpegCandidate(t, "p1.jpg")})
	require.NoError(t, err)

	url, err := svc.DownloadURL(context.Background(), c.ID, 0, time.Hour)
	require.NoError(t, err)
	assert.Contains(t, url, "expires=")

	_, err = svc.DownloadURL(context.Background(), c.ID, 5, time.Hour)
	assert.ErrorIs(t, err, ErrNoDownloadableAsset)
}
