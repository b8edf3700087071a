package auth

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/comichub/service/internal/config"
	"github.com/comichub/service/internal/storage"
	"github.com/comichub/service/internal/upload"
	"github.com/comichub/service/internal/user"
)

type fakeUserRepo struct {
	byEmail map[string]*user.User
	hashes  map[string]string
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: map[string]*user.User{}, hashes: map[string]string{}}
}

func (f *fakeUserRepo) Create(ctx context.Context, username, email, hash string) (*user.User, error) {
	if _, ok := f.byEmail[email]; ok {
		return nil, user.ErrAlreadyExists
	}
	u := &user.User{ID: "id-" + username, Username: username, Email: email}
	f.byEmail[email] = u
	f.hashes[email] = hash
	return u, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*user.User, error) {
	return nil, user.ErrNotFound
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	return nil, user.ErrNotFound
}

func (f *fakeUserRepo) UpdateProfile(ctx context.Context, id string, bio *string) (*user.User, error) {
	return nil, user.ErrNotFound
}

func (f *fakeUserRepo) ReplaceAvatar(ctx context.Context, id, url, key string) (*string, *user.User, error) {
	return nil, nil, user.ErrNotFound
}

func (f *fakeUserRepo) ClearAvatar(ctx context.Context, id string) (*string, error) {
	return nil, user.ErrNotFound
}

func (f *fakeUserRepo) PasswordHashByEmail(ctx context.Context, email string) (*user.User, string, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, "", user.ErrNotFound
	}
	return u, f.hashes[email], nil
}

func newAuthService(repo *fakeUserRepo) *Service {
	cfg := &config.Config{JWTSecret: "test-secret"}
	store := storage.NewMemory("http://store.test")
	userSvc := user.NewService(repo, upload.NewOrchestrator(store), upload.NewLifecycle(store), upload.Policy{})
	return NewService(repo, userSvc, cfg)
}

func TestRegisterIssuesParsableToken(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newAuthService(repo)

	token, u, err := svc.Register(context.Background(), "kaida", "kaida@example.com", "correct horse")
	require.NoError(t, err)
	require.NotNil(t, u)

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, u.ID, claims["sub"])
	assert.Equal(t, "kaida", claims["username"])
}

func TestRegisterStoresHashNotPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newAuthService(repo)

	_, _, err := svc.Register(context.Background(), "kaida", "kaida@example.com", "correct horse")
	require.NoError(t, err)

	hash := repo.hashes["kaida@example.com"]
	assert.NotEqual(t, "correct horse", hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("correct horse")))
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc := newAuthService(newFakeUserRepo())

	_, _, err := svc.Register(context.Background(), "kaida", "kaida@example.com", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newAuthService(repo)

	_, _, err := svc.Register(context.Background(), "kaida", "kaida@example.com", "correct horse")
	require.NoError(t, err)

	token, u, err := svc.Login(context.Background(), "kaida@example.com", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "kaida", u.Username)

	_, _, err = svc.Login(context.Background(), "kaida@example.com", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(context.Background(), "nobody@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "unknown email is indistinguishable from bad password")
}
