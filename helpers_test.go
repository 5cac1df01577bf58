package auth_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"

	auth "github.com/goliatone/go-cyberconnect"
)

const testSigningKey = "test-signing-key"

// MockFederatedVerifier implements auth.FederatedVerifier
type MockFederatedVerifier struct {
	mock.Mock
}

func (m *MockFederatedVerifier) Verify(ctx context.Context, token string) (*auth.FederatedIdentity, error) {
	args := m.Called(ctx, token)
	if fid, ok := args.Get(0).(*auth.FederatedIdentity); ok {
		return fid, args.Error(1)
	}
	return nil, args.Error(1)
}

type testEnv struct {
	db     *bun.DB
	repo   auth.RepositoryManager
	tokens *auth.JWTTokenService
	auther *auth.Auther
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := auth.OpenDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, auth.Migrate(context.Background(), db))
	return db
}

func newTestEnv(t *testing.T, opts ...auth.AutherOption) *testEnv {
	t.Helper()

	db := newTestDB(t)
	repo := auth.NewRepositoryManager(db)
	require.NoError(t, repo.Validate())

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		SigningKey: testSigningKey,
		Issuer:     "cyberconnect",
	}, auth.WithTokenLogger(auth.NopLogger()))
	require.NoError(t, err)

	base := []auth.AutherOption{
		auth.WithLogger(auth.NopLogger()),
		auth.WithPasswordHasher(auth.NewBcryptHasher(bcrypt.MinCost)),
		auth.WithActivitySink(auth.NewActionLogSink(repo.ActionLogs())),
		auth.WithActionLogs(repo.ActionLogs()),
	}

	auther, err := auth.NewAuthenticator(repo.Users(), tokens, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(auther.WaitActivity)

	return &testEnv{
		db:     db,
		repo:   repo,
		tokens: tokens,
		auther: auther,
	}
}

func (e *testEnv) register(t *testing.T, name, email string) *auth.AuthResult {
	t.Helper()

	result, err := e.auther.Register(context.Background(), auth.RegisterInput{
		Name:     name,
		Email:    email,
		Password: "password123",
	})
	require.NoError(t, err)
	return result
}

// promote changes the stored role of id
func (e *testEnv) promote(t *testing.T, id uuid.UUID, role auth.UserRole) {
	t.Helper()

	ctx := context.Background()
	user, err := e.repo.Users().FindByID(ctx, id)
	require.NoError(t, err)

	user.Role = role
	_, err = e.repo.Users().Save(ctx, user)
	require.NoError(t, err)
}

func identityOf(result *auth.AuthResult) *auth.IdentityContext {
	return &auth.IdentityContext{ID: result.User.ID, Role: result.User.Role}
}
