package google_test

import (
	"context"
	"testing"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	auth "github.com/goliatone/go-cyberconnect"
	"github.com/goliatone/go-cyberconnect/provider/google"
)

func newProviderAuther(t *testing.T, verifier auth.FederatedVerifier) (*auth.Auther, auth.RepositoryManager) {
	t.Helper()

	ctx := context.Background()

	db, err := auth.OpenDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, auth.Migrate(ctx, db))

	repo := auth.NewRepositoryManager(db)
	require.NoError(t, repo.Validate())

	tokens, err := auth.NewTokenService(auth.TokenConfig{SigningKey: "provider-test-key"}, auth.WithTokenLogger(auth.NopLogger()))
	require.NoError(t, err)

	auther, err := auth.NewAuthenticator(repo.Users(), tokens,
		auth.WithLogger(auth.NopLogger()),
		auth.WithPasswordHasher(auth.NewBcryptHasher(bcrypt.MinCost)),
		auth.WithActionLogs(repo.ActionLogs()),
		auth.WithActivitySink(auth.NewActionLogSink(repo.ActionLogs())),
		auth.WithFederatedVerifier(verifier),
	)
	require.NoError(t, err)
	t.Cleanup(auther.WaitActivity)

	return auther, repo
}

func TestAutherWithJWKSVerifier_GoogleLogin(t *testing.T) {
	f := newJWKSFixture(t)
	auther, repo := newProviderAuther(t, f.verifier(t))
	ctx := context.Background()

	result, err := auther.LoginWithProvider(ctx, f.sign(t, validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "carol@example.com", result.User.Email)
	assert.NotEmpty(t, result.Token)

	stored, err := repo.Users().FindByEmail(ctx, "carol@example.com")
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, stored.ID)
}

func TestAutherWithJWKSVerifier_OtherClientID(t *testing.T) {
	f := newJWKSFixture(t)

	verifier, err := google.NewJWKSVerifier(google.Config{
		ClientID: "someone-else.apps.googleusercontent.com",
		JWKSURL:  f.server.URL,
		Timeout:  2 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(verifier.Close)

	auther, repo := newProviderAuther(t, verifier)
	ctx := context.Background()

	// signed by the trusted keys, but issued for another client
	_, err = auther.LoginWithProvider(ctx, f.sign(t, validClaims()))
	assert.ErrorIs(t, err, auth.ErrFederatedAuthFailed)

	_, err = repo.Users().FindByEmail(ctx, "carol@example.com")
	assert.True(t, repository.IsRecordNotFound(err))
}
