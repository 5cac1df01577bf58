package auth_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-repository-bun"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	auth "github.com/goliatone/go-cyberconnect"
)

func TestRepositoryManager(t *testing.T) {
	repo := auth.NewRepositoryManager(newTestDB(t))

	var validator repository.Validator = repo
	require.NoError(t, validator.Validate())
	assert.NotPanics(t, validator.MustValidate)

	var txm repository.TransactionManager = repo
	called := false
	err := txm.RunInTx(context.Background(), nil, func(ctx context.Context, tx bun.Tx) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)

	assert.NotNil(t, repo.Users())
	assert.NotNil(t, repo.ActionLogs())
}

func TestRepositoryManager_Invalid(t *testing.T) {
	repo := auth.NewRepositoryManager(nil)
	assert.Error(t, repo.Validate())
	assert.Panics(t, repo.MustValidate)
}

func TestRepositoryManager_RunInTxCanceled(t *testing.T) {
	repo := auth.NewRepositoryManager(newTestDB(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		t.Fatal("must not run")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
