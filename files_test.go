package auth_test

import (
	"context"
	"io/fs"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-cyberconnect"
)

func TestGetMigrationsFS(t *testing.T) {
	entries, err := fs.ReadDir(auth.GetMigrationsFS(), "data/sql/migrations")
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	assert.Equal(t, []string{"00001_create_users.sql", "00002_create_action_logs.sql"}, names)
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, auth.Migrate(context.Background(), db))

	var count int
	err := db.NewRaw("SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name IN ('users', 'action_logs')").
		Scan(context.Background(), &count)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestOpenDatabase_ForeignKeys(t *testing.T) {
	ctx := context.Background()
	repo := auth.NewRepositoryManager(newTestDB(t))

	err := repo.ActionLogs().Append(ctx, &auth.ActionLog{
		UserID: uuid.New(),
		Action: "User Logged In",
	})
	assert.Error(t, err, "action log for a missing user must violate the foreign key")
}
