package auth_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-cyberconnect"
)

func TestActionLogs_ListRecent(t *testing.T) {
	ctx := context.Background()
	repo := auth.NewRepositoryManager(newTestDB(t))

	alice, err := repo.Users().Create(ctx, newUser("alice@example.com"))
	require.NoError(t, err)
	bob, err := repo.Users().Create(ctx, newUser("bob@example.com"))
	require.NoError(t, err)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		require.NoError(t, repo.ActionLogs().Append(ctx, &auth.ActionLog{
			UserID:    alice.ID,
			Action:    "User Logged In",
			Details:   fmt.Sprintf("login %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, repo.ActionLogs().Append(ctx, &auth.ActionLog{
		UserID:    bob.ID,
		Action:    "User Registered",
		CreatedAt: base,
	}))

	logs, err := repo.ActionLogs().ListRecent(ctx, alice.ID, auth.RecentActivityLimit)
	require.NoError(t, err)
	require.Len(t, logs, auth.RecentActivityLimit)
	assert.Equal(t, "login 24", logs[0].Details)
	assert.Equal(t, "login 5", logs[len(logs)-1].Details)
	for i := 1; i < len(logs); i++ {
		assert.True(t, logs[i-1].CreatedAt.After(logs[i].CreatedAt))
		assert.Equal(t, alice.ID, logs[i].UserID)
	}

	t.Run("limit is capped", func(t *testing.T) {
		logs, err := repo.ActionLogs().ListRecent(ctx, alice.ID, 100)
		require.NoError(t, err)
		assert.Len(t, logs, auth.RecentActivityLimit)
	})

	t.Run("smaller limit", func(t *testing.T) {
		logs, err := repo.ActionLogs().ListRecent(ctx, alice.ID, 3)
		require.NoError(t, err)
		assert.Len(t, logs, 3)
	})

	t.Run("no entries", func(t *testing.T) {
		logs, err := repo.ActionLogs().ListRecent(ctx, uuid.New(), auth.RecentActivityLimit)
		require.NoError(t, err)
		assert.NotNil(t, logs)
		assert.Empty(t, logs)
	})
}

func TestActionLogs_AppendRequiresUser(t *testing.T) {
	repo := auth.NewRepositoryManager(newTestDB(t))

	err := repo.ActionLogs().Append(context.Background(), &auth.ActionLog{Action: "User Logged In"})
	assert.Error(t, err)

	err = repo.ActionLogs().Append(context.Background(), nil)
	assert.Error(t, err)
}

func TestActionLogSink(t *testing.T) {
	ctx := context.Background()
	repo := auth.NewRepositoryManager(newTestDB(t))

	alice, err := repo.Users().Create(ctx, newUser("alice@example.com"))
	require.NoError(t, err)

	sink := auth.NewActionLogSink(repo.ActionLogs())
	occurredAt := time.Date(2025, 2, 2, 10, 0, 0, 0, time.UTC)

	require.NoError(t, sink.Record(ctx, auth.ActivityEvent{
		EventType:  auth.ActivityEventFederatedRegistered,
		UserID:     alice.ID,
		Details:    "Account created via Google",
		OccurredAt: occurredAt,
	}))

	logs, err := repo.ActionLogs().ListRecent(ctx, alice.ID, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "User Registered (Google)", logs[0].Action)
	assert.Equal(t, "Account created via Google", logs[0].Details)
	assert.True(t, logs[0].CreatedAt.Equal(occurredAt))
}

func TestActivityEventType_Label(t *testing.T) {
	tests := map[auth.ActivityEventType]string{
		auth.ActivityEventUserRegistered:      "User Registered",
		auth.ActivityEventUserLoggedIn:        "User Logged In",
		auth.ActivityEventFederatedRegistered: "User Registered (Google)",
		auth.ActivityEventFederatedLoggedIn:   "User Logged In (Google)",
		auth.ActivityEventProfileUpdated:      "Profile Updated",
		auth.ActivityEventType("custom"):      "custom",
	}

	for eventType, want := range tests {
		assert.Equal(t, want, eventType.Label())
	}
}
