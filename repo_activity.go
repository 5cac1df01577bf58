package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RecentActivityLimit is the number of entries RecentActivity returns
const RecentActivityLimit = 20

// ActionLogs stores activity log entries
type ActionLogs interface {
	Append(ctx context.Context, entry *ActionLog) error
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*ActionLog, error)
}

type actionLogs struct {
	repo repository.Repository[*ActionLog]
	db   *bun.DB
}

var _ ActionLogs = (*actionLogs)(nil)

// NewActionLogsRepository creates an ActionLogs store over db
func NewActionLogsRepository(db *bun.DB) ActionLogs {
	repo := repository.NewRepository[*ActionLog](db, repository.ModelHandlers[*ActionLog]{
		NewRecord: func() *ActionLog { return &ActionLog{} },
		GetID: func(record *ActionLog) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *ActionLog, id uuid.UUID) {
			if record != nil {
				record.ID = id
			}
		},
	})

	return &actionLogs{repo: repo, db: db}
}

func (a *actionLogs) Append(ctx context.Context, entry *ActionLog) error {
	if entry == nil || entry.UserID == uuid.Nil {
		return goerrors.New("action log requires a user", goerrors.CategoryInternal)
	}

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	if _, err := a.repo.Create(ctx, entry); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to append action log")
	}
	return nil
}

// ListRecent returns up to limit entries for userID, newest first
func (a *actionLogs) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*ActionLog, error) {
	if limit <= 0 || limit > RecentActivityLimit {
		limit = RecentActivityLimit
	}

	entries := []*ActionLog{}
	err := a.db.NewSelect().
		Model(&entries).
		Where("?TableAlias.user_id = ?", userID).
		OrderExpr("?TableAlias.created_at DESC").
		Limit(limit).
		Scan(ctx)

	if err != nil && !repository.IsRecordNotFound(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list action logs")
	}

	return entries, nil
}
