package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the bun backed credential store
type Users interface {
	UserStore

	FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	SaveTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
}

type users struct {
	repo repository.Repository[*User]
	db   *bun.DB
	now  func() time.Time
}

var _ Users = (*users)(nil)

// UsersOption configures the users repository
type UsersOption func(*users)

// WithUsersClock sets the clock used for update timestamps
func WithUsersClock(now func() time.Time) UsersOption {
	return func(u *users) {
		if now != nil {
			u.now = now
		}
	}
}

// NewUsersRepository creates a Users store over db
func NewUsersRepository(db *bun.DB, opts ...UsersOption) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
	})

	u := &users{
		repo: repo,
		db:   db,
		now:  time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(u)
		}
	}
	return u
}

func (a *users) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	if id == uuid.Nil {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}
	return a.repo.GetByID(ctx, id.String())
}

func (a *users) FindByEmail(ctx context.Context, email string) (*User, error) {
	return a.FindByEmailTx(ctx, a.db, email)
}

func (a *users) FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, repository.NewRecordNotFound()
	}

	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"email": email})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to find user by email")
	}

	return record, nil
}

func (a *users) Create(ctx context.Context, user *User) (*User, error) {
	return a.CreateTx(ctx, a.db, user)
}

// CreateTx inserts user. The unique index on email decides concurrent
// registrations, the losers get ErrDuplicateAccount.
func (a *users) CreateTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	if user == nil {
		return nil, goerrors.New("user is required", goerrors.CategoryInternal)
	}

	prepareUserDefaults(user)

	if user.PasswordHash == "" {
		return nil, goerrors.New("password hash is required", goerrors.CategoryInternal)
	}

	if !user.Role.IsValid() {
		return nil, goerrors.New("invalid role", goerrors.CategoryValidation).
			WithTextCode(TextCodeValidation).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"role": user.Role.String()})
	}

	if _, err := tx.NewInsert().Model(user).Exec(ctx); err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrDuplicateAccount
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create user")
	}

	return user, nil
}

func (a *users) Save(ctx context.Context, user *User) (*User, error) {
	return a.SaveTx(ctx, a.db, user)
}

// SaveTx writes the mutable columns of user. Changing the email onto
// an existing account is ErrDuplicateAccount.
func (a *users) SaveTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	if user == nil || user.ID == uuid.Nil {
		return nil, goerrors.New("user id is required", goerrors.CategoryInternal)
	}

	user.Email = NormalizeEmail(user.Email)
	now := a.now().UTC()
	user.UpdatedAt = &now

	res, err := tx.NewUpdate().
		Model(user).
		Column("name", "email", "password_hash", "user_role", "federated_id", "profile_pic", "updated_at").
		WherePK().
		Exec(ctx)

	if err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrDuplicateAccount
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to save user")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": user.ID.String()})
	}

	return user, nil
}
