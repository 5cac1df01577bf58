package auth

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// bcrypt ignores everything past 72 bytes
const maxSecretLength = 72

const minSecretLength = 6

// RegisterInput is the payload for Register
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the registration payload
func (r RegisterInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(minSecretLength, maxSecretLength)),
	)
}

// ProfileUpdate carries the mutable profile fields. Empty values
// leave the stored field unchanged.
type ProfileUpdate struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	ProfilePic string `json:"profilePic"`
}

// Validate checks the fields that were provided
func (p ProfileUpdate) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Length(1, 100)),
		validation.Field(&p.Email, is.Email),
		validation.Field(&p.Password, validation.Length(minSecretLength, maxSecretLength)),
		validation.Field(&p.ProfilePic, validation.Length(0, 2048)),
	)
}

// IsZero reports whether the update changes nothing
func (p ProfileUpdate) IsZero() bool {
	return p.Name == "" && p.Email == "" && p.Password == "" && p.ProfilePic == ""
}

// AuthResult is returned by every operation that issues a session
type AuthResult struct {
	User      *User
	Token     string
	ExpiresAt time.Time
}

// Auther is the authentication core
type Auther struct {
	users      UserStore
	tokens     TokenService
	hasher     PasswordHasher
	federated  FederatedVerifier
	actionLogs ActionLogs
	activity   *activityDispatcher
	logger     Logger
	absentHash string
}

var _ Authenticator = (*Auther)(nil)

// AutherOption configures an Auther
type AutherOption func(*Auther)

// WithLogger sets the logger
func WithLogger(logger Logger) AutherOption {
	return func(a *Auther) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithPasswordHasher replaces the default bcrypt hasher
func WithPasswordHasher(hasher PasswordHasher) AutherOption {
	return func(a *Auther) {
		if hasher != nil {
			a.hasher = hasher
		}
	}
}

// WithFederatedVerifier enables LoginWithProvider
func WithFederatedVerifier(verifier FederatedVerifier) AutherOption {
	return func(a *Auther) {
		a.federated = verifier
	}
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func WithActivitySink(sink ActivitySink) AutherOption {
	return func(a *Auther) {
		a.activity.sink = normalizeActivitySink(sink)
	}
}

// WithActionLogs sets the store read by RecentActivity
func WithActionLogs(logs ActionLogs) AutherOption {
	return func(a *Auther) {
		a.actionLogs = logs
	}
}

// NewAuthenticator returns a new Auther over users and tokens
func NewAuthenticator(users UserStore, tokens TokenService, opts ...AutherOption) (*Auther, error) {
	if users == nil {
		return nil, goerrors.New("user store is required", goerrors.CategoryInternal)
	}
	if tokens == nil {
		return nil, goerrors.New("token service is required", goerrors.CategoryInternal)
	}

	a := &Auther{
		users:    users,
		tokens:   tokens,
		hasher:   NewBcryptHasher(0),
		logger:   defLogger{},
		activity: newActivityDispatcher(nil, defLogger{}),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	a.activity.logger = a.logger

	// unknown emails are compared against this so they cost the same
	// as a wrong password
	absent, err := a.hasher.Hash(RandomSecret())
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to prepare password hasher")
	}
	a.absentHash = absent

	return a, nil
}

// Register creates a local account and logs it in
func (a *Auther) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = NormalizeEmail(input.Email)

	if err := input.Validate(); err != nil {
		return nil, NewValidationError("invalid registration", err)
	}

	hash, err := a.hasher.Hash(input.Password)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	user, err := a.users.Create(ctx, &User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         RoleUser,
	})
	if err != nil {
		if IsKind(err, ErrDuplicateAccount) {
			return nil, ErrDuplicateAccount
		}
		a.logger.Error("register failed to create user", "error", err)
		return nil, err
	}

	result, err := a.issue(user)
	if err != nil {
		return nil, err
	}

	a.activity.emit(ctx, ActivityEvent{
		EventType: ActivityEventUserRegistered,
		UserID:    user.ID,
		Details:   "Account created successfully",
	})

	return result, nil
}

// Login verifies an email and password. A wrong password and an
// unknown email are indistinguishable to the caller.
func (a *Auther) Login(ctx context.Context, email, secret string) (*AuthResult, error) {
	email = NormalizeEmail(email)
	if email == "" || secret == "" {
		return nil, NewValidationError("email and password are required", validation.Errors{
			"email":    validation.Validate(email, validation.Required),
			"password": validation.Validate(secret, validation.Required),
		}.Filter())
	}

	user, err := a.users.FindByEmail(ctx, email)
	if err != nil {
		if !repository.IsRecordNotFound(err) {
			a.logger.Error("login failed to find user", "error", err)
			return nil, err
		}
		a.hasher.Verify(secret, a.absentHash)
		return nil, ErrInvalidCredentials
	}

	if !a.hasher.Verify(secret, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	result, err := a.issue(user)
	if err != nil {
		return nil, err
	}

	a.activity.emit(ctx, ActivityEvent{
		EventType: ActivityEventUserLoggedIn,
		UserID:    user.ID,
		Details:   "Login successful",
	})

	return result, nil
}

// LoginWithProvider verifies a provider identity token and logs in the
// matching user, creating one on first login. Every verification
// failure is ErrFederatedAuthFailed and nothing is written.
func (a *Auther) LoginWithProvider(ctx context.Context, providerToken string) (*AuthResult, error) {
	if a.federated == nil {
		a.logger.Warn("federated login requested but no verifier is configured")
		return nil, ErrFederatedAuthFailed
	}

	providerToken = strings.TrimSpace(providerToken)
	if providerToken == "" {
		return nil, ErrFederatedAuthFailed
	}

	fid, err := a.federated.Verify(ctx, providerToken)
	if err != nil {
		a.logger.Debug("federated token rejected", "error", err)
		return nil, ErrFederatedAuthFailed
	}

	email := ""
	if fid != nil {
		email = NormalizeEmail(fid.Email)
	}
	if email == "" {
		a.logger.Debug("federated identity has no email")
		return nil, ErrFederatedAuthFailed
	}

	event := ActivityEventFederatedLoggedIn
	details := "Login successful via Google"

	user, err := a.users.FindByEmail(ctx, email)
	if err != nil {
		if !repository.IsRecordNotFound(err) {
			a.logger.Error("federated login failed to find user", "error", err)
			return nil, err
		}

		user, err = a.createFederatedUser(ctx, email, fid)
		switch {
		case err == nil:
			event = ActivityEventFederatedRegistered
			details = "Account created via Google"
		case IsKind(err, ErrDuplicateAccount):
			// lost a concurrent first login, use the winner
			if user, err = a.users.FindByEmail(ctx, email); err != nil {
				a.logger.Error("federated login failed to read existing user", "error", err)
				return nil, err
			}
		default:
			a.logger.Error("federated login failed to create user", "error", err)
			return nil, err
		}
	}

	result, err := a.issue(user)
	if err != nil {
		return nil, err
	}

	a.activity.emit(ctx, ActivityEvent{
		EventType: event,
		UserID:    user.ID,
		Details:   details,
		Metadata:  map[string]any{"provider": fid.Provider},
	})

	return result, nil
}

func (a *Auther) createFederatedUser(ctx context.Context, email string, fid *FederatedIdentity) (*User, error) {
	hash, err := a.hasher.Hash(RandomSecret())
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash generated secret")
	}

	name := strings.TrimSpace(fid.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	return a.users.Create(ctx, &User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         RoleUser,
		FederatedID:  fid.Subject,
		ProfilePic:   fid.Picture,
	})
}

// Authenticate verifies a session token and resolves the user it names
func (a *Auther) Authenticate(ctx context.Context, token string) (*IdentityContext, error) {
	identity, _, err := a.authenticate(ctx, token)
	return identity, err
}

func (a *Auther) authenticate(ctx context.Context, token string) (*IdentityContext, *User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil, ErrMissingCredential
	}

	claims, err := a.tokens.Verify(token)
	if err != nil {
		return nil, nil, ErrInvalidToken
	}

	id, err := uuid.Parse(claims.UserID())
	if err != nil {
		a.logger.Debug("token subject is not a user id")
		return nil, nil, ErrInvalidToken
	}

	user, err := a.users.FindByID(ctx, id)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil, ErrUnknownIdentity
		}
		a.logger.Error("authenticate failed to load user", "error", err)
		return nil, nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve identity")
	}

	// role comes from the record, the token may predate a change
	return &IdentityContext{ID: user.ID, Role: user.Role}, user, nil
}

// AuthorizeOwnerOrAdmin applies the ownership rule
func (a *Auther) AuthorizeOwnerOrAdmin(identity *IdentityContext, ownerID uuid.UUID) bool {
	return AuthorizeOwnerOrAdmin(identity, ownerID)
}

// CurrentUser returns the stored record for identity
func (a *Auther) CurrentUser(ctx context.Context, identity *IdentityContext) (*User, error) {
	if identity == nil {
		return nil, ErrMissingCredential
	}

	user, err := a.users.FindByID(ctx, identity.ID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUnknownIdentity
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load current user")
	}
	return user, nil
}

// UpdateProfile changes targetID's profile when identity owns it or is
// an admin. A fresh token is issued when the caller edits their own
// profile.
func (a *Auther) UpdateProfile(ctx context.Context, identity *IdentityContext, targetID uuid.UUID, update ProfileUpdate) (*AuthResult, error) {
	if identity == nil {
		return nil, ErrMissingCredential
	}

	if !AuthorizeOwnerOrAdmin(identity, targetID) {
		return nil, ErrForbidden
	}

	update.Name = strings.TrimSpace(update.Name)
	update.Email = NormalizeEmail(update.Email)
	update.ProfilePic = strings.TrimSpace(update.ProfilePic)

	if err := update.Validate(); err != nil {
		return nil, NewValidationError("invalid profile update", err)
	}

	user, err := a.users.FindByID(ctx, targetID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user")
	}

	if update.Name != "" {
		user.Name = update.Name
	}
	if update.Email != "" {
		user.Email = update.Email
	}
	if update.ProfilePic != "" {
		user.ProfilePic = update.ProfilePic
	}
	if update.Password != "" {
		hash, err := a.hasher.Hash(update.Password)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}
		user.PasswordHash = hash
	}

	changed := !update.IsZero()
	if changed {
		if user, err = a.users.Save(ctx, user); err != nil {
			if IsKind(err, ErrDuplicateAccount) {
				return nil, ErrDuplicateAccount
			}
			if repository.IsRecordNotFound(err) {
				return nil, ErrUserNotFound
			}
			a.logger.Error("update profile failed to save user", "error", err)
			return nil, err
		}
	}

	result := &AuthResult{User: user}
	if identity.ID == user.ID {
		if result, err = a.issue(user); err != nil {
			return nil, err
		}
	}

	// an empty update is a read, nothing to record
	if changed {
		a.activity.emit(ctx, ActivityEvent{
			EventType: ActivityEventProfileUpdated,
			UserID:    user.ID,
			Details:   "User updated profile details",
			Metadata:  map[string]any{"actor_id": identity.ID.String()},
		})
	}

	return result, nil
}

// RecentActivity returns the newest activity entries for userID
func (a *Auther) RecentActivity(ctx context.Context, identity *IdentityContext, userID uuid.UUID) ([]*ActionLog, error) {
	if identity == nil {
		return nil, ErrMissingCredential
	}

	if !AuthorizeOwnerOrAdmin(identity, userID) {
		return nil, ErrForbidden
	}

	if a.actionLogs == nil {
		return []*ActionLog{}, nil
	}

	return a.actionLogs.ListRecent(ctx, userID, RecentActivityLimit)
}

// WaitActivity blocks until pending activity events are recorded
func (a *Auther) WaitActivity() {
	a.activity.wait()
}

func (a *Auther) issue(user *User) (*AuthResult, error) {
	token, expiresAt, err := a.tokens.Issue(NewIdentityFromUser(user))
	if err != nil {
		a.logger.Error("failed to issue token", "error", err)
		return nil, err
	}

	return &AuthResult{
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}
