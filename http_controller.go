package auth

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// UserResponse is the session payload returned by register and login
type UserResponse struct {
	ID         uuid.UUID `json:"_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       UserRole  `json:"role"`
	ProfilePic string    `json:"profilePic"`
	Token      string    `json:"token,omitempty"`
}

// NewUserResponse builds the response for result
func NewUserResponse(result *AuthResult) UserResponse {
	if result == nil || result.User == nil {
		return UserResponse{}
	}
	return UserResponse{
		ID:         result.User.ID,
		Name:       result.User.Name,
		Email:      result.User.Email,
		Role:       result.User.Role,
		ProfilePic: result.User.ProfilePic,
		Token:      result.Token,
	}
}

// LoginRequest is the password login body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProviderLoginRequest is the federated login body
type ProviderLoginRequest struct {
	Token string `json:"token"`
}

type UserControllerRoutes struct {
	Users         string
	Login         string
	ProviderLogin string
	Me            string
	User          string
	Logs          string
}

type UserController struct {
	Auther Authenticator
	HTTP   *RouteAuthenticator
	Routes *UserControllerRoutes
	Logger Logger
}

type UserControllerOption func(*UserController) *UserController

// WithControllerLogger sets the controller logger
func WithControllerLogger(logger Logger) UserControllerOption {
	return func(uc *UserController) *UserController {
		if logger != nil {
			uc.Logger = logger
		}
		return uc
	}
}

// WithControllerRoutes overrides the default paths
func WithControllerRoutes(routes *UserControllerRoutes) UserControllerOption {
	return func(uc *UserController) *UserController {
		if routes != nil {
			uc.Routes = routes
		}
		return uc
	}
}

// NewUserController creates the user and activity log handlers
func NewUserController(auther Authenticator, httpAuth *RouteAuthenticator, opts ...UserControllerOption) *UserController {
	uc := &UserController{
		Auther: auther,
		HTTP:   httpAuth,
		Logger: defLogger{},
		Routes: &UserControllerRoutes{
			Users:         "/api/users",
			Login:         "/login",
			ProviderLogin: "/google-login",
			Me:            "/me",
			User:          "/:id",
			Logs:          "/api/logs",
		},
	}

	for _, opt := range opts {
		if opt != nil {
			uc = opt(uc)
		}
	}

	return uc
}

// RegisterUserRoutes mounts the user and activity log routes on app.
// Guards are composed onto each handler so they run in a fixed order.
func RegisterUserRoutes[T any](app router.Router[T], uc *UserController) {
	protected := uc.HTTP.Protected()
	users := uc.Routes.Users

	app.Post(users, uc.handle(uc.Register)).SetName("users.register")
	app.Post(users+uc.Routes.Login, uc.handle(uc.Login)).SetName("users.login")
	app.Post(users+uc.Routes.ProviderLogin, uc.handle(uc.ProviderLogin)).SetName("users.google-login")
	app.Get(users+uc.Routes.Me, Chain(uc.handle(uc.Me), protected)).SetName("users.me")
	app.Put(users+uc.Routes.User, Chain(uc.handle(uc.UpdateProfile),
		protected,
		uc.HTTP.RequireOwnerOrAdmin(OwnerFromParam("id")),
	)).SetName("users.update")

	app.Get(uc.Routes.Logs, Chain(uc.handle(uc.MyLogs), protected)).SetName("logs.mine")
	app.Get(uc.Routes.Logs+"/:userId", Chain(uc.handle(uc.UserLogs),
		protected,
		uc.HTTP.RequireOwnerOrAdmin(OwnerFromParam("userId")),
	)).SetName("logs.user")
}

// Welcome is the service root
func Welcome(c router.Context) error {
	return c.JSON(router.StatusOK, map[string]any{"message": "Welcome to CyberConnect"})
}

func (uc *UserController) handle(h router.HandlerFunc) router.HandlerFunc {
	return uc.HTTP.Handle(h)
}

func (uc *UserController) Register(c router.Context) error {
	payload := RegisterInput{}
	if err := c.Bind(&payload); err != nil {
		return badBody(err)
	}

	result, err := uc.Auther.Register(c.Context(), payload)
	if err != nil {
		return err
	}

	uc.Logger.Info("user registered", "user_id", result.User.ID, "ip", c.IP())

	return c.JSON(http.StatusCreated, NewUserResponse(result))
}

func (uc *UserController) Login(c router.Context) error {
	payload := LoginRequest{}
	if err := c.Bind(&payload); err != nil {
		return badBody(err)
	}

	result, err := uc.Auther.Login(c.Context(), payload.Email, payload.Password)
	if err != nil {
		return err
	}

	return c.JSON(router.StatusOK, NewUserResponse(result))
}

func (uc *UserController) ProviderLogin(c router.Context) error {
	payload := ProviderLoginRequest{}
	if err := c.Bind(&payload); err != nil {
		return ErrFederatedAuthFailed
	}

	result, err := uc.Auther.LoginWithProvider(c.Context(), payload.Token)
	if err != nil {
		return err
	}

	uc.Logger.Debug("federated login", "user_id", result.User.ID)

	return c.JSON(router.StatusOK, NewUserResponse(result))
}

func (uc *UserController) Me(c router.Context) error {
	identity, ok := IdentityFromRouter(c)
	if !ok {
		return ErrMissingCredential
	}

	user, err := uc.Auther.CurrentUser(c.Context(), identity)
	if err != nil {
		return err
	}

	return c.JSON(router.StatusOK, user)
}

// UpdateProfile only reads profile fields from the body. The acting
// identity always comes from the token.
func (uc *UserController) UpdateProfile(c router.Context) error {
	identity, ok := IdentityFromRouter(c)
	if !ok {
		return ErrMissingCredential
	}

	targetID, err := ParamUUID(c, "id")
	if err != nil {
		return err
	}

	payload := ProfileUpdate{}
	if err := c.Bind(&payload); err != nil {
		return badBody(err)
	}

	result, err := uc.Auther.UpdateProfile(c.Context(), identity, targetID, payload)
	if err != nil {
		return err
	}

	return c.JSON(router.StatusOK, NewUserResponse(result))
}

func (uc *UserController) MyLogs(c router.Context) error {
	identity, ok := IdentityFromRouter(c)
	if !ok {
		return ErrMissingCredential
	}

	logs, err := uc.Auther.RecentActivity(c.Context(), identity, identity.ID)
	if err != nil {
		return err
	}

	return c.JSON(router.StatusOK, logs)
}

func (uc *UserController) UserLogs(c router.Context) error {
	identity, ok := IdentityFromRouter(c)
	if !ok {
		return ErrMissingCredential
	}

	userID, err := ParamUUID(c, "userId")
	if err != nil {
		return err
	}

	logs, err := uc.Auther.RecentActivity(c.Context(), identity, userID)
	if err != nil {
		return err
	}

	return c.JSON(router.StatusOK, logs)
}

func badBody(err error) error {
	msg := "invalid request body"
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "content type") {
		msg = "request body must be JSON"
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, msg).
		WithTextCode(TextCodeValidation).
		WithCode(goerrors.CodeBadRequest)
}
