package auth

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"

	"github.com/goliatone/go-cyberconnect/middleware/jwtware"
)

// Public messages. The three authentication failures share one message
// so a client cannot tell them apart.
const (
	MessageLogInAgain         = "please log in again"
	MessageInvalidCredentials = "invalid email or password"
	MessageFederatedFailed    = "google authentication failed"
	MessageDuplicateAccount   = "user already exists"
	MessageForbidden          = "not authorized to perform this action"
	MessageUserNotFound       = "user not found"
	MessageInternal           = "internal server error"
)

// OwnerResolver returns the owner of the resource addressed by a request
type OwnerResolver func(c router.Context) (uuid.UUID, error)

type RouteAuthenticator struct {
	auth         Authenticator
	Logger       Logger
	ErrorHandler router.ErrorHandler
}

// NewHTTPAuthenticator creates the route middleware set for auther
func NewHTTPAuthenticator(auther Authenticator) (*RouteAuthenticator, error) {
	if auther == nil {
		return nil, goerrors.New("authenticator is required", goerrors.CategoryInternal)
	}

	a := &RouteAuthenticator{
		auth:   auther,
		Logger: defLogger{},
	}
	a.ErrorHandler = a.defaultErrHandler

	return a, nil
}

// WithLogger sets the logger
func (a *RouteAuthenticator) WithLogger(logger Logger) *RouteAuthenticator {
	if logger != nil {
		a.Logger = logger
	}
	return a
}

// Protected rejects requests without a valid session token
func (a *RouteAuthenticator) Protected() router.MiddlewareFunc {
	return jwtware.New(jwtware.Config{
		Resolve:      a.resolve,
		ErrorHandler: a.authErrHandler,
	})
}

// Optional attaches an identity when a valid token is present and
// otherwise lets the request through anonymously. Failures that are not
// about the credential itself, a store outage for example, still fail
// the request.
func (a *RouteAuthenticator) Optional() router.MiddlewareFunc {
	return jwtware.New(jwtware.Config{
		Resolve:      a.resolve,
		ErrorHandler: a.authErrHandler,
		Optional:     true,
		Anonymous:    IsAuthenticationError,
	})
}

// RequireOwnerOrAdmin must run after Protected. It lets the request
// through when the caller owns the resource or is an admin.
func (a *RouteAuthenticator) RequireOwnerOrAdmin(owner OwnerResolver) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			identity, ok := IdentityFromRouter(c)
			if !ok {
				return a.ErrorHandler(c, ErrMissingCredential)
			}

			ownerID, err := owner(c)
			if err != nil {
				return a.ErrorHandler(c, err)
			}

			if !AuthorizeOwnerOrAdmin(identity, ownerID) {
				return a.ErrorHandler(c, ErrForbidden)
			}

			return next(c)
		}
	}
}

// RequireRole must run after Protected
func (a *RouteAuthenticator) RequireRole(roles ...UserRole) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			identity, ok := IdentityFromRouter(c)
			if !ok {
				return a.ErrorHandler(c, ErrMissingCredential)
			}

			if !identity.HasRole(roles...) {
				return a.ErrorHandler(c, ErrForbidden)
			}

			return next(c)
		}
	}
}

// Handle runs h and renders any returned error with ErrorHandler
func (a *RouteAuthenticator) Handle(h router.HandlerFunc) router.HandlerFunc {
	return func(c router.Context) error {
		if err := h(c); err != nil {
			return a.ErrorHandler(c, err)
		}
		return nil
	}
}

// Chain wraps h with mws, the first middleware runs first
func Chain(h router.HandlerFunc, mws ...router.MiddlewareFunc) router.HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			h = mws[i](h)
		}
	}
	return h
}

// OwnerFromParam reads the owner id from the named route parameter
func OwnerFromParam(name string) OwnerResolver {
	return func(c router.Context) (uuid.UUID, error) {
		return ParamUUID(c, name)
	}
}

// ParamUUID parses the named route parameter as a user id
func ParamUUID(c router.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, goerrors.New("invalid id", goerrors.CategoryValidation).
			WithTextCode(TextCodeValidation).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"fields": map[string]string{name: "must be a valid id"}})
	}
	return id, nil
}

func (a *RouteAuthenticator) resolve(c router.Context, raw string) error {
	identity, err := a.auth.Authenticate(c.Context(), raw)
	if err != nil {
		return err
	}
	setRouterIdentity(c, identity)
	return nil
}

func (a *RouteAuthenticator) authErrHandler(c router.Context, err error) error {
	if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
		err = ErrMissingCredential
	}
	return a.ErrorHandler(c, err)
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	status, body := ErrorResponse(err)
	a.logFailure(c.Path(), status, err)
	return c.JSON(status, body)
}

// FiberErrorHandler renders errors that reach the fiber app, unmatched
// routes for example, with the same body shape as the route handlers
func (a *RouteAuthenticator) FiberErrorHandler(c *fiber.Ctx, err error) error {
	status, body := ErrorResponse(err)
	a.logFailure(c.Path(), status, err)
	return c.Status(status).JSON(body)
}

func (a *RouteAuthenticator) logFailure(path string, status int, err error) {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		if status >= http.StatusInternalServerError {
			a.Logger.Error("request failed",
				"error", err.Error(),
				"category", richErr.Category,
				"path", path,
				"details", print.MaybePrettyJSON(richErr.Metadata),
			)
		} else {
			a.Logger.Debug("request rejected",
				"text_code", richErr.TextCode,
				"category", richErr.Category,
				"path", path,
			)
		}
		return
	}

	if status >= http.StatusInternalServerError {
		a.Logger.Error("request failed", "error", err, "path", path)
	}
}

// ErrorResponse maps an error to the status and JSON body sent to clients
func ErrorResponse(err error) (int, map[string]any) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, map[string]any{"error": MessageInternal}
	case IsAuthenticationError(err):
		return http.StatusUnauthorized, map[string]any{"error": MessageLogInAgain}
	case IsKind(err, ErrInvalidCredentials):
		return http.StatusUnauthorized, map[string]any{"error": MessageInvalidCredentials}
	case IsKind(err, ErrFederatedAuthFailed):
		return http.StatusUnauthorized, map[string]any{"error": MessageFederatedFailed}
	case IsKind(err, ErrDuplicateAccount):
		return http.StatusConflict, map[string]any{"error": MessageDuplicateAccount}
	case IsKind(err, ErrForbidden):
		return http.StatusForbidden, map[string]any{"error": MessageForbidden}
	case IsKind(err, ErrUserNotFound):
		return http.StatusNotFound, map[string]any{"error": MessageUserNotFound}
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryValidation {
		body := map[string]any{"error": richErr.Message}
		if fields, ok := richErr.Metadata["fields"]; ok {
			body["fields"] = fields
		}
		return http.StatusBadRequest, body
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) && fiberErr.Code < http.StatusInternalServerError {
		return fiberErr.Code, map[string]any{"error": fiberErr.Message}
	}

	return http.StatusInternalServerError, map[string]any{"error": MessageInternal}
}
