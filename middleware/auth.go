package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopnest/shopnest-backend-go/models"
	"github.com/shopnest/shopnest-backend-go/store"
	"github.com/shopnest/shopnest-backend-go/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const callerKey = "caller"

// Caller is who is making the request. Guests have no UserID.
type Caller struct {
	UserID    *primitive.ObjectID
	Role      models.Role
	SessionID string
	Subject   string
}

func (c Caller) IsGuest() bool {
	return c.UserID == nil
}

func (c Caller) IsAdmin() bool {
	return c.UserID != nil && c.Role.IsAdmin()
}

// Owns reports whether the caller is the given user.
func (c Caller) Owns(userID primitive.ObjectID) bool {
	return c.UserID != nil && *c.UserID == userID
}

// CartOwner keys the caller's cart: the user when signed in, plus the guest session.
func (c Caller) CartOwner() models.CartOwner {
	return models.CartOwner{UserID: c.UserID, SessionID: c.SessionID}
}

// TokenVerifier validates identity-provider session tokens.
type TokenVerifier interface {
	Verify(token string) (*utils.SessionClaims, error)
	VerifyParty(token string) (*utils.SessionClaims, error)
}

// UserFinder resolves a provider subject to a local account.
type UserFinder interface {
	FindByAuthID(ctx context.Context, authID string) (*models.User, error)
}

type Authenticator struct {
	verifier TokenVerifier
	users    UserFinder
}

func NewAuthenticator(verifier TokenVerifier, users UserFinder) *Authenticator {
	return &Authenticator{verifier: verifier, users: users}
}

// bearerToken returns the token of an "Authorization: Bearer" header. A
// missing header is not an error; a malformed one is.
func bearerToken(c echo.Context) (string, bool, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", false, nil
	}
	tokenParts := strings.Split(authHeader, " ")
	if len(tokenParts) != 2 || tokenParts[0] != "Bearer" || tokenParts[1] == "" {
		return "", false, utils.Unauthorized("Invalid authorization header format")
	}
	return tokenParts[1], true, nil
}

// Identify resolves the caller. Requests without a token continue as guests;
// an invalid token is rejected, and a valid one must map to a local user.
func (a *Authenticator) Identify() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller := Caller{SessionID: SessionID(c)}

			token, present, err := bearerToken(c)
			if err != nil {
				return err
			}
			if present {
				claims, err := a.verifier.Verify(token)
				if err != nil {
					return utils.Unauthorized("Invalid or expired token")
				}
				user, err := a.users.FindByAuthID(c.Request().Context(), claims.Subject)
				if errors.Is(err, store.ErrNotFound) {
					return utils.NotFound("User not found")
				}
				if err != nil {
					return fmt.Errorf("resolve caller: %w", err)
				}
				caller.UserID = &user.ID
				caller.Role = user.Role
				caller.Subject = claims.Subject
			}

			c.Set(callerKey, caller)
			return next(c)
		}
	}
}

// RequireProviderSession admits only callers with a valid session token from
// an authorized party. It exposes the subject; no local user is needed yet.
func (a *Authenticator) RequireProviderSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, present, err := bearerToken(c)
			if err != nil {
				return err
			}
			if !present {
				return utils.Unauthorized("Missing authorization header")
			}
			claims, err := a.verifier.VerifyParty(token)
			if err != nil {
				return utils.Unauthorized("Invalid or expired token")
			}

			caller := CallerFrom(c)
			caller.Subject = claims.Subject
			caller.SessionID = SessionID(c)
			c.Set(callerKey, caller)
			return next(c)
		}
	}
}

func RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if CallerFrom(c).IsGuest() {
			return utils.Unauthorized("Please sign in to continue")
		}
		return next(c)
	}
}

func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		caller := CallerFrom(c)
		if caller.IsGuest() {
			return utils.Unauthorized("Please sign in to continue")
		}
		if !caller.IsAdmin() {
			return utils.Forbidden("Admin access required")
		}
		return next(c)
	}
}

// CallerFrom returns the caller resolved by Identify, or a guest.
func CallerFrom(c echo.Context) Caller {
	caller, _ := c.Get(callerKey).(Caller)
	return caller
}

// CallerHandler is a handler that receives the resolved caller explicitly.
type CallerHandler func(c echo.Context, caller Caller) error

// WithCaller adapts a CallerHandler to echo.
func WithCaller(h CallerHandler) echo.HandlerFunc {
	return func(c echo.Context) error {
		return h(c, CallerFrom(c))
	}
}
