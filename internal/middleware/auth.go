package middleware

import (
	"context"
	"net/http"

	"github.com/mayabot/maya/internal/models"
	apierrors "github.com/mayabot/maya/internal/pkg/errors"
	"github.com/mayabot/maya/internal/pkg/response"
)

// SessionCookie is the name of the cookie carrying the session id.
const SessionCookie = "session-id"

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	sessionKey contextKey = "session"
	accountKey contextKey = "account"
)

// SessionSource resolves sessions and accounts for authentication.
type SessionSource interface {
	GetSession(ctx context.Context, id string) (*models.Session, error)
	GetAccount(ctx context.Context, userID string) (*models.Account, error)
}

// Session returns a middleware that authenticates requests by the session
// cookie. The session must exist and must have been created from the same
// IP address and user agent, otherwise it is treated as invalid. The
// resolved session and account are injected into the request context.
func Session(data SessionSource) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				response.Error(w, apierrors.ErrNoSession)
				return
			}

			session, err := data.GetSession(r.Context(), cookie.Value)
			if err != nil {
				response.Error(w, apierrors.ErrInternal)
				return
			}
			if session == nil || session.IPAddress != RealIP(r) || session.UserAgent != r.UserAgent() {
				response.Error(w, apierrors.ErrInvalidSession)
				return
			}

			account, err := data.GetAccount(r.Context(), session.DiscordUserID)
			if err != nil {
				response.Error(w, apierrors.ErrInternal)
				return
			}
			if account == nil {
				response.Error(w, apierrors.ErrNoAccount)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, session)
			ctx = context.WithValue(ctx, accountKey, account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSession retrieves the authenticated session from context.
func GetSession(ctx context.Context) *models.Session {
	if v := ctx.Value(sessionKey); v != nil {
		return v.(*models.Session)
	}
	return nil
}

// GetAccount retrieves the authenticated account from context.
func GetAccount(ctx context.Context) *models.Account {
	if v := ctx.Value(accountKey); v != nil {
		return v.(*models.Account)
	}
	return nil
}
