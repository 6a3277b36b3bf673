package handlers

import (
	"context"
	"time"

	"github.com/nimasrn/smart-wakala/internal/services"
	xhttp "github.com/nimasrn/smart-wakala/pkg/http"
	"github.com/valyala/fasthttp"
)

const (
	SessionCookieName = "wakala_session"
	userValueSession  = "session"
)

type SessionStore interface {
	Create(ctx context.Context, userID int64, username string) (*services.Session, error)
	Get(ctx context.Context, token string) (*services.Session, error)
	Delete(ctx context.Context, token string) error
	TTL() time.Duration
}

// SessionMiddleware attaches the session named by the wakala_session cookie,
// when it is valid, to the request and renews the cookie. It never rejects a
// request.
func SessionMiddleware(store SessionStore) xhttp.MiddlewareFunc {
	return func(next xhttp.RequestHandler) xhttp.RequestHandler {
		return func(ctx *xhttp.RequestCtx) {
			if token := string(ctx.Request.Header.Cookie(SessionCookieName)); token != "" {
				if sess, err := store.Get(ctx, token); err == nil {
					ctx.SetUserValue(userValueSession, sess)
					setSessionCookie(ctx, token, store.TTL())
				}
			}
			next(ctx)
		}
	}
}

func sessionFrom(ctx *xhttp.RequestCtx) *services.Session {
	sess, _ := ctx.UserValue(userValueSession).(*services.Session)
	return sess
}

// actingUser returns id when set, otherwise the logged-in user's id.
func actingUser(ctx *xhttp.RequestCtx, id int64) int64 {
	if id != 0 {
		return id
	}
	if sess := sessionFrom(ctx); sess != nil {
		return sess.UserID
	}
	return 0
}

func setSessionCookie(ctx *xhttp.RequestCtx, token string, ttl time.Duration) {
	c := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(c)
	c.SetKey(SessionCookieName)
	c.SetValue(token)
	c.SetPath("/")
	c.SetHTTPOnly(true)
	c.SetSameSite(fasthttp.CookieSameSiteLaxMode)
	c.SetMaxAge(int(ttl.Seconds()))
	ctx.Response.Header.SetCookie(c)
}

func clearSessionCookie(ctx *xhttp.RequestCtx) {
	c := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(c)
	c.SetKey(SessionCookieName)
	c.SetPath("/")
	c.SetHTTPOnly(true)
	c.SetExpire(fasthttp.CookieExpireDelete)
	ctx.Response.Header.SetCookie(c)
}
