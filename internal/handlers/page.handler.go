package handlers

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"

	"github.com/nimasrn/smart-wakala/internal/model"
	"github.com/nimasrn/smart-wakala/internal/services"
	xhttp "github.com/nimasrn/smart-wakala/pkg/http"
	"github.com/nimasrn/smart-wakala/pkg/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = map[string]*template.Template{
	"index": template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/index.html")),
	"login": template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/login.html")),
}

type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*model.User, error)
}

type PageHandler struct {
	auth     Authenticator
	sessions SessionStore
	summary  SummaryService
}

func RegisterPageRoutes(r *xhttp.Router, h *PageHandler) {
	r.GET("/", h.Index)
	r.GET("/login", h.LoginPage)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)
}

func NewPageHandler(auth Authenticator, sessions SessionStore, summary SummaryService) *PageHandler {
	return &PageHandler{auth: auth, sessions: sessions, summary: summary}
}

type pageData struct {
	Title    string
	User     *services.Session
	Summary  []model.TransactionSummary
	Error    string
	Username string
}

func (h *PageHandler) Index(ctx *xhttp.RequestCtx) {
	data := pageData{Title: "Home", User: sessionFrom(ctx)}
	if data.User != nil && h.summary != nil {
		summary, err := h.summary.Summary(ctx, data.User.UserID)
		if err != nil {
			logger.Warn("[pages] summary unavailable", "user_id", data.User.UserID, "error", err)
		}
		data.Summary = summary
	}
	render(ctx, xhttp.StatusOK, "index", data)
}

func (h *PageHandler) LoginPage(ctx *xhttp.RequestCtx) {
	if sessionFrom(ctx) != nil {
		ctx.Redirect("/", xhttp.StatusSeeOther)
		return
	}
	render(ctx, xhttp.StatusOK, "login", pageData{Title: "Sign in"})
}

func (h *PageHandler) Login(ctx *xhttp.RequestCtx) {
	username := string(ctx.PostArgs().Peek("username"))
	password := string(ctx.PostArgs().Peek("password"))

	user, err := h.auth.Authenticate(ctx, username, password)
	if err != nil {
		status := xhttp.StatusInternalServerError
		msg := "Something went wrong, please try again."
		if errors.Is(err, services.ErrInvalidCredentials) {
			status = xhttp.StatusUnauthorized
			msg = "Invalid username or password."
		} else {
			logger.Error("[pages] login failed", "error", err)
		}
		render(ctx, status, "login", pageData{Title: "Sign in", Error: msg, Username: username})
		return
	}

	sess, err := h.sessions.Create(ctx, user.ID, user.Username)
	if err != nil {
		logger.Error("[pages] session create failed", "user_id", user.ID, "error", err)
		render(ctx, xhttp.StatusInternalServerError, "login", pageData{Title: "Sign in", Error: "Could not start a session.", Username: username})
		return
	}
	setSessionCookie(ctx, sess.Token, h.sessions.TTL())
	logger.Info("[pages] user signed in", "user_id", user.ID)
	ctx.Redirect("/", xhttp.StatusSeeOther)
}

func (h *PageHandler) Logout(ctx *xhttp.RequestCtx) {
	if token := string(ctx.Request.Header.Cookie(SessionCookieName)); token != "" {
		if err := h.sessions.Delete(ctx, token); err != nil {
			logger.Warn("[pages] session delete failed", "error", err)
		}
	}
	clearSessionCookie(ctx)
	ctx.Redirect("/login", xhttp.StatusSeeOther)
}

func render(ctx *xhttp.RequestCtx, status int, name string, data pageData) {
	var buf bytes.Buffer
	if err := pageTemplates[name].ExecuteTemplate(&buf, name+".html", data); err != nil {
		logger.Error("[pages] render failed", "template", name, "error", err)
		ctx.Error(xhttp.StatusText(xhttp.StatusInternalServerError), xhttp.StatusInternalServerError)
		return
	}
	xhttp.WriteHTML(ctx, status, buf.Bytes())
}
