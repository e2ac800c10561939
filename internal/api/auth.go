package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/storefront/core/handler"
	"github.com/dmitrymomot/storefront/core/logger"
	"github.com/dmitrymomot/storefront/core/response"
	"github.com/dmitrymomot/storefront/core/router"
	"github.com/dmitrymomot/storefront/internal/auth"
	"github.com/dmitrymomot/storefront/internal/store"
	"github.com/dmitrymomot/storefront/middleware"
	"github.com/dmitrymomot/storefront/pkg/fingerprint"
)

type adminLoginRequest struct {
	Username string `json:"username" validate:"required,max=100" sanitize:"trim"`
	Password string `json:"password" validate:"required,max=200"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254" sanitize:"email"`
	Password string `json:"password" validate:"required,max=200"`
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email,max=254" sanitize:"email"`
	Password string `json:"password" validate:"required,min=8,max=200"`
	Name     string `json:"name" validate:"required,max=200" sanitize:"single_line"`
	Company  string `json:"company" validate:"max=200" sanitize:"single_line"`
}

type sessionResponse struct {
	User      store.User `json:"user"`
	ExpiresAt time.Time  `json:"expires_at"`
	CSRFToken string     `json:"csrf_token,omitempty"`
}

func (h *Handler) adminLogin(ctx *router.Context) handler.Response {
	var req adminLoginRequest
	if err := bind(ctx, &req); err != nil {
		return response.Error(err)
	}
	u, err := h.Users.GetByUsername(ctx, req.Username)
	return h.login(ctx, u, err, req.Password, store.RoleAdmin)
}

func (h *Handler) customerLogin(ctx *router.Context) handler.Response {
	var req loginRequest
	if err := bind(ctx, &req); err != nil {
		return response.Error(err)
	}
	u, err := h.Users.GetByEmail(ctx, req.Email)
	return h.login(ctx, u, err, req.Password, store.RoleCustomer)
}

// login checks the password of a looked up user. Unknown users, wrong roles
// and wrong passwords all answer the same 401.
func (h *Handler) login(ctx *router.Context, u store.User, lookupErr error, password, role string) handler.Response {
	switch {
	case errors.Is(lookupErr, store.ErrNotFound):
		_ = auth.CheckPassword("", password)
		return response.Error(ErrInvalidCredentials)
	case lookupErr != nil:
		return response.Error(storeError(lookupErr))
	}

	if err := auth.CheckPassword(u.PasswordHash, password); err != nil || u.Role != role {
		h.log.InfoContext(ctx, "failed sign in", slog.String("role", role), logger.UserID(u.ID.String()))
		return response.Error(ErrInvalidCredentials)
	}
	return h.startSession(ctx, u, http.StatusOK)
}

func (h *Handler) register(ctx *router.Context) handler.Response {
	var req registerRequest
	if err := bind(ctx, &req); err != nil {
		return response.Error(err)
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return response.Error(err)
	}
	u, err := h.Users.Create(ctx, store.NewUser{
		Role:         store.RoleCustomer,
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Company:      req.Company,
	})
	if errors.Is(err, store.ErrDuplicate) {
		return response.Error(ErrDuplicate.WithMessage("This email is already registered").WithError(err))
	}
	if err != nil {
		return response.Error(storeError(err))
	}
	return h.startSession(ctx, u, http.StatusCreated)
}

// startSession sets the role's session cookie and returns a CSRF token for
// the new session key, since the anonymous one no longer applies.
func (h *Handler) startSession(ctx *router.Context, u store.User, status int) handler.Response {
	sess, err := h.Sessions.Issue(u)
	if err != nil {
		return response.Error(err)
	}
	c, err := h.Cookies.Cookie(sess.Cookie, sess.Token, sess.TTL)
	if err != nil {
		return response.Error(err)
	}

	body := sessionResponse{User: u, ExpiresAt: sess.ExpiresAt}
	headers := map[string]string{}
	if h.CSRF != nil {
		key := fingerprint.SessionKey(ctx.Request(), u.ID.String())
		if token, err := h.CSRF.Issue(ctx, key); err == nil {
			body.CSRFToken = token
			headers[middleware.CSRFHeader] = token
		} else {
			h.log.WarnContext(ctx, "csrf token not issued for new session", logger.Error(err))
		}
	}

	return response.WithCookie(response.WithHeaders(response.JSONWithStatus(body, status), headers), c)
}

// logout drops the session's CSRF token before expiring both cookies, so a
// captured token dies with the session.
func (h *Handler) logout(ctx *router.Context) handler.Response {
	if h.CSRF != nil {
		if err := h.CSRF.Invalidate(ctx, middleware.SessionKey(ctx)); err != nil {
			h.log.WarnContext(ctx, "csrf token not invalidated on logout", logger.Error(err))
		}
	}
	return response.WithCookie(response.NoContent(),
		h.Cookies.Expired(auth.AdminCookie),
		h.Cookies.Expired(auth.CustomerCookie),
	)
}

func (h *Handler) me(ctx *router.Context) handler.Response {
	p, _ := middleware.GetPrincipal(ctx)
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return response.Error(response.ErrUnauthorized.WithError(err))
	}
	u, err := h.Users.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return response.Error(response.ErrUnauthorized.WithMessage("Account no longer exists"))
	}
	if err != nil {
		return response.Error(storeError(err))
	}
	return response.JSON(u)
}
