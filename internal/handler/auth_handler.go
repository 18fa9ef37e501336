package handler

import (
	"errors"
	"net/http"
	"time"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/repository"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /auth 配下のHTTP。refresh/csrfはCookieで受け渡す。
type AuthHandler struct {
	cfg          config.Config
	uc           *usecase.AuthUsecase
	refreshTTL   time.Duration
	cookieSecure bool
}

// DIコンストラクタ
func NewAuthHandler(cfg config.Config, uc *usecase.AuthUsecase) *AuthHandler {
	return &AuthHandler{
		cfg:          cfg,
		uc:           uc,
		refreshTTL:   30 * 24 * time.Hour,
		cookieSecure: cfg.GoEnv != "dev",
	}
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo, userRepo repository.UserRepository) {
	g := e.Group("/auth")

	g.POST("/register", h.register)
	g.POST("/login", h.login)
	g.POST("/refresh", h.refresh)
	g.POST("/logout", h.logout)

	me := g.Group("/me")
	me.Use(middleware.AuthJWT(h.cfg))
	me.Use(middleware.TokenVersionGuard(userRepo))
	me.GET("", h.me)
}

// usecaseのsentinelエラーをHTTPステータスへ割り当てる
func authError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, usecase.ErrValidation):
		return respondError(c, http.StatusBadRequest, "validation error")
	case errors.Is(err, usecase.ErrUnauthorized):
		return respondError(c, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, usecase.ErrSecurityIncident):
		return respondError(c, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, usecase.ErrForbidden):
		return respondError(c, http.StatusForbidden, "forbidden")
	case errors.Is(err, usecase.ErrConflict):
		return respondError(c, http.StatusConflict, "conflict")
	default:
		return respondError(c, http.StatusInternalServerError, "internal error")
	}
}

func (h *AuthHandler) register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid body")
	}

	out, err := h.uc.Register(c.Request().Context(), usecase.AuthRegisterRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return authError(c, err)
	}

	return respond(c, http.StatusCreated, out)
}

func (h *AuthHandler) login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid body")
	}

	userAgent := c.Request().Header.Get("User-Agent")
	ip := c.RealIP()

	res, err := h.uc.Login(c.Request().Context(), usecase.AuthLoginRequest{
		Email:    req.Email,
		Password: req.Password,
	}, userAgent, ip)
	if err != nil {
		return authError(c, err)
	}

	h.setRefreshCookie(c, res.RefreshTokenPlain)
	h.setCsrfCookie(c, res.CsrfTokenPlain)

	return respond(c, http.StatusOK, res.Body)
}

func (h *AuthHandler) refresh(c echo.Context) error {
	cookie, err := c.Cookie("refresh")
	if err != nil || cookie.Value == "" {
		return respondError(c, http.StatusUnauthorized, "unauthorized")
	}

	//CSRF二重送信チェック（cookieとヘッダーの一致）
	csrfCookie, err := c.Cookie("csrf_token")
	if err != nil || csrfCookie.Value == "" {
		return respondError(c, http.StatusUnauthorized, "unauthorized")
	}
	if c.Request().Header.Get("X-CSRF-Token") != csrfCookie.Value {
		return respondError(c, http.StatusUnauthorized, "unauthorized")
	}

	userAgent := c.Request().Header.Get("User-Agent")
	ip := c.RealIP()

	res, err := h.uc.Refresh(c.Request().Context(), cookie.Value, userAgent, ip)
	if err != nil {
		return authError(c, err)
	}

	//ローテーションした新トークンを再セット
	h.setRefreshCookie(c, res.RefreshTokenPlain)
	h.setCsrfCookie(c, res.CsrfTokenPlain)

	return respond(c, http.StatusOK, res.Body)
}

func (h *AuthHandler) logout(c echo.Context) error {
	cookie, err := c.Cookie("refresh")
	if err != nil || cookie.Value == "" {
		return respondError(c, http.StatusUnauthorized, "unauthorized")
	}

	out, err := h.uc.Logout(c.Request().Context(), cookie.Value)
	if err != nil {
		return authError(c, err)
	}

	h.clearAuthCookies(c)
	return respond(c, http.StatusOK, out)
}

func (h *AuthHandler) me(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, "unauthorized")
	}

	out, err := h.uc.Me(c.Request().Context(), userID)
	if err != nil {
		return authError(c, err)
	}
	return respond(c, http.StatusOK, out)
}

// refreshtokenをCookieにセット。JSからは読めない。
func (h *AuthHandler) setRefreshCookie(c echo.Context, plainRefresh string) {
	c.SetCookie(&http.Cookie{
		Name:     "refresh",
		Value:    plainRefresh,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(h.refreshTTL),
	})
}

// csrftokenをCookieにセット。JSから読んでヘッダーに載せ直す。
func (h *AuthHandler) setCsrfCookie(c echo.Context, csrfToken string) {
	c.SetCookie(&http.Cookie{
		Name:     "csrf_token",
		Value:    csrfToken,
		Path:     "/",
		HttpOnly: false,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(h.refreshTTL),
	})
}

func (h *AuthHandler) clearAuthCookies(c echo.Context) {
	for _, name := range []string{"refresh", "csrf_token"} {
		c.SetCookie(&http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			HttpOnly: name == "refresh",
			Secure:   h.cookieSecure,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   -1,
		})
	}
}
