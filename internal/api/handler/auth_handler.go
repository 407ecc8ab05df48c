package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sbecom/sb-ecom/internal/api/metrics"
	"github.com/sbecom/sb-ecom/internal/api/middleware"
	"github.com/sbecom/sb-ecom/internal/core/domain"
	"github.com/sbecom/sb-ecom/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	cookie      CookieConfig
	extractor   middleware.TokenExtractor
	log         zerolog.Logger
}

func NewAuthHandler(authService ports.AuthService, cookie CookieConfig, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookie:      cookie,
		extractor:   middleware.NewTokenExtractor(cookie.Name),
		log:         log,
	}
}

type signupRequest struct {
	Username string   `json:"username" validate:"required,min=3,max=50"`
	Email    string   `json:"email" validate:"required,max=50,email"`
	Password string   `json:"password" validate:"required,min=6,max=40"`
	Roles    []string `json:"roles"`
}

type signinRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userInfoResponse struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	JWTToken string   `json:"jwt_token,omitempty"`
}

type messageResponse struct {
	Message string       `json:"message"`
	User    *domain.User `json:"user,omitempty"`
}

// Signup creates a new account.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	user, err := h.authService.Signup(c.Request().Context(), ports.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Roles:    req.Roles,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUsernameTaken):
			return c.JSON(http.StatusConflict, map[string]string{"error": "username is already taken"})
		case errors.Is(err, domain.ErrEmailTaken):
			return c.JSON(http.StatusConflict, map[string]string{"error": "email is already in use"})
		case errors.Is(err, domain.ErrInvalidCredentials):
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return err
	}

	return c.JSON(http.StatusCreated, messageResponse{Message: "user registered successfully", User: user})
}

// Signin exchanges credentials for a token, returned both in the body and
// as the token cookie.
func (h *AuthHandler) Signin(c echo.Context) error {
	var req signinRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	result, err := h.authService.Signin(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.SigninsTotal.WithLabelValues("bad_credentials").Inc()
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "bad credentials"})
		}
		metrics.SigninsTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.SigninsTotal.WithLabelValues("success").Inc()

	c.SetCookie(h.cookie.tokenCookie(result.Token))
	return c.JSON(http.StatusOK, userInfoResponse{
		ID:       result.User.ID,
		Username: result.User.Username,
		Roles:    domain.NormalizeRoles(result.User.Roles),
		JWTToken: result.Token,
	})
}

// Signout clears the token cookie. The presented token is revoked when the
// service runs with a revocation list.
func (h *AuthHandler) Signout(c echo.Context) error {
	if err := h.authService.Signout(c.Request().Context(), h.extractor.Extract(c.Request())); err != nil {
		h.log.Warn().Err(err).Msg("signout revocation failed")
	}
	c.SetCookie(h.cookie.cleanCookie())
	return c.JSON(http.StatusOK, messageResponse{Message: "you've been signed out"})
}

// Username returns the name of the authenticated principal.
func (h *AuthHandler) Username(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"username": p.Username})
}

// CurrentUser returns id, username and roles of the authenticated principal.
func (h *AuthHandler) CurrentUser(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userInfoResponse{ID: p.ID, Username: p.Username, Roles: p.Roles})
}
