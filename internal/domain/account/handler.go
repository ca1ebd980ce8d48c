package account

import (
	"github.com/labstack/echo/v4"

	"github.com/caretrack/caretrack/internal/platform/apperr"
	"github.com/caretrack/caretrack/internal/platform/auth"
	"github.com/caretrack/caretrack/internal/platform/respond"
)

// Handler exposes the authentication and profile endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the account endpoints on the given group. The
// auth/* paths are exempted from the bearer middleware; the profile
// paths sit behind it.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/auth/register", h.Register)
	g.POST("/auth/login", h.Login)
	g.POST("/auth/token/refresh", h.Refresh)

	g.GET("/profile", h.Profile)
	g.GET("/profile/me", h.Profile)
	g.PUT("/profile", h.UpdateProfile)
	g.PATCH("/profile", h.UpdateProfile)
	g.POST("/profile/change-password", h.ChangePassword)
}

func (h *Handler) Register(c echo.Context) error {
	var in RegisterInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("Invalid request body")
	}
	u, err := h.svc.Register(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return respond.Created(c, "User registered successfully", echo.Map{"user": u})
}

func (h *Handler) Login(c echo.Context) error {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("Invalid request body")
	}
	pair, u, err := h.svc.Login(c.Request().Context(), in.Username, in.Password)
	if err != nil {
		return err
	}
	return respond.OK(c, "Login successful", echo.Map{
		"access":  pair.Access,
		"refresh": pair.Refresh,
		"user":    u,
	})
}

func (h *Handler) Refresh(c echo.Context) error {
	var in struct {
		Refresh string `json:"refresh"`
	}
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("Invalid request body")
	}
	if in.Refresh == "" {
		return apperr.ValidationFields(apperr.FieldError{Field: "refresh", Message: "This field is required."})
	}
	access, err := h.svc.Refresh(c.Request().Context(), in.Refresh)
	if err != nil {
		return err
	}
	return respond.OK(c, "Token refreshed", echo.Map{"access": access})
}

func (h *Handler) Profile(c echo.Context) error {
	callerID := auth.UserIDFromContext(c.Request().Context())
	u, err := h.svc.Profile(c.Request().Context(), callerID)
	if err != nil {
		return err
	}
	return respond.OK(c, "Profile retrieved successfully", u)
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	callerID := auth.UserIDFromContext(c.Request().Context())

	var in ProfileInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("Invalid request body")
	}
	u, err := h.svc.UpdateProfile(c.Request().Context(), callerID, in)
	if err != nil {
		return err
	}
	return respond.OK(c, "Profile updated successfully", u)
}

func (h *Handler) ChangePassword(c echo.Context) error {
	callerID := auth.UserIDFromContext(c.Request().Context())

	var in struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("Invalid request body")
	}
	if err := h.svc.ChangePassword(c.Request().Context(), callerID, in.OldPassword, in.NewPassword); err != nil {
		return err
	}
	return respond.OK(c, "Password changed successfully", nil)
}
