package handler

import (
	"log/slog"
	"net/http"

	"accounts/internal/delivery/http/middleware"
	"accounts/internal/delivery/http/response"
	domainerrors "accounts/internal/domain/errors"
	"accounts/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// ProfileHandler holds dependencies for the profile handlers.
type ProfileHandler struct {
	uc     usecase.ProfileUsecase
	logger *slog.Logger
}

// NewProfileHandler is the constructor for ProfileHandler, injected by Fx.
func NewProfileHandler(uc usecase.ProfileUsecase, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		uc:     uc,
		logger: logger,
	}
}

// GetProfile returns the authenticated user's own profile.
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	username, ok := middleware.Username(c)
	if !ok {
		return domainerrors.ErrUnauthorized.WrapMessage("no authenticated principal")
	}

	output, err := h.uc.GetProfile(c.Request().Context(), username)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.JSON(c, http.StatusOK, newProfileResponse(output.User, output.Bio))
}

type updateProfileRequest struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=8"`
	Bio      *string `json:"bio"`
}

// UpdateProfile applies a partial update to the authenticated user's profile.
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	username, ok := middleware.Username(c)
	if !ok {
		return domainerrors.ErrUnauthorized.WrapMessage("no authenticated principal")
	}

	var input updateProfileRequest
	if err := c.Bind(&input); err != nil {
		return response.Error(c, http.StatusBadRequest, "INVALID_INPUT", "invalid profile update input")
	}
	if err := c.Validate(&input); err != nil {
		return err
	}

	output, err := h.uc.UpdateProfile(c.Request().Context(), username, &usecase.UpdateProfileInput{
		Email:    input.Email,
		Password: input.Password,
		Bio:      input.Bio,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.JSON(c, http.StatusOK, newProfileResponse(output.User, output.Bio))
}
