package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wafflestudio/seminar-system/internal/core/domain"
	"github.com/wafflestudio/seminar-system/internal/core/ports"
)

// UserHandler handles HTTP requests for account operations.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// GetMe handles GET /api/v1/me.
//
// @Summary      Get the caller's profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userResponse
// @Failure      401  {object}  errorBody
// @Failure      404  {object}  errorBody
// @Router       /api/v1/me [get]
func (h *UserHandler) GetMe(c echo.Context) error {
	id, err := callerID(c)
	if err != nil {
		return err
	}
	return h.render(c, id)
}

// Get handles GET /api/v1/user/:user_id.
//
// @Summary      Get a user profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        user_id  path      int  true  "User id"
// @Success      200      {object}  userResponse
// @Failure      401      {object}  errorBody
// @Failure      404      {object}  errorBody
// @Router       /api/v1/user/{user_id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c, "user_id", domain.ErrUserNotFound)
	if err != nil {
		return err
	}
	return h.render(c, id)
}

func (h *UserHandler) render(c echo.Context, id int64) error {
	profile, err := h.service.GetUser(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(profile))
}

// List handles GET /api/v1/users.
//
// @Summary      List all users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   userResponse
// @Failure      401  {object}  errorBody
// @Router       /api/v1/users [get]
func (h *UserHandler) List(c echo.Context) error {
	profiles, err := h.service.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]userResponse, 0, len(profiles))
	for i := range profiles {
		out = append(out, toUserResponse(&profiles[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// UpdateMe handles PUT /api/v1/me.
//
// @Summary      Update the caller's profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateMeRequest  true  "Fields to change"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorBody
// @Failure      401   {object}  errorBody
// @Router       /api/v1/me [put]
func (h *UserHandler) UpdateMe(c echo.Context) error {
	id, err := callerID(c)
	if err != nil {
		return err
	}
	var req updateMeRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	profile, err := h.service.UpdateUser(c.Request().Context(), id, req.toChanges())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(profile))
}

// RegisterParticipant handles POST /api/v1/user/participant.
//
// @Summary      Add a participant profile to an instructor account
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      registerParticipantRequest  true  "Participant profile"
// @Success      201   {object}  userResponse
// @Failure      401   {object}  errorBody
// @Failure      403   {object}  errorBody
// @Failure      409   {object}  errorBody
// @Router       /api/v1/user/participant [post]
func (h *UserHandler) RegisterParticipant(c echo.Context) error {
	id, err := callerID(c)
	if err != nil {
		return err
	}
	var req registerParticipantRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	profile, err := h.service.RegisterParticipant(c.Request().Context(), id, req.toProfile())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toUserResponse(profile))
}

// Delete handles DELETE /api/v1/user.
//
// @Summary      Delete the caller's account
// @Tags         users
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  errorBody
// @Failure      403  {object}  errorBody
// @Router       /api/v1/user [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := callerID(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteUser(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
