package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/wafflestudio/seminar-system/internal/core/domain"
	"github.com/wafflestudio/seminar-system/internal/core/ports"
)

// HeaderIdempotencyKey lets a client retry seminar creation safely.
const HeaderIdempotencyKey = "Idempotency-Key"

// SeminarHandler handles HTTP requests for seminar and membership operations.
type SeminarHandler struct {
	seminars ports.SeminarService
	activity ports.ActivityService
}

func NewSeminarHandler(seminars ports.SeminarService, activity ports.ActivityService) *SeminarHandler {
	return &SeminarHandler{seminars: seminars, activity: activity}
}

// Make handles POST /api/v1/seminar.
//
// @Summary      Open a seminar
// @Description  The caller becomes its founding instructor.
// @Tags         seminars
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string          false  "Replays return the seminar created first"
// @Param        body             body      seminarRequest  true   "Seminar fields"
// @Success      201              {object}  seminarResponse
// @Failure      400              {object}  errorBody
// @Failure      401              {object}  errorBody
// @Failure      403              {object}  errorBody
// @Router       /api/v1/seminar [post]
func (h *SeminarHandler) Make(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	var req seminarRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	profile, err := h.seminars.MakeSeminar(c.Request().Context(), ports.MakeSeminarInput{
		UserID:         userID,
		Draft:          req.toDraft(),
		IdempotencyKey: strings.TrimSpace(c.Request().Header.Get(HeaderIdempotencyKey)),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toSeminarResponse(profile))
}

// Update handles PUT /api/v1/seminar.
//
// @Summary      Update the seminar the caller conducts
// @Tags         seminars
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      seminarRequest  true  "Fields to change"
// @Success      200   {object}  seminarResponse
// @Failure      400   {object}  errorBody
// @Failure      401   {object}  errorBody
// @Failure      403   {object}  errorBody
// @Router       /api/v1/seminar [put]
func (h *SeminarHandler) Update(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	var req seminarRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	profile, err := h.seminars.UpdateSeminar(c.Request().Context(), ports.UpdateSeminarInput{
		UserID: userID,
		Draft:  req.toDraft(),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSeminarResponse(profile))
}

// Get handles GET /api/v1/seminar/:seminar_id.
//
// @Summary      Get a seminar
// @Tags         seminars
// @Produce      json
// @Security     BearerAuth
// @Param        seminar_id  path      int  true  "Seminar id"
// @Success      200         {object}  seminarResponse
// @Failure      401         {object}  errorBody
// @Failure      404         {object}  errorBody
// @Router       /api/v1/seminar/{seminar_id} [get]
func (h *SeminarHandler) Get(c echo.Context) error {
	id, err := pathID(c, "seminar_id", domain.ErrSeminarNotFound)
	if err != nil {
		return err
	}
	profile, err := h.seminars.GetSeminar(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSeminarResponse(profile))
}

// List handles GET /api/v1/seminar.
//
// @Summary      List seminars
// @Description  Newest first unless order=earliest.
// @Tags         seminars
// @Produce      json
// @Security     BearerAuth
// @Param        name   query     string  false  "Case-sensitive substring of the seminar name"
// @Param        order  query     string  false  "earliest"
// @Success      200    {array}   seminarResponse
// @Failure      401    {object}  errorBody
// @Router       /api/v1/seminar [get]
func (h *SeminarHandler) List(c echo.Context) error {
	profiles, err := h.seminars.ListSeminars(c.Request().Context(), ports.SeminarFilter{
		Name:     c.QueryParam("name"),
		Earliest: c.QueryParam("order") == "earliest",
	})
	if err != nil {
		return err
	}
	out := make([]seminarResponse, 0, len(profiles))
	for i := range profiles {
		out = append(out, toSeminarResponse(&profiles[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// Participate handles POST /api/v1/seminar/:seminar_id/user.
//
// @Summary      Join a seminar
// @Tags         seminars
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        seminar_id  path      int                 true  "Seminar id"
// @Param        body        body      participateRequest  true  "Role to join with"
// @Success      201         {object}  seminarResponse
// @Failure      400         {object}  errorBody
// @Failure      401         {object}  errorBody
// @Failure      403         {object}  errorBody
// @Failure      404         {object}  errorBody
// @Router       /api/v1/seminar/{seminar_id}/user [post]
func (h *SeminarHandler) Participate(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	seminarID, err := pathID(c, "seminar_id", domain.ErrSeminarNotFound)
	if err != nil {
		return err
	}
	var req participateRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	profile, err := h.seminars.Participate(c.Request().Context(), seminarID, userID, req.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toSeminarResponse(profile))
}

// Drop handles DELETE /api/v1/seminar/:seminar_id/user.
//
// @Summary      Drop a seminar
// @Description  Participants only. A dropped participant can never rejoin.
// @Tags         seminars
// @Produce      json
// @Security     BearerAuth
// @Param        seminar_id  path      int  true  "Seminar id"
// @Success      200         {object}  seminarResponse
// @Failure      401         {object}  errorBody
// @Failure      403         {object}  errorBody
// @Failure      404         {object}  errorBody
// @Router       /api/v1/seminar/{seminar_id}/user [delete]
func (h *SeminarHandler) Drop(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	seminarID, err := pathID(c, "seminar_id", domain.ErrSeminarNotFound)
	if err != nil {
		return err
	}

	profile, err := h.seminars.Drop(c.Request().Context(), seminarID, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSeminarResponse(profile))
}

// Activity handles GET /api/v1/seminar/:seminar_id/activity.
//
// @Summary      Seminar history
// @Tags         seminars
// @Produce      json
// @Security     BearerAuth
// @Param        seminar_id  path      int  true  "Seminar id"
// @Success      200         {array}   activityResponse
// @Failure      401         {object}  errorBody
// @Failure      404         {object}  errorBody
// @Router       /api/v1/seminar/{seminar_id}/activity [get]
func (h *SeminarHandler) Activity(c echo.Context) error {
	seminarID, err := pathID(c, "seminar_id", domain.ErrSeminarNotFound)
	if err != nil {
		return err
	}
	events, err := h.activity.ListBySeminar(c.Request().Context(), seminarID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toActivityResponses(events))
}
