package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/wafflestudio/seminar-system/internal/api/middleware"
	"github.com/wafflestudio/seminar-system/internal/core/domain"
)

// callerID returns the user id injected by the Auth middleware. Its absence
// means the route was registered without Auth, which is treated as an
// unauthenticated request.
func callerID(c echo.Context) (int64, error) {
	id, ok := c.Get(middleware.KeyUserID).(int64)
	if !ok || id <= 0 {
		return 0, domain.ErrMissingToken
	}
	return id, nil
}

// pathID parses a numeric path parameter. Anything else is reported as
// notFound, since no resource can carry that id.
func pathID(c echo.Context, name string, notFound error) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, notFound
	}
	return id, nil
}

// bind decodes the request body and runs the registered validator.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.ErrMalformedBody
	}
	return c.Validate(req)
}
