package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/wafflestudio/seminar-system/internal/api/middleware"
	"github.com/wafflestudio/seminar-system/internal/core/domain"
	"github.com/wafflestudio/seminar-system/internal/core/ports"
)

// newContext builds an echo context with the validator registered. A
// positive userID simulates the Auth middleware.
func newContext(method, target, body string, userID int64) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID > 0 {
		c.Set(middleware.KeyUserID, userID)
	}
	return c, rec
}

type stubAuthService struct {
	signUpFn func(ctx context.Context, in ports.SignUpInput) (*ports.AuthResult, error)
	logInFn  func(ctx context.Context, email, password string) (*ports.AuthResult, error)
}

func (s *stubAuthService) SignUp(ctx context.Context, in ports.SignUpInput) (*ports.AuthResult, error) {
	return s.signUpFn(ctx, in)
}

func (s *stubAuthService) LogIn(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	return s.logInFn(ctx, email, password)
}

type stubSeminarService struct {
	makeFn        func(in ports.MakeSeminarInput) (*ports.SeminarProfile, error)
	updateFn      func(in ports.UpdateSeminarInput) (*ports.SeminarProfile, error)
	getFn         func(id int64) (*ports.SeminarProfile, error)
	listFn        func(f ports.SeminarFilter) ([]ports.SeminarProfile, error)
	participateFn func(seminarID, userID int64, role string) (*ports.SeminarProfile, error)
	dropFn        func(seminarID, userID int64) (*ports.SeminarProfile, error)
}

func (s *stubSeminarService) MakeSeminar(_ context.Context, in ports.MakeSeminarInput) (*ports.SeminarProfile, error) {
	return s.makeFn(in)
}

func (s *stubSeminarService) UpdateSeminar(_ context.Context, in ports.UpdateSeminarInput) (*ports.SeminarProfile, error) {
	return s.updateFn(in)
}

func (s *stubSeminarService) GetSeminar(_ context.Context, id int64) (*ports.SeminarProfile, error) {
	return s.getFn(id)
}

func (s *stubSeminarService) ListSeminars(_ context.Context, f ports.SeminarFilter) ([]ports.SeminarProfile, error) {
	return s.listFn(f)
}

func (s *stubSeminarService) Participate(_ context.Context, seminarID, userID int64, role string) (*ports.SeminarProfile, error) {
	return s.participateFn(seminarID, userID, role)
}

func (s *stubSeminarService) Drop(_ context.Context, seminarID, userID int64) (*ports.SeminarProfile, error) {
	return s.dropFn(seminarID, userID)
}

type stubActivityService struct {
	events []domain.ActivityEvent
	err    error
}

func (s *stubActivityService) Record(context.Context, domain.ActivityEvent) error { return nil }

func (s *stubActivityService) ListBySeminar(_ context.Context, seminarID int64) ([]domain.ActivityEvent, error) {
	return s.events, s.err
}

type stubUserService struct {
	profiles map[int64]*ports.UserProfile
	changes  domain.UserChanges
	profile  domain.ParticipantProfile
	deleted  int64
	err      error
}

func (s *stubUserService) GetUser(_ context.Context, id int64) (*ports.UserProfile, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.profiles[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return p, nil
}

func (s *stubUserService) ListUsers(context.Context) ([]ports.UserProfile, error) {
	out := []ports.UserProfile{}
	for id := int64(1); id <= int64(len(s.profiles)); id++ {
		if p, ok := s.profiles[id]; ok {
			out = append(out, *p)
		}
	}
	return out, s.err
}

func (s *stubUserService) UpdateUser(ctx context.Context, id int64, changes domain.UserChanges) (*ports.UserProfile, error) {
	s.changes = changes
	return s.GetUser(ctx, id)
}

func (s *stubUserService) RegisterParticipant(ctx context.Context, id int64, profile domain.ParticipantProfile) (*ports.UserProfile, error) {
	s.profile = profile
	return s.GetUser(ctx, id)
}

func (s *stubUserService) DeleteUser(_ context.Context, id int64) error {
	s.deleted = id
	return s.err
}
