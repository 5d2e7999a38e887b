package handler

import (
	"time"

	"github.com/wafflestudio/seminar-system/internal/core/domain"
	"github.com/wafflestudio/seminar-system/internal/core/ports"
)

type signUpRequest struct {
	Email        string `json:"email" validate:"omitempty,email"`
	Username     string `json:"username" validate:"max=150"`
	Password     string `json:"password"`
	Role         string `json:"role"`
	University   string `json:"university" validate:"max=100"`
	IsRegistered *bool  `json:"is_registered"`
	Company      string `json:"company" validate:"max=100"`
	Year         *int   `json:"year"`
}

type signInRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type updateMeRequest struct {
	Username   *string `json:"username" validate:"omitempty,max=150"`
	University *string `json:"university" validate:"omitempty,max=100"`
	Company    *string `json:"company" validate:"omitempty,max=100"`
	Year       *int    `json:"year"`
}

type registerParticipantRequest struct {
	University   string `json:"university" validate:"max=100"`
	IsRegistered *bool  `json:"is_registered"`
}

type accountResponse struct {
	ID         int64      `json:"id"`
	Email      string     `json:"email"`
	Username   string     `json:"username"`
	Role       string     `json:"role"`
	LastLogin  *time.Time `json:"last_login"`
	DateJoined time.Time  `json:"date_joined"`
}

type authResponse struct {
	Token string          `json:"token"`
	User  accountResponse `json:"user"`
}

type attendedSeminarResponse struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	JoinedAt  time.Time  `json:"joined_at"`
	IsActive  bool       `json:"is_active"`
	DroppedAt *time.Time `json:"dropped_at"`
}

type participantProfileResponse struct {
	University   string                    `json:"university"`
	IsRegistered bool                      `json:"is_registered"`
	Seminars     []attendedSeminarResponse `json:"seminars"`
}

type chargeResponse struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joined_at"`
}

type instructorProfileResponse struct {
	Company string          `json:"company"`
	Year    *int            `json:"year"`
	Charge  *chargeResponse `json:"charge"`
}

type userResponse struct {
	ID          int64                       `json:"id"`
	Email       string                      `json:"email"`
	Username    string                      `json:"username"`
	Role        string                      `json:"role"`
	LastLogin   *time.Time                  `json:"last_login"`
	DateJoined  time.Time                   `json:"date_joined"`
	Participant *participantProfileResponse `json:"participant"`
	Instructor  *instructorProfileResponse  `json:"instructor"`
}

func (r signUpRequest) toInput() ports.SignUpInput {
	return ports.SignUpInput{
		Email:        r.Email,
		Username:     r.Username,
		Password:     r.Password,
		Role:         r.Role,
		University:   r.University,
		IsRegistered: r.IsRegistered,
		Company:      r.Company,
		Year:         r.Year,
	}
}

func (r updateMeRequest) toChanges() domain.UserChanges {
	return domain.UserChanges{
		Username:   r.Username,
		University: r.University,
		Company:    r.Company,
		Year:       r.Year,
	}
}

func (r registerParticipantRequest) toProfile() domain.ParticipantProfile {
	registered := true
	if r.IsRegistered != nil {
		registered = *r.IsRegistered
	}
	return domain.ParticipantProfile{University: r.University, IsRegistered: registered}
}

func toAccountResponse(u *domain.User) accountResponse {
	return accountResponse{
		ID:         u.ID,
		Email:      u.Email,
		Username:   u.Username,
		Role:       string(u.Role),
		LastLogin:  u.LastLoginAt,
		DateJoined: u.CreatedAt,
	}
}

func toUserResponse(p *ports.UserProfile) userResponse {
	resp := userResponse{
		ID:         p.ID,
		Email:      p.Email,
		Username:   p.Username,
		Role:       string(p.Role),
		LastLogin:  p.LastLogin,
		DateJoined: p.DateJoined,
	}
	if pp := p.Participant; pp != nil {
		block := &participantProfileResponse{
			University:   pp.University,
			IsRegistered: pp.IsRegistered,
			Seminars:     make([]attendedSeminarResponse, 0, len(pp.Seminars)),
		}
		for _, s := range pp.Seminars {
			block.Seminars = append(block.Seminars, attendedSeminarResponse(s))
		}
		resp.Participant = block
	}
	if ip := p.Instructor; ip != nil {
		block := &instructorProfileResponse{Company: ip.Company, Year: ip.Year}
		if ip.Charge != nil {
			charge := chargeResponse(*ip.Charge)
			block.Charge = &charge
		}
		resp.Instructor = block
	}
	return resp
}
