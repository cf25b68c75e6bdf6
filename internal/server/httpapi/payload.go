package httpapi

import (
	"time"

	"github.com/dmpavlov/userkeeper/internal/server/services"
)

// Request DTOs. The validate tags cover request shape only; business-rule
// validation (email pattern, password strength, uniqueness) lives in the
// account service.

type PhoneRequest struct {
	Number      string `json:"number"       validate:"required,numeric,max=10"`
	CityCode    string `json:"city_code"    validate:"required"`
	CountryCode string `json:"country_code" validate:"required"`
}

type CreateUserRequest struct {
	Name     string         `json:"name"     validate:"required"`
	Email    string         `json:"email"    validate:"required"`
	Password string         `json:"password" validate:"required"`
	Phones   []PhoneRequest `json:"phones"   validate:"required,min=1,dive"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateUserRequest models a partial update: nil means "leave untouched".
// Phones is a pointer to a slice so an explicit empty list clears the
// collection while an absent field leaves it alone.
type UpdateUserRequest struct {
	Name     *string         `json:"name"`
	Email    *string         `json:"email"`
	Password *string         `json:"password"`
	Active   *bool           `json:"active"`
	Phones   *[]PhoneRequest `json:"phones" validate:"omitempty,dive"`
}

// Response DTOs.

type PhoneResponse struct {
	Number      string `json:"number"`
	CityCode    string `json:"city_code"`
	CountryCode string `json:"country_code"`
}

type UserResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Active    bool            `json:"active"`
	Token     string          `json:"token"`
	Created   time.Time       `json:"created"`
	Modified  time.Time       `json:"modified"`
	LastLogin time.Time       `json:"last_login"`
	Phones    []PhoneResponse `json:"phones"`
}

type PagedResponse struct {
	Content       []*UserResponse `json:"content"`
	Page          int             `json:"page"`
	Size          int             `json:"size"`
	TotalElements int64           `json:"total_elements"`
	TotalPages    int             `json:"total_pages"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func toUserResponse(view *services.AccountView) *UserResponse {
	phones := make([]PhoneResponse, 0, len(view.Phones))
	for _, p := range view.Phones {
		phones = append(phones, PhoneResponse{
			Number:      p.Number,
			CityCode:    p.CityCode,
			CountryCode: p.CountryCode,
		})
	}

	return &UserResponse{
		ID:        view.ID,
		Name:      view.Name,
		Email:     view.Email,
		Active:    view.Active,
		Token:     view.Token,
		Created:   view.CreatedAt,
		Modified:  view.UpdatedAt,
		LastLogin: view.LastLogin,
		Phones:    phones,
	}
}

func toPhoneParams(reqs []PhoneRequest) []services.PhoneParams {
	phones := make([]services.PhoneParams, 0, len(reqs))
	for _, p := range reqs {
		phones = append(phones, services.PhoneParams{
			Number:      p.Number,
			CityCode:    p.CityCode,
			CountryCode: p.CountryCode,
		})
	}
	return phones
}
