package handler

import (
	"strings"
	"time"

	"github.com/finbridge/backoffice/internal/model"
)

type createUserRequest struct {
	FirstName string `json:"first_name" validate:"required,min=1,max=50"`
	LastName  string `json:"last_name" validate:"required,min=1,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Role      string `json:"role" validate:"required,oneof=admin agent"`
}

func (r *createUserRequest) normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

type updateUserRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,min=1,max=50"`
	LastName  *string `json:"last_name" validate:"omitempty,min=1,max=50"`
	Role      *string `json:"role" validate:"omitempty,oneof=admin agent"`
}

func (r *updateUserRequest) normalize() {
	if r.FirstName != nil {
		v := strings.TrimSpace(*r.FirstName)
		r.FirstName = &v
	}
	if r.LastName != nil {
		v := strings.TrimSpace(*r.LastName)
		r.LastName = &v
	}
}

type setDisabledRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Disabled bool   `json:"disabled"`
}

type resetPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type userResponse struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Disabled  bool      `json:"disabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
		Disabled:  u.Disabled,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func newUserListResponse(users []*model.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, newUserResponse(u))
	}
	return out
}
