package handler

import (
	"strings"
	"time"

	"github.com/finbridge/backoffice/internal/model"
)

type createAgentRequest struct {
	FirstName string `json:"first_name" validate:"required,min=1,max=50"`
	LastName  string `json:"last_name" validate:"required,min=1,max=50"`
	Email     string `json:"email" validate:"required,email"`
}

// normalize trims strings and lower-cases the email before validation so
// "  Ana@X.COM " and "ana@x.com" hit the same unique constraint.
func (r *createAgentRequest) normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

type updateAgentRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,min=1,max=50"`
	LastName  *string `json:"last_name" validate:"omitempty,min=1,max=50"`
	Email     *string `json:"email" validate:"omitempty,email"`
}

func (r *updateAgentRequest) normalize() {
	if r.FirstName != nil {
		v := strings.TrimSpace(*r.FirstName)
		r.FirstName = &v
	}
	if r.LastName != nil {
		v := strings.TrimSpace(*r.LastName)
		r.LastName = &v
	}
	if r.Email != nil {
		v := strings.ToLower(strings.TrimSpace(*r.Email))
		r.Email = &v
	}
}

// deleteRequest carries the optional reason recorded on soft delete.
type deleteRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=255"`
}

type agentResponse struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newAgentResponse(a *model.Agent) agentResponse {
	return agentResponse{
		ID:        a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
		Role:      a.Role,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func newAgentListResponse(agents []*model.Agent) []agentResponse {
	out := make([]agentResponse, 0, len(agents))
	for _, a := range agents {
		out = append(out, newAgentResponse(a))
	}
	return out
}
