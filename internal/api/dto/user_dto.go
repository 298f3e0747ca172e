package dto

import "github.com/spec-kit/users-service/internal/domain"

// Envelope is the uniform success response body. Every verb, create
// included, answers HTTP 200 with this shape.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// Success builds a 200 envelope.
func Success(message string, data any) Envelope {
	return Envelope{Code: 200, Message: message, Data: data}
}

// CreateUserRequest payload for POST /api/users.
type CreateUserRequest struct {
	Name     string             `json:"name"`
	Email    string             `json:"email"`
	Username string             `json:"username"`
	Status   *domain.UserStatus `json:"status"`
	IsActive *int16             `json:"isActive"`
	Avatar   *string            `json:"avatar"`
	ClientID *string            `json:"clientId"`
}

// UpdateUserRequest payload for PUT /api/users/:id. All fields optional;
// omitted fields are preserved.
type UpdateUserRequest struct {
	Name     *string            `json:"name"`
	Email    *string            `json:"email"`
	Username *string            `json:"username"`
	Status   *domain.UserStatus `json:"status"`
	IsActive *int16             `json:"isActive"`
	Avatar   *string            `json:"avatar"`
	ClientID *string            `json:"clientId"`
}

// ListUsersQuery captures query parameters for GET /api/users.
type ListUsersQuery struct {
	Page    int    `query:"page"`
	Limit   int    `query:"limit"`
	Keyword string `query:"keyword"`
}

// DeleteResult reports the affected row count of a delete.
type DeleteResult struct {
	Affected int64 `json:"affected"`
}
