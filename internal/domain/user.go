package domain

// UserStatus enumerates lifecycle states for users.
type UserStatus string

const (
	UserStatusEnabled  UserStatus = "enabled"
	UserStatusDisabled UserStatus = "disabled"
)

// User is the domain model for the users resource. Email and username are
// unique case-insensitively, cross-checked against each other on create.
// IsActive is persisted and exposed as 0/1.
type User struct {
	Entity
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Username string     `json:"username"`
	Status   UserStatus `json:"status"`
	IsActive int16      `json:"isActive"`
	Avatar   *string    `json:"avatar,omitempty"`
}
