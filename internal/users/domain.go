package users

import "time"

// User is the management view of an account. Password hashes never leave
// the repository layer.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	RoleID    int64     `json:"role_id"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateUserRequest carries input for provisioning an account.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	RoleID   int64  `json:"role_id" validate:"required,gt=0"`
}

// UpdateUserRequest carries a partial account update. Nil fields are left
// untouched.
type UpdateUserRequest struct {
	Email    *string `json:"email" validate:"omitempty,email,max=254"`
	RoleID   *int64  `json:"role_id" validate:"omitempty,gt=0"`
	IsActive *bool   `json:"is_active"`
}
