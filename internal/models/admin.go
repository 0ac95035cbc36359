package models

import "time"

type AdminRole string

const (
	RoleSuperAdmin      AdminRole = "SUPER_ADMIN"
	RoleSubAdmin        AdminRole = "SUB_ADMIN"
	RoleInstructorAdmin AdminRole = "INSTRUCTOR_ADMIN"
	RoleStudentAdmin    AdminRole = "STUDENT_ADMIN"
)

func (r AdminRole) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleSubAdmin, RoleInstructorAdmin, RoleStudentAdmin:
		return true
	}
	return false
}

type AdminUser struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name"`
	Role         AdminRole `db:"role" json:"role"`
	Phone        *string   `db:"phone" json:"phone,omitempty"`
	Active       bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// AdminContact is a notification recipient resolved from an admin account.
type AdminContact struct {
	ID    int64     `db:"id"`
	Role  AdminRole `db:"role"`
	Phone string    `db:"phone"`
}
