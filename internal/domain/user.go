package domain

import "time"

// User is a registered account. Email and phone number are unique.
type User struct {
	ID           int64
	Email        string
	PhoneNumber  string
	PasswordHash string
	FullName     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserProfile is the public projection of a user, safe to park in the
// cache between the two login steps.
type UserProfile struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	FullName    string `json:"full_name"`
}

// Profile returns the public projection of u.
func (u User) Profile() UserProfile {
	return UserProfile{
		ID:          u.ID,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		FullName:    u.FullName,
	}
}

// PendingRegistration is the full registration payload held in the cache
// between the register and confirm steps. The plaintext password never
// reaches the cache.
type PendingRegistration struct {
	Email        string `json:"email"`
	PhoneNumber  string `json:"phone_number"`
	FullName     string `json:"full_name"`
	PasswordHash string `json:"password_hash"`
}
