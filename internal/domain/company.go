package domain

import "time"

// Company is the single company owned by a user.
type Company struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	Name      string    `json:"name"`
	INN       string    `json:"inn"`
	SNILS     string    `json:"snils"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CompanyUpdate carries a partial company update. Nil fields are left
// untouched.
type CompanyUpdate struct {
	Name    *string `json:"name"`
	INN     *string `json:"inn"`
	SNILS   *string `json:"snils"`
	Address *string `json:"address"`
}
