package repository

import (
	"context"

	"github.com/mikhel0k/JurBot/internal/domain"
)

// UserRepository is the credential store contract for user records.
// Lookups return pgx.ErrNoRows (wrapped) when no record matches.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByPhone(ctx context.Context, phone string) (domain.User, error)
	GetByID(ctx context.Context, userID int64) (domain.User, error)
	Create(ctx context.Context, user domain.User) (domain.User, error)
}

// CompanyRepository is the store contract for company records.
type CompanyRepository interface {
	GetByOwner(ctx context.Context, ownerID int64) (domain.Company, error)
	Create(ctx context.Context, company domain.Company) (domain.Company, error)
	Update(ctx context.Context, company domain.Company) (domain.Company, error)
}
