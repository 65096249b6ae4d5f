package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/mikhel0k/JurBot/internal/cache"
	"github.com/mikhel0k/JurBot/internal/domain"
	"github.com/mikhel0k/JurBot/internal/jwt"
	"github.com/mikhel0k/JurBot/internal/repository"
)

// CompanyService manages the single company a user can own, with a
// write-through cache in front of the database.
type CompanyService struct {
	companies repository.CompanyRepository
	cache     *cache.Store
	tokens    *jwt.Generator
	logger    *zap.Logger
}

func NewCompanyService(companies repository.CompanyRepository, store *cache.Store, tokens *jwt.Generator, logger *zap.Logger) *CompanyService {
	return &CompanyService{companies: companies, cache: store, tokens: tokens, logger: logger}
}

// Create registers the owner's company and returns it together with a
// re-issued access token carrying the new company claim, so the client's
// cookie can be replaced in the same response.
func (s *CompanyService) Create(ctx context.Context, ownerID int64, company domain.Company) (domain.Company, string, error) {
	s.logger.Info("creating company", zap.Int64("owner_id", ownerID))

	if _, err := s.companies.GetByOwner(ctx, ownerID); err == nil {
		s.logger.Warn("company already exists", zap.Int64("owner_id", ownerID))
		return domain.Company{}, "", domain.ErrAlreadyExists
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Company{}, "", err
	}

	company.OwnerID = ownerID
	created, err := s.companies.Create(ctx, company)
	if err != nil {
		return domain.Company{}, "", err
	}

	if err := s.cache.SaveCompany(ctx, created); err != nil {
		return domain.Company{}, "", err
	}

	access, err := s.tokens.AccessToken(ownerID, &created.ID)
	if err != nil {
		return domain.Company{}, "", err
	}

	s.logger.Info("company created", zap.Int64("company_id", created.ID), zap.Int64("owner_id", ownerID))
	return created, access, nil
}

// Get returns the owner's company, cache first.
func (s *CompanyService) Get(ctx context.Context, ownerID int64) (domain.Company, error) {
	if company, err := s.cache.Company(ctx, ownerID); err == nil {
		return company, nil
	} else if !errors.Is(err, cache.ErrNotFound) {
		return domain.Company{}, err
	}

	company, err := s.companies.GetByOwner(ctx, ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Company{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Company{}, err
	}

	if err := s.cache.SaveCompany(ctx, company); err != nil {
		return domain.Company{}, err
	}
	return company, nil
}

// Update applies a partial update and refreshes the cache entry.
func (s *CompanyService) Update(ctx context.Context, ownerID int64, upd domain.CompanyUpdate) (domain.Company, error) {
	company, err := s.companies.GetByOwner(ctx, ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		s.logger.Warn("company not found", zap.Int64("owner_id", ownerID))
		return domain.Company{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Company{}, err
	}

	if upd.Name != nil {
		company.Name = *upd.Name
	}
	if upd.INN != nil {
		company.INN = *upd.INN
	}
	if upd.SNILS != nil {
		company.SNILS = *upd.SNILS
	}
	if upd.Address != nil {
		company.Address = *upd.Address
	}

	updated, err := s.companies.Update(ctx, company)
	if err != nil {
		return domain.Company{}, err
	}

	if err := s.cache.SaveCompany(ctx, updated); err != nil {
		return domain.Company{}, err
	}

	s.logger.Info("company updated", zap.Int64("company_id", updated.ID), zap.Int64("owner_id", ownerID))
	return updated, nil
}
