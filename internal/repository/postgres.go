package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mikhel0k/JurBot/internal/domain"
)

// Compile-time interface assertions.
var (
	_ UserRepository    = (*PostgresUserRepo)(nil)
	_ CompanyRepository = (*PostgresCompanyRepo)(nil)
)

// PostgresUserRepo implements UserRepository over pgx.
type PostgresUserRepo struct {
	db *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{db: pool}
}

const selectUserSQL = `SELECT id, email, phone_number, password_hash, full_name, created_at, updated_at
FROM users`

func (r *PostgresUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRow(ctx, selectUserSQL+` WHERE email = $1`, email)
	user, err := scanUser(row)
	if err != nil {
		return domain.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepo) GetByPhone(ctx context.Context, phone string) (domain.User, error) {
	row := r.db.QueryRow(ctx, selectUserSQL+` WHERE phone_number = $1`, phone)
	user, err := scanUser(row)
	if err != nil {
		return domain.User{}, fmt.Errorf("get user by phone: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepo) GetByID(ctx context.Context, userID int64) (domain.User, error) {
	row := r.db.QueryRow(ctx, selectUserSQL+` WHERE id = $1`, userID)
	user, err := scanUser(row)
	if err != nil {
		return domain.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

const insertUserSQL = `INSERT INTO users (email, phone_number, password_hash, full_name)
VALUES ($1, $2, $3, $4)
RETURNING id, email, phone_number, password_hash, full_name, created_at, updated_at`

// Create inserts the user inside its own transaction, so a failure after
// the insert begins leaves no partial record behind.
func (r *PostgresUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	var created domain.User
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, insertUserSQL, user.Email, user.PhoneNumber, user.PasswordHash, user.FullName)
		var err error
		created, err = scanUser(row)
		return err
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PhoneNumber,
		&user.PasswordHash,
		&user.FullName,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

// PostgresCompanyRepo implements CompanyRepository over pgx.
type PostgresCompanyRepo struct {
	db *pgxpool.Pool
}

func NewPostgresCompanyRepo(pool *pgxpool.Pool) *PostgresCompanyRepo {
	return &PostgresCompanyRepo{db: pool}
}

const selectCompanySQL = `SELECT id, owner_id, name, inn, snils, address, created_at, updated_at
FROM companies`

func (r *PostgresCompanyRepo) GetByOwner(ctx context.Context, ownerID int64) (domain.Company, error) {
	row := r.db.QueryRow(ctx, selectCompanySQL+` WHERE owner_id = $1`, ownerID)
	company, err := scanCompany(row)
	if err != nil {
		return domain.Company{}, fmt.Errorf("get company by owner: %w", err)
	}
	return company, nil
}

const insertCompanySQL = `INSERT INTO companies (owner_id, name, inn, snils, address)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, owner_id, name, inn, snils, address, created_at, updated_at`

func (r *PostgresCompanyRepo) Create(ctx context.Context, company domain.Company) (domain.Company, error) {
	row := r.db.QueryRow(ctx, insertCompanySQL, company.OwnerID, company.Name, company.INN, company.SNILS, company.Address)
	created, err := scanCompany(row)
	if err != nil {
		return domain.Company{}, fmt.Errorf("create company: %w", err)
	}
	return created, nil
}

const updateCompanySQL = `UPDATE companies
SET name = $2, inn = $3, snils = $4, address = $5, updated_at = now()
WHERE id = $1
RETURNING id, owner_id, name, inn, snils, address, created_at, updated_at`

func (r *PostgresCompanyRepo) Update(ctx context.Context, company domain.Company) (domain.Company, error) {
	row := r.db.QueryRow(ctx, updateCompanySQL, company.ID, company.Name, company.INN, company.SNILS, company.Address)
	updated, err := scanCompany(row)
	if err != nil {
		return domain.Company{}, fmt.Errorf("update company: %w", err)
	}
	return updated, nil
}

func scanCompany(row pgx.Row) (domain.Company, error) {
	var company domain.Company
	err := row.Scan(
		&company.ID,
		&company.OwnerID,
		&company.Name,
		&company.INN,
		&company.SNILS,
		&company.Address,
		&company.CreatedAt,
		&company.UpdatedAt,
	)
	return company, err
}
