package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mikhel0k/JurBot/internal/cache"
	"github.com/mikhel0k/JurBot/internal/config"
	"github.com/mikhel0k/JurBot/internal/domain"
	"github.com/mikhel0k/JurBot/internal/jwt"
	"github.com/mikhel0k/JurBot/internal/mail"
	"github.com/mikhel0k/JurBot/internal/repository"
)

// Login confirmation outcomes. Both are successful logins; the second
// routes the client to company creation.
const (
	MsgLoginSuccess = "success"
	MsgNoCompany    = "you do not have a company yet"
)

// RegisterInput is the profile submitted on the first registration step.
type RegisterInput struct {
	Email       string
	PhoneNumber string
	FullName    string
	Password    string
}

// TokenPair is the result of a confirmed registration or login.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RefreshedAccess is a freshly issued access token together with the
// identity it encodes, so callers do not have to parse it again.
type RefreshedAccess struct {
	AccessToken string
	UserID      int64
	CompanyID   *int64
}

// AuthService orchestrates the two-step, code-verified registration and
// login flows, logout, and access-token refresh.
type AuthService struct {
	users     repository.UserRepository
	companies repository.CompanyRepository
	cache     *cache.Store
	tokens    *jwt.Generator
	mailer    mail.Sender
	cfg       config.Config
	logger    *zap.Logger
}

// NewAuthService wires the auth flow engine. All collaborators are
// injected; the service owns none of their lifecycles.
func NewAuthService(
	users repository.UserRepository,
	companies repository.CompanyRepository,
	store *cache.Store,
	tokens *jwt.Generator,
	mailer mail.Sender,
	cfg config.Config,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		companies: companies,
		cache:     store,
		tokens:    tokens,
		mailer:    mailer,
		cfg:       cfg,
		logger:    logger,
	}
}

// Register starts a registration: checks that the email and phone are
// free both in the cache and in the database, emails a 6-digit code and
// parks the hashed profile in the cache under a fresh handle. No user
// record is created yet.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (string, error) {
	s.logger.Info("register attempt", zap.String("email", in.Email))

	inProgress, err := s.cache.RegistrationInProgress(ctx, in.Email, in.PhoneNumber)
	if err != nil {
		return "", err
	}
	if inProgress {
		s.logger.Warn("registration already pending", zap.String("email", in.Email))
		return "", domain.ErrAlreadyExists
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		s.logger.Warn("user already registered", zap.String("email", in.Email))
		return "", domain.ErrAlreadyExists
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	if _, err := s.users.GetByPhone(ctx, in.PhoneNumber); err == nil {
		s.logger.Warn("user already registered", zap.String("email", in.Email))
		return "", domain.ErrAlreadyExists
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	code, err := generateCode()
	if err != nil {
		return "", err
	}
	handle := uuid.NewString()

	if err := s.deliverCode(ctx, in.Email, code); err != nil {
		return "", err
	}

	pending := domain.PendingRegistration{
		Email:        in.Email,
		PhoneNumber:  in.PhoneNumber,
		FullName:     in.FullName,
		PasswordHash: string(hash),
	}
	if err := s.cache.SavePendingRegistration(ctx, handle, code, pending); err != nil {
		return "", err
	}

	s.logger.Info("registration code sent", zap.String("jti", handle))
	return handle, nil
}

// ConfirmRegistration consumes the pending payload for (handle, code),
// creates the durable user record and issues the token pair. The cache
// cleanup happens before the insert and is not compensated if the insert
// fails: the client retries registration from scratch.
func (s *AuthService) ConfirmRegistration(ctx context.Context, handle, code string) (TokenPair, error) {
	pending, err := s.cache.PendingRegistration(ctx, handle, code)
	if errors.Is(err, cache.ErrNotFound) {
		s.logger.Warn("invalid registration code", zap.String("jti", handle))
		return TokenPair{}, domain.ErrInvalidCode
	}
	if err != nil {
		return TokenPair{}, err
	}

	// Unconditional: a leftover marker would block re-registration until
	// its TTL lapses.
	if err := s.cache.DeletePendingRegistration(ctx, handle, code, pending.Email, pending.PhoneNumber); err != nil {
		return TokenPair{}, err
	}

	user, err := s.users.Create(ctx, domain.User{
		Email:        pending.Email,
		PhoneNumber:  pending.PhoneNumber,
		PasswordHash: pending.PasswordHash,
		FullName:     pending.FullName,
	})
	if err != nil {
		return TokenPair{}, err
	}

	pair, err := s.issueTokens(ctx, user.ID, nil)
	if err != nil {
		return TokenPair{}, err
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID))
	return pair, nil
}

// Login verifies the password and starts the second step: emails a
// 6-digit code and parks the public profile under a fresh handle.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	s.logger.Info("login attempt", zap.String("email", email))

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		s.logger.Warn("login failed, user not found", zap.String("email", email))
		return "", domain.ErrUnauthorized
	}
	if err != nil {
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.logger.Warn("login failed, wrong password", zap.String("email", email))
		return "", domain.ErrUnauthorized
	}

	code, err := generateCode()
	if err != nil {
		return "", err
	}
	handle := uuid.NewString()

	if err := s.deliverCode(ctx, user.Email, code); err != nil {
		return "", err
	}

	if err := s.cache.SavePendingLogin(ctx, handle, code, user.Profile()); err != nil {
		return "", err
	}

	s.logger.Info("login code sent", zap.String("jti", handle))
	return handle, nil
}

// ConfirmLogin consumes the pending login for (handle, code), resolves
// the user's current company, issues the token pair and overwrites the
// refresh record. The returned message is MsgLoginSuccess when a company
// exists and MsgNoCompany otherwise; both are successful outcomes.
func (s *AuthService) ConfirmLogin(ctx context.Context, handle, code string) (TokenPair, string, error) {
	profile, err := s.cache.PendingLogin(ctx, handle, code)
	if errors.Is(err, cache.ErrNotFound) {
		s.logger.Warn("invalid login code", zap.String("jti", handle))
		return TokenPair{}, "", domain.ErrInvalidCode
	}
	if err != nil {
		return TokenPair{}, "", err
	}

	if err := s.cache.DeletePendingLogin(ctx, handle, code); err != nil {
		return TokenPair{}, "", err
	}

	company, companyID, err := s.resolveCompany(ctx, profile.ID)
	if err != nil {
		return TokenPair{}, "", err
	}

	pair, err := s.issueTokens(ctx, profile.ID, companyID)
	if err != nil {
		return TokenPair{}, "", err
	}

	message := MsgNoCompany
	if companyID != nil {
		if err := s.cache.SaveCompany(ctx, company); err != nil {
			return TokenPair{}, "", err
		}
		message = MsgLoginSuccess
	}

	s.logger.Info("user logged in",
		zap.Int64("user_id", profile.ID),
		zap.Int64p("company_id", companyID),
	)
	return pair, message, nil
}

// Logout drops the refresh record for the token in the given cookie
// value. It is idempotent and never fails from the caller's point of
// view: a missing, invalid or already-revoked token is simply ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}

	claims, err := s.tokens.Parse(refreshToken)
	if err != nil {
		return
	}
	userID, err := claims.UserID()
	if err != nil {
		return
	}

	if err := s.cache.DeleteRefreshToken(ctx, userID); err != nil {
		s.logger.Warn("logout: refresh record deletion failed", zap.Error(err))
		return
	}
	s.logger.Info("user logged out", zap.Int64("user_id", userID))
}

// RefreshAccessToken exchanges a valid, non-revoked refresh token for a
// fresh access token with the user's current company claim. The refresh
// token itself is not rotated. The revocation check compares the
// presented token against the single record on file: logout and a newer
// login both invalidate older tokens.
func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (RefreshedAccess, error) {
	claims, err := s.tokens.Parse(refreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrKeyNotConfigured) {
			return RefreshedAccess{}, err
		}
		s.logger.Warn("refresh failed: invalid or expired token")
		return RefreshedAccess{}, domain.ErrUnauthorized
	}
	userID, err := claims.UserID()
	if err != nil {
		s.logger.Warn("refresh failed: invalid subject")
		return RefreshedAccess{}, domain.ErrUnauthorized
	}

	stored, err := s.cache.RefreshToken(ctx, userID)
	if errors.Is(err, cache.ErrNotFound) {
		s.logger.Warn("refresh failed: token invalidated", zap.Int64("user_id", userID))
		return RefreshedAccess{}, domain.ErrUnauthorized
	}
	if err != nil {
		return RefreshedAccess{}, err
	}
	if stored != refreshToken {
		s.logger.Warn("refresh failed: token superseded", zap.Int64("user_id", userID))
		return RefreshedAccess{}, domain.ErrUnauthorized
	}

	_, companyID, err := s.resolveCompany(ctx, userID)
	if err != nil {
		return RefreshedAccess{}, err
	}

	access, err := s.tokens.AccessToken(userID, companyID)
	if err != nil {
		return RefreshedAccess{}, err
	}

	s.logger.Info("access token refreshed", zap.Int64("user_id", userID))
	return RefreshedAccess{AccessToken: access, UserID: userID, CompanyID: companyID}, nil
}

func (s *AuthService) issueTokens(ctx context.Context, userID int64, companyID *int64) (TokenPair, error) {
	access, err := s.tokens.AccessToken(userID, companyID)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.tokens.RefreshToken(userID)
	if err != nil {
		return TokenPair{}, err
	}

	// Last writer wins: this revokes every refresh token issued before.
	if err := s.cache.SaveRefreshToken(ctx, userID, refresh); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) resolveCompany(ctx context.Context, userID int64) (domain.Company, *int64, error) {
	company, err := s.companies.GetByOwner(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Company{}, nil, nil
	}
	if err != nil {
		return domain.Company{}, nil, err
	}
	return company, &company.ID, nil
}

// deliverCode sends the confirmation code. Failures are fatal when
// strict delivery is configured (the default outside development) and a
// logged warning otherwise.
func (s *AuthService) deliverCode(ctx context.Context, to, code string) error {
	if err := s.mailer.SendCode(ctx, to, code); err != nil {
		if s.cfg.SMTPStrictDelivery {
			return fmt.Errorf("deliver code: %w", err)
		}
		s.logger.Warn("code delivery failed, continuing", zap.Error(err))
	}
	return nil
}

// generateCode returns 6 uniformly random ASCII digits, leading zeros
// allowed.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
