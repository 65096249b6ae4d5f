package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mikhel0k/JurBot/internal/config"
	"github.com/mikhel0k/JurBot/internal/domain"
)

// ErrNotFound reports a missing or expired cache entry.
var ErrNotFound = errors.New("cache: entry not found")

const inProgressMarker = "registering"

// Store wraps the Redis client with the typed entries the auth flows
// need: pending registrations and logins keyed by (handle, code),
// registration-in-progress markers, per-user refresh records, and the
// company cache. Multi-key updates are best effort; Redis TTLs own all
// expiry.
type Store struct {
	redis *redis.Client
	cfg   config.Config
}

// New creates a store over the given client.
func New(client *redis.Client, cfg config.Config) *Store {
	return &Store{redis: client, cfg: cfg}
}

func pendingKey(handle, code string) string {
	return fmt.Sprintf("%s_%s", handle, code)
}

func refreshKey(userID int64) string {
	return fmt.Sprintf("%d_refresh_token", userID)
}

func companyKey(ownerID int64) string {
	return fmt.Sprintf("company_%d", ownerID)
}

// RegistrationInProgress reports whether either identifier already has a
// pending registration.
func (s *Store) RegistrationInProgress(ctx context.Context, email, phone string) (bool, error) {
	n, err := s.redis.Exists(ctx, email, phone).Result()
	if err != nil {
		return false, fmt.Errorf("check in-progress markers: %w", err)
	}
	return n > 0, nil
}

// SavePendingRegistration writes the pending payload under (handle, code)
// and marks both identifiers as taken, all with the pending TTL.
func (s *Store) SavePendingRegistration(ctx context.Context, handle, code string, pending domain.PendingRegistration) error {
	data, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("encode pending registration: %w", err)
	}

	ttl := s.cfg.PendingTTL
	if err := s.redis.Set(ctx, pending.Email, inProgressMarker, ttl).Err(); err != nil {
		return fmt.Errorf("set email marker: %w", err)
	}
	if err := s.redis.Set(ctx, pending.PhoneNumber, inProgressMarker, ttl).Err(); err != nil {
		return fmt.Errorf("set phone marker: %w", err)
	}
	if err := s.redis.Set(ctx, pendingKey(handle, code), data, ttl).Err(); err != nil {
		return fmt.Errorf("set pending registration: %w", err)
	}
	return nil
}

// PendingRegistration reads the pending payload for (handle, code).
// Missing and expired entries are indistinguishable.
func (s *Store) PendingRegistration(ctx context.Context, handle, code string) (domain.PendingRegistration, error) {
	data, err := s.redis.Get(ctx, pendingKey(handle, code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.PendingRegistration{}, ErrNotFound
	}
	if err != nil {
		return domain.PendingRegistration{}, fmt.Errorf("get pending registration: %w", err)
	}

	var pending domain.PendingRegistration
	if err := json.Unmarshal(data, &pending); err != nil {
		// A corrupt entry is treated the same as a missing one.
		return domain.PendingRegistration{}, ErrNotFound
	}
	return pending, nil
}

// DeletePendingRegistration removes the pending payload and both
// in-progress markers. The three deletions are not atomic; a stale
// marker left by a crash blocks re-registration only until its TTL.
func (s *Store) DeletePendingRegistration(ctx context.Context, handle, code, email, phone string) error {
	if err := s.redis.Del(ctx, pendingKey(handle, code), email, phone).Err(); err != nil {
		return fmt.Errorf("delete pending registration: %w", err)
	}
	return nil
}

// SavePendingLogin parks the authenticated user's public profile under
// (handle, code) until the emailed code is confirmed.
func (s *Store) SavePendingLogin(ctx context.Context, handle, code string, profile domain.UserProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode pending login: %w", err)
	}
	if err := s.redis.Set(ctx, pendingKey(handle, code), data, s.cfg.PendingTTL).Err(); err != nil {
		return fmt.Errorf("set pending login: %w", err)
	}
	return nil
}

// PendingLogin reads the parked profile for (handle, code). An entry
// that does not decode to a real user profile, such as a pending
// registration presented through the login path, is a miss.
func (s *Store) PendingLogin(ctx context.Context, handle, code string) (domain.UserProfile, error) {
	data, err := s.redis.Get(ctx, pendingKey(handle, code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.UserProfile{}, ErrNotFound
	}
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("get pending login: %w", err)
	}

	var profile domain.UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return domain.UserProfile{}, ErrNotFound
	}
	if profile.ID <= 0 {
		return domain.UserProfile{}, ErrNotFound
	}
	return profile, nil
}

// DeletePendingLogin consumes the parked profile.
func (s *Store) DeletePendingLogin(ctx context.Context, handle, code string) error {
	if err := s.redis.Del(ctx, pendingKey(handle, code)).Err(); err != nil {
		return fmt.Errorf("delete pending login: %w", err)
	}
	return nil
}

// SaveRefreshToken overwrites the user's refresh record. One record per
// user: a newer login revokes every refresh token issued before it.
func (s *Store) SaveRefreshToken(ctx context.Context, userID int64, token string) error {
	if err := s.redis.Set(ctx, refreshKey(userID), token, s.cfg.RefreshTokenTTL).Err(); err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	return nil
}

// RefreshToken returns the refresh token currently on record for the user.
func (s *Store) RefreshToken(ctx context.Context, userID int64) (string, error) {
	token, err := s.redis.Get(ctx, refreshKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get refresh token: %w", err)
	}
	return token, nil
}

// DeleteRefreshToken drops the user's refresh record. Deleting a missing
// record is not an error.
func (s *Store) DeleteRefreshToken(ctx context.Context, userID int64) error {
	if err := s.redis.Del(ctx, refreshKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

// SaveCompany writes the owner's company through to the cache.
func (s *Store) SaveCompany(ctx context.Context, company domain.Company) error {
	data, err := json.Marshal(company)
	if err != nil {
		return fmt.Errorf("encode company: %w", err)
	}
	if err := s.redis.Set(ctx, companyKey(company.OwnerID), data, s.cfg.CompanyCacheTTL).Err(); err != nil {
		return fmt.Errorf("set company: %w", err)
	}
	return nil
}

// Company reads the owner's cached company.
func (s *Store) Company(ctx context.Context, ownerID int64) (domain.Company, error) {
	data, err := s.redis.Get(ctx, companyKey(ownerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Company{}, ErrNotFound
	}
	if err != nil {
		return domain.Company{}, fmt.Errorf("get company: %w", err)
	}

	var company domain.Company
	if err := json.Unmarshal(data, &company); err != nil {
		return domain.Company{}, fmt.Errorf("decode company: %w", err)
	}
	return company, nil
}
