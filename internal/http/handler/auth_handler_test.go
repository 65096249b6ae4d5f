package handler_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikhel0k/JurBot/internal/cache"
	"github.com/mikhel0k/JurBot/internal/config"
	"github.com/mikhel0k/JurBot/internal/domain"
	httptransport "github.com/mikhel0k/JurBot/internal/http"
	"github.com/mikhel0k/JurBot/internal/http/handler"
	"github.com/mikhel0k/JurBot/internal/http/middleware"
	"github.com/mikhel0k/JurBot/internal/jwt"
	"github.com/mikhel0k/JurBot/internal/service"
)

type memUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{nextID: 1, users: make(map[int64]domain.User)}
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, pgx.ErrNoRows
}

func (r *memUserRepo) GetByPhone(ctx context.Context, phone string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.PhoneNumber == phone {
			return u, nil
		}
	}
	return domain.User{}, pgx.ErrNoRows
}

func (r *memUserRepo) GetByID(ctx context.Context, userID int64) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (r *memUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = user
	return user, nil
}

type memCompanyRepo struct {
	mu        sync.Mutex
	nextID    int64
	companies map[int64]domain.Company
}

func newMemCompanyRepo() *memCompanyRepo {
	return &memCompanyRepo{nextID: 1, companies: make(map[int64]domain.Company)}
}

func (r *memCompanyRepo) GetByOwner(ctx context.Context, ownerID int64) (domain.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.companies {
		if c.OwnerID == ownerID {
			return c, nil
		}
	}
	return domain.Company{}, pgx.ErrNoRows
}

func (r *memCompanyRepo) Create(ctx context.Context, company domain.Company) (domain.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	company.ID = r.nextID
	r.nextID++
	r.companies[company.ID] = company
	return company, nil
}

func (r *memCompanyRepo) Update(ctx context.Context, company domain.Company) (domain.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.companies[company.ID] = company
	return company, nil
}

type captureMailer struct {
	mu    sync.Mutex
	codes []string
}

func (m *captureMailer) SendCode(ctx context.Context, to, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes = append(m.codes, code)
	return nil
}

func (m *captureMailer) lastCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.codes)
	return m.codes[len(m.codes)-1]
}

// app is a full HTTP stack over in-memory stores, with a cookie jar so
// consecutive requests behave like one browser session.
type app struct {
	router *gin.Engine
	mailer *captureMailer
	jar    map[string]*http.Cookie
}

func newApp(t *testing.T) *app {
	t.Helper()
	gin.SetMode(gin.TestMode)

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	dir := t.TempDir()
	privateFile := filepath.Join(dir, "jwt-private.pem")
	publicFile := filepath.Join(dir, "jwt-public.pem")
	require.NoError(t, os.WriteFile(privateFile, pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}), 0o600))
	publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(publicFile, pem.EncodeToMemory(&pem.Block{
		Type: "PUBLIC KEY", Bytes: publicDER,
	}), 0o644))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := config.Config{
		Environment:        "development",
		ServiceName:        "jurbot-test",
		AccessTokenTTL:     30 * time.Minute,
		RefreshTokenTTL:    30 * 24 * time.Hour,
		PendingTTL:         15 * time.Minute,
		CompanyCacheTTL:    30 * time.Minute,
		SMTPStrictDelivery: true,
		CORSAllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		CORSAllowedHeaders: []string{"Authorization", "Content-Type"},
	}

	users := newMemUserRepo()
	companies := newMemCompanyRepo()
	store := cache.New(client, cfg)
	tokens := jwt.NewGenerator(jwt.NewKeyManager(privateFile, publicFile), cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	mailer := &captureMailer{}

	authSvc := service.NewAuthService(users, companies, store, tokens, mailer, cfg, zap.NewNop())
	companySvc := service.NewCompanyService(companies, store, tokens, zap.NewNop())

	router := httptransport.NewRouter(
		cfg,
		zap.NewNop(),
		handler.NewAuthHandler(authSvc, cfg),
		handler.NewCompanyHandler(companySvc, cfg),
		middleware.NewAuth(authSvc, tokens, cfg),
		nil,
	)

	return &app{router: router, mailer: mailer, jar: make(map[string]*http.Cookie)}
}

func (a *app) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range a.jar {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	for _, cookie := range rec.Result().Cookies() {
		if cookie.MaxAge < 0 {
			delete(a.jar, cookie.Name)
			continue
		}
		a.jar[cookie.Name] = cookie
	}
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

var registerBody = gin.H{
	"email":        "ivan@example.com",
	"phone_number": "+79990001122",
	"full_name":    "Ivan Petrov",
	"password":     "correct horse",
}

func (a *app) register(t *testing.T) {
	t.Helper()

	rec := a.do(t, http.MethodPost, "/auth/register", registerBody)
	require.Equal(t, http.StatusOK, rec.Code)
	jti := decode(t, rec)["jti"].(string)

	rec = a.do(t, http.MethodPost, "/auth/register/confirm", gin.H{"jti": jti, "code": a.mailer.lastCode(t)})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterFlow(t *testing.T) {
	a := newApp(t)

	rec := a.do(t, http.MethodPost, "/auth/register", registerBody)
	require.Equal(t, http.StatusOK, rec.Code)
	jti, ok := decode(t, rec)["jti"].(string)
	require.True(t, ok)
	require.NotEmpty(t, jti)

	rec = a.do(t, http.MethodPost, "/auth/register/confirm", gin.H{"jti": jti, "code": a.mailer.lastCode(t)})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "success", decode(t, rec)["status"])

	require.Contains(t, a.jar, middleware.CookieAccessToken)
	require.Contains(t, a.jar, middleware.CookieRefreshToken)
	require.True(t, a.jar[middleware.CookieAccessToken].HttpOnly)
}

func TestRegisterDuplicate(t *testing.T) {
	a := newApp(t)
	a.register(t)

	rec := a.do(t, http.MethodPost, "/auth/register", registerBody)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "already_exists", decode(t, rec)["error"])
}

func TestRegisterInvalidPayload(t *testing.T) {
	a := newApp(t)

	rec := a.do(t, http.MethodPost, "/auth/register", gin.H{"email": "not-an-email"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_request", decode(t, rec)["error"])
}

func TestConfirmRegisterWrongCode(t *testing.T) {
	a := newApp(t)

	rec := a.do(t, http.MethodPost, "/auth/register", registerBody)
	require.Equal(t, http.StatusOK, rec.Code)
	jti := decode(t, rec)["jti"].(string)

	wrong := "000000"
	if a.mailer.lastCode(t) == wrong {
		wrong = "000001"
	}
	rec = a.do(t, http.MethodPost, "/auth/register/confirm", gin.H{"jti": jti, "code": wrong})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid_code", decode(t, rec)["error"])
}

func TestLoginFlow(t *testing.T) {
	a := newApp(t)
	a.register(t)

	rec := a.do(t, http.MethodPost, "/auth/login", gin.H{
		"email":    registerBody["email"],
		"password": registerBody["password"],
	})
	require.Equal(t, http.StatusOK, rec.Code)
	jti := decode(t, rec)["jti"].(string)

	rec = a.do(t, http.MethodPost, "/auth/login/confirm", gin.H{"jti": jti, "code": a.mailer.lastCode(t)})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "you do not have a company yet", decode(t, rec)["status"])
	require.Contains(t, a.jar, middleware.CookieRefreshToken)
}

func TestLoginWrongPassword(t *testing.T) {
	a := newApp(t)
	a.register(t)

	rec := a.do(t, http.MethodPost, "/auth/login", gin.H{
		"email":    registerBody["email"],
		"password": "wrong password",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "unauthorized", decode(t, rec)["error"])
}

func TestLogout(t *testing.T) {
	a := newApp(t)
	a.register(t)

	rec := a.do(t, http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "logged out", decode(t, rec)["status"])
	require.NotContains(t, a.jar, middleware.CookieAccessToken)
	require.NotContains(t, a.jar, middleware.CookieRefreshToken)

	// A second logout without a session is still fine.
	rec = a.do(t, http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestLogoutRevokesSession(t *testing.T) {
	a := newApp(t)
	a.register(t)

	refresh := *a.jar[middleware.CookieRefreshToken]

	rec := a.do(t, http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// The old refresh token no longer buys a session.
	a.jar[middleware.CookieRefreshToken] = &refresh
	rec = a.do(t, http.MethodGet, "/company", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthz(t *testing.T) {
	a := newApp(t)

	rec := a.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
