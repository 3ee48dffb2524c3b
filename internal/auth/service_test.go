// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/isp-backend/internal/config"
	"github.com/carterperez-dev/templates/isp-backend/internal/core"
	"github.com/carterperez-dev/templates/isp-backend/internal/policy"
)

type inlineTx struct{}

func (inlineTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeRepo struct {
	mu     sync.Mutex
	tokens map[string]*RefreshToken
	resets map[string]*PasswordReset
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		tokens: make(map[string]*RefreshToken),
		resets: make(map[string]*PasswordReset),
	}
}

func (f *fakeRepo) Create(_ context.Context, token *RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	token.CreatedAt = time.Now()
	cp := *token
	f.tokens[token.ID] = &cp
	return nil
}

func (f *fakeRepo) FindByHash(_ context.Context, hash string) (*RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tokens {
		if t.TokenHash == hash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeRepo) FindByID(_ context.Context, id string) (*RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeRepo) MarkAsUsed(_ context.Context, id, replacedByID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[id]
	if !ok || t.IsUsed {
		return core.ErrNotFound
	}
	t.IsUsed = true
	t.ReplacedByID = &replacedByID
	return nil
}

func (f *fakeRepo) RevokeByID(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[id]
	if !ok || t.RevokedAt != nil {
		return core.ErrNotFound
	}
	now := time.Now()
	t.RevokedAt = &now
	return nil
}

func (f *fakeRepo) RevokeByFamilyID(_ context.Context, familyID string) error {
	return f.revokeWhere(func(t *RefreshToken) bool { return t.FamilyID == familyID })
}

func (f *fakeRepo) RevokeAllForUser(_ context.Context, userID string) error {
	return f.revokeWhere(func(t *RefreshToken) bool { return t.UserID == userID })
}

func (f *fakeRepo) revokeWhere(match func(*RefreshToken) bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for _, t := range f.tokens {
		if match(t) && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (f *fakeRepo) GetActiveSessionsForUser(_ context.Context, userID string) ([]RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []RefreshToken
	for _, t := range f.tokens {
		if t.UserID == userID && t.IsValidAt(time.Now()) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpsertPasswordReset(_ context.Context, reset *PasswordReset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *reset
	f.resets[reset.UserID] = &cp
	return nil
}

func (f *fakeRepo) GetPasswordReset(_ context.Context, userID string) (*PasswordReset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.resets[userID]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRepo) DeletePasswordReset(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.resets, userID)
	return nil
}

type fakeUsers struct {
	mu        sync.Mutex
	users     map[string]*UserInfo
	customers map[string]string
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		users:     make(map[string]*UserInfo),
		customers: make(map[string]string),
	}
}

func (f *fakeUsers) find(match func(*UserInfo) bool) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*UserInfo, error) {
	return f.find(func(u *UserInfo) bool { return u.Username == username })
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*UserInfo, error) {
	return f.find(func(u *UserInfo) bool { return u.Email == email })
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*UserInfo, error) {
	return f.find(func(u *UserInfo) bool { return u.ID == id })
}

func (f *fakeUsers) CreateAccount(_ context.Context, account NewAccount) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == account.Username {
			return nil, fmt.Errorf("username already taken: %w", core.ErrDuplicateKey)
		}
		if u.Email == account.Email {
			return nil, fmt.Errorf("email already taken: %w", core.ErrDuplicateKey)
		}
	}

	u := &UserInfo{
		ID:           uuid.NewString(),
		Username:     account.Username,
		Email:        account.Email,
		PasswordHash: account.PasswordHash,
		Role:         account.Role,
		CreatedAt:    time.Now(),
	}
	if account.Role == policy.RoleCustomer {
		customerID := uuid.NewString()
		u.CustomerID = &customerID
		f.customers[customerID] = account.Username
	}
	f.users[u.ID] = u

	cp := *u
	return &cp, nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, userID, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return core.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

type captureSender struct {
	notices []ResetNotice
}

func (c *captureSender) SendReset(_ context.Context, n ResetNotice) error {
	c.notices = append(c.notices, n)
	return nil
}

type fixture struct {
	svc     *Service
	repo    *fakeRepo
	users   *fakeUsers
	revoked *MemoryRevocationStore
	sender  *captureSender
	jwt     *JWTManager
}

func newTestJWT(t *testing.T) *JWTManager {
	t.Helper()

	dir := t.TempDir()
	priv := filepath.Join(dir, "private.pem")
	pub := filepath.Join(dir, "public.pem")
	require.NoError(t, GenerateKeyPair(priv, pub))

	m, err := NewJWTManager(config.JWTConfig{
		PrivateKeyPath:     priv,
		PublicKeyPath:      pub,
		AccessTokenExpire:  time.Hour,
		RefreshTokenExpire: 24 * time.Hour,
		Issuer:             "isp-backend-test",
		Audience:           "isp-api-test",
	})
	require.NoError(t, err)
	return m
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repo:    newFakeRepo(),
		users:   newFakeUsers(),
		revoked: NewMemoryRevocationStore(),
		sender:  &captureSender{},
		jwt:     newTestJWT(t),
	}
	f.svc = NewService(f.repo, f.jwt, f.users, f.revoked, inlineTx{}, ServiceConfig{
		ResetTokenExpire: 15 * time.Minute,
		ResetSender:      f.sender,
	})
	return f
}

func (f *fixture) register(t *testing.T, username string) *AuthResponse {
	t.Helper()
	resp, err := f.svc.Register(context.Background(), RegisterRequest{
		Username: username,
		Email:    username + "@x.com",
		Password: "pw1",
	}, "test-agent", "127.0.0.1")
	require.NoError(t, err)
	return resp
}

func TestRegisterCreatesCustomerProfile(t *testing.T) {
	f := newFixture(t)

	resp := f.register(t, "alice")

	assert.Equal(t, "alice", resp.User.Username)
	assert.Equal(t, policy.RoleCustomer, resp.User.Role)
	assert.Equal(t, policy.RoleCustomer, resp.Claim.Role)
	require.NotNil(t, resp.User.CustomerID)
	assert.Equal(t, "alice", f.users.customers[*resp.User.CustomerID])
	assert.NotEmpty(t, resp.Tokens.AccessToken)
	assert.NotEmpty(t, resp.Tokens.RefreshToken)
	assert.Equal(t, int(time.Hour/time.Second), resp.Tokens.ExpiresIn)

	stored, err := f.users.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.NotEqual(t, "pw1", stored.PasswordHash)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice")

	_, err := f.svc.Register(context.Background(), RegisterRequest{
		Username: "alice",
		Email:    "other@x.com",
		Password: "pw1",
	}, "", "")

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDuplicateKey)
	assert.Equal(t, 409, core.ToAppError(err, "user").StatusCode)
}

func TestRegisterAccountStaffRole(t *testing.T) {
	f := newFixture(t)

	user, err := f.svc.RegisterAccount(
		context.Background(), "bob", "bob@x.com", "pw", policy.RoleTech,
	)
	require.NoError(t, err)
	assert.Equal(t, policy.RoleTech, user.Role)
	assert.Nil(t, user.CustomerID)

	_, err = f.svc.RegisterAccount(
		context.Background(), "eve", "eve@x.com", "pw", policy.Role("root"),
	)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice")
	ctx := context.Background()

	resp, err := f.svc.Login(ctx, LoginRequest{Username: "alice", Password: "pw1"}, "", "")
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.Claim.Username)

	claims, err := f.svc.VerifyAccessToken(ctx, resp.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.Claim, claims.Claim)

	_, err = f.svc.Login(ctx, LoginRequest{Username: "alice", Password: "wrong"}, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	_, err = f.svc.Login(ctx, LoginRequest{Username: "nobody", Password: "pw1"}, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutRevokesAccessToken(t *testing.T) {
	f := newFixture(t)
	resp := f.register(t, "alice")
	ctx := context.Background()

	claims, err := f.svc.VerifyAccessToken(ctx, resp.Tokens.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, claims, resp.Tokens.RefreshToken))

	_, err = f.svc.VerifyAccessToken(ctx, resp.Tokens.AccessToken)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
	assert.Equal(t, 401, core.ToAppError(err, "").StatusCode)

	_, err = f.svc.Refresh(ctx, resp.Tokens.RefreshToken, "", "")
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestLogoutForeignRefreshToken(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	ctx := context.Background()

	claims, err := f.svc.VerifyAccessToken(ctx, alice.Tokens.AccessToken)
	require.NoError(t, err)

	err = f.svc.Logout(ctx, claims, bob.Tokens.RefreshToken)
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestRefreshRotatesAndRederivesRole(t *testing.T) {
	f := newFixture(t)
	resp := f.register(t, "alice")
	ctx := context.Background()

	f.users.mu.Lock()
	for _, u := range f.users.users {
		u.Role = policy.RoleSales
	}
	f.users.mu.Unlock()

	old, err := f.svc.VerifyAccessToken(ctx, resp.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, policy.RoleCustomer, old.Role)

	refreshed, err := f.svc.Refresh(ctx, resp.Tokens.RefreshToken, "", "")
	require.NoError(t, err)
	assert.Equal(t, policy.RoleSales, refreshed.Claim.Role)
	assert.NotEqual(t, resp.Tokens.RefreshToken, refreshed.Tokens.RefreshToken)

	claims, err := f.svc.VerifyAccessToken(ctx, refreshed.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, policy.RoleSales, claims.Role)
}

func TestRefreshReuseRevokesFamily(t *testing.T) {
	f := newFixture(t)
	resp := f.register(t, "alice")
	ctx := context.Background()

	rotated, err := f.svc.Refresh(ctx, resp.Tokens.RefreshToken, "", "")
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, resp.Tokens.RefreshToken, "", "")
	assert.ErrorIs(t, err, ErrTokenReuse)

	_, err = f.svc.Refresh(ctx, rotated.Tokens.RefreshToken, "", "")
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestRefreshUnknownToken(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Refresh(context.Background(), "not-a-token", "", "")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestRefreshExpired(t *testing.T) {
	f := newFixture(t)
	resp := f.register(t, "alice")

	f.svc.now = func() time.Time { return time.Now().Add(48 * time.Hour) }

	_, err := f.svc.Refresh(context.Background(), resp.Tokens.RefreshToken, "", "")
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestPasswordReset(t *testing.T) {
	f := newFixture(t)
	resp := f.register(t, "alice")
	ctx := context.Background()

	require.NoError(t, f.svc.InitiateReset(ctx, "alice@x.com"))
	require.Len(t, f.sender.notices, 1)
	notice := f.sender.notices[0]
	assert.Equal(t, resp.User.ID, notice.UserID)
	assert.NotEmpty(t, notice.Token)

	stored, err := f.repo.GetPasswordReset(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.NotEqual(t, notice.Token, stored.TokenHash)

	err = f.svc.CompleteReset(ctx, resp.User.ID, "wrong-token", "pw2")
	assert.ErrorIs(t, err, core.ErrInvalidToken)

	require.NoError(t, f.svc.CompleteReset(ctx, resp.User.ID, notice.Token, "pw2"))

	_, err = f.svc.Login(ctx, LoginRequest{Username: "alice", Password: "pw1"}, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.svc.Login(ctx, LoginRequest{Username: "alice", Password: "pw2"}, "", "")
	require.NoError(t, err)

	err = f.svc.CompleteReset(ctx, resp.User.ID, notice.Token, "pw3")
	assert.ErrorIs(t, err, core.ErrInvalidToken, "reset token is single use")

	_, err = f.svc.Refresh(ctx, resp.Tokens.RefreshToken, "", "")
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestPasswordResetUnknownEmailIsSilent(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.svc.InitiateReset(context.Background(), "ghost@x.com"))
	assert.Empty(t, f.sender.notices)
}

func TestPasswordResetExpired(t *testing.T) {
	f := newFixture(t)
	resp := f.register(t, "alice")
	ctx := context.Background()

	require.NoError(t, f.svc.InitiateReset(ctx, "alice@x.com"))
	token := f.sender.notices[0].Token

	f.svc.now = func() time.Time { return time.Now().Add(time.Hour) }

	err := f.svc.CompleteReset(ctx, resp.User.ID, token, "pw2")
	assert.ErrorIs(t, err, core.ErrInvalidToken)
	assert.Equal(t, 400, core.ToAppError(err, "").StatusCode)
}

func TestCompleteResetRejectsMalformedUserID(t *testing.T) {
	f := newFixture(t)

	err := f.svc.CompleteReset(context.Background(), "42", "token", "pw2")
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	resp := f.register(t, "alice")
	ctx := context.Background()

	claims, err := f.svc.VerifyAccessToken(ctx, resp.Tokens.AccessToken)
	require.NoError(t, err)

	err = f.svc.ChangePassword(ctx, claims, "wrong", "pw2")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))

	require.NoError(t, f.svc.ChangePassword(ctx, claims, "pw1", "pw2"))

	_, err = f.svc.VerifyAccessToken(ctx, resp.Tokens.AccessToken)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	_, err = f.svc.Login(ctx, LoginRequest{Username: "alice", Password: "pw2"}, "", "")
	require.NoError(t, err)
}

func TestSessions(t *testing.T) {
	f := newFixture(t)
	resp := f.register(t, "alice")
	bob := f.register(t, "bob")
	ctx := context.Background()

	sessions, err := f.svc.GetActiveSessions(ctx, resp.User.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	err = f.svc.RevokeSession(ctx, bob.User.ID, sessions[0].ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, f.svc.RevokeSession(ctx, resp.User.ID, sessions[0].ID))

	sessions, err = f.svc.GetActiveSessions(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestVerifyAccessTokenRejectsForeignSignature(t *testing.T) {
	f := newFixture(t)
	other := newTestJWT(t)

	token, err := other.CreateAccessToken(policy.Claim{
		UserID: uuid.NewString(), Username: "mallory", Role: policy.RoleAdmin,
	})
	require.NoError(t, err)

	_, err = f.svc.VerifyAccessToken(context.Background(), token.Token)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestVerifyAccessTokenExpired(t *testing.T) {
	f := newFixture(t)
	resp := f.register(t, "alice")

	f.jwt.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err := f.svc.VerifyAccessToken(context.Background(), resp.Tokens.AccessToken)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}
