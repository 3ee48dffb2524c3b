// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/templates/isp-backend/internal/core"
	"github.com/carterperez-dev/templates/isp-backend/internal/middleware"
	"github.com/carterperez-dev/templates/isp-backend/internal/policy"
)

var (
	ErrInvalidCredentials = fmt.Errorf("invalid username or password: %w", core.ErrUnauthorized)
	ErrTokenReuse         = fmt.Errorf("refresh token reuse detected: %w", core.ErrTokenRevoked)
)

type UserInfo struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         policy.Role
	CustomerID   *string
	CreatedAt    time.Time
}

func (u *UserInfo) Claim() policy.Claim {
	return policy.Claim{UserID: u.ID, Username: u.Username, Role: u.Role}
}

// UserProvider is the account storage the credential store relies on.
// CreateAccount must create the customer profile of a customer account in
// the same transaction as the user row.
type UserProvider interface {
	GetByUsername(ctx context.Context, username string) (*UserInfo, error)
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	CreateAccount(ctx context.Context, account NewAccount) (*UserInfo, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

type ResetNotice struct {
	UserID    string
	Email     string
	Token     string
	ExpiresAt time.Time
}

// ResetSender delivers a password reset token to its owner out of band.
type ResetSender interface {
	SendReset(ctx context.Context, notice ResetNotice) error
}

// LogResetSender records that a reset was issued without exposing the token.
// Deployments plug a mail or SMS sender in its place.
type LogResetSender struct {
	Logger *slog.Logger
}

func (s LogResetSender) SendReset(ctx context.Context, notice ResetNotice) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "password reset issued",
		"user_id", notice.UserID,
		"expires_at", notice.ExpiresAt,
	)
	return nil
}

type ServiceConfig struct {
	ResetTokenExpire time.Duration
	ResetSender      ResetSender
}

type Service struct {
	repo        Repository
	jwt         *JWTManager
	users       UserProvider
	revocations RevocationStore
	tx          core.Transactor
	resetSender ResetSender
	resetTTL    time.Duration
	now         func() time.Time
}

func NewService(
	repo Repository,
	jwt *JWTManager,
	users UserProvider,
	revocations RevocationStore,
	tx core.Transactor,
	cfg ServiceConfig,
) *Service {
	sender := cfg.ResetSender
	if sender == nil {
		sender = LogResetSender{}
	}

	ttl := cfg.ResetTokenExpire
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &Service{
		repo:        repo,
		jwt:         jwt,
		users:       users,
		revocations: revocations,
		tx:          tx,
		resetSender: sender,
		resetTTL:    ttl,
		now:         time.Now,
	}
}

// RegisterAccount creates a user with the given role. Customer accounts get
// a linked customer profile named after the username.
func (s *Service) RegisterAccount(
	ctx context.Context,
	username, email, password string,
	role policy.Role,
) (*UserInfo, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf(
			"register: username, email and password are required: %w",
			core.ErrInvalidInput,
		)
	}
	if role == "" {
		role = policy.RoleCustomer
	}
	if !role.Valid() {
		return nil, fmt.Errorf("register: invalid role %q: %w", role, core.ErrInvalidInput)
	}

	passwordHash, err := core.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreateAccount(ctx, NewAccount{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	})
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	slog.InfoContext(ctx, "account registered",
		"user_id", user.ID,
		"role", user.Role,
	)

	return user, nil
}

// Register is public sign-up; it always creates a customer account.
func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	user, err := s.RegisterAccount(
		ctx,
		req.Username,
		req.Email,
		req.Password,
		policy.RoleCustomer,
	)
	if err != nil {
		return nil, err
	}

	resp, _, err := s.issueTokens(ctx, user, userAgent, ipAddress, "")
	return resp, err
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // equal work for unknown usernames
			_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(
		req.Password,
		&user.PasswordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, ErrInvalidCredentials
	}

	if newHash != "" {
		if err := s.users.UpdatePassword(ctx, user.ID, newHash); err != nil {
			slog.WarnContext(ctx, "password rehash failed", "user_id", user.ID, "error", err)
		}
	}

	resp, _, err := s.issueTokens(ctx, user, userAgent, ipAddress, "")
	return resp, err
}

// Refresh rotates a refresh token. Role and username come from the current
// user row, so role changes apply from the next refresh onward.
func (s *Service) Refresh(
	ctx context.Context,
	refreshToken, userAgent, ipAddress string,
) (*AuthResponse, error) {
	stored, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("find token: %w", err)
	}

	if stored.IsUsed {
		s.revokeFamily(ctx, stored)
		return nil, ErrTokenReuse
	}

	if !stored.IsValidAt(s.now()) {
		if stored.IsRevoked() {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
		}
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenExpired)
	}

	user, err := s.users.GetByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: user gone: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	var resp *AuthResponse
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		issued, newID, issueErr := s.issueTokens(
			ctx, user, userAgent, ipAddress, stored.FamilyID,
		)
		if issueErr != nil {
			return issueErr
		}

		if markErr := s.repo.MarkAsUsed(ctx, stored.ID, newID); markErr != nil {
			if errors.Is(markErr, core.ErrNotFound) {
				return ErrTokenReuse
			}
			return markErr
		}

		resp = issued
		return nil
	})
	if errors.Is(err, ErrTokenReuse) {
		s.revokeFamily(ctx, stored)
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}

	return resp, nil
}

func (s *Service) revokeFamily(ctx context.Context, token *RefreshToken) {
	slog.WarnContext(ctx, "refresh token reuse, revoking family",
		"user_id", token.UserID,
		"family_id", token.FamilyID,
	)
	if err := s.repo.RevokeByFamilyID(ctx, token.FamilyID); err != nil {
		slog.ErrorContext(ctx, "revoke token family failed", "error", err)
	}
}

// Logout revokes the presented access token and, when given, the refresh
// token of the same session.
func (s *Service) Logout(
	ctx context.Context,
	claims *middleware.AccessTokenClaims,
	refreshToken string,
) error {
	if err := s.revocations.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}

	if refreshToken == "" {
		return nil
	}

	stored, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("find token: %w", err)
	}

	if stored.UserID != claims.UserID {
		return fmt.Errorf("logout: foreign refresh token: %w", core.ErrForbidden)
	}

	if err := s.repo.RevokeByID(ctx, stored.ID); err != nil &&
		!errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("revoke token: %w", err)
	}

	return nil
}

func (s *Service) LogoutAll(
	ctx context.Context,
	claims *middleware.AccessTokenClaims,
) error {
	if err := s.revocations.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}

	if err := s.repo.RevokeAllForUser(ctx, claims.UserID); err != nil {
		return fmt.Errorf("revoke all tokens: %w", err)
	}

	return nil
}

// VerifyAccessToken validates a bearer token and rejects revoked ones.
func (s *Service) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.AccessTokenClaims, error) {
	claims, err := s.jwt.ParseAccessToken(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	return claims, nil
}

// InitiateReset issues a reset token when the email belongs to an account.
// Callers get the same outcome whether or not it does.
func (s *Service) InitiateReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("initiate reset: %w", err)
	}

	token, err := core.GenerateResetToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	reset := &PasswordReset{
		UserID:    user.ID,
		TokenHash: core.HashToken(token),
		ExpiresAt: s.now().Add(s.resetTTL),
	}
	if err := s.repo.UpsertPasswordReset(ctx, reset); err != nil {
		return fmt.Errorf("initiate reset: %w", err)
	}

	if err := s.resetSender.SendReset(ctx, ResetNotice{
		UserID:    user.ID,
		Email:     user.Email,
		Token:     token,
		ExpiresAt: reset.ExpiresAt,
	}); err != nil {
		return fmt.Errorf("send reset: %w", err)
	}

	return nil
}

// CompleteReset replaces the password when token matches the outstanding,
// unexpired reset of userID. The grant is single use and every refresh
// token of the user is revoked.
func (s *Service) CompleteReset(
	ctx context.Context,
	userID, token, newPassword string,
) error {
	if newPassword == "" {
		return fmt.Errorf("complete reset: new password required: %w", core.ErrInvalidInput)
	}
	if _, err := uuid.Parse(userID); err != nil || token == "" {
		return fmt.Errorf("complete reset: %w", core.ErrInvalidToken)
	}

	newHash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		reset, getErr := s.repo.GetPasswordReset(ctx, userID)
		if getErr != nil {
			if errors.Is(getErr, core.ErrNotFound) {
				return fmt.Errorf("complete reset: %w", core.ErrInvalidToken)
			}
			return getErr
		}

		if !core.CompareTokenHash(token, reset.TokenHash) ||
			reset.IsExpiredAt(s.now()) {
			return fmt.Errorf("complete reset: %w", core.ErrInvalidToken)
		}

		if updErr := s.users.UpdatePassword(ctx, userID, newHash); updErr != nil {
			return updErr
		}

		if delErr := s.repo.DeletePasswordReset(ctx, userID); delErr != nil {
			return delErr
		}

		return s.repo.RevokeAllForUser(ctx, userID)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "password reset completed", "user_id", userID)
	return nil
}

func (s *Service) ChangePassword(
	ctx context.Context,
	claims *middleware.AccessTokenClaims,
	currentPassword, newPassword string,
) error {
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	valid, err := core.VerifyPassword(currentPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return ErrInvalidCredentials
	}

	newHash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, claims.UserID, newHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return s.LogoutAll(ctx, claims)
}

func (s *Service) GetActiveSessions(
	ctx context.Context,
	userID string,
) ([]SessionInfo, error) {
	tokens, err := s.repo.GetActiveSessionsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get sessions: %w", err)
	}

	sessions := make([]SessionInfo, 0, len(tokens))
	for _, t := range tokens {
		sessions = append(sessions, SessionInfo{
			ID:        t.ID,
			UserAgent: t.UserAgent,
			IPAddress: t.IPAddress,
			CreatedAt: t.CreatedAt,
			ExpiresAt: t.ExpiresAt,
		})
	}

	return sessions, nil
}

func (s *Service) RevokeSession(
	ctx context.Context,
	userID, sessionID string,
) error {
	token, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("find session: %w", err)
	}

	if token.UserID != userID {
		return fmt.Errorf("revoke session: %w", core.ErrNotFound)
	}

	if err := s.repo.RevokeByID(ctx, sessionID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	return nil
}

func (s *Service) GetCurrentUser(
	ctx context.Context,
	userID string,
) (*UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

func (s *Service) RevocationCount(ctx context.Context) (int, error) {
	return s.revocations.Len(ctx)
}

func (s *Service) issueTokens(
	ctx context.Context,
	user *UserInfo,
	userAgent, ipAddress, familyID string,
) (*AuthResponse, string, error) {
	claim := user.Claim()

	access, err := s.jwt.CreateAccessToken(claim)
	if err != nil {
		return nil, "", fmt.Errorf("create access token: %w", err)
	}

	refreshData, err := s.jwt.CreateRefreshToken(familyID)
	if err != nil {
		return nil, "", fmt.Errorf("create refresh token: %w", err)
	}

	entity := &RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: refreshData.Hash,
		FamilyID:  refreshData.FamilyID,
		ExpiresAt: refreshData.ExpiresAt,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}

	if err := s.repo.Create(ctx, entity); err != nil {
		return nil, "", fmt.Errorf("store refresh token: %w", err)
	}

	ttl := s.jwt.AccessTokenTTL()

	return &AuthResponse{
		User:  toUserResponse(user),
		Claim: claim,
		Tokens: TokenResponse{
			AccessToken:  access.Token,
			RefreshToken: refreshData.Token,
			TokenType:    "Bearer",
			ExpiresIn:    int(ttl / time.Second),
			ExpiresAt:    access.ExpiresAt,
		},
	}, entity.ID, nil
}

func toUserResponse(u *UserInfo) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Role:       u.Role,
		CustomerID: u.CustomerID,
		CreatedAt:  u.CreatedAt,
	}
}
