package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dom/studyhub/internal/domain"
	"github.com/dom/studyhub/internal/repository"
	"github.com/dom/studyhub/internal/revocation"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	userRepo repository.UserRepository
	tokens   *TokenManager
	revoked  revocation.Store
	logger   *slog.Logger
}

func NewAuthService(userRepo repository.UserRepository, tokens *TokenManager, revoked revocation.Store, logger *slog.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		revoked:  revoked,
		logger:   logger,
	}
}

type SignupInput struct {
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	UsernameOrEmail string
	Password        string
}

// Session is the pair of tokens minted by a successful login.
type Session struct {
	User         *domain.User
	AccessToken  *IssuedToken
	RefreshToken *IssuedToken
}

// Signup validates input, hashes the password and inserts the user. Duplicate
// usernames or emails are detected by the store's unique indexes only.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*domain.User, error) {
	if fe := validateSignup(input); fe != nil {
		return nil, fe
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, domain.ErrUsernameTaken):
			return nil, &SignupFieldErrors{UsernameMsg: "Username already in use"}
		case errors.Is(err, domain.ErrEmailTaken):
			return nil, &SignupFieldErrors{EmailMsg: "Email already in use"}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user signed up", "user_id", user.ID)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*Session, error) {
	if fe := validateLogin(input); fe != nil {
		return nil, fe
	}

	user, err := s.userRepo.GetByUsernameOrEmail(ctx, input.UsernameOrEmail)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, &LoginFieldErrors{UsernameOrEmailMsg: "Invalid username/email"}
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, &LoginFieldErrors{PasswordMsg: "Invalid password"}
		}
		return nil, fmt.Errorf("compare password: %w", err)
	}

	identity := domain.Identity{UserID: user.ID, Username: user.Username}

	access, err := s.tokens.Issue(AccessToken, identity)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.Issue(RefreshToken, identity)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return &Session{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

// Authenticate verifies an access token and returns the identity it asserts.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*domain.Identity, error) {
	claims, err := s.verify(ctx, AccessToken, accessToken)
	if err != nil {
		return nil, err
	}
	identity := claims.Identity()
	return &identity, nil
}

// Refresh mints a new access token from the claims embedded in a refresh token.
// The refresh token itself is not rotated and the credential store is not consulted.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*IssuedToken, error) {
	claims, err := s.verify(ctx, RefreshToken, refreshToken)
	if err != nil {
		return nil, err
	}
	return s.tokens.Issue(AccessToken, claims.Identity())
}

// Logout denylists whichever of the two tokens still verify. It never fails;
// store errors are logged.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) {
	s.revoke(ctx, AccessToken, accessToken)
	s.revoke(ctx, RefreshToken, refreshToken)
}

func (s *AuthService) GetUserByID(ctx context.Context, id uint) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *AuthService) TokenTTL(kind TokenKind) time.Duration {
	return s.tokens.TTL(kind)
}

func (s *AuthService) verify(ctx context.Context, kind TokenKind, token string) (*Claims, error) {
	claims, err := s.tokens.Parse(kind, token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check %s token: %w", kind, err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

func (s *AuthService) revoke(ctx context.Context, kind TokenKind, token string) {
	if token == "" {
		return
	}
	claims, err := s.tokens.Parse(kind, token)
	if err != nil {
		return
	}
	if err := s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		s.logger.Error("failed to revoke token", "kind", kind.String(), "user_id", claims.UserID, "error", err)
	}
}
