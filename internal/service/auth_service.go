package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"ContentFlow/internal/model"
	"ContentFlow/internal/pkg"
	"ContentFlow/internal/repository"
)

const MinPasswordLen = 6

type AuthService struct {
	users    repository.UserStore
	sessions repository.SessionStore
	tokens   *pkg.TokenIssuer
	emails   *EmailResolver
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// AuthResult 登录/注册返回
type AuthResult struct {
	Token string           `json:"token"`
	User  model.PublicUser `json:"user"`
}

// NewAuthService sessions 为 nil 时不做登录态校验，只依赖 token 本身
func NewAuthService(users repository.UserStore, sessions repository.SessionStore, tokens *pkg.TokenIssuer, emails *EmailResolver, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		emails:   emails,
		logger:   logger.With(slog.String("component", "auth_service")),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Signup(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, Validation("Email and password are required")
	}
	if len(password) < MinPasswordLen {
		return nil, Validation("Password must be at least 6 characters")
	}

	user, err := s.createUser(ctx, email, password, model.RoleUser)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, Validation("User already exists")
	}
	if err != nil {
		return nil, Internal("Server error during signup", err)
	}
	return s.startSession(ctx, user, "Server error during signup")
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, Validation("Email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, Validation("Invalid credentials")
	}
	if err != nil {
		return nil, Internal("Server error during login", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, Validation("Invalid credentials")
	}
	return s.startSession(ctx, user, "Server error during login")
}

// Logout 删除登录态；未启用 session 存储时无事可做
func (s *AuthService) Logout(ctx context.Context, caller model.Identity) error {
	if s.sessions == nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, caller.ID); err != nil {
		return Internal("Server error during logout", err)
	}
	return nil
}

// Authenticate 校验 token 签名与过期时间；启用 session 时还要求是该用户最新签发的 token
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.Identity, error) {
	id, err := s.tokens.Parse(token)
	if errors.Is(err, pkg.ErrTokenExpired) {
		return nil, Unauthenticated("Token has expired")
	}
	if err != nil {
		return nil, Unauthenticated("Token is not valid")
	}

	if s.sessions != nil {
		stored, err := s.sessions.Get(ctx, id.ID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, Unauthenticated("Session has ended, please log in again")
		}
		if err != nil {
			return nil, Internal("Server error validating session", err)
		}
		if stored != token {
			return nil, Unauthenticated("Account has been logged in elsewhere")
		}
	}
	return id, nil
}

// EnsureAdmin 启动时创建初始管理员，已存在则跳过
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		if existing.Role != model.RoleAdmin {
			s.logger.WarnContext(ctx, "bootstrap admin email belongs to a non-admin account",
				slog.String("email", email))
		}
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	_, err = s.createUser(ctx, email, password, model.RoleAdmin)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil
	}
	if err == nil {
		s.logger.InfoContext(ctx, "bootstrap admin created", slog.String("email", email))
	}
	return err
}

func (s *AuthService) createUser(ctx context.Context, email, password string, role model.Role) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &model.User{
		ID:           s.newID(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err = s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) startSession(ctx context.Context, user *model.User, failMsg string) (*AuthResult, error) {
	token, _, err := s.tokens.Issue(model.Identity{ID: user.ID, Email: user.Email, Role: user.Role})
	if err != nil {
		return nil, Internal(failMsg, err)
	}
	if s.sessions != nil {
		if err = s.sessions.Save(ctx, user.ID, token, s.tokens.TTL()); err != nil {
			return nil, Internal(failMsg, err)
		}
	}
	if s.emails != nil {
		s.emails.Remember(user.ID, user.Email)
	}
	return &AuthResult{Token: token, User: user.Public()}, nil
}
