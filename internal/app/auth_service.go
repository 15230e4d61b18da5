package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"quizroom/internal/auth"
	"quizroom/internal/domain"
)

// AuthService covers registration, login, and profile management.
type AuthService struct {
	users  UserRepository
	tokens *auth.TokenManager
	logger *slog.Logger
}

func NewAuthService(users UserRepository, tokens *auth.TokenManager, logger *slog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, logger: logger}
}

// RegisterInput holds the register request fields.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Avatar   string `json:"avatar"`
}

// Register creates a user, hashing the password and issuing a bearer token.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, string, error) {
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, "", fmt.Errorf("%w: username, email, and password are required", domain.ErrValidation)
	}

	if _, err := s.users.ByEmail(ctx, in.Email); err == nil {
		return nil, "", domain.ErrEmailTaken
	}
	if _, err := s.users.ByUsername(ctx, in.Username); err == nil {
		return nil, "", domain.ErrUsernameTaken
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	avatar := in.Avatar
	if avatar == "" {
		avatar = defaultAvatar(in.Username)
	}

	user := &domain.User{
		Username: in.Username,
		Email:    in.Email,
		Password: hash,
		Avatar:   avatar,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID, user.Email, user.Username)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, token, nil
}

// Login verifies credentials and issues a bearer token. Unknown email and
// wrong password return the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	if email == "" || password == "" {
		return nil, "", fmt.Errorf("%w: email and password are required", domain.ErrValidation)
	}

	user, err := s.users.ByEmail(ctx, email)
	if err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}
	if !auth.CheckPassword(user.Password, password) {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Email, user.Username)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

// Profile returns the user for an authenticated ID.
func (s *AuthService) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	return s.users.ByID(ctx, userID)
}

// UpdateProfileInput holds the optional profile update fields.
type UpdateProfileInput struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// UpdateProfile changes username and/or avatar, enforcing username uniqueness.
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, in UpdateProfileInput) (*domain.User, error) {
	user, err := s.users.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Username != "" && in.Username != user.Username {
		if _, err := s.users.ByUsername(ctx, in.Username); err == nil {
			return nil, domain.ErrUsernameTaken
		}
		user.Username = in.Username
	}
	if in.Avatar != "" {
		user.Avatar = in.Avatar
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// GetUser looks up a user by ID for lobby player lists.
func (s *AuthService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.ByID(ctx, id)
}

func defaultAvatar(username string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(username) + "&background=random"
}
