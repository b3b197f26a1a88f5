package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-projects/internal/dto"
	"github.com/noah-isme/gema-projects/internal/models"
	"github.com/noah-isme/gema-projects/internal/repository"
)

// AuthService signs accounts in and up.
type AuthService interface {
	Login(ctx context.Context, payload dto.LoginRequest) (dto.AuthResponse, error)
	Register(ctx context.Context, payload dto.SignupRequest) (dto.AuthResponse, error)
}

type authService struct {
	users     repository.UserRepository
	validator *validator.Validate
	secret    []byte
	ttl       time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAuthService constructs the auth service. Tokens are HS256 JWTs carrying
// the user id as subject plus role and name claims.
func NewAuthService(users repository.UserRepository, validate *validator.Validate, secret string, ttl time.Duration, logger zerolog.Logger) AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &authService{
		users:     users,
		validator: validate,
		secret:    []byte(secret),
		ttl:       ttl,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		now:       time.Now,
	}
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.AuthResponse, error) {
	payload = payload.Normalize()
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, err
	}

	user, err := s.users.GetByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AuthResponse{}, ErrInvalidCredentials
		}
		return dto.AuthResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)); err != nil {
		s.logger.Debug().Str("user_id", user.ID).Msg("password mismatch")
		return dto.AuthResponse{}, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *authService) Register(ctx context.Context, payload dto.SignupRequest) (dto.AuthResponse, error) {
	payload = payload.Normalize()
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, err
	}

	if _, err := s.users.GetByEmail(ctx, payload.Email); err == nil {
		return dto.AuthResponse{}, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.AuthResponse{}, err
	}

	hash, err := HashPassword(payload.Password)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	user := models.User{
		Name:         payload.Name,
		Email:        payload.Email,
		PasswordHash: hash,
		Role:         string(payload.Role),
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return dto.AuthResponse{}, err
	}

	s.logger.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("account registered")
	return s.issue(user)
}

func (s *authService) issue(user models.User) (dto.AuthResponse, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID,
		"role": user.Role,
		"name": user.Name,
		"iat":  now.Unix(),
		"exp":  now.Add(s.ttl).Unix(),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return dto.AuthResponse{}, fmt.Errorf("sign token: %w", err)
	}

	return dto.AuthResponse{Token: signed, User: userResponse(user)}, nil
}

// HashPassword bcrypt-hashes a plain password.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func userResponse(user models.User) dto.User {
	return dto.User{
		ID:    user.ID,
		Name:  user.Name,
		Role:  dto.Role(strings.ToLower(user.Role)),
		Email: user.Email,
	}
}
