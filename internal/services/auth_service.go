package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"tokoadmin/internal/models"
	"tokoadmin/internal/repositories"
)

// ErrInvalidCredentials is returned for any failed login.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService handles operator login and token validation.
type AuthService struct {
	operatorRepo repositories.OperatorRepository
	jwtSecret    []byte
	tokenDurat   time.Duration
	logger       *slog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(operatorRepo repositories.OperatorRepository, jwtSecret string, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		operatorRepo: operatorRepo,
		jwtSecret:    []byte(jwtSecret),
		tokenDurat:   24 * time.Hour,
		logger:       logger,
	}
}

// SeedOperator makes sure an operator with username exists and has password.
// An existing operator whose password differs gets the new hash.
func (s *AuthService) SeedOperator(username, password string) error {
	existing, err := s.operatorRepo.GetByUsername(username)
	if err != nil && !errors.Is(err, repositories.ErrOperatorNotFound) {
		return fmt.Errorf("failed to look up operator %s: %w", username, err)
	}
	if existing != nil && bcrypt.CompareHashAndPassword([]byte(existing.Password), []byte(password)) == nil {
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if existing != nil {
		existing.Password = string(hashedPassword)
		if err := s.operatorRepo.Save(existing); err != nil {
			return fmt.Errorf("failed to update operator password: %w", err)
		}
		s.logger.Info("operator password updated", slog.String("username", username))
		return nil
	}

	op := &models.Operator{Username: username, Password: string(hashedPassword)}
	if err := s.operatorRepo.Create(op); err != nil {
		return fmt.Errorf("failed to seed operator: %w", err)
	}
	s.logger.Info("operator seeded", slog.String("username", username))
	return nil
}

// LoginOperator authenticates an operator and returns a signed JWT.
func (s *AuthService) LoginOperator(username, password string) (string, error) {
	op, err := s.operatorRepo.GetByUsername(username)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(op.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"operator_id": op.ID,
		"username":    op.Username,
		"exp":         now.Add(s.tokenDurat).Unix(),
		"iat":         now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		s.logger.Debug("token validation failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}
