package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"profile-registry/internal/domain"
	"profile-registry/internal/repository"
	"profile-registry/pkg/hash"
	"profile-registry/pkg/jwt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type AuthService struct {
	regulatorRepo     repository.RegulatorRepository
	validate          *validator.Validate
	jwtSecret         string
	jwtExpiration     time.Duration
	refreshExpiration time.Duration
}

func NewAuthService(regulatorRepo repository.RegulatorRepository, jwtSecret string, jwtExp, refreshExp time.Duration) *AuthService {
	return &AuthService{
		regulatorRepo:     regulatorRepo,
		validate:          newValidator(),
		jwtSecret:         jwtSecret,
		jwtExpiration:     jwtExp,
		refreshExpiration: refreshExp,
	}
}

func (s *AuthService) Register(req *domain.RegisterRequest) (*domain.Regulator, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, newValidationError(err)
	}

	emailExists, err := s.regulatorRepo.EmailExists(req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if emailExists {
		return nil, ErrEmailTaken
	}

	hashedPassword, err := hash.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	regulator := &domain.Regulator{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Email:     strings.ToLower(req.Email),
		Password:  hashedPassword,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.regulatorRepo.Create(regulator); err != nil {
		return nil, fmt.Errorf("failed to create regulator: %w", err)
	}

	regulator.Password = ""
	return regulator, nil
}

func (s *AuthService) Login(req *domain.LoginRequest) (*domain.LoginResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, newValidationError(err)
	}

	regulator, err := s.regulatorRepo.FindByEmail(req.Email)
	if errors.Is(err, repository.ErrRegulatorNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find regulator: %w", err)
	}

	if err := hash.Compare(regulator.Password, req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := jwt.GenerateToken(regulator.ID, s.jwtExpiration, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := jwt.GenerateRefreshToken(regulator.ID, s.refreshExpiration, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	regulator.Password = ""

	return &domain.LoginResponse{
		Regulator:    regulator,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtExpiration.Seconds()),
	}, nil
}

func (s *AuthService) RefreshToken(req *domain.RefreshTokenRequest) (*domain.TokenResponse, error) {
	claims, err := jwt.ValidateTokenOfType(req.RefreshToken, s.jwtSecret, jwt.RefreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	if _, err := s.regulatorRepo.FindByID(claims.RegulatorID); err != nil {
		return nil, ErrInvalidRefreshToken
	}

	accessToken, err := jwt.GenerateToken(claims.RegulatorID, s.jwtExpiration, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &domain.TokenResponse{
		AccessToken: accessToken,
		ExpiresIn:   int64(s.jwtExpiration.Seconds()),
	}, nil
}

// Seed creates a regulator account from configuration unless the email is
// already registered.
func (s *AuthService) Seed(name, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	_, err := s.Register(&domain.RegisterRequest{Name: name, Email: email, Password: password})
	if errors.Is(err, ErrEmailTaken) {
		return nil
	}
	return err
}
