// internal/domain/user/service.go
package user

import (
	"fmt"
	"strings"

	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/pkg/apperrors"
	"github.com/your-org/storefront/internal/pkg/auth"
	"gorm.io/gorm"
)

// Service handles account business logic
type Service struct {
	db              *gorm.DB
	config          *config.Config
	passwordManager *auth.PasswordManager
}

// NewService creates a new user service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:              db,
		config:          cfg,
		passwordManager: auth.NewPasswordManager(cfg),
	}
}

// SignupRequest represents account creation data
type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required,min=2"`
}

// LoginRequest represents login data
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register creates a new customer account
func (s *Service) Register(req *SignupRequest) (*User, error) {
	email := strings.ToLower(req.Email)

	// Check if user already exists
	var existing User
	err := s.db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, apperrors.Conflict("user with this email already exists")
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hashed, err := s.passwordManager.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	newUser := User{
		Email:    email,
		Password: hashed,
		Name:     req.Name,
		Role:     RoleCustomer,
	}
	if err := s.db.Create(&newUser).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &newUser, nil
}

// Authenticate verifies credentials and returns the matching user.
// The failure message is deliberately identical for unknown email and
// wrong password.
func (s *Service) Authenticate(req *LoginRequest) (*User, error) {
	var u User
	err := s.db.Where("email = ?", strings.ToLower(req.Email)).First(&u).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperrors.Authentication("invalid email or password")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := s.passwordManager.VerifyPassword(req.Password, u.Password); err != nil {
		return nil, apperrors.Authentication("invalid email or password")
	}

	return &u, nil
}

// GetUser retrieves a user by id
func (s *Service) GetUser(id uint) (*User, error) {
	var u User
	if err := s.db.First(&u, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return &u, nil
}
