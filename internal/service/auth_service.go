package service

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/yourusername/quizshare-api/internal/domain/entity"
	"github.com/yourusername/quizshare-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizshare-api/internal/pkg/errors"
	"github.com/yourusername/quizshare-api/pkg/auth"
)

// AuthService предоставляет методы для регистрации и входа пользователей
type AuthService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
}

// NewAuthService создает новый сервис аутентификации
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
	}
}

// Register регистрирует нового пользователя и возвращает токен доступа.
// Пароль хешируется хуком entity.User.BeforeSave.
func (s *AuthService) Register(username, email, password string) (*entity.User, string, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))

	if username == "" || email == "" || password == "" {
		return nil, "", fmt.Errorf("%w: username, email and password are required", apperrors.ErrValidation)
	}
	if len(password) < 8 {
		return nil, "", fmt.Errorf("%w: password must be at least 8 characters", apperrors.ErrValidation)
	}

	if _, err := s.userRepo.GetByEmail(email); err == nil {
		return nil, "", fmt.Errorf("%w: email is already registered", apperrors.ErrConflict)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, "", fmt.Errorf("failed to check email: %w", err)
	}

	if _, err := s.userRepo.GetByUsername(username); err == nil {
		return nil, "", fmt.Errorf("%w: username is already taken", apperrors.ErrConflict)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, "", fmt.Errorf("failed to check username: %w", err)
	}

	user := &entity.User{
		Username: username,
		Email:    email,
		Password: password,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	log.Printf("[AuthService] Зарегистрирован пользователь #%d (%s)", user.ID, user.Username)
	return user, token, nil
}

// Login проверяет учетные данные и возвращает токен доступа
func (s *AuthService) Login(email, password string) (*entity.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Не раскрываем, существует ли email
			return nil, "", fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
		}
		return nil, "", fmt.Errorf("failed to load user: %w", err)
	}

	if !user.CheckPassword(password) {
		return nil, "", fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
	}

	token, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	log.Printf("[AuthService] Вход пользователя #%d (%s)", user.ID, user.Username)
	return user, token, nil
}

// GetUserByID возвращает пользователя по ID
func (s *AuthService) GetUserByID(userID uint) (*entity.User, error) {
	return s.userRepo.GetByID(userID)
}
