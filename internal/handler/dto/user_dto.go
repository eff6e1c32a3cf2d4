package dto

import (
	"time"

	"github.com/yourusername/quizshare-api/internal/domain/entity"
)

// UserResponse представляет пользователя в формате для клиента
type UserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResponse представляет результат регистрации или входа
type AuthResponse struct {
	User  *UserResponse `json:"user"`
	Token string        `json:"token"`
}

// NewUserResponse создает DTO для пользователя
func NewUserResponse(user *entity.User) *UserResponse {
	if user == nil {
		return nil
	}
	return &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}

// NewAuthResponse создает DTO для ответа аутентификации
func NewAuthResponse(user *entity.User, token string) *AuthResponse {
	return &AuthResponse{
		User:  NewUserResponse(user),
		Token: token,
	}
}
