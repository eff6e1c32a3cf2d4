package repository

import (
	"github.com/yourusername/quizshare-api/internal/domain/entity"
)

// QuizRepository определяет методы для работы с викторинами
type QuizRepository interface {
	// Create сохраняет викторину вместе с вложенными вопросами и вариантами
	// в одной транзакции. Возвращает ErrShareCodeTaken, если код доступа
	// уже занят (unique constraint).
	Create(quiz *entity.Quiz) error
	GetByID(id uint) (*entity.Quiz, error)
	// GetWithQuestions возвращает викторину с вопросами и вариантами,
	// упорядоченными по order_index
	GetWithQuestions(id uint) (*entity.Quiz, error)
	// GetByShareCode возвращает опубликованную викторину по коду доступа
	// с вопросами и вариантами, упорядоченными по order_index
	GetByShareCode(code string) (*entity.Quiz, error)
	// Update перезаписывает викторину вместе с вложенным деревом
	// вопросов и вариантов в одной транзакции
	Update(quiz *entity.Quiz) error
	// UpdatePublication точечно выставляет статус и код доступа.
	// Возвращает ErrShareCodeTaken при конфликте кода.
	UpdatePublication(quizID uint, status string, shareCode string) error
	ListByOwner(ownerID uint, limit, offset int) ([]entity.Quiz, int64, error)
	Delete(id uint) error
}
