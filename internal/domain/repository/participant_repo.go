package repository

import (
	"github.com/yourusername/quizshare-api/internal/domain/entity"
)

// ParticipantRepository определяет методы для работы с участниками и их ответами
type ParticipantRepository interface {
	// Create регистрирует участника. Возвращает ErrAlreadyJoined, если пара
	// (quiz_id, user_id) уже существует.
	Create(participant *entity.Participant) error
	GetByID(id uint) (*entity.Participant, error)
	GetByQuizAndUser(quizID, userID uint) (*entity.Participant, error)
	// ListByQuiz возвращает участников викторины с вложенными ответами
	ListByQuiz(quizID uint) ([]entity.Participant, error)
	// Update сохраняет итог участника (счёт, суммарное время, отметку завершения)
	Update(participant *entity.Participant) error
	// CreateAnswer фиксирует ответ участника на вопрос. Возвращает
	// ErrAlreadyAnswered, если ответ на этот вопрос уже записан.
	CreateAnswer(answer *entity.Answer) error
}
