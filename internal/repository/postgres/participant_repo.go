package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/quizshare-api/internal/domain/entity"
	"github.com/yourusername/quizshare-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizshare-api/internal/pkg/errors"
)

// ParticipantRepo реализует repository.ParticipantRepository
type ParticipantRepo struct {
	db *gorm.DB
}

// NewParticipantRepo создает новый репозиторий участников
func NewParticipantRepo(db *gorm.DB) *ParticipantRepo {
	return &ParticipantRepo{db: db}
}

// Create регистрирует участника викторины.
// Unique constraint (quiz_id, user_id) страхует от гонки двух
// одновременных присоединений: 23505 транслируется в ErrAlreadyJoined.
func (r *ParticipantRepo) Create(participant *entity.Participant) error {
	err := r.db.Create(participant).Error
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: quiz #%d user #%d",
				repository.ErrAlreadyJoined, participant.QuizID, participant.UserID)
		}
		return err
	}
	return nil
}

// GetByID возвращает участника с вложенными ответами
func (r *ParticipantRepo) GetByID(id uint) (*entity.Participant, error) {
	var participant entity.Participant
	err := r.db.Preload("Answers").First(&participant, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &participant, nil
}

// GetByQuizAndUser возвращает участника по паре (quiz_id, user_id)
func (r *ParticipantRepo) GetByQuizAndUser(quizID, userID uint) (*entity.Participant, error) {
	var participant entity.Participant
	err := r.db.
		Where("quiz_id = ? AND user_id = ?", quizID, userID).
		Preload("Answers").
		First(&participant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &participant, nil
}

// ListByQuiz возвращает участников викторины с вложенными ответами
func (r *ParticipantRepo) ListByQuiz(quizID uint) ([]entity.Participant, error) {
	var participants []entity.Participant
	err := r.db.
		Where("quiz_id = ?", quizID).
		Preload("Answers").
		Order("id ASC").
		Find(&participants).Error
	if err != nil {
		return nil, err
	}
	return participants, nil
}

// Update сохраняет итог участника
func (r *ParticipantRepo) Update(participant *entity.Participant) error {
	return r.db.Save(participant).Error
}

// CreateAnswer фиксирует ответ участника на вопрос.
// Unique constraint (participant_id, question_id) гарантирует не более
// одного ответа на вопрос: 23505 транслируется в ErrAlreadyAnswered.
func (r *ParticipantRepo) CreateAnswer(answer *entity.Answer) error {
	err := r.db.Create(answer).Error
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: participant #%d question #%d",
				repository.ErrAlreadyAnswered, answer.ParticipantID, answer.QuestionID)
		}
		return err
	}
	return nil
}
