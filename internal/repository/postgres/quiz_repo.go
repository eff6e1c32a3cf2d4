package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/yourusername/quizshare-api/internal/domain/entity"
	"github.com/yourusername/quizshare-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizshare-api/internal/pkg/errors"
)

// QuizRepo реализует repository.QuizRepository
type QuizRepo struct {
	db *gorm.DB
}

// NewQuizRepo создает новый репозиторий викторин
func NewQuizRepo(db *gorm.DB) *QuizRepo {
	return &QuizRepo{db: db}
}

// Create сохраняет викторину вместе с вложенными вопросами и вариантами.
// GORM создаёт всё дерево в одной транзакции; при её откате ни одна
// запись не остаётся в БД.
func (r *QuizRepo) Create(quiz *entity.Quiz) error {
	err := r.db.Create(quiz).Error
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %q", repository.ErrShareCodeTaken, quiz.ShareCode)
		}
		return err
	}
	return nil
}

// GetByID возвращает викторину по ID без вложенных вопросов
func (r *QuizRepo) GetByID(id uint) (*entity.Quiz, error) {
	var quiz entity.Quiz
	err := r.db.First(&quiz, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

// GetWithQuestions возвращает викторину вместе с вопросами и вариантами,
// упорядоченными по order_index
func (r *QuizRepo) GetWithQuestions(id uint) (*entity.Quiz, error) {
	var quiz entity.Quiz
	err := r.db.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.order_index ASC")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("options.order_index ASC")
		}).
		First(&quiz, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

// GetByShareCode возвращает опубликованную викторину по коду доступа
// с полным деревом вопросов и вариантов
func (r *QuizRepo) GetByShareCode(code string) (*entity.Quiz, error) {
	var quiz entity.Quiz
	err := r.db.
		Where("share_code = ? AND status = ?", code, entity.QuizStatusPublished).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.order_index ASC")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("options.order_index ASC")
		}).
		First(&quiz).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

// Update перезаписывает викторину вместе с вложенным деревом вопросов.
// Старые вопросы и варианты удаляются, новое дерево создаётся заново —
// всё в одной транзакции.
func (r *QuizRepo) Update(quiz *entity.Quiz) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		// Каскад options через FK на questions
		if err := tx.Where("quiz_id = ?", quiz.ID).Delete(&entity.Question{}).Error; err != nil {
			return fmt.Errorf("failed to clear quiz questions: %w", err)
		}
		for i := range quiz.Questions {
			quiz.Questions[i].ID = 0
			quiz.Questions[i].QuizID = quiz.ID
			for j := range quiz.Questions[i].Options {
				quiz.Questions[i].Options[j].ID = 0
				quiz.Questions[i].Options[j].QuestionID = 0
			}
		}
		if err := tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(quiz).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %q", repository.ErrShareCodeTaken, quiz.ShareCode)
			}
			return err
		}
		return nil
	})
}

// UpdatePublication точечно выставляет статус и код доступа викторины
func (r *QuizRepo) UpdatePublication(quizID uint, status string, shareCode string) error {
	err := r.db.Model(&entity.Quiz{}).
		Where("id = ?", quizID).
		Updates(map[string]interface{}{
			"status":     status,
			"share_code": shareCode,
		}).Error
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %q", repository.ErrShareCodeTaken, shareCode)
		}
		return err
	}
	return nil
}

// ListByOwner возвращает викторины владельца с пагинацией и total count
func (r *QuizRepo) ListByOwner(ownerID uint, limit, offset int) ([]entity.Quiz, int64, error) {
	var quizzes []entity.Quiz
	var total int64

	query := r.db.Model(&entity.Quiz{}).Where("owner_id = ?", ownerID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Limit(limit).Offset(offset).Order("id DESC").Find(&quizzes).Error
	if err != nil {
		return nil, 0, err
	}

	return quizzes, total, nil
}

// Delete удаляет викторину. FK-каскады удаляют вопросы, варианты,
// участников и их ответы.
func (r *QuizRepo) Delete(id uint) error {
	return r.db.Delete(&entity.Quiz{}, id).Error
}

// isUniqueViolation проверяет Postgres unique violation (23505) для pgconn и lib/pq драйверов
func isUniqueViolation(err error) bool {
	// pgx/v5 driver (pgconn.PgError)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	// lib/pq driver
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}
