package entity

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/yourusername/quizshare-api/internal/pkg/errors"
)

// Константы статусов викторины
const (
	QuizStatusDraft     = "draft"
	QuizStatusPublished = "published"
)

// Quiz представляет викторину с вложенными вопросами
type Quiz struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	OwnerID     uint       `gorm:"not null;index" json:"owner_id"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"size:500;not null;default:''" json:"description"`
	Status      string     `gorm:"size:20;not null;default:'draft';index" json:"status"`
	ShareCode   string     `gorm:"size:6;uniqueIndex:idx_quizzes_share_code,where:share_code <> ''" json:"share_code,omitempty"`
	Questions   []Question `gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Quiz) TableName() string {
	return "quizzes"
}

// IsDraft проверяет, является ли викторина черновиком
func (q *Quiz) IsDraft() bool {
	return q.Status == QuizStatusDraft
}

// IsPublished проверяет, опубликована ли викторина
func (q *Quiz) IsPublished() bool {
	return q.Status == QuizStatusPublished
}

// AddQuestion добавляет новый вопрос в конец викторины с двумя пустыми
// вариантами ответа и возвращает его позицию.
func (q *Quiz) AddQuestion() int {
	question := Question{
		QuizID:       q.ID,
		TimeLimitSec: DefaultTimeLimitSec,
		OrderIndex:   len(q.Questions),
		Options: []Option{
			{OrderIndex: 0},
			{OrderIndex: 1},
		},
	}
	q.Questions = append(q.Questions, question)
	return len(q.Questions) - 1
}

// RemoveQuestion удаляет вопрос по позиции, сохраняя порядок остальных.
// Позиции (OrderIndex) последующих вопросов пересчитываются.
func (q *Quiz) RemoveQuestion(pos int) error {
	if pos < 0 || pos >= len(q.Questions) {
		return fmt.Errorf("%w: question position %d out of range", apperrors.ErrValidation, pos)
	}
	q.Questions = append(q.Questions[:pos], q.Questions[pos+1:]...)
	for i := range q.Questions {
		q.Questions[i].OrderIndex = i
	}
	return nil
}

// UpdateQuestion изменяет текст и лимит времени вопроса по позиции.
// Нулевой лимит оставляет прежнее значение.
func (q *Quiz) UpdateQuestion(pos int, text string, timeLimitSec int) error {
	if pos < 0 || pos >= len(q.Questions) {
		return fmt.Errorf("%w: question position %d out of range", apperrors.ErrValidation, pos)
	}
	q.Questions[pos].Text = text
	if timeLimitSec != 0 {
		return q.Questions[pos].SetTimeLimit(timeLimitSec)
	}
	return nil
}

// QuestionAt возвращает вопрос по позиции
func (q *Quiz) QuestionAt(pos int) (*Question, error) {
	if pos < 0 || pos >= len(q.Questions) {
		return nil, fmt.Errorf("%w: question position %d out of range", apperrors.ErrValidation, pos)
	}
	return &q.Questions[pos], nil
}

// Validate проверяет готовность викторины к сохранению.
// Правила применяются в фиксированном порядке, первое нарушение
// возвращается как ошибка, обёрнутая в ErrValidation:
//  1. непустой заголовок (после обрезки пробелов);
//  2. хотя бы один вопрос;
//  3. у каждого вопроса непустой текст;
//  4. у каждого вопроса не менее двух вариантов;
//  5. у каждого вопроса хотя бы один правильный вариант;
//  6. у каждого варианта непустой текст.
func (q *Quiz) Validate() error {
	if strings.TrimSpace(q.Title) == "" {
		return fmt.Errorf("%w: quiz title is required", apperrors.ErrValidation)
	}
	if len(q.Questions) == 0 {
		return fmt.Errorf("%w: quiz must have at least one question", apperrors.ErrValidation)
	}
	for i := range q.Questions {
		if strings.TrimSpace(q.Questions[i].Text) == "" {
			return fmt.Errorf("%w: question %d text is required", apperrors.ErrValidation, i+1)
		}
	}
	for i := range q.Questions {
		if len(q.Questions[i].Options) < MinOptionsPerQuestion {
			return fmt.Errorf("%w: question %d must have at least %d options",
				apperrors.ErrValidation, i+1, MinOptionsPerQuestion)
		}
	}
	for i := range q.Questions {
		if !q.Questions[i].HasCorrectOption() {
			return fmt.Errorf("%w: question %d must have at least one correct option",
				apperrors.ErrValidation, i+1)
		}
	}
	for i := range q.Questions {
		for j := range q.Questions[i].Options {
			if strings.TrimSpace(q.Questions[i].Options[j].Text) == "" {
				return fmt.Errorf("%w: question %d option %d text is required",
					apperrors.ErrValidation, i+1, j+1)
			}
		}
	}
	return nil
}
