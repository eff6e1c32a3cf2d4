package entity

import (
	"fmt"
	"time"

	apperrors "github.com/yourusername/quizshare-api/internal/pkg/errors"
)

// Ограничения модели вопроса
const (
	MinOptionsPerQuestion = 2
	DefaultTimeLimitSec   = 30
	MinTimeLimitSec       = 5
	MaxTimeLimitSec       = 120
)

// Question представляет вопрос викторины с вложенными вариантами ответа
type Question struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	QuizID       uint      `gorm:"not null;index" json:"quiz_id"`
	Text         string    `gorm:"size:500;not null" json:"text"`
	TimeLimitSec int       `gorm:"not null;default:30" json:"time_limit_sec"`
	OrderIndex   int       `gorm:"not null;default:0" json:"order_index"`
	Options      []Option  `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"options,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// AddOption добавляет пустой вариант ответа в конец списка
func (q *Question) AddOption() {
	q.Options = append(q.Options, Option{
		QuestionID: q.ID,
		OrderIndex: len(q.Options),
	})
}

// RemoveOption удаляет вариант ответа по позиции.
// Удаление отклоняется, если после него осталось бы меньше двух вариантов.
func (q *Question) RemoveOption(pos int) error {
	if pos < 0 || pos >= len(q.Options) {
		return fmt.Errorf("%w: option position %d out of range", apperrors.ErrValidation, pos)
	}
	if len(q.Options) <= MinOptionsPerQuestion {
		return fmt.Errorf("%w: question must keep at least %d options",
			apperrors.ErrValidation, MinOptionsPerQuestion)
	}
	q.Options = append(q.Options[:pos], q.Options[pos+1:]...)
	for i := range q.Options {
		q.Options[i].OrderIndex = i
	}
	return nil
}

// SetOptionText изменяет текст варианта ответа по позиции
func (q *Question) SetOptionText(pos int, text string) error {
	if pos < 0 || pos >= len(q.Options) {
		return fmt.Errorf("%w: option position %d out of range", apperrors.ErrValidation, pos)
	}
	q.Options[pos].Text = text
	return nil
}

// SetOptionCorrect помечает вариант ответа как правильный или неправильный
func (q *Question) SetOptionCorrect(pos int, correct bool) error {
	if pos < 0 || pos >= len(q.Options) {
		return fmt.Errorf("%w: option position %d out of range", apperrors.ErrValidation, pos)
	}
	q.Options[pos].IsCorrect = correct
	return nil
}

// SetTimeLimit устанавливает лимит времени вопроса в секундах
func (q *Question) SetTimeLimit(seconds int) error {
	if seconds < MinTimeLimitSec || seconds > MaxTimeLimitSec {
		return fmt.Errorf("%w: time limit must be between %d and %d seconds",
			apperrors.ErrValidation, MinTimeLimitSec, MaxTimeLimitSec)
	}
	q.TimeLimitSec = seconds
	return nil
}

// HasCorrectOption проверяет, есть ли у вопроса хотя бы один правильный вариант
func (q *Question) HasCorrectOption() bool {
	for i := range q.Options {
		if q.Options[i].IsCorrect {
			return true
		}
	}
	return false
}

// IsCorrectOption проверяет, является ли вариант с данным ID правильным
func (q *Question) IsCorrectOption(optionID uint) bool {
	for i := range q.Options {
		if q.Options[i].ID == optionID && q.Options[i].IsCorrect {
			return true
		}
	}
	return false
}

// OptionByID возвращает вариант ответа по его ID
func (q *Question) OptionByID(optionID uint) *Option {
	for i := range q.Options {
		if q.Options[i].ID == optionID {
			return &q.Options[i]
		}
	}
	return nil
}

// OptionsCount возвращает количество вариантов ответа
func (q *Question) OptionsCount() int {
	return len(q.Options)
}
