package entity

import (
	"time"
)

// Answer представляет зафиксированный ответ участника на вопрос.
// На вопрос допускается не более одного ответа; пропуск по таймауту
// записи не создаёт.
type Answer struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ParticipantID uint      `gorm:"not null;index;uniqueIndex:idx_answers_participant_question" json:"participant_id"`
	QuestionID    uint      `gorm:"not null;uniqueIndex:idx_answers_participant_question" json:"question_id"`
	OptionID      uint      `gorm:"not null" json:"option_id"`
	IsCorrect     bool      `gorm:"not null;default:false" json:"is_correct"`
	ElapsedSec    int       `gorm:"not null;default:0" json:"elapsed_sec"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (Answer) TableName() string {
	return "answers"
}
