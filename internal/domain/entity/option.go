package entity

import "time"

// Option представляет вариант ответа на вопрос.
// Признак правильности скрыт от клиента до завершения прохождения.
type Option struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	QuestionID uint      `gorm:"not null;index" json:"question_id"`
	Text       string    `gorm:"size:200;not null;default:''" json:"text"`
	IsCorrect  bool      `gorm:"not null;default:false" json:"-"`
	OrderIndex int       `gorm:"not null;default:0" json:"order_index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Option) TableName() string {
	return "options"
}
