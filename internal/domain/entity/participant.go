package entity

import (
	"time"
)

// Participant представляет участника прохождения викторины.
// Пара (quiz_id, user_id) уникальна: повторное присоединение запрещено.
type Participant struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	QuizID       uint       `gorm:"not null;index;uniqueIndex:idx_participants_quiz_user" json:"quiz_id"`
	UserID       uint       `gorm:"not null;uniqueIndex:idx_participants_quiz_user" json:"user_id"`
	DisplayName  string     `gorm:"size:50;not null" json:"display_name"`
	Score        int        `gorm:"not null;default:0" json:"score"`
	TotalTimeSec int        `gorm:"not null;default:0" json:"total_time_sec"`
	CompletedAt  *time.Time `gorm:"type:timestamp" json:"completed_at,omitempty"`
	Answers      []Answer   `gorm:"foreignKey:ParticipantID;constraint:OnDelete:CASCADE" json:"answers,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Participant) TableName() string {
	return "participants"
}

// IsCompleted проверяет, завершил ли участник прохождение
func (p *Participant) IsCompleted() bool {
	return p.CompletedAt != nil
}

// AnswerFor возвращает ответ участника на вопрос или nil, если ответа нет
// (вопрос был пропущен по таймауту)
func (p *Participant) AnswerFor(questionID uint) *Answer {
	for i := range p.Answers {
		if p.Answers[i].QuestionID == questionID {
			return &p.Answers[i]
		}
	}
	return nil
}
