package dto

import (
	"time"

	"github.com/yourusername/quizshare-api/internal/domain/entity"
)

// OptionResponse представляет вариант ответа в формате для клиента.
// Признак правильности включается только в ответы владельцу.
type OptionResponse struct {
	ID        uint   `json:"id"`
	Text      string `json:"text"`
	IsCorrect *bool  `json:"is_correct,omitempty"`
}

// QuestionResponse представляет вопрос в формате для клиента
type QuestionResponse struct {
	ID           uint             `json:"id"`
	Text         string           `json:"text"`
	TimeLimitSec int              `json:"time_limit_sec"`
	OrderIndex   int              `json:"order_index"`
	Options      []OptionResponse `json:"options"`
}

// QuizResponse представляет викторину в формате для клиента
type QuizResponse struct {
	ID            uint               `json:"id"`
	OwnerID       uint               `json:"owner_id"`
	Title         string             `json:"title"`
	Description   string             `json:"description,omitempty"`
	Status        string             `json:"status"`
	ShareCode     string             `json:"share_code,omitempty"`
	QuestionCount int                `json:"question_count"`
	Questions     []QuestionResponse `json:"questions,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// NewQuestionResponse создает DTO для вопроса.
// revealAnswers управляет включением признака правильности вариантов.
func NewQuestionResponse(q *entity.Question, revealAnswers bool) QuestionResponse {
	options := make([]OptionResponse, len(q.Options))
	for i := range q.Options {
		option := &q.Options[i]
		options[i] = OptionResponse{
			ID:   option.ID,
			Text: option.Text,
		}
		if revealAnswers {
			isCorrect := option.IsCorrect
			options[i].IsCorrect = &isCorrect
		}
	}
	return QuestionResponse{
		ID:           q.ID,
		Text:         q.Text,
		TimeLimitSec: q.TimeLimitSec,
		OrderIndex:   q.OrderIndex,
		Options:      options,
	}
}

// NewQuizResponse создает DTO для викторины.
// includeQuestions включает дерево вопросов, revealAnswers — правильные
// ответы (только для владельца).
func NewQuizResponse(quiz *entity.Quiz, includeQuestions, revealAnswers bool) *QuizResponse {
	if quiz == nil {
		return nil
	}

	var questions []QuestionResponse
	if includeQuestions {
		questions = make([]QuestionResponse, len(quiz.Questions))
		for i := range quiz.Questions {
			questions[i] = NewQuestionResponse(&quiz.Questions[i], revealAnswers)
		}
	}

	return &QuizResponse{
		ID:            quiz.ID,
		OwnerID:       quiz.OwnerID,
		Title:         quiz.Title,
		Description:   quiz.Description,
		Status:        quiz.Status,
		ShareCode:     quiz.ShareCode,
		QuestionCount: len(quiz.Questions),
		Questions:     questions,
		CreatedAt:     quiz.CreatedAt,
		UpdatedAt:     quiz.UpdatedAt,
	}
}

// NewListQuizResponse создает слайс DTO для списка викторин (без вопросов)
func NewListQuizResponse(quizzes []entity.Quiz) []*QuizResponse {
	list := make([]*QuizResponse, len(quizzes))
	for i := range quizzes {
		list[i] = NewQuizResponse(&quizzes[i], false, false)
	}
	return list
}

// PaginatedQuizResponse представляет пагинированный список викторин
type PaginatedQuizResponse struct {
	Quizzes []*QuizResponse `json:"quizzes"`
	Total   int64           `json:"total"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
}
