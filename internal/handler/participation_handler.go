package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/quizshare-api/internal/domain/entity"
	"github.com/yourusername/quizshare-api/internal/domain/repository"
	"github.com/yourusername/quizshare-api/internal/handler/dto"
	apperrors "github.com/yourusername/quizshare-api/internal/pkg/errors"
	"github.com/yourusername/quizshare-api/internal/service"
	"github.com/yourusername/quizshare-api/internal/service/session"
)

// ParticipationHandler обрабатывает прохождение викторин по коду доступа
type ParticipationHandler struct {
	participationService *service.ParticipationService
	quizService          *service.QuizService
}

// NewParticipationHandler создает новый обработчик прохождения
func NewParticipationHandler(
	participationService *service.ParticipationService,
	quizService *service.QuizService,
) *ParticipationHandler {
	return &ParticipationHandler{
		participationService: participationService,
		quizService:          quizService,
	}
}

// SessionStateResponse представляет состояние сессии для клиента.
// Текущий вопрос включается только в активной фазе и без правильных ответов;
// во время показа результата вопроса правильные ответы раскрываются.
type SessionStateResponse struct {
	SessionID       string                `json:"session_id"`
	Phase           string                `json:"phase"`
	QuestionIndex   int                   `json:"question_index"`
	QuestionCount   int                   `json:"question_count"`
	TimeRemaining   int                   `json:"time_remaining"`
	RevealRemaining int                   `json:"reveal_remaining,omitempty"`
	Answered        []bool                `json:"answered"`
	Question        *dto.QuestionResponse `json:"question,omitempty"`
}

// newSessionStateResponse строит DTO состояния сессии
func newSessionStateResponse(sessionID string, state session.State, quiz *entity.Quiz) SessionStateResponse {
	resp := SessionStateResponse{
		SessionID:       sessionID,
		Phase:           state.Phase,
		QuestionIndex:   state.QuestionIndex,
		QuestionCount:   len(quiz.Questions),
		TimeRemaining:   state.TimeRemaining,
		RevealRemaining: state.RevealRemaining,
		Answered:        state.Answered,
	}
	if state.Phase == session.PhaseActive {
		if question, err := quiz.QuestionAt(state.QuestionIndex); err == nil {
			q := dto.NewQuestionResponse(question, state.InReveal())
			resp.Question = &q
		}
	}
	return resp
}

// LookupQuiz возвращает опубликованную викторину по коду доступа
// без правильных ответов. Доступно без аутентификации.
func (h *ParticipationHandler) LookupQuiz(c *gin.Context) {
	quiz, err := h.quizService.GetQuizByShareCode(c.Param("code"))
	if err != nil {
		h.handleParticipationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuizResponse(quiz, true, false))
}

// JoinQuizRequest представляет запрос на присоединение к викторине
type JoinQuizRequest struct {
	Code string `json:"code" binding:"required"`
}

// JoinQuiz регистрирует пользователя участником и создает сессию прохождения
func (h *ParticipationHandler) JoinQuiz(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	var req JoinQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionID, quiz, err := h.participationService.JoinQuiz(req.Code, userID)
	if err != nil {
		h.handleParticipationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"session_id": sessionID,
		"quiz":       dto.NewQuizResponse(quiz, true, false),
	})
}

// StartSession запускает сессию прохождения
func (h *ParticipationHandler) StartSession(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)
	sessionID := c.Param("sessionID")

	state, err := h.participationService.StartSession(sessionID, userID)
	if err != nil {
		h.handleParticipationError(c, err)
		return
	}

	_, quiz, err := h.participationService.GetSessionState(sessionID, userID)
	if err != nil {
		h.handleParticipationError(c, err)
		return
	}

	c.JSON(http.StatusOK, newSessionStateResponse(sessionID, state, quiz))
}

// GetSessionState возвращает текущее состояние сессии
func (h *ParticipationHandler) GetSessionState(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)
	sessionID := c.Param("sessionID")

	state, quiz, err := h.participationService.GetSessionState(sessionID, userID)
	if err != nil {
		h.handleParticipationError(c, err)
		return
	}

	c.JSON(http.StatusOK, newSessionStateResponse(sessionID, state, quiz))
}

// SubmitAnswerRequest представляет выбор варианта ответа
type SubmitAnswerRequest struct {
	OptionID uint `json:"option_id" binding:"required"`
}

// SubmitAnswer фиксирует выбор варианта на текущем вопросе
func (h *ParticipationHandler) SubmitAnswer(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)
	sessionID := c.Param("sessionID")

	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state, err := h.participationService.SubmitAnswer(sessionID, userID, req.OptionID)
	if err != nil {
		h.handleParticipationError(c, err)
		return
	}

	_, quiz, err := h.participationService.GetSessionState(sessionID, userID)
	if err != nil {
		h.handleParticipationError(c, err)
		return
	}

	c.JSON(http.StatusOK, newSessionStateResponse(sessionID, state, quiz))
}

// handleParticipationError преобразует ошибку сервиса в HTTP-ответ
func (h *ParticipationHandler) handleParticipationError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrAlreadyJoined) || errors.Is(err, repository.ErrAlreadyAnswered) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrUnauthorized) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in ParticipationHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
