package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/quizshare-api/internal/domain/entity"
	"github.com/yourusername/quizshare-api/internal/handler/dto"
	apperrors "github.com/yourusername/quizshare-api/internal/pkg/errors"
	"github.com/yourusername/quizshare-api/internal/service"
)

// QuizHandler обрабатывает запросы, связанные с викторинами
type QuizHandler struct {
	quizService   *service.QuizService
	resultService *service.ResultService
}

// NewQuizHandler создает новый обработчик викторин
func NewQuizHandler(quizService *service.QuizService, resultService *service.ResultService) *QuizHandler {
	return &QuizHandler{
		quizService:   quizService,
		resultService: resultService,
	}
}

// OptionRequest представляет вариант ответа в запросе
type OptionRequest struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// QuestionRequest представляет вопрос в запросе
type QuestionRequest struct {
	Text         string          `json:"text"`
	TimeLimitSec int             `json:"time_limit_sec"`
	Options      []OptionRequest `json:"options"`
}

// QuizRequest представляет запрос на создание или обновление викторины.
// Содержательная валидация дерева выполняется сервисом, поэтому binding
// здесь не дублирует её правила.
type QuizRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Questions   []QuestionRequest `json:"questions"`
}

// toEntity преобразует запрос в дерево сущностей
func (r *QuizRequest) toEntity() *entity.Quiz {
	quiz := &entity.Quiz{
		Title:       r.Title,
		Description: r.Description,
		Questions:   make([]entity.Question, 0, len(r.Questions)),
	}
	for _, q := range r.Questions {
		options := make([]entity.Option, 0, len(q.Options))
		for _, o := range q.Options {
			options = append(options, entity.Option{
				Text:      o.Text,
				IsCorrect: o.IsCorrect,
			})
		}
		quiz.Questions = append(quiz.Questions, entity.Question{
			Text:         q.Text,
			TimeLimitSec: q.TimeLimitSec,
			Options:      options,
		})
	}
	return quiz
}

// CreateQuiz обрабатывает запрос на создание викторины
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	var req QuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quiz, err := h.quizService.CreateQuiz(userID, req.toEntity())
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewQuizResponse(quiz, true, true))
}

// GetQuiz возвращает викторину с вопросами.
// Владелец видит правильные ответы, остальные — только опубликованные
// викторины без них.
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)
	userID := c.MustGet("user_id").(uint)

	quiz, err := h.quizService.GetQuizWithQuestions(quizID)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	isOwner := quiz.OwnerID == userID
	if !isOwner && quiz.IsDraft() {
		h.handleQuizError(c, fmt.Errorf("%w: quiz is not published", apperrors.ErrForbidden))
		return
	}

	c.JSON(http.StatusOK, dto.NewQuizResponse(quiz, true, isOwner))
}

// UpdateQuiz обрабатывает запрос на обновление черновика
func (h *QuizHandler) UpdateQuiz(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)
	userID := c.MustGet("user_id").(uint)

	var req QuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quiz, err := h.quizService.UpdateQuiz(userID, quizID, req.toEntity())
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuizResponse(quiz, true, true))
}

// PublishQuiz обрабатывает запрос на публикацию викторины
func (h *QuizHandler) PublishQuiz(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)
	userID := c.MustGet("user_id").(uint)

	quiz, err := h.quizService.PublishQuiz(c.Request.Context(), userID, quizID)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuizResponse(quiz, false, false))
}

// DeleteQuiz обрабатывает запрос на удаление викторины
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)
	userID := c.MustGet("user_id").(uint)

	if err := h.quizService.DeleteQuiz(userID, quizID); err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Quiz deleted successfully"})
}

// ListQuizzes возвращает викторины текущего пользователя с пагинацией
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	quizzes, total, err := h.quizService.ListQuizzes(userID, page, pageSize)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.PaginatedQuizResponse{
		Quizzes: dto.NewListQuizResponse(quizzes),
		Total:   total,
		Page:    page,
		PerPage: pageSize,
	})
}

// GetResults возвращает сводку результатов викторины (только владельцу)
func (h *QuizHandler) GetResults(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)
	userID := c.MustGet("user_id").(uint)

	results, err := h.resultService.GetResults(userID, quizID)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// ExportResults выгружает результаты викторины в CSV или XLSX.
// Формат выбирается query-параметром format (по умолчанию csv).
func (h *QuizHandler) ExportResults(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)
	userID := c.MustGet("user_id").(uint)

	format := c.DefaultQuery("format", "csv")
	switch format {
	case "csv":
		data, err := h.resultService.ExportCSV(userID, quizID)
		if err != nil {
			h.handleQuizError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="quiz-%d-results.csv"`, quizID))
		c.Data(http.StatusOK, "text/csv", data)
	case "xlsx":
		data, err := h.resultService.ExportXLSX(userID, quizID)
		if err != nil {
			h.handleQuizError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="quiz-%d-results.xlsx"`, quizID))
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unsupported export format %q", format)})
	}
}

// handleQuizError преобразует ошибку сервиса в HTTP-ответ
func (h *QuizHandler) handleQuizError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrUnauthorized) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in QuizHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
