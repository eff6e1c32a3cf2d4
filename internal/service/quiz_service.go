package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/yourusername/quizshare-api/internal/domain/entity"
	"github.com/yourusername/quizshare-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizshare-api/internal/pkg/errors"
	"github.com/yourusername/quizshare-api/internal/pkg/sharecode"
)

const (
	// maxShareCodeAttempts — число попыток генерации кода доступа при
	// конфликте unique-индекса
	maxShareCodeAttempts = 5

	// shareCodeCacheTTL — время жизни кеша опубликованной викторины
	shareCodeCacheTTL = 10 * time.Minute
)

// shareCodeCacheKey строит ключ кеша опубликованной викторины
func shareCodeCacheKey(code string) string {
	return fmt.Sprintf("quiz:code:%s", code)
}

// QuizService предоставляет методы для работы с викторинами
type QuizService struct {
	quizRepo  repository.QuizRepository
	userRepo  repository.UserRepository
	cacheRepo repository.CacheRepository
	codes     *sharecode.Generator
	email     EmailService
}

// NewQuizService создает новый сервис викторин
func NewQuizService(
	quizRepo repository.QuizRepository,
	userRepo repository.UserRepository,
	cacheRepo repository.CacheRepository,
	codes *sharecode.Generator,
	email EmailService,
) *QuizService {
	return &QuizService{
		quizRepo:  quizRepo,
		userRepo:  userRepo,
		cacheRepo: cacheRepo,
		codes:     codes,
		email:     email,
	}
}

// CreateQuiz сохраняет новую викторину-черновик вместе с деревом вопросов.
// Валидация выполняется до записи: при нарушении в БД не попадает ничего.
func (s *QuizService) CreateQuiz(ownerID uint, quiz *entity.Quiz) (*entity.Quiz, error) {
	if err := quiz.Validate(); err != nil {
		return nil, err
	}

	quiz.ID = 0
	quiz.OwnerID = ownerID
	quiz.Status = entity.QuizStatusDraft
	quiz.ShareCode = ""
	normalizeQuizTree(quiz)

	if err := s.quizRepo.Create(quiz); err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}

	log.Printf("[QuizService] Викторина #%d создана пользователем #%d (%d вопросов)",
		quiz.ID, ownerID, len(quiz.Questions))
	return quiz, nil
}

// UpdateQuiz перезаписывает черновик. Опубликованные викторины не редактируются.
func (s *QuizService) UpdateQuiz(ownerID, quizID uint, updated *entity.Quiz) (*entity.Quiz, error) {
	existing, err := s.quizRepo.GetByID(quizID)
	if err != nil {
		return nil, err
	}
	if existing.OwnerID != ownerID {
		return nil, apperrors.ErrForbidden
	}
	if !existing.IsDraft() {
		return nil, fmt.Errorf("%w: published quiz cannot be edited", apperrors.ErrConflict)
	}

	if err := updated.Validate(); err != nil {
		return nil, err
	}

	updated.ID = existing.ID
	updated.OwnerID = existing.OwnerID
	updated.Status = existing.Status
	updated.ShareCode = existing.ShareCode
	updated.CreatedAt = existing.CreatedAt
	normalizeQuizTree(updated)

	if err := s.quizRepo.Update(updated); err != nil {
		return nil, fmt.Errorf("failed to update quiz: %w", err)
	}
	return updated, nil
}

// PublishQuiz присваивает черновику код доступа и переводит его в published.
// Уникальность кода гарантирует unique-индекс: при конфликте генерация
// повторяется до maxShareCodeAttempts раз.
func (s *QuizService) PublishQuiz(ctx context.Context, ownerID, quizID uint) (*entity.Quiz, error) {
	quiz, err := s.quizRepo.GetWithQuestions(quizID)
	if err != nil {
		return nil, err
	}
	if quiz.OwnerID != ownerID {
		return nil, apperrors.ErrForbidden
	}
	if quiz.IsPublished() {
		return nil, fmt.Errorf("%w: quiz is already published", apperrors.ErrConflict)
	}
	if err := quiz.Validate(); err != nil {
		return nil, err
	}

	var code string
	for attempt := 1; ; attempt++ {
		code = s.codes.Generate()
		err = s.quizRepo.UpdatePublication(quizID, entity.QuizStatusPublished, code)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrShareCodeTaken) {
			return nil, fmt.Errorf("failed to publish quiz: %w", err)
		}
		log.Printf("[QuizService] Код доступа %s занят, попытка %d/%d", code, attempt, maxShareCodeAttempts)
		if attempt >= maxShareCodeAttempts {
			return nil, fmt.Errorf("failed to allocate share code after %d attempts: %w",
				maxShareCodeAttempts, err)
		}
	}

	quiz.Status = entity.QuizStatusPublished
	quiz.ShareCode = code
	log.Printf("[QuizService] Викторина #%d опубликована с кодом %s", quizID, code)

	s.notifyPublished(ctx, quiz)
	return quiz, nil
}

// notifyPublished отправляет владельцу письмо с кодом доступа.
// Ошибка отправки не отменяет публикацию.
func (s *QuizService) notifyPublished(ctx context.Context, quiz *entity.Quiz) {
	if s.email == nil {
		return
	}
	owner, err := s.userRepo.GetByID(quiz.OwnerID)
	if err != nil {
		log.Printf("[QuizService] Владелец #%d викторины #%d не найден, письмо не отправлено: %v",
			quiz.OwnerID, quiz.ID, err)
		return
	}
	idempotencyKey := fmt.Sprintf("quiz-published-%d-%s", quiz.ID, quiz.ShareCode)
	if err := s.email.SendShareCode(ctx, owner.Email, quiz.Title, quiz.ShareCode, idempotencyKey); err != nil {
		log.Printf("[QuizService] Ошибка отправки письма о публикации викторины #%d: %v", quiz.ID, err)
	}
}

// GetQuizWithQuestions возвращает викторину с полным деревом вопросов
func (s *QuizService) GetQuizWithQuestions(quizID uint) (*entity.Quiz, error) {
	return s.quizRepo.GetWithQuestions(quizID)
}

// GetQuizByShareCode возвращает опубликованную викторину по коду доступа.
// Код нормализуется и проверяется по форме до обращения к хранилищу;
// удачные ответы кешируются в Redis.
func (s *QuizService) GetQuizByShareCode(code string) (*entity.Quiz, error) {
	code = sharecode.Normalize(code)
	if !sharecode.IsValid(code) {
		return nil, fmt.Errorf("%w: malformed share code %q", apperrors.ErrValidation, code)
	}

	var cached entity.Quiz
	if err := s.cacheRepo.GetJSON(shareCodeCacheKey(code), &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		// Кеш недоступен — идём в БД (fail-open)
		log.Printf("[QuizService] Ошибка чтения кеша для кода %s: %v", code, err)
	}

	quiz, err := s.quizRepo.GetByShareCode(code)
	if err != nil {
		return nil, err
	}

	if err := s.cacheRepo.SetJSON(shareCodeCacheKey(code), quiz, shareCodeCacheTTL); err != nil {
		log.Printf("[QuizService] Ошибка записи кеша для кода %s: %v", code, err)
	}
	return quiz, nil
}

// ListQuizzes возвращает викторины владельца с пагинацией
func (s *QuizService) ListQuizzes(ownerID uint, page, pageSize int) ([]entity.Quiz, int64, error) {
	offset := (page - 1) * pageSize
	return s.quizRepo.ListByOwner(ownerID, pageSize, offset)
}

// DeleteQuiz удаляет викторину владельца. FK-каскады удаляют вопросы,
// варианты, участников и ответы; кеш кода доступа инвалидируется.
func (s *QuizService) DeleteQuiz(ownerID, quizID uint) error {
	quiz, err := s.quizRepo.GetByID(quizID)
	if err != nil {
		return err
	}
	if quiz.OwnerID != ownerID {
		return apperrors.ErrForbidden
	}

	if err := s.quizRepo.Delete(quizID); err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}

	if quiz.ShareCode != "" {
		if err := s.cacheRepo.Delete(shareCodeCacheKey(quiz.ShareCode)); err != nil {
			log.Printf("[QuizService] Ошибка инвалидации кеша для кода %s: %v", quiz.ShareCode, err)
		}
	}

	log.Printf("[QuizService] Викторина #%d удалена пользователем #%d", quizID, ownerID)
	return nil
}

// normalizeQuizTree выравнивает порядковые индексы вопросов и вариантов
func normalizeQuizTree(quiz *entity.Quiz) {
	for i := range quiz.Questions {
		quiz.Questions[i].OrderIndex = i
		if quiz.Questions[i].TimeLimitSec == 0 {
			quiz.Questions[i].TimeLimitSec = entity.DefaultTimeLimitSec
		}
		for j := range quiz.Questions[i].Options {
			quiz.Questions[i].Options[j].OrderIndex = j
		}
	}
}
