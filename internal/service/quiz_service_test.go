package service

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quizshare-api/internal/domain/entity"
	"github.com/yourusername/quizshare-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizshare-api/internal/pkg/errors"
	"github.com/yourusername/quizshare-api/internal/pkg/sharecode"
)

func newQuizService(quizRepo *MockQuizRepository, userRepo *MockUserRepository, cacheRepo *MockCacheRepository, email *MockEmailService) *QuizService {
	return NewQuizService(quizRepo, userRepo, cacheRepo, sharecode.New(rand.NewSource(1)), email)
}

// draftQuiz возвращает валидное дерево викторины для тестов
func draftQuiz() *entity.Quiz {
	return &entity.Quiz{
		Title: "История",
		Questions: []entity.Question{
			{
				Text:         "В каком году основана Москва?",
				TimeLimitSec: 30,
				Options: []entity.Option{
					{Text: "1147", IsCorrect: true},
					{Text: "1247"},
				},
			},
		},
	}
}

func TestQuizService_CreateQuiz_Success(t *testing.T) {
	// Arrange
	quizRepo := new(MockQuizRepository)
	svc := newQuizService(quizRepo, new(MockUserRepository), new(MockCacheRepository), new(MockEmailService))

	quiz := draftQuiz()
	quizRepo.On("Create", mock.AnythingOfType("*entity.Quiz")).Return(nil)

	// Act
	created, err := svc.CreateQuiz(7, quiz)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, uint(7), created.OwnerID)
	assert.Equal(t, entity.QuizStatusDraft, created.Status, "Новая викторина создаётся черновиком")
	assert.Empty(t, created.ShareCode, "Черновик не имеет кода доступа")
	quizRepo.AssertExpectations(t)
}

func TestQuizService_CreateQuiz_ValidationFailureWritesNothing(t *testing.T) {
	// Arrange: невалидная викторина (нет вопросов)
	quizRepo := new(MockQuizRepository)
	svc := newQuizService(quizRepo, new(MockUserRepository), new(MockCacheRepository), new(MockEmailService))

	// Act
	_, err := svc.CreateQuiz(7, &entity.Quiz{Title: "Пустая"})

	// Assert: ошибка валидации, репозиторий не вызывался
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
	quizRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestQuizService_PublishQuiz_AssignsShareCode(t *testing.T) {
	// Arrange
	quizRepo := new(MockQuizRepository)
	userRepo := new(MockUserRepository)
	email := new(MockEmailService)
	svc := newQuizService(quizRepo, userRepo, new(MockCacheRepository), email)

	stored := draftQuiz()
	stored.ID = 3
	stored.OwnerID = 7
	stored.Status = entity.QuizStatusDraft

	quizRepo.On("GetWithQuestions", uint(3)).Return(stored, nil)
	quizRepo.On("UpdatePublication", uint(3), entity.QuizStatusPublished,
		mock.MatchedBy(sharecode.IsValid)).Return(nil)
	userRepo.On("GetByID", uint(7)).Return(&entity.User{ID: 7, Email: "owner@example.com"}, nil)
	email.On("SendShareCode", mock.Anything, "owner@example.com", stored.Title,
		mock.MatchedBy(sharecode.IsValid), mock.AnythingOfType("string")).Return(nil)

	// Act
	published, err := svc.PublishQuiz(context.Background(), 7, 3)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, entity.QuizStatusPublished, published.Status)
	assert.True(t, sharecode.IsValid(published.ShareCode), "Код доступа — 6 символов алфавита")
	quizRepo.AssertExpectations(t)
	email.AssertExpectations(t)
}

func TestQuizService_PublishQuiz_RetriesOnShareCodeConflict(t *testing.T) {
	// Arrange: первая попытка — конфликт unique-индекса, вторая успешна
	quizRepo := new(MockQuizRepository)
	userRepo := new(MockUserRepository)
	email := new(MockEmailService)
	svc := newQuizService(quizRepo, userRepo, new(MockCacheRepository), email)

	stored := draftQuiz()
	stored.ID = 3
	stored.OwnerID = 7

	quizRepo.On("GetWithQuestions", uint(3)).Return(stored, nil)
	quizRepo.On("UpdatePublication", uint(3), entity.QuizStatusPublished, mock.Anything).
		Return(repository.ErrShareCodeTaken).Once()
	quizRepo.On("UpdatePublication", uint(3), entity.QuizStatusPublished, mock.Anything).
		Return(nil).Once()
	userRepo.On("GetByID", uint(7)).Return(&entity.User{ID: 7, Email: "owner@example.com"}, nil)
	email.On("SendShareCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	// Act
	published, err := svc.PublishQuiz(context.Background(), 7, 3)

	// Assert
	require.NoError(t, err)
	assert.True(t, sharecode.IsValid(published.ShareCode))
	quizRepo.AssertExpectations(t)
}

func TestQuizService_PublishQuiz_GivesUpAfterMaxAttempts(t *testing.T) {
	// Arrange: код занят на каждой попытке
	quizRepo := new(MockQuizRepository)
	svc := newQuizService(quizRepo, new(MockUserRepository), new(MockCacheRepository), new(MockEmailService))

	stored := draftQuiz()
	stored.ID = 3
	stored.OwnerID = 7

	quizRepo.On("GetWithQuestions", uint(3)).Return(stored, nil)
	quizRepo.On("UpdatePublication", uint(3), entity.QuizStatusPublished, mock.Anything).
		Return(repository.ErrShareCodeTaken).Times(maxShareCodeAttempts)

	// Act
	_, err := svc.PublishQuiz(context.Background(), 7, 3)

	// Assert
	require.Error(t, err)
	assert.True(t, errors.Is(err, repository.ErrShareCodeTaken))
	quizRepo.AssertExpectations(t)
}

func TestQuizService_PublishQuiz_NotOwner(t *testing.T) {
	quizRepo := new(MockQuizRepository)
	svc := newQuizService(quizRepo, new(MockUserRepository), new(MockCacheRepository), new(MockEmailService))

	stored := draftQuiz()
	stored.ID = 3
	stored.OwnerID = 7
	quizRepo.On("GetWithQuestions", uint(3)).Return(stored, nil)

	_, err := svc.PublishQuiz(context.Background(), 99, 3)

	assert.True(t, errors.Is(err, apperrors.ErrForbidden), "Публиковать может только владелец")
}

func TestQuizService_PublishQuiz_AlreadyPublished(t *testing.T) {
	quizRepo := new(MockQuizRepository)
	svc := newQuizService(quizRepo, new(MockUserRepository), new(MockCacheRepository), new(MockEmailService))

	stored := draftQuiz()
	stored.ID = 3
	stored.OwnerID = 7
	stored.Status = entity.QuizStatusPublished
	stored.ShareCode = "ABC234"
	quizRepo.On("GetWithQuestions", uint(3)).Return(stored, nil)

	_, err := svc.PublishQuiz(context.Background(), 7, 3)

	assert.True(t, errors.Is(err, apperrors.ErrConflict))
}

func TestQuizService_GetQuizByShareCode_MalformedCode(t *testing.T) {
	svc := newQuizService(new(MockQuizRepository), new(MockUserRepository), new(MockCacheRepository), new(MockEmailService))

	// Код неправильной формы отклоняется до обращения к хранилищу
	_, err := svc.GetQuizByShareCode("AB")
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	_, err = svc.GetQuizByShareCode("ABC10O")
	assert.True(t, errors.Is(err, apperrors.ErrValidation), "Символы вне алфавита невалидны")
}

func TestQuizService_GetQuizByShareCode_CacheMissFallsThrough(t *testing.T) {
	// Arrange
	quizRepo := new(MockQuizRepository)
	cacheRepo := new(MockCacheRepository)
	svc := newQuizService(quizRepo, new(MockUserRepository), cacheRepo, new(MockEmailService))

	stored := draftQuiz()
	stored.ID = 3
	stored.Status = entity.QuizStatusPublished
	stored.ShareCode = "ABC234"

	cacheRepo.On("GetJSON", "quiz:code:ABC234", mock.Anything).Return(apperrors.ErrNotFound)
	quizRepo.On("GetByShareCode", "ABC234").Return(stored, nil)
	cacheRepo.On("SetJSON", "quiz:code:ABC234", stored, shareCodeCacheTTL).Return(nil)

	// Act: код в нижнем регистре нормализуется
	quiz, err := svc.GetQuizByShareCode(" abc234 ")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, uint(3), quiz.ID)
	quizRepo.AssertExpectations(t)
	cacheRepo.AssertExpectations(t)
}

func TestQuizService_UpdateQuiz_PublishedIsNotEditable(t *testing.T) {
	quizRepo := new(MockQuizRepository)
	svc := newQuizService(quizRepo, new(MockUserRepository), new(MockCacheRepository), new(MockEmailService))

	stored := &entity.Quiz{ID: 3, OwnerID: 7, Status: entity.QuizStatusPublished}
	quizRepo.On("GetByID", uint(3)).Return(stored, nil)

	_, err := svc.UpdateQuiz(7, 3, draftQuiz())

	assert.True(t, errors.Is(err, apperrors.ErrConflict), "Опубликованная викторина не редактируется")
}

func TestQuizService_DeleteQuiz_InvalidatesCache(t *testing.T) {
	// Arrange
	quizRepo := new(MockQuizRepository)
	cacheRepo := new(MockCacheRepository)
	svc := newQuizService(quizRepo, new(MockUserRepository), cacheRepo, new(MockEmailService))

	stored := &entity.Quiz{ID: 3, OwnerID: 7, Status: entity.QuizStatusPublished, ShareCode: "ABC234"}
	quizRepo.On("GetByID", uint(3)).Return(stored, nil)
	quizRepo.On("Delete", uint(3)).Return(nil)
	cacheRepo.On("Delete", "quiz:code:ABC234").Return(nil)

	// Act
	err := svc.DeleteQuiz(7, 3)

	// Assert
	require.NoError(t, err)
	quizRepo.AssertExpectations(t)
	cacheRepo.AssertExpectations(t)
}

func TestQuizService_DeleteQuiz_NotOwner(t *testing.T) {
	quizRepo := new(MockQuizRepository)
	svc := newQuizService(quizRepo, new(MockUserRepository), new(MockCacheRepository), new(MockEmailService))

	stored := &entity.Quiz{ID: 3, OwnerID: 7}
	quizRepo.On("GetByID", uint(3)).Return(stored, nil)

	err := svc.DeleteQuiz(99, 3)

	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
	quizRepo.AssertNotCalled(t, "Delete", mock.Anything)
}
