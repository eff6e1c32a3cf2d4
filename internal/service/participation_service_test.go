package service

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quizshare-api/internal/domain/entity"
	"github.com/yourusername/quizshare-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizshare-api/internal/pkg/errors"
	"github.com/yourusername/quizshare-api/internal/pkg/sharecode"
	"github.com/yourusername/quizshare-api/internal/service/session"
)

// publishedQuiz возвращает опубликованную викторину с одним вопросом
func publishedQuiz() *entity.Quiz {
	return &entity.Quiz{
		ID:        3,
		OwnerID:   7,
		Title:     "Наука",
		Status:    entity.QuizStatusPublished,
		ShareCode: "ABC234",
		Questions: []entity.Question{
			{
				ID:           10,
				QuizID:       3,
				Text:         "Химический символ золота?",
				TimeLimitSec: 30,
				Options: []entity.Option{
					{ID: 100, QuestionID: 10, Text: "Au", IsCorrect: true},
					{ID: 101, QuestionID: 10, Text: "Ag"},
				},
			},
		},
	}
}

func newParticipationService(
	quizRepo *MockQuizRepository,
	participantRepo *MockParticipantRepository,
	userRepo *MockUserRepository,
	cacheRepo *MockCacheRepository,
) *ParticipationService {
	quizService := NewQuizService(quizRepo, userRepo, cacheRepo, sharecode.New(rand.NewSource(1)), new(MockEmailService))
	return NewParticipationService(quizService, participantRepo, userRepo, session.NewManager(), session.DefaultConfig())
}

func expectShareCodeLookup(quizRepo *MockQuizRepository, cacheRepo *MockCacheRepository, quiz *entity.Quiz) {
	cacheRepo.On("GetJSON", "quiz:code:"+quiz.ShareCode, mock.Anything).Return(apperrors.ErrNotFound)
	quizRepo.On("GetByShareCode", quiz.ShareCode).Return(quiz, nil)
	cacheRepo.On("SetJSON", "quiz:code:"+quiz.ShareCode, quiz, shareCodeCacheTTL).Return(nil)
}

func TestParticipationService_JoinQuiz_Success(t *testing.T) {
	// Arrange
	quizRepo := new(MockQuizRepository)
	participantRepo := new(MockParticipantRepository)
	userRepo := new(MockUserRepository)
	cacheRepo := new(MockCacheRepository)
	svc := newParticipationService(quizRepo, participantRepo, userRepo, cacheRepo)

	quiz := publishedQuiz()
	expectShareCodeLookup(quizRepo, cacheRepo, quiz)
	participantRepo.On("GetByQuizAndUser", uint(3), uint(42)).Return(nil, apperrors.ErrNotFound)
	userRepo.On("GetByID", uint(42)).Return(&entity.User{ID: 42, Username: "alice"}, nil)
	participantRepo.On("Create", mock.MatchedBy(func(p *entity.Participant) bool {
		return p.QuizID == 3 && p.UserID == 42 && p.DisplayName == "alice"
	})).Return(nil)

	// Act
	sessionID, joined, err := svc.JoinQuiz("abc234", 42)

	// Assert
	require.NoError(t, err)
	assert.NotEmpty(t, sessionID, "Присоединение создаёт сессию")
	assert.Equal(t, quiz.ID, joined.ID)

	// Сессия в фазе waiting до явного старта
	state, _, err := svc.GetSessionState(sessionID, 42)
	require.NoError(t, err)
	assert.Equal(t, session.PhaseWaiting, state.Phase)

	participantRepo.AssertExpectations(t)
}

func TestParticipationService_JoinQuiz_AlreadyJoined(t *testing.T) {
	// Arrange: участник уже существует
	quizRepo := new(MockQuizRepository)
	participantRepo := new(MockParticipantRepository)
	userRepo := new(MockUserRepository)
	cacheRepo := new(MockCacheRepository)
	svc := newParticipationService(quizRepo, participantRepo, userRepo, cacheRepo)

	quiz := publishedQuiz()
	expectShareCodeLookup(quizRepo, cacheRepo, quiz)
	participantRepo.On("GetByQuizAndUser", uint(3), uint(42)).
		Return(&entity.Participant{ID: 1, QuizID: 3, UserID: 42}, nil)

	// Act
	_, _, err := svc.JoinQuiz("ABC234", 42)

	// Assert: отклонено до попытки вставки
	require.Error(t, err)
	assert.True(t, errors.Is(err, repository.ErrAlreadyJoined))
	participantRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestParticipationService_JoinQuiz_UnknownCode(t *testing.T) {
	quizRepo := new(MockQuizRepository)
	cacheRepo := new(MockCacheRepository)
	svc := newParticipationService(quizRepo, new(MockParticipantRepository), new(MockUserRepository), cacheRepo)

	cacheRepo.On("GetJSON", "quiz:code:ZZZZ99", mock.Anything).Return(apperrors.ErrNotFound)
	quizRepo.On("GetByShareCode", "ZZZZ99").Return(nil, apperrors.ErrNotFound)

	_, _, err := svc.JoinQuiz("ZZZZ99", 42)

	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestParticipationService_StartSession_RequiresOwner(t *testing.T) {
	// Arrange
	quizRepo := new(MockQuizRepository)
	participantRepo := new(MockParticipantRepository)
	userRepo := new(MockUserRepository)
	cacheRepo := new(MockCacheRepository)
	svc := newParticipationService(quizRepo, participantRepo, userRepo, cacheRepo)

	quiz := publishedQuiz()
	expectShareCodeLookup(quizRepo, cacheRepo, quiz)
	participantRepo.On("GetByQuizAndUser", uint(3), uint(42)).Return(nil, apperrors.ErrNotFound)
	userRepo.On("GetByID", uint(42)).Return(&entity.User{ID: 42, Username: "alice"}, nil)
	participantRepo.On("Create", mock.Anything).Return(nil)

	sessionID, _, err := svc.JoinQuiz("ABC234", 42)
	require.NoError(t, err)
	defer svc.sessions.StopAll()

	// Act & Assert: чужой пользователь не может стартовать сессию
	_, err = svc.StartSession(sessionID, 99)
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))

	// Владелец — может
	state, err := svc.StartSession(sessionID, 42)
	require.NoError(t, err)
	assert.Equal(t, session.PhaseActive, state.Phase)
}

func TestParticipationService_SubmitAnswer_RecordsAnswer(t *testing.T) {
	// Arrange
	quizRepo := new(MockQuizRepository)
	participantRepo := new(MockParticipantRepository)
	userRepo := new(MockUserRepository)
	cacheRepo := new(MockCacheRepository)
	svc := newParticipationService(quizRepo, participantRepo, userRepo, cacheRepo)

	quiz := publishedQuiz()
	expectShareCodeLookup(quizRepo, cacheRepo, quiz)
	participantRepo.On("GetByQuizAndUser", uint(3), uint(42)).Return(nil, apperrors.ErrNotFound)
	userRepo.On("GetByID", uint(42)).Return(&entity.User{ID: 42, Username: "alice"}, nil)
	participantRepo.On("Create", mock.Anything).Return(nil)
	participantRepo.On("CreateAnswer", mock.MatchedBy(func(a *entity.Answer) bool {
		return a.QuestionID == 10 && a.OptionID == 100 && a.IsCorrect
	})).Return(nil)

	sessionID, _, err := svc.JoinQuiz("ABC234", 42)
	require.NoError(t, err)
	defer svc.sessions.StopAll()
	_, err = svc.StartSession(sessionID, 42)
	require.NoError(t, err)

	// Act
	state, err := svc.SubmitAnswer(sessionID, 42, 100)

	// Assert
	require.NoError(t, err)
	assert.True(t, state.Answered[0])
	assert.True(t, state.InReveal())
	participantRepo.AssertExpectations(t)

	// Повторный выбор — тихий no-op без второй записи
	again, err := svc.SubmitAnswer(sessionID, 42, 101)
	require.NoError(t, err)
	assert.Equal(t, state.Answered, again.Answered)
	participantRepo.AssertNumberOfCalls(t, "CreateAnswer", 1)
}

func TestParticipationService_CompletionSavesAndEvictsSession(t *testing.T) {
	// Arrange: ускоренные тики, вопрос доигрывается по таймауту
	quizRepo := new(MockQuizRepository)
	participantRepo := new(MockParticipantRepository)
	userRepo := new(MockUserRepository)
	cacheRepo := new(MockCacheRepository)
	quizService := NewQuizService(quizRepo, userRepo, cacheRepo,
		sharecode.New(rand.NewSource(1)), new(MockEmailService))
	svc := NewParticipationService(quizService, participantRepo, userRepo,
		session.NewManager(), &session.Config{RevealSeconds: 1, TickInterval: 2 * time.Millisecond})

	quiz := publishedQuiz()
	expectShareCodeLookup(quizRepo, cacheRepo, quiz)
	participantRepo.On("GetByQuizAndUser", uint(3), uint(42)).Return(nil, apperrors.ErrNotFound)
	userRepo.On("GetByID", uint(42)).Return(&entity.User{ID: 42, Username: "alice"}, nil)
	participantRepo.On("Create", mock.Anything).Return(nil)
	participantRepo.On("Update", mock.MatchedBy(func(p *entity.Participant) bool {
		return p.CompletedAt != nil && p.Score == 0
	})).Return(nil)

	sessionID, _, err := svc.JoinQuiz("ABC234", 42)
	require.NoError(t, err)
	defer svc.sessions.StopAll()
	_, err = svc.StartSession(sessionID, 42)
	require.NoError(t, err)

	// Act & Assert: после завершения раннер удалён из реестра
	require.Eventually(t, func() bool {
		_, _, err := svc.GetSessionState(sessionID, 42)
		return errors.Is(err, apperrors.ErrNotFound)
	}, 2*time.Second, 5*time.Millisecond, "Завершённая сессия должна удаляться из реестра")

	// Итог сохранён, таймаут не записал ни одного ответа
	participantRepo.AssertCalled(t, "Update", mock.Anything)
	participantRepo.AssertNotCalled(t, "CreateAnswer", mock.Anything)
}

func TestParticipationService_GetSessionState_UnknownSession(t *testing.T) {
	svc := newParticipationService(new(MockQuizRepository), new(MockParticipantRepository),
		new(MockUserRepository), new(MockCacheRepository))

	_, _, err := svc.GetSessionState("missing", 42)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestScoreParticipant_FinalizationValues(t *testing.T) {
	// Arrange: итог участника, как его сохранит колбэк завершения
	quiz := publishedQuiz()
	now := time.Now()
	participant := &entity.Participant{
		ID:     1,
		QuizID: 3,
		Answers: []entity.Answer{
			{QuestionID: 10, OptionID: 100, IsCorrect: true, ElapsedSec: 4},
		},
		CompletedAt: &now,
	}

	// Act
	outcome := ScoreParticipant(quiz, participant)

	// Assert
	assert.Equal(t, 100, outcome.Score)
	assert.Equal(t, 1, outcome.CorrectAnswers)
	assert.Equal(t, 4, outcome.TotalTimeSec)
}
