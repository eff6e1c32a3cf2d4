package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quizshare-api/internal/domain/entity"
)

// MockAnswerRepo реализует repository.ParticipantRepository для тестов раннера
type MockAnswerRepo struct {
	mock.Mock
}

func (m *MockAnswerRepo) Create(participant *entity.Participant) error {
	args := m.Called(participant)
	return args.Error(0)
}

func (m *MockAnswerRepo) GetByID(id uint) (*entity.Participant, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Participant), args.Error(1)
}

func (m *MockAnswerRepo) GetByQuizAndUser(quizID, userID uint) (*entity.Participant, error) {
	args := m.Called(quizID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Participant), args.Error(1)
}

func (m *MockAnswerRepo) ListByQuiz(quizID uint) ([]entity.Participant, error) {
	args := m.Called(quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Participant), args.Error(1)
}

func (m *MockAnswerRepo) Update(participant *entity.Participant) error {
	args := m.Called(participant)
	return args.Error(0)
}

func (m *MockAnswerRepo) CreateAnswer(answer *entity.Answer) error {
	args := m.Called(answer)
	return args.Error(0)
}

// pausedConfig возвращает конфигурацию с практически неподвижным тикером:
// состояние меняется только явными вызовами
func pausedConfig() *Config {
	return &Config{RevealSeconds: 3, TickInterval: time.Hour}
}

func TestRunner_TicksAfterStartReturns(t *testing.T) {
	// Arrange: раннер с ускоренными тиками
	quiz := twoQuestionQuiz()
	repo := new(MockAnswerRepo)
	r := NewRunner(quiz, &entity.Participant{ID: 1, QuizID: quiz.ID, UserID: 42}, &Dependencies{
		ParticipantRepo: repo,
		Config:          &Config{RevealSeconds: 1, TickInterval: 2 * time.Millisecond},
	})

	// Act: Start возвращается сразу, вызывающая сторона больше не участвует
	require.NoError(t, r.Start())
	defer r.Stop()

	// Assert: отсчёт продолжается после возврата из Start
	require.Eventually(t, func() bool {
		s := r.Snapshot()
		return s.Phase == PhaseActive && s.TimeRemaining < quiz.Questions[0].TimeLimitSec
	}, 2*time.Second, 2*time.Millisecond, "Цикл тиков должен жить независимо от вызывающей стороны")
}

func TestRunner_CompletesByTimeoutAndReportsSessionID(t *testing.T) {
	// Arrange
	quiz := twoQuestionQuiz()
	repo := new(MockAnswerRepo)
	completedID := make(chan string, 1)
	r := NewRunner(quiz, &entity.Participant{ID: 1, QuizID: quiz.ID, UserID: 42}, &Dependencies{
		ParticipantRepo: repo,
		Config:          &Config{RevealSeconds: 1, TickInterval: time.Millisecond},
		OnComplete: func(sessionID string, participant *entity.Participant) {
			completedID <- sessionID
		},
	})

	// Act
	require.NoError(t, r.Start())
	defer r.Stop()

	// Assert: сессия доигрывается по таймаутам, колбэк получает её ID
	select {
	case id := <-completedID:
		assert.Equal(t, r.ID, id)
	case <-time.After(2 * time.Second):
		t.Fatal("Сессия не завершилась по таймаутам вопросов")
	}
	assert.Equal(t, PhaseCompleted, r.Snapshot().Phase)
	// Таймаут не записывает ответов
	repo.AssertNotCalled(t, "CreateAnswer", mock.Anything)
}

func TestRunner_SelectOption_KeepsStateOnSaveFailure(t *testing.T) {
	// Arrange: первая запись ответа падает, вторая проходит
	quiz := twoQuestionQuiz()
	repo := new(MockAnswerRepo)
	repo.On("CreateAnswer", mock.Anything).Return(errors.New("connection reset")).Once()
	repo.On("CreateAnswer", mock.MatchedBy(func(a *entity.Answer) bool {
		return a.QuestionID == 10 && a.OptionID == 100 && a.IsCorrect
	})).Return(nil).Once()

	participant := &entity.Participant{ID: 1, QuizID: quiz.ID, UserID: 42}
	r := NewRunner(quiz, participant, &Dependencies{
		ParticipantRepo: repo,
		Config:          pausedConfig(),
	})
	require.NoError(t, r.Start())
	defer r.Stop()

	// Act: неудачная запись
	_, err := r.SelectOption(100)

	// Assert: состояние не зафиксировано, вопрос всё ещё принимает ответ
	require.Error(t, err)
	state := r.Snapshot()
	assert.False(t, state.Answered[0], "Незаписанный ответ не должен отмечаться")
	assert.False(t, state.InReveal())
	assert.Empty(t, participant.Answers)

	// Act: повторный выбор проходит и фиксируется
	next, err := r.SelectOption(100)
	require.NoError(t, err)
	assert.True(t, next.Answered[0])
	assert.True(t, next.InReveal())
	require.Len(t, participant.Answers, 1)
	assert.Equal(t, uint(100), participant.Answers[0].OptionID)
	repo.AssertExpectations(t)
}

func TestRunner_StopBeforeStart(t *testing.T) {
	// Stop до запуска не должен паниковать
	quiz := twoQuestionQuiz()
	r := NewRunner(quiz, &entity.Participant{ID: 1}, &Dependencies{Config: DefaultConfig()})

	assert.NotPanics(t, func() { r.Stop() })
}
