package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/yourusername/quizshare-api/internal/domain/entity"
	"github.com/yourusername/quizshare-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizshare-api/internal/pkg/errors"
	"github.com/yourusername/quizshare-api/internal/service/session"
)

// nowFunc подменяется в тестах для детерминированных отметок времени
var nowFunc = time.Now

// ParticipationService управляет сессиями прохождения викторин
type ParticipationService struct {
	quizService     *QuizService
	participantRepo repository.ParticipantRepository
	userRepo        repository.UserRepository
	sessions        *session.Manager
	sessionConfig   *session.Config
}

// NewParticipationService создает новый сервис прохождения
func NewParticipationService(
	quizService *QuizService,
	participantRepo repository.ParticipantRepository,
	userRepo repository.UserRepository,
	sessions *session.Manager,
	sessionConfig *session.Config,
) *ParticipationService {
	if sessionConfig == nil {
		sessionConfig = session.DefaultConfig()
	}
	return &ParticipationService{
		quizService:     quizService,
		participantRepo: participantRepo,
		userRepo:        userRepo,
		sessions:        sessions,
		sessionConfig:   sessionConfig,
	}
}

// JoinQuiz регистрирует пользователя участником викторины по коду доступа
// и создаёт сессию прохождения в фазе waiting.
// Повторное присоединение отклоняется: сначала явной проверкой, затем —
// на случай гонки — unique constraint в БД.
func (s *ParticipationService) JoinQuiz(code string, userID uint) (string, *entity.Quiz, error) {
	quiz, err := s.quizService.GetQuizByShareCode(code)
	if err != nil {
		return "", nil, err
	}

	if _, err := s.participantRepo.GetByQuizAndUser(quiz.ID, userID); err == nil {
		return "", nil, fmt.Errorf("%w: quiz #%d user #%d", repository.ErrAlreadyJoined, quiz.ID, userID)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return "", nil, fmt.Errorf("failed to check participation: %w", err)
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return "", nil, err
	}

	participant := &entity.Participant{
		QuizID:      quiz.ID,
		UserID:      userID,
		DisplayName: user.Username,
	}
	if err := s.participantRepo.Create(participant); err != nil {
		return "", nil, err
	}

	runner := session.NewRunner(quiz, participant, &session.Dependencies{
		ParticipantRepo: s.participantRepo,
		Config:          s.sessionConfig,
		OnComplete:      s.finalizeParticipant(quiz),
	})
	sessionID := s.sessions.Add(runner)

	log.Printf("[Participation] Пользователь #%d присоединился к викторине #%d (сессия %s)",
		userID, quiz.ID, sessionID)
	return sessionID, quiz, nil
}

// StartSession запускает сессию прохождения.
// Запуск возможен только после успешной регистрации участника (JoinQuiz)
// и только владельцем сессии.
func (s *ParticipationService) StartSession(sessionID string, userID uint) (session.State, error) {
	runner, err := s.sessions.Get(sessionID)
	if err != nil {
		return session.State{}, err
	}
	if runner.Participant().UserID != userID {
		return session.State{}, apperrors.ErrForbidden
	}
	if err := runner.Start(); err != nil {
		return runner.Snapshot(), err
	}
	return runner.Snapshot(), nil
}

// GetSessionState возвращает текущее состояние сессии и её викторину
func (s *ParticipationService) GetSessionState(sessionID string, userID uint) (session.State, *entity.Quiz, error) {
	runner, err := s.sessions.Get(sessionID)
	if err != nil {
		return session.State{}, nil, err
	}
	if runner.Participant().UserID != userID {
		return session.State{}, nil, apperrors.ErrForbidden
	}
	return runner.Snapshot(), runner.Quiz(), nil
}

// SubmitAnswer фиксирует выбор варианта на текущем вопросе сессии
func (s *ParticipationService) SubmitAnswer(sessionID string, userID uint, optionID uint) (session.State, error) {
	runner, err := s.sessions.Get(sessionID)
	if err != nil {
		return session.State{}, err
	}
	if runner.Participant().UserID != userID {
		return session.State{}, apperrors.ErrForbidden
	}
	return runner.SelectOption(optionID)
}

// finalizeParticipant возвращает колбэк завершения сессии: подсчитывает
// итог участника, сохраняет его и убирает раннер из реестра
func (s *ParticipationService) finalizeParticipant(quiz *entity.Quiz) func(string, *entity.Participant) {
	return func(sessionID string, participant *entity.Participant) {
		defer s.sessions.Remove(sessionID)

		outcome := ScoreParticipant(quiz, participant)
		participant.Score = outcome.Score
		participant.TotalTimeSec = outcome.TotalTimeSec
		now := nowFunc()
		participant.CompletedAt = &now

		if err := s.participantRepo.Update(participant); err != nil {
			log.Printf("[Participation] Ошибка сохранения итога участника #%d: %v", participant.ID, err)
			return
		}
		log.Printf("[Participation] Участник #%d завершил викторину #%d: счёт %d, время %d сек",
			participant.ID, quiz.ID, outcome.Score, outcome.TotalTimeSec)
	}
}
