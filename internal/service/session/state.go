package session

import (
	"fmt"

	"github.com/yourusername/quizshare-api/internal/domain/entity"
	apperrors "github.com/yourusername/quizshare-api/internal/pkg/errors"
)

// Machine реализует переходы состояния сессии. Все методы чистые:
// принимают состояние значением и возвращают новое, побочных эффектов нет.
type Machine struct {
	config *Config
}

// NewMachine создает машину переходов с заданной конфигурацией
func NewMachine(config *Config) *Machine {
	if config == nil {
		config = DefaultConfig()
	}
	return &Machine{config: config}
}

// Start переводит сессию из waiting в active на первом вопросе.
// Запуск из любой другой фазы — ошибка: обратных переходов нет.
func (m *Machine) Start(quiz *entity.Quiz, s State) (State, error) {
	if s.Phase != PhaseWaiting {
		return s, fmt.Errorf("%w: session already started", apperrors.ErrConflict)
	}
	if len(quiz.Questions) == 0 {
		return s, fmt.Errorf("%w: quiz has no questions", apperrors.ErrValidation)
	}

	next := s
	next.Phase = PhaseActive
	next.QuestionIndex = 0
	next.TimeRemaining = quiz.Questions[0].TimeLimitSec
	next.RevealRemaining = 0
	return next, nil
}

// Tick продвигает сессию на elapsed секунд.
// В активной фазе убывает либо счётчик вопроса, либо счётчик показа ответа.
// Исчерпание счётчика вопроса начинает показ ответа (ответ при этом не
// записывается — таймаут остаётся без записи); исчерпание счётчика показа
// переводит к следующему вопросу или завершает сессию.
// Вне активной фазы Tick ничего не меняет.
func (m *Machine) Tick(quiz *entity.Quiz, s State, elapsed int) State {
	if s.Phase != PhaseActive || elapsed <= 0 {
		return s
	}

	next := s
	for elapsed > 0 && next.Phase == PhaseActive {
		if next.RevealRemaining > 0 {
			step := min(elapsed, next.RevealRemaining)
			next.RevealRemaining -= step
			elapsed -= step
			if next.RevealRemaining == 0 {
				next = m.advance(quiz, next)
			}
			continue
		}

		step := min(elapsed, next.TimeRemaining)
		next.TimeRemaining -= step
		elapsed -= step
		if next.TimeRemaining == 0 {
			next.RevealRemaining = m.config.RevealSeconds
		}
	}
	return next
}

// SelectOption фиксирует выбор варианта на текущем вопросе.
// Возвращает новое состояние и ответ для записи в БД.
// Повторный выбор на уже отвеченном вопросе и выбор во время показа
// правильного ответа — тихие no-op (состояние возвращается без изменений,
// ответ nil). Выбор вне активной фазы или несуществующего варианта — ошибка.
func (m *Machine) SelectOption(quiz *entity.Quiz, s State, optionID uint) (State, *RecordedAnswer, error) {
	if s.Phase != PhaseActive {
		return s, nil, fmt.Errorf("%w: session is not active", apperrors.ErrConflict)
	}
	if s.InReveal() || s.Answered[s.QuestionIndex] {
		return s, nil, nil
	}

	question := &quiz.Questions[s.QuestionIndex]
	option := question.OptionByID(optionID)
	if option == nil {
		return s, nil, fmt.Errorf("%w: option #%d does not belong to the current question",
			apperrors.ErrValidation, optionID)
	}

	answer := &RecordedAnswer{
		QuestionID: question.ID,
		OptionID:   optionID,
		IsCorrect:  option.IsCorrect,
		ElapsedSec: question.TimeLimitSec - s.TimeRemaining,
	}

	next := s
	next.Answered = s.cloneAnswered()
	next.Answered[s.QuestionIndex] = true
	next.RevealRemaining = m.config.RevealSeconds
	return next, answer, nil
}

// advance переходит к следующему вопросу или завершает сессию
func (m *Machine) advance(quiz *entity.Quiz, s State) State {
	next := s
	next.QuestionIndex++
	if next.QuestionIndex >= len(quiz.Questions) {
		next.Phase = PhaseCompleted
		next.QuestionIndex = len(quiz.Questions) - 1
		next.TimeRemaining = 0
		next.RevealRemaining = 0
		return next
	}
	next.TimeRemaining = quiz.Questions[next.QuestionIndex].TimeLimitSec
	next.RevealRemaining = 0
	return next
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
