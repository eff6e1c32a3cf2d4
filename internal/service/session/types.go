package session

import (
	"time"

	"github.com/yourusername/quizshare-api/internal/domain/entity"
	"github.com/yourusername/quizshare-api/internal/domain/repository"
)

// Фазы сессии прохождения
const (
	PhaseWaiting   = "waiting"
	PhaseActive    = "active"
	PhaseCompleted = "completed"
)

// Константы значений по умолчанию
const (
	DefaultRevealSeconds = 3
	DefaultTickInterval  = time.Second
)

// Config содержит настройки прохождения викторины
type Config struct {
	// RevealSeconds — длительность показа правильного ответа перед
	// переходом к следующему вопросу
	RevealSeconds int

	// TickInterval — интервал тиков реального времени в раннере
	TickInterval time.Duration
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		RevealSeconds: DefaultRevealSeconds,
		TickInterval:  DefaultTickInterval,
	}
}

// Dependencies содержит зависимости раннера сессий
type Dependencies struct {
	ParticipantRepo repository.ParticipantRepository
	Config          *Config

	// OnComplete вызывается один раз при переходе сессии в completed.
	// Получает идентификатор сессии, чтобы вызывающая сторона могла
	// убрать раннер из реестра.
	OnComplete func(sessionID string, participant *entity.Participant)
}

// RecordedAnswer — зафиксированный выбор варианта, подлежащий записи в БД
type RecordedAnswer struct {
	QuestionID uint
	OptionID   uint
	IsCorrect  bool
	ElapsedSec int
}

// State описывает состояние сессии прохождения. Значение неизменяемое:
// переходы возвращают новое состояние, не трогая исходное.
type State struct {
	Phase         string
	QuestionIndex int
	// TimeRemaining — оставшиеся секунды на текущий вопрос
	TimeRemaining int
	// RevealRemaining — оставшиеся секунды показа правильного ответа;
	// ноль означает, что вопрос ещё принимает ответ
	RevealRemaining int
	// Answered отмечает вопросы, на которые ответ уже записан
	Answered []bool
}

// NewState создаёт начальное состояние в фазе waiting
func NewState(quiz *entity.Quiz) State {
	return State{
		Phase:    PhaseWaiting,
		Answered: make([]bool, len(quiz.Questions)),
	}
}

// InReveal сообщает, идёт ли показ правильного ответа
func (s State) InReveal() bool {
	return s.RevealRemaining > 0
}

// IsCompleted сообщает, завершена ли сессия
func (s State) IsCompleted() bool {
	return s.Phase == PhaseCompleted
}

// cloneAnswered возвращает копию отметок ответов: состояния не разделяют слайс
func (s State) cloneAnswered() []bool {
	answered := make([]bool, len(s.Answered))
	copy(answered, s.Answered)
	return answered
}
