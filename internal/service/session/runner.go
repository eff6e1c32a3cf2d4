package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/quizshare-api/internal/domain/entity"
)

// Runner привязывает чистую машину переходов к реальному времени.
// Один раннер обслуживает одну сессию прохождения: тикает раз в
// TickInterval, записывает зафиксированные ответы через репозиторий и
// сообщает о завершении через Dependencies.OnComplete.
// Жизненный цикл раннера не привязан к HTTP-запросу: цикл тиков живёт
// до завершения сессии или явного Stop.
type Runner struct {
	ID          string
	quiz        *entity.Quiz
	participant *entity.Participant

	machine *Machine
	deps    *Dependencies

	createdAt time.Time

	mu     sync.RWMutex
	state  State
	cancel context.CancelFunc

	completed bool
}

// NewRunner создает раннер сессии в фазе waiting
func NewRunner(quiz *entity.Quiz, participant *entity.Participant, deps *Dependencies) *Runner {
	return &Runner{
		ID:          uuid.NewString(),
		quiz:        quiz,
		participant: participant,
		machine:     NewMachine(deps.Config),
		deps:        deps,
		createdAt:   time.Now(),
		state:       NewState(quiz),
	}
}

// Quiz возвращает викторину сессии
func (r *Runner) Quiz() *entity.Quiz {
	return r.quiz
}

// Participant возвращает участника сессии
func (r *Runner) Participant() *entity.Participant {
	return r.participant
}

// CreatedAt возвращает время создания сессии
func (r *Runner) CreatedAt() time.Time {
	return r.createdAt
}

// Snapshot возвращает текущее состояние сессии
func (r *Runner) Snapshot() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Start запускает сессию и фоновый цикл тиков.
// Вызывается только после успешной регистрации участника.
// Цикл тиков живёт в собственном контексте: завершение обслуживающего
// запуск HTTP-запроса его не останавливает.
func (r *Runner) Start() error {
	r.mu.Lock()
	next, err := r.machine.Start(r.quiz, r.state)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	r.state = next
	runCtx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.mu.Unlock()

	go r.loop(runCtx)

	log.Printf("[Session] Сессия %s: участник #%d начал прохождение викторины #%d",
		r.ID, r.participant.ID, r.quiz.ID)
	return nil
}

// Stop останавливает цикл тиков
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// SelectOption фиксирует выбор варианта и записывает ответ в БД.
// Ответ сначала сохраняется и только затем фиксируется в состоянии:
// при ошибке записи состояние не меняется и повторный выбор возможен.
func (r *Runner) SelectOption(optionID uint) (State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, recorded, err := r.machine.SelectOption(r.quiz, r.state, optionID)
	if err != nil {
		return r.state, err
	}
	if recorded == nil {
		// Повторный выбор или выбор во время показа ответа: тихий no-op
		return next, nil
	}

	answer := &entity.Answer{
		ParticipantID: r.participant.ID,
		QuestionID:    recorded.QuestionID,
		OptionID:      recorded.OptionID,
		IsCorrect:     recorded.IsCorrect,
		ElapsedSec:    recorded.ElapsedSec,
	}
	if err := r.deps.ParticipantRepo.CreateAnswer(answer); err != nil {
		log.Printf("[Session] Сессия %s: ошибка записи ответа участника #%d на вопрос #%d: %v",
			r.ID, r.participant.ID, recorded.QuestionID, err)
		return r.state, fmt.Errorf("failed to save answer: %w", err)
	}

	r.state = next
	r.participant.Answers = append(r.participant.Answers, *answer)
	return next, nil
}

// loop тикает машину переходов раз в TickInterval до завершения сессии
func (r *Runner) loop(ctx context.Context) {
	interval := r.deps.Config.TickInterval
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.mu.Lock()
			r.state = r.machine.Tick(r.quiz, r.state, 1)
			done := r.state.IsCompleted() && !r.completed
			if done {
				r.completed = true
			}
			r.mu.Unlock()

			if done {
				log.Printf("[Session] Сессия %s: участник #%d завершил викторину #%d",
					r.ID, r.participant.ID, r.quiz.ID)
				if r.deps.OnComplete != nil {
					r.deps.OnComplete(r.ID, r.participant)
				}
				return
			}
		case <-ctx.Done():
			log.Printf("[Session] Сессия %s: цикл тиков остановлен", r.ID)
			return
		}
	}
}
