package session

import (
	"fmt"
	"log"
	"sync"
	"time"

	apperrors "github.com/yourusername/quizshare-api/internal/pkg/errors"
)

// Manager хранит активные раннеры сессий по их идентификаторам
type Manager struct {
	mu      sync.RWMutex
	runners map[string]*Runner
}

// NewManager создает пустой реестр сессий
func NewManager() *Manager {
	return &Manager{
		runners: make(map[string]*Runner),
	}
}

// Add регистрирует раннер и возвращает его идентификатор
func (m *Manager) Add(r *Runner) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runners[r.ID] = r
	return r.ID
}

// Get возвращает раннер по идентификатору сессии
func (m *Manager) Get(sessionID string) (*Runner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.runners[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: session %s", apperrors.ErrNotFound, sessionID)
	}
	return r, nil
}

// Remove останавливает раннер и удаляет его из реестра
func (m *Manager) Remove(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.runners[sessionID]; ok {
		r.Stop()
		delete(m.runners, sessionID)
	}
}

// EvictIdle удаляет брошенные сессии: раннеры, оставшиеся в фазе waiting
// дольше maxAge. Запущенные сессии не трогаем — они доигрывают себя сами
// по таймаутам вопросов и удаляются через OnComplete.
// Возвращает число удалённых сессий.
func (m *Manager) EvictIdle(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	evicted := 0
	for id, r := range m.runners {
		if r.Snapshot().Phase != PhaseWaiting {
			continue
		}
		if time.Since(r.CreatedAt()) < maxAge {
			continue
		}
		r.Stop()
		delete(m.runners, id)
		evicted++
	}
	if evicted > 0 {
		log.Printf("[Session] Удалено брошенных сессий: %d", evicted)
	}
	return evicted
}

// StopAll останавливает все раннеры (graceful shutdown)
func (m *Manager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.runners {
		r.Stop()
		delete(m.runners, id)
	}
}
