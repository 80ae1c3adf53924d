package order

import (
	"context"
	"sync"

	"github.com/magabrotheeeer/byteport-bot/internal/models"
)

// MemoryStore хранит черновики в памяти процесса; после перезапуска они теряются.
type MemoryStore struct {
	mu     sync.Mutex
	orders map[string]models.PendingOrder
}

// NewMemoryStore создает пустое хранилище черновиков.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{orders: make(map[string]models.PendingOrder)}
}

func (m *MemoryStore) Get(_ context.Context, userID string) (models.PendingOrder, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[userID]
	return o, ok, nil
}

func (m *MemoryStore) Put(_ context.Context, userID string, o models.PendingOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[userID] = o
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.orders, userID)
	return nil
}
