package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/atinyakov/cerevyn/internal/apperr"
	"github.com/atinyakov/cerevyn/internal/models"
)

type memItem struct {
	item models.InventoryItem
	seq  uint64
}

// MemoryStore keeps users and inventory in process memory. It satisfies both
// the user and the inventory repository contracts and is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[string]models.User
	byEmail map[string]string
	items   map[string]memItem
	seq     uint64
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]models.User),
		byEmail: make(map[string]string),
		items:   make(map[string]memItem),
	}
}

// PingContext always succeeds.
func (m *MemoryStore) PingContext(context.Context) error { return nil }

func (m *MemoryStore) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byEmail[u.Email]; ok {
		return apperr.ErrEmailTaken
	}
	m.users[u.ID] = *u
	m.byEmail[u.Email] = u.ID
	return nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[email]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	u := m.users[id]
	return &u, nil
}

func (m *MemoryStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &u, nil
}

func (m *MemoryStore) CreateItem(_ context.Context, item *models.InventoryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	m.items[item.ID] = memItem{item: copyItem(*item), seq: m.seq}
	return nil
}

func (m *MemoryStore) ListItems(_ context.Context, ownerID string) ([]models.InventoryItem, error) {
	m.mu.RLock()
	owned := make([]memItem, 0)
	for _, mi := range m.items {
		if mi.item.OwnerID == ownerID {
			owned = append(owned, mi)
		}
	}
	m.mu.RUnlock()

	sort.Slice(owned, func(i, j int) bool {
		a, b := owned[i], owned[j]
		if !a.item.CreatedAt.Equal(b.item.CreatedAt) {
			return a.item.CreatedAt.After(b.item.CreatedAt)
		}
		return a.seq > b.seq
	})

	items := make([]models.InventoryItem, len(owned))
	for i, mi := range owned {
		items[i] = copyItem(mi.item)
	}
	return items, nil
}

func (m *MemoryStore) SummarizeItems(ctx context.Context, ownerID string) (models.Summary, error) {
	items, err := m.ListItems(ctx, ownerID)
	if err != nil {
		return models.Summary{}, err
	}
	return models.Summarize(items), nil
}

func (m *MemoryStore) UpdateItem(
	_ context.Context,
	ownerID, itemID string,
	patch models.ItemPatch,
	updatedAt time.Time,
) (*models.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mi, ok := m.items[itemID]
	if !ok || mi.item.OwnerID != ownerID {
		return nil, apperr.ErrNotFound
	}
	patch.Apply(&mi.item)
	mi.item.UpdatedAt = updatedAt
	m.items[itemID] = mi

	out := copyItem(mi.item)
	return &out, nil
}

func (m *MemoryStore) DeleteItem(_ context.Context, ownerID, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mi, ok := m.items[itemID]
	if !ok || mi.item.OwnerID != ownerID {
		return apperr.ErrNotFound
	}
	delete(m.items, itemID)
	return nil
}

// copyItem detaches the optional harvest date so callers cannot mutate stored state.
func copyItem(it models.InventoryItem) models.InventoryItem {
	if it.HarvestDate != nil {
		d := *it.HarvestDate
		it.HarvestDate = &d
	}
	return it
}
