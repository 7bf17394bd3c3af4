package repository

import (
	"context"

	"github.com/atinyakov/cerevyn/internal/apperr"
)

// DeleteUser removes a user together with every item they own.
func (m *MemoryStore) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return apperr.ErrNotFound
	}
	delete(m.users, id)
	delete(m.byEmail, u.Email)
	for itemID, mi := range m.items {
		if mi.item.OwnerID == id {
			delete(m.items, itemID)
		}
	}
	return nil
}
