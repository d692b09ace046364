package routes

import "sync"

type Route struct {
	Category  Category
	ChannelID string
}

// Store holds every tenant's category -> channel table for the life of the
// process. All methods are safe for concurrent use; each key is replaced or
// deleted as a whole, so readers never see a partial write.
type Store struct {
	mu      sync.RWMutex
	tenants map[string]map[Category]string
}

func NewStore() *Store {
	return &Store{tenants: make(map[string]map[Category]string)}
}

func (s *Store) SetRoute(tenantID string, category Category, channelID string) error {
	if !category.Valid() {
		return ErrInvalidCategory
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	table, ok := s.tenants[tenantID]
	if !ok {
		table = make(map[Category]string, len(categories))
		s.tenants[tenantID] = table
	}
	table[category] = channelID
	return nil
}

// RemoveRoute reports whether there was a route to remove.
func (s *Store) RemoveRoute(tenantID string, category Category) (bool, error) {
	if !category.Valid() {
		return false, ErrInvalidCategory
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	table, ok := s.tenants[tenantID]
	if !ok {
		return false, nil
	}
	if _, ok := table[category]; !ok {
		return false, nil
	}
	delete(table, category)
	return true, nil
}

func (s *Store) GetRoute(tenantID string, category Category) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	channelID, ok := s.tenants[tenantID][category]
	return channelID, ok
}

// ListRoutes returns the configured routes of a tenant in category order.
func (s *Store) ListRoutes(tenantID string) []Route {
	s.mu.RLock()
	defer s.mu.RUnlock()
	table := s.tenants[tenantID]
	out := make([]Route, 0, len(table))
	for _, c := range categories {
		if channelID, ok := table[c]; ok {
			out = append(out, Route{Category: c, ChannelID: channelID})
		}
	}
	return out
}
