package catalog

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"libcommon/pkg/filter"
	"libcommon/pkg/pagination"
)

// MemoryStore keeps items in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[uuid.UUID]Item
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[uuid.UUID]Item)}
}

func (s *MemoryStore) Create(_ context.Context, item Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.items {
		if strings.EqualFold(existing.Name, item.Name) {
			return ErrDuplicateName
		}
	}
	s.items[item.ID] = item
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return Item{}, ErrNotFound
	}
	return item, nil
}

func (s *MemoryStore) List(_ context.Context, where *filter.Spec[Item], pageable pagination.Pageable) (*pagination.Page[Item], error) {
	s.mu.RLock()
	all := make([]Item, 0, len(s.items))
	for _, item := range s.items {
		if where.Match(item) {
			all = append(all, item)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(all, compareItems(pageable.Sort))

	total := int64(len(all))
	start := min(pageable.Offset(), total)
	end := min(start+int64(pageable.Limit()), total)
	return pagination.NewPage(all[start:end], pageable, total), nil
}

func (s *MemoryStore) Ready(context.Context) error {
	return nil
}

// compareItems orders by the sort field, then by id for a stable order.
func compareItems(sort *pagination.Sort) func(a, b Item) int {
	return func(a, b Item) int {
		c := 0
		if sort != nil {
			switch sort.Field {
			case "name":
				c = strings.Compare(a.Name, b.Name)
			case "price":
				c = cmp.Compare(a.Price, b.Price)
			default:
				c = a.CreatedAt.Compare(b.CreatedAt)
			}
			if sort.Direction == pagination.Desc {
				c = -c
			}
		}
		if c == 0 {
			c = strings.Compare(a.ID.String(), b.ID.String())
		}
		return c
	}
}
