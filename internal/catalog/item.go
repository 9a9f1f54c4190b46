// Package catalog is the reference domain served by catalog-service: a flat
// list of items kept in memory or in PostgreSQL.
package catalog

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"libcommon/pkg/apperrors"
	"libcommon/pkg/filter"
	"libcommon/pkg/pagination"
)

// Item is a catalog entry. Prices are in minor units.
type Item struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category,omitempty"`
	Price     int64     `json:"price"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateRequest is the body of POST /v1/items.
type CreateRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Category string `json:"category" validate:"omitempty,alpha"`
	Price    *int64 `json:"price" validate:"required,gte=0"`
}

// SortFields are the fields a list may be ordered by; the first is the
// default.
var SortFields = []string{"createdAt", "name", "price"}

// ErrNotFound is returned by stores for unknown ids.
var ErrNotFound = errors.New("item not found")

// Error codes reported by the catalog API.
var (
	CodeItemNotFound = apperrors.ErrorCode{
		Code:    "ITEM_NOT_FOUND",
		Status:  http.StatusNotFound,
		Message: "Item {} not found",
	}
	CodeDuplicateName = apperrors.ErrorCode{
		Code:    "ITEM_DUPLICATE_NAME",
		Status:  http.StatusConflict,
		Message: "Item named '{}' already exists",
	}
)

// ErrDuplicateName is returned when an item with the same name exists.
var ErrDuplicateName = errors.New("duplicate item name")

// Store persists items.
type Store interface {
	Create(ctx context.Context, item Item) error
	Get(ctx context.Context, id uuid.UUID) (Item, error)
	List(ctx context.Context, where *filter.Spec[Item], pageable pagination.Pageable) (*pagination.Page[Item], error)
	Ready(ctx context.Context) error
}

// NewItem builds an item from a validated request.
func NewItem(req CreateRequest, now time.Time) Item {
	item := Item{
		ID:        uuid.New(),
		Name:      req.Name,
		Category:  req.Category,
		CreatedAt: now.UTC(),
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	return item
}
