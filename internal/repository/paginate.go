package repository

import (
	"context"

	"github.com/spec-kit/users-service/internal/domain"
)

// Paginate executes exactly one count and one bounded fetch for the given
// query and returns the page with its metadata. Non-positive page and limit
// fall back to the defaults; no upper bound is enforced at this layer.
// Store failures propagate unchanged.
func (r *CoreRepository[T]) Paginate(ctx context.Context, q *SelectQuery, page, limit int) (*domain.Page[*T], error) {
	if page < 1 {
		page = domain.DefaultPage
	}
	if limit < 1 {
		limit = domain.DefaultLimit
	}

	total, err := r.Count(ctx, q)
	if err != nil {
		return nil, err
	}

	offset := (page - 1) * limit
	items, err := r.fetch(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}

	return domain.NewPage(items, total, page, limit), nil
}
