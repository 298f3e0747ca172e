package repository

import (
	"context"
	"fmt"
)

// Tree operations for entities organized as an adjacency structure via
// Descriptor.ParentColumn. Traversal keeps a visited set so a malformed
// cycle fails with ErrIntegrity instead of looping.

// FindDescendants returns every live entity below the given one.
func (r *CoreRepository[T]) FindDescendants(ctx context.Context, entity *T) ([]*T, error) {
	if r.desc.ParentColumn == "" {
		return nil, ErrNotHierarchical
	}
	rootID := r.desc.Meta(entity).ID
	return traverseDescendants(ctx, rootID,
		func(e *T) int64 { return r.desc.Meta(e).ID },
		func(ctx context.Context, parentIDs []int64) ([]*T, error) {
			q := r.Select().Where(fmt.Sprintf("%s = ANY(?)", r.desc.ParentColumn), parentIDs)
			return r.Find(ctx, q)
		})
}

// CountDescendants counts the entities below the given one.
func (r *CoreRepository[T]) CountDescendants(ctx context.Context, entity *T) (int, error) {
	descendants, err := r.FindDescendants(ctx, entity)
	if err != nil {
		return 0, err
	}
	return len(descendants), nil
}

// FindAncestors returns the chain of parents above the given entity, nearest
// first.
func (r *CoreRepository[T]) FindAncestors(ctx context.Context, entity *T) ([]*T, error) {
	if r.desc.ParentColumn == "" {
		return nil, ErrNotHierarchical
	}
	if r.desc.Parent == nil {
		return nil, ErrNotHierarchical
	}
	return traverseAncestors(ctx, entity,
		func(e *T) int64 { return r.desc.Meta(e).ID },
		r.desc.Parent,
		func(ctx context.Context, id int64) (*T, error) {
			return r.FindOne(ctx, r.Select().Where("id = ?", id))
		})
}

// CountAncestors counts the parents above the given entity.
func (r *CoreRepository[T]) CountAncestors(ctx context.Context, entity *T) (int, error) {
	ancestors, err := r.FindAncestors(ctx, entity)
	if err != nil {
		return 0, err
	}
	return len(ancestors), nil
}

func traverseDescendants[T any](
	ctx context.Context,
	rootID int64,
	idOf func(*T) int64,
	fetchChildren func(context.Context, []int64) ([]*T, error),
) ([]*T, error) {
	visited := map[int64]bool{rootID: true}
	frontier := []int64{rootID}
	var result []*T

	for len(frontier) > 0 {
		children, err := fetchChildren(ctx, frontier)
		if err != nil {
			return nil, err
		}
		frontier = frontier[:0]
		for _, child := range children {
			id := idOf(child)
			if visited[id] {
				return nil, ErrIntegrity
			}
			visited[id] = true
			result = append(result, child)
			frontier = append(frontier, id)
		}
	}
	return result, nil
}

func traverseAncestors[T any](
	ctx context.Context,
	start *T,
	idOf func(*T) int64,
	parentOf func(*T) *int64,
	fetchByID func(context.Context, int64) (*T, error),
) ([]*T, error) {
	visited := map[int64]bool{idOf(start): true}
	var result []*T

	current := start
	for {
		parentID := parentOf(current)
		if parentID == nil {
			return result, nil
		}
		if visited[*parentID] {
			return nil, ErrIntegrity
		}
		parent, err := fetchByID(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			// dangling or soft-deleted parent ends the chain
			return result, nil
		}
		visited[*parentID] = true
		result = append(result, parent)
		current = parent
	}
}
