package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/solatis/pricingtable/internal/core/db"
	"github.com/solatis/pricingtable/internal/types"
)

type productRow struct {
	ID    types.ID `db:"product_id"`
	Name  string   `db:"name"`
	Price float64  `db:"price"`
}

type categoryRow struct {
	ID   types.ID `db:"category_id"`
	Name string   `db:"name"`
}

type userRow struct {
	ID          types.ID `db:"user_id"`
	DisplayName string   `db:"display_name"`
}

// Product loads a product and its categories.
// Returns types.ErrProductNotFound for unknown ids.
func (s *Store) Product(ctx context.Context, id types.ID) (types.Product, error) {
	var row productRow
	err := s.queries.Get(ctx, "get-product", &row, id)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Product{}, fmt.Errorf("%w: %d", types.ErrProductNotFound, id)
	}
	if err != nil {
		return types.Product{}, dbError(err)
	}

	var cats []types.ID
	if err := s.queries.Select(ctx, "list-product-categories", &cats, id); err != nil {
		return types.Product{}, dbError(err)
	}

	return types.Product{ID: row.ID, Name: row.Name, Price: row.Price, CategoryIDs: cats}, nil
}

// Category loads a category, or nil when it does not exist.
func (s *Store) Category(ctx context.Context, id types.ID) (*types.Category, error) {
	var row categoryRow
	err := s.queries.Get(ctx, "get-category", &row, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError(err)
	}
	return &types.Category{ID: row.ID, Name: row.Name}, nil
}

// User loads a user with roles in priority order and group memberships,
// or nil when the user does not exist.
func (s *Store) User(ctx context.Context, id types.ID) (*types.User, error) {
	var row userRow
	err := s.queries.Get(ctx, "get-user", &row, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError(err)
	}

	user := &types.User{ID: row.ID, DisplayName: row.DisplayName}
	if err := s.queries.Select(ctx, "list-user-roles", &user.Roles, id); err != nil {
		return nil, dbError(err)
	}
	if err := s.queries.Select(ctx, "list-user-groups", &user.Groups, id); err != nil {
		return nil, dbError(err)
	}
	return user, nil
}

// PutProduct creates or replaces a product and its category assignments.
func (s *Store) PutProduct(ctx context.Context, p types.Product) error {
	return s.queries.InTx(ctx, func(q *db.Queries) error {
		if _, err := q.Exec(ctx, "upsert-product", p.ID, p.Name, p.Price); err != nil {
			return dbError(err)
		}
		if _, err := q.Exec(ctx, "delete-product-categories", p.ID); err != nil {
			return dbError(err)
		}
		for _, cat := range p.CategoryIDs {
			if _, err := q.Exec(ctx, "insert-product-category", p.ID, cat); err != nil {
				return dbError(err)
			}
		}
		return nil
	})
}

// PutCategory creates or renames a category.
func (s *Store) PutCategory(ctx context.Context, c types.Category) error {
	if _, err := s.queries.Exec(ctx, "upsert-category", c.ID, c.Name); err != nil {
		return dbError(err)
	}
	return nil
}

// PutUser creates or replaces a user with its roles and groups.
func (s *Store) PutUser(ctx context.Context, u types.User) error {
	return s.queries.InTx(ctx, func(q *db.Queries) error {
		if _, err := q.Exec(ctx, "upsert-user", u.ID, u.DisplayName); err != nil {
			return dbError(err)
		}
		if _, err := q.Exec(ctx, "delete-user-roles", u.ID); err != nil {
			return dbError(err)
		}
		for i, role := range u.Roles {
			if _, err := q.Exec(ctx, "insert-user-role", u.ID, i, role); err != nil {
				return dbError(err)
			}
		}
		if _, err := q.Exec(ctx, "delete-user-groups", u.ID); err != nil {
			return dbError(err)
		}
		for _, g := range u.Groups {
			if _, err := q.Exec(ctx, "insert-user-group", u.ID, g); err != nil {
				return dbError(err)
			}
		}
		return nil
	})
}
