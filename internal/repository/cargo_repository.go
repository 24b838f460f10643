package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/checkpoint-revenue/internal/model"
)

// CargoRepo provides CRUD over the cargo_types catalog.
type CargoRepo struct{ DB *sql.DB }

func NewCargoRepo(db *sql.DB) *CargoRepo { return &CargoRepo{DB: db} }

// List returns all cargo types ordered by name.
func (r *CargoRepo) List(ctx context.Context) ([]model.CargoType, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT id, name, price FROM cargo_types ORDER BY name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.CargoType{}
	for rows.Next() {
		var c model.CargoType
		if err := rows.Scan(&c.ID, &c.Name, &c.Price); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetByID fetches a cargo type or ErrNotFound.
func (r *CargoRepo) GetByID(ctx context.Context, id uint64) (model.CargoType, error) {
	var c model.CargoType
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name, price FROM cargo_types WHERE id=? LIMIT 1", id).
		Scan(&c.ID, &c.Name, &c.Price)
	return c, mapErr(err)
}

// GetByName fetches a cargo type by its exact name or ErrNotFound.
func (r *CargoRepo) GetByName(ctx context.Context, name string) (model.CargoType, error) {
	var c model.CargoType
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name, price FROM cargo_types WHERE name=? LIMIT 1", strings.TrimSpace(name)).
		Scan(&c.ID, &c.Name, &c.Price)
	return c, mapErr(err)
}

// Create inserts a cargo type; a name clash yields ErrDuplicate.
func (r *CargoRepo) Create(ctx context.Context, name string, price float64) (model.CargoType, error) {
	name = strings.TrimSpace(name)
	res, err := r.DB.ExecContext(ctx, "INSERT INTO cargo_types (name, price) VALUES (?,?)", name, price)
	if err != nil {
		return model.CargoType{}, mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.CargoType{}, err
	}
	return model.CargoType{ID: uint64(id), Name: name, Price: price}, nil
}

// Update replaces name and price. Missing rows yield ErrNotFound and a name
// clash ErrDuplicate.
func (r *CargoRepo) Update(ctx context.Context, c model.CargoType) error {
	if _, err := r.GetByID(ctx, c.ID); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE cargo_types SET name=?, price=? WHERE id=?", strings.TrimSpace(c.Name), c.Price, c.ID)
	return mapErr(err)
}

// UpdatePrice changes the price only. Tokens already issued keep the price
// they were sold at.
func (r *CargoRepo) UpdatePrice(ctx context.Context, id uint64, price float64) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx, "UPDATE cargo_types SET price=? WHERE id=?", price, id)
	return mapErr(err)
}

// Delete removes a cargo type. Tokens reference cargo types with ON DELETE
// RESTRICT, so a referenced row yields ErrConflict.
func (r *CargoRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM cargo_types WHERE id=?", id)
	if err != nil {
		return mapErr(err)
	}
	return requireAffected(res)
}
