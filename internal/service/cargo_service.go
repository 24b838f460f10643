package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iliyamo/checkpoint-revenue/internal/model"
	"github.com/iliyamo/checkpoint-revenue/internal/repository"
)

// CargoInput creates or replaces a catalog entry.
type CargoInput struct {
	Name  string  `json:"name" validate:"required,max=50"`
	Price float64 `json:"price" validate:"gte=0"`
}

// PriceInput changes only the price of a cargo type.
type PriceInput struct {
	Price float64 `json:"price" validate:"gte=0"`
}

// CargoService manages the cargo catalog. Reads are open to every role;
// writes are admin-only.
type CargoService struct {
	cargo CargoStore
	log   zerolog.Logger
}

func NewCargoService(cargo CargoStore, log zerolog.Logger) *CargoService {
	return &CargoService{cargo: cargo, log: log}
}

func (s *CargoService) List(ctx context.Context) ([]model.CargoType, error) {
	return s.cargo.List(ctx)
}

func (s *CargoService) Create(ctx context.Context, actor model.Actor, in CargoInput) (model.CargoType, error) {
	if !actor.Is(model.RoleAdmin) {
		return model.CargoType{}, ErrForbidden
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.CargoType{}, invalid("name is required")
	}
	if in.Price < 0 {
		return model.CargoType{}, invalid("price must not be negative")
	}
	if err := s.nameFree(ctx, name, 0); err != nil {
		return model.CargoType{}, err
	}
	c, err := s.cargo.Create(ctx, name, in.Price)
	if err != nil {
		return model.CargoType{}, err
	}
	s.log.Info().Uint64("cargo_type_id", c.ID).Str("name", c.Name).Float64("price", c.Price).Msg("cargo type created")
	return c, nil
}

func (s *CargoService) Update(ctx context.Context, actor model.Actor, id uint64, in CargoInput) (model.CargoType, error) {
	if !actor.Is(model.RoleAdmin) {
		return model.CargoType{}, ErrForbidden
	}
	c := model.CargoType{ID: id, Name: strings.TrimSpace(in.Name), Price: in.Price}
	if c.Name == "" {
		return model.CargoType{}, invalid("name is required")
	}
	if c.Price < 0 {
		return model.CargoType{}, invalid("price must not be negative")
	}
	if err := s.nameFree(ctx, c.Name, c.ID); err != nil {
		return model.CargoType{}, err
	}
	if err := s.cargo.Update(ctx, c); err != nil {
		return model.CargoType{}, err
	}
	return c, nil
}

// nameFree rejects a name already used by another cargo type. The unique
// key on cargo_types.name still backs this check under concurrent writes.
func (s *CargoService) nameFree(ctx context.Context, name string, except uint64) error {
	cur, err := s.cargo.GetByName(ctx, name)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return err
	case cur.ID == except:
		return nil
	}
	return fmt.Errorf("cargo type name %w", repository.ErrDuplicate)
}

// UpdatePrice changes the catalog price. Issued tokens keep their snapshot.
func (s *CargoService) UpdatePrice(ctx context.Context, actor model.Actor, id uint64, price float64) (model.CargoType, error) {
	if !actor.Is(model.RoleAdmin) {
		return model.CargoType{}, ErrForbidden
	}
	if price < 0 {
		return model.CargoType{}, invalid("price must not be negative")
	}
	if err := s.cargo.UpdatePrice(ctx, id, price); err != nil {
		return model.CargoType{}, err
	}
	return s.cargo.GetByID(ctx, id)
}

func (s *CargoService) Delete(ctx context.Context, actor model.Actor, id uint64) error {
	if !actor.Is(model.RoleAdmin) {
		return ErrForbidden
	}
	if err := s.cargo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Uint64("cargo_type_id", id).Msg("cargo type deleted")
	return nil
}
