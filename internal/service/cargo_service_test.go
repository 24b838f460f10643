package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/checkpoint-revenue/internal/model"
	"github.com/iliyamo/checkpoint-revenue/internal/repository"
)

func TestCargoService(t *testing.T) {
	store := newStubCargo()
	svc := NewCargoService(store, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Create(ctx, officer, CargoInput{Name: "Perishables", Price: 50})
	assert.ErrorIs(t, err, ErrForbidden)

	c, err := svc.Create(ctx, admin, CargoInput{Name: "  Perishables ", Price: 50})
	require.NoError(t, err)
	assert.Equal(t, "Perishables", c.Name)

	_, err = svc.Create(ctx, admin, CargoInput{Name: "Perishables", Price: 70})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	var ve *ValidationError
	_, err = svc.Create(ctx, admin, CargoInput{Name: "Fuel", Price: -1})
	assert.ErrorAs(t, err, &ve)

	updated, err := svc.UpdatePrice(ctx, admin, c.ID, 65)
	require.NoError(t, err)
	assert.Equal(t, 65.0, updated.Price)

	_, err = svc.UpdatePrice(ctx, admin, 999, 65)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	renamed, err := svc.Update(ctx, admin, c.ID, CargoInput{Name: "Fresh Produce", Price: 60})
	require.NoError(t, err)
	assert.Equal(t, model.CargoType{ID: c.ID, Name: "Fresh Produce", Price: 60}, renamed)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, admin, c.ID))
	assert.ErrorIs(t, svc.Delete(ctx, admin, c.ID), repository.ErrNotFound)
}

func TestCargoNameCheckedBeforeWrite(t *testing.T) {
	store := newStubCargo(
		model.CargoType{ID: 1, Name: "Fuel", Price: 40},
		model.CargoType{ID: 2, Name: "Copper", Price: 150},
	)
	svc := NewCargoService(store, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Create(ctx, admin, CargoInput{Name: " Fuel ", Price: 45})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
	_, err = svc.Update(ctx, admin, 2, CargoInput{Name: "Fuel", Price: 150})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
	assert.Zero(t, store.writes)

	// Keeping its own name is not a clash.
	_, err = svc.Update(ctx, admin, 1, CargoInput{Name: "Fuel", Price: 42})
	require.NoError(t, err)
	assert.Equal(t, 1, store.writes)
}

// Changing the catalog price must not touch tokens already sold.
func TestPriceChangeKeepsTokenSnapshot(t *testing.T) {
	store := newStubCargo(model.CargoType{ID: 1, Name: "Perishables", Price: 50})
	tokens := newStubTokens()
	tokenSvc := NewTokenService(tokens, store, &stubShifts{}, zerolog.Nop())
	cargoSvc := NewCargoService(store, zerolog.Nop())
	ctx := context.Background()

	tok, err := tokenSvc.Issue(ctx, company, IssueInput{Plate: "ABC", CargoTypeID: 1})
	require.NoError(t, err)
	_, err = cargoSvc.UpdatePrice(ctx, admin, 1, 80)
	require.NoError(t, err)

	stored, err := tokens.GetBySerial(ctx, tok.Serial)
	require.NoError(t, err)
	assert.Equal(t, 50.0, stored.Price)
}
