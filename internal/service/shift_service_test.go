package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/checkpoint-revenue/internal/model"
	"github.com/iliyamo/checkpoint-revenue/internal/repository"
)

func TestShiftLifecycle(t *testing.T) {
	users := newStubUsers(model.User{ID: 3, Role: model.RoleOfficer,
		Officer: &model.OfficerProfile{FullName: "Mwila", Checkpoint: ptr("Chirundu")}})
	shifts := &stubShifts{}
	svc := NewShiftService(shifts, users, zerolog.Nop())
	c := &clock{dayD}
	svc.now = c.now
	ctx := context.Background()

	_, err := svc.Current(ctx, officer)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	sh, err := svc.Start(ctx, officer, "")
	require.NoError(t, err)
	assert.Equal(t, "Chirundu", sh.Checkpoint)

	_, err = svc.Start(ctx, officer, "Kazungula")
	assert.ErrorIs(t, err, ErrShiftOpen)
	assert.ErrorIs(t, err, repository.ErrConflict)

	cur, err := svc.Current(ctx, officer)
	require.NoError(t, err)
	assert.Equal(t, sh.ID, cur.ID)

	c.t = dayD.Add(8 * time.Hour)
	ended, err := svc.End(ctx, officer)
	require.NoError(t, err)
	require.NotNil(t, ended.EndTime)
	assert.Equal(t, c.t, *ended.EndTime)

	_, err = svc.End(ctx, officer)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	next, err := svc.Start(ctx, officer, "Kazungula")
	require.NoError(t, err)
	assert.Equal(t, "Kazungula", next.Checkpoint)
}

func TestShiftStartWithoutCheckpoint(t *testing.T) {
	users := newStubUsers(model.User{ID: 3, Role: model.RoleOfficer, Officer: &model.OfficerProfile{FullName: "Mwila"}})
	svc := NewShiftService(&stubShifts{}, users, zerolog.Nop())

	_, err := svc.Start(context.Background(), officer, " ")
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)

	_, err = svc.Start(context.Background(), admin, "K")
	assert.ErrorIs(t, err, ErrForbidden)
}
