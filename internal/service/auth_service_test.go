package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/checkpoint-revenue/internal/model"
	"github.com/iliyamo/checkpoint-revenue/internal/repository"
	"github.com/iliyamo/checkpoint-revenue/internal/utils"
)

const testSecret = "test-secret"

func newAuth(t *testing.T, users ...model.User) (*AuthService, *stubUsers, *stubSessions, *stubDenylist) {
	t.Helper()
	u := newStubUsers(users...)
	sess := newStubSessions()
	deny := &stubDenylist{}
	svc := NewAuthService(u, sess, deny, AuthSettings{
		Secret:     testSecret,
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, zerolog.Nop())
	return svc, u, sess, deny
}

func hashed(t *testing.T, pw string) string {
	t.Helper()
	h, err := utils.HashPassword(pw, bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func TestLogin(t *testing.T) {
	officerUser := model.User{ID: 3, Role: model.RoleOfficer, Phone: "0977000001", PasswordHash: hashed(t, "secret1")}
	svc, users, _, _ := newAuth(t, officerUser)
	ctx := context.Background()

	sess, err := svc.Login(ctx, LoginInput{Phone: " 0977000001 ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleOfficer, sess.Role)
	assert.Equal(t, "/v1/checkpoint/entries", sess.Landing)
	assert.NotEmpty(t, sess.RefreshToken)
	assert.True(t, users.loggedIn[3])

	actor, _, err := utils.ParseAccessToken(testSecret, sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.Actor{UserID: 3, Role: model.RoleOfficer}, actor)

	_, err = svc.Login(ctx, LoginInput{Phone: "0977000001", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, LoginInput{Phone: "0000", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRotates(t *testing.T) {
	svc, _, _, _ := newAuth(t, model.User{ID: 9, Role: model.RoleCompany, Phone: "1", PasswordHash: hashed(t, "secret1")})
	ctx := context.Background()

	first, err := svc.Login(ctx, LoginInput{Phone: "1", Password: "secret1"})
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, model.RoleCompany, second.Role)

	_, err = svc.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Refresh(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

// gatedSessions holds every Validate caller until all of them have read the
// token, so the revocations that follow really race.
type gatedSessions struct {
	*stubSessions
	arrived *sync.WaitGroup
}

func (g gatedSessions) Validate(ctx context.Context, hash string, now time.Time) (uint64, error) {
	id, err := g.stubSessions.Validate(ctx, hash, now)
	g.arrived.Done()
	g.arrived.Wait()
	return id, err
}

func TestRefreshConcurrentReplayRotatesOnce(t *testing.T) {
	svc, _, sess, _ := newAuth(t, model.User{ID: 9, Role: model.RoleCompany, Phone: "1", PasswordHash: hashed(t, "secret1")})
	ctx := context.Background()
	first, err := svc.Login(ctx, LoginInput{Phone: "1", Password: "secret1"})
	require.NoError(t, err)

	const callers = 2
	arrived := &sync.WaitGroup{}
	arrived.Add(callers)
	svc.sessions = gatedSessions{sess, arrived}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		rotated  int
		rejected int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Refresh(ctx, first.RefreshToken)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				rotated++
			} else if errors.Is(err, ErrInvalidCredentials) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, rotated)
	assert.Equal(t, 1, rejected)
}

func TestLogoutRevokesEverything(t *testing.T) {
	svc, users, _, deny := newAuth(t, model.User{ID: 9, Role: model.RoleCompany, Phone: "1", PasswordHash: hashed(t, "secret1")})
	ctx := context.Background()

	sess, err := svc.Login(ctx, LoginInput{Phone: "1", Password: "secret1"})
	require.NoError(t, err)
	_, claims, err := utils.ParseAccessToken(testSecret, sess.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, company, claims.ID, claims.ExpiresAt.Time))
	revoked, _ := deny.IsRevoked(ctx, claims.ID)
	assert.True(t, revoked)
	assert.False(t, users.loggedIn[9])

	_, err = svc.Refresh(ctx, sess.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterCompany(t *testing.T) {
	existing := model.User{ID: 5, Role: model.RoleCompany, Phone: "0977", Email: "a@x.com",
		Company: &model.CompanyProfile{CompanyName: "Acme"}}
	svc, _, _, _ := newAuth(t, existing)
	ctx := context.Background()

	in := RegisterInput{Phone: "0966", Email: " New@X.com ", Password: "secret1", ConfirmPassword: "secret1",
		CompanyName: "Zed Haulage", FullName: "Jo Banda", NRC: "123/45/1"}
	u, err := svc.RegisterCompany(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, model.RoleCompany, u.Role)
	assert.Equal(t, "new@x.com", u.Email)
	require.NotNil(t, u.Company)
	assert.Equal(t, u.ID, u.Company.UserID)
	assert.True(t, utils.VerifyPassword(u.PasswordHash, "secret1"))

	mismatch := in
	mismatch.ConfirmPassword = "other"
	_, err = svc.RegisterCompany(ctx, mismatch)
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)

	dup := in
	dup.Phone, dup.Email, dup.CompanyName = "0111", "b@x.com", "Acme"
	_, err = svc.RegisterCompany(ctx, dup)
	assert.ErrorIs(t, err, repository.ErrDuplicate)
	assert.EqualError(t, err, "company name already exists")
}

func TestCreateUser(t *testing.T) {
	svc, _, _, _ := newAuth(t)
	ctx := context.Background()

	in := CreateUserInput{Role: "officer", Phone: "0955", Email: "o@x.com", Password: "secret1", FullName: "Mwila", Checkpoint: "Kazungula"}
	_, err := svc.CreateUser(ctx, company, in)
	assert.ErrorIs(t, err, ErrForbidden)

	u, err := svc.CreateUser(ctx, admin, in)
	require.NoError(t, err)
	require.NotNil(t, u.Officer)
	assert.Equal(t, "Kazungula", *u.Officer.Checkpoint)

	noName := in
	noName.Phone, noName.Email, noName.FullName = "0944", "p@x.com", ""
	_, err = svc.CreateUser(ctx, admin, noName)
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)

	_, err = svc.CreateUser(ctx, admin, CreateUserInput{Role: "company", Phone: "0933", Email: "c@x.com", Password: "secret1"})
	assert.ErrorAs(t, err, &ve)
}

func TestChangePassword(t *testing.T) {
	svc, users, _, _ := newAuth(t, model.User{ID: 9, Role: model.RoleCompany, Phone: "1", PasswordHash: hashed(t, "secret1")})
	ctx := context.Background()
	var ve *ValidationError

	err := svc.ChangePassword(ctx, company, PasswordInput{Current: "nope", New: "secret2", Confirm: "secret2"})
	assert.ErrorAs(t, err, &ve)
	err = svc.ChangePassword(ctx, company, PasswordInput{Current: "secret1", New: "secret2", Confirm: "secret3"})
	assert.ErrorAs(t, err, &ve)
	err = svc.ChangePassword(ctx, company, PasswordInput{Current: "secret1", New: "abc", Confirm: "abc"})
	assert.ErrorAs(t, err, &ve)

	require.NoError(t, svc.ChangePassword(ctx, company, PasswordInput{Current: "secret1", New: "secret2", Confirm: "secret2"}))
	assert.True(t, utils.VerifyPassword(users.users[9].PasswordHash, "secret2"))
}

func TestEnsureAdmin(t *testing.T) {
	svc, users, _, _ := newAuth(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "", "", "pw"))
	assert.Empty(t, users.users)

	require.NoError(t, svc.EnsureAdmin(ctx, "0900", "", "admin123"))
	require.NoError(t, svc.EnsureAdmin(ctx, "0900", "", "admin123"))
	require.Len(t, users.users, 1)
	for _, u := range users.users {
		assert.Equal(t, model.RoleAdmin, u.Role)
		assert.Equal(t, "admin@0900.local", u.Email)
	}
}
