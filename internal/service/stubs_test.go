package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/checkpoint-revenue/internal/model"
	"github.com/iliyamo/checkpoint-revenue/internal/queue"
	"github.com/iliyamo/checkpoint-revenue/internal/repository"
)

// ── tokens ────────────────────────────────────────────────────────────────────

type stubTokens struct {
	mu     sync.Mutex
	byCode map[string]model.Token
	logs   []model.VehicleLog
	nextID uint64
}

func newStubTokens(tokens ...model.Token) *stubTokens {
	s := &stubTokens{byCode: map[string]model.Token{}}
	for _, t := range tokens {
		s.nextID++
		t.ID = s.nextID
		s.byCode[t.Serial] = t
	}
	return s
}

func (s *stubTokens) Create(_ context.Context, t *model.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byCode[t.Serial]; ok {
		return repository.ErrDuplicate
	}
	s.nextID++
	t.ID = s.nextID
	s.byCode[t.Serial] = *t
	return nil
}

func (s *stubTokens) GetBySerial(_ context.Context, serial string) (model.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byCode[serial]
	if !ok {
		return model.Token{}, repository.ErrNotFound
	}
	return t, nil
}

func (s *stubTokens) ExpireIfActive(_ context.Context, serial string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byCode[serial]
	if !ok || t.Status != model.TokenActive {
		return false, nil
	}
	t.Status = model.TokenExpired
	s.byCode[serial] = t
	return true, nil
}

func (s *stubTokens) Redeem(_ context.Context, serial string, now time.Time, entry *model.VehicleLog) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byCode[serial]
	if !ok || t.Status != model.TokenActive || !t.ExpirationDate.After(now) {
		return false, nil
	}
	t.Status = model.TokenUsed
	t.UsedAt = &now
	s.byCode[serial] = t
	if entry != nil {
		s.logs = append(s.logs, *entry)
	}
	return true, nil
}

func (s *stubTokens) ListByCompany(_ context.Context, companyID uint64, limit int) ([]model.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Token{}
	for _, t := range s.byCode {
		if t.CompanyID != nil && *t.CompanyID == companyID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *stubTokens) CompanySummary(ctx context.Context, companyID uint64) (int64, float64, error) {
	all, _ := s.ListByCompany(ctx, companyID, 0)
	var spent float64
	for _, t := range all {
		spent += t.Price
	}
	return int64(len(all)), spent, nil
}

func (s *stubTokens) status(serial string) model.TokenStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byCode[serial].Status
}

// ── cargo ─────────────────────────────────────────────────────────────────────

type stubCargo struct {
	items  map[uint64]model.CargoType
	writes int
}

func newStubCargo(items ...model.CargoType) *stubCargo {
	s := &stubCargo{items: map[uint64]model.CargoType{}}
	for _, c := range items {
		s.items[c.ID] = c
	}
	return s
}

func (s *stubCargo) List(context.Context) ([]model.CargoType, error) {
	out := []model.CargoType{}
	for _, c := range s.items {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *stubCargo) GetByID(_ context.Context, id uint64) (model.CargoType, error) {
	c, ok := s.items[id]
	if !ok {
		return model.CargoType{}, repository.ErrNotFound
	}
	return c, nil
}

func (s *stubCargo) GetByName(_ context.Context, name string) (model.CargoType, error) {
	for _, c := range s.items {
		if c.Name == name {
			return c, nil
		}
	}
	return model.CargoType{}, repository.ErrNotFound
}

func (s *stubCargo) nameTaken(name string, except uint64) bool {
	for _, c := range s.items {
		if c.Name == name && c.ID != except {
			return true
		}
	}
	return false
}

func (s *stubCargo) Create(_ context.Context, name string, price float64) (model.CargoType, error) {
	s.writes++
	if s.nameTaken(name, 0) {
		return model.CargoType{}, repository.ErrDuplicate
	}
	c := model.CargoType{ID: uint64(len(s.items) + 1), Name: name, Price: price}
	s.items[c.ID] = c
	return c, nil
}

func (s *stubCargo) Update(_ context.Context, c model.CargoType) error {
	s.writes++
	if _, ok := s.items[c.ID]; !ok {
		return repository.ErrNotFound
	}
	if s.nameTaken(c.Name, c.ID) {
		return repository.ErrDuplicate
	}
	s.items[c.ID] = c
	return nil
}

func (s *stubCargo) UpdatePrice(_ context.Context, id uint64, price float64) error {
	c, ok := s.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.Price = price
	s.items[id] = c
	return nil
}

func (s *stubCargo) Delete(_ context.Context, id uint64) error {
	if _, ok := s.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

// ── shifts ────────────────────────────────────────────────────────────────────

type stubShifts struct {
	shifts []model.OfficerShift
}

func (s *stubShifts) Open(_ context.Context, officerID uint64) (model.OfficerShift, error) {
	for _, sh := range s.shifts {
		if sh.OfficerID == officerID && sh.Open() {
			return sh, nil
		}
	}
	return model.OfficerShift{}, repository.ErrNotFound
}

func (s *stubShifts) Start(_ context.Context, officerID uint64, checkpoint string, at time.Time) (model.OfficerShift, error) {
	sh := model.OfficerShift{ID: uint64(len(s.shifts) + 1), OfficerID: officerID, StartTime: at, Checkpoint: checkpoint}
	s.shifts = append(s.shifts, sh)
	return sh, nil
}

func (s *stubShifts) End(_ context.Context, shiftID uint64, at time.Time) error {
	for i := range s.shifts {
		if s.shifts[i].ID == shiftID && s.shifts[i].Open() {
			s.shifts[i].EndTime = &at
			return nil
		}
	}
	return repository.ErrNotFound
}

// ── users & sessions ──────────────────────────────────────────────────────────

type stubUsers struct {
	users    map[uint64]model.User
	loggedIn map[uint64]bool
	active   []model.User
}

func newStubUsers(users ...model.User) *stubUsers {
	s := &stubUsers{users: map[uint64]model.User{}, loggedIn: map[uint64]bool{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *stubUsers) CreateWithProfile(_ context.Context, u model.User) (uint64, error) {
	u.ID = uint64(len(s.users) + 100)
	s.users[u.ID] = u
	return u.ID, nil
}

func (s *stubUsers) GetByPhone(_ context.Context, phone string) (model.User, error) {
	for _, u := range s.users {
		if u.Phone == phone {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *stubUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (s *stubUsers) GetCompany(ctx context.Context, id uint64) (model.User, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil || u.Role != model.RoleCompany {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (s *stubUsers) FirstTaken(_ context.Context, p repository.UniqueProbe) (string, error) {
	for _, u := range s.users {
		switch {
		case p.Phone != "" && u.Phone == p.Phone:
			return "phone", nil
		case p.Email != "" && u.Email == p.Email:
			return "email", nil
		case p.CompanyName != "" && u.Company != nil && u.Company.CompanyName == p.CompanyName:
			return "company_name", nil
		}
	}
	return "", nil
}

func (s *stubUsers) MarkLoggedIn(_ context.Context, id uint64, at time.Time) error {
	u := s.users[id]
	u.LastLogin = &at
	u.IsLoggedIn = true
	s.users[id] = u
	s.loggedIn[id] = true
	return nil
}

func (s *stubUsers) MarkLoggedOut(_ context.Context, id uint64) error {
	s.loggedIn[id] = false
	return nil
}

func (s *stubUsers) UpdatePassword(_ context.Context, id uint64, hash string) error {
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	s.users[id] = u
	return nil
}

func (s *stubUsers) ListCompanies(context.Context) ([]model.CompanyRef, error) {
	out := []model.CompanyRef{}
	for _, u := range s.users {
		if u.Company != nil {
			out = append(out, model.CompanyRef{ID: u.ID, Name: u.Company.CompanyName})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *stubUsers) ListOfficers(context.Context) ([]model.User, error) {
	out := []model.User{}
	for _, u := range s.users {
		if u.Role == model.RoleOfficer {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubUsers) ActiveOfficers(context.Context, time.Time) ([]model.User, error) {
	return s.active, nil
}

type stubSessions struct {
	mu      sync.Mutex
	hashes  map[string]uint64
	revoked map[string]bool
}

func newStubSessions() *stubSessions {
	return &stubSessions{hashes: map[string]uint64{}, revoked: map[string]bool{}}
}

func (s *stubSessions) Store(_ context.Context, userID uint64, hash string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashes[hash] = userID
	return nil
}

func (s *stubSessions) Validate(_ context.Context, hash string, _ time.Time) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.hashes[hash]
	if !ok || s.revoked[hash] {
		return 0, repository.ErrNotFound
	}
	return id, nil
}

func (s *stubSessions) RevokeByHash(_ context.Context, hash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hashes[hash]; !ok || s.revoked[hash] {
		return false, nil
	}
	s.revoked[hash] = true
	return true, nil
}

func (s *stubSessions) RevokeAllForUser(_ context.Context, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for h, id := range s.hashes {
		if id == userID {
			s.revoked[h] = true
		}
	}
	return nil
}

type stubDenylist struct {
	revoked map[string]time.Time
}

func (d *stubDenylist) Revoke(_ context.Context, jti string, until time.Time) error {
	if d.revoked == nil {
		d.revoked = map[string]time.Time{}
	}
	d.revoked[jti] = until
	return nil
}

func (d *stubDenylist) IsRevoked(_ context.Context, jti string) (bool, error) {
	_, ok := d.revoked[jti]
	return ok, nil
}

// ── logs, publisher, archive ──────────────────────────────────────────────────

type stubLogs struct {
	logs        []model.VehicleLog
	daily       []repository.OfficerDay
	lastFilter  repository.LogFilter
	checkpoints []string
	years       []int
}

func (s *stubLogs) Create(_ context.Context, l *model.VehicleLog) (uint64, error) {
	l.ID = uint64(len(s.logs) + 1)
	s.logs = append(s.logs, *l)
	return l.ID, nil
}

func (s *stubLogs) List(_ context.Context, f repository.LogFilter) ([]model.VehicleLog, error) {
	s.lastFilter = f
	return s.logs, nil
}

func (s *stubLogs) Checkpoints(context.Context) ([]string, error) { return s.checkpoints, nil }
func (s *stubLogs) Years(context.Context) ([]int, error)          { return s.years, nil }

func (s *stubLogs) OfficerDaily(_ context.Context, f repository.LogFilter) ([]repository.OfficerDay, error) {
	s.lastFilter = f
	return s.daily, nil
}

type stubPublisher struct {
	jobs []queue.ReportEmailJob
	err  error
}

func (p *stubPublisher) PublishReportEmail(_ context.Context, job queue.ReportEmailJob) error {
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, job)
	return nil
}

type stubArchive struct {
	names []string
}

func (a *stubArchive) Put(_ context.Context, name, _ string, _ []byte) (string, error) {
	a.names = append(a.names, name)
	return "reports/" + name, nil
}

func ptr[T any](v T) *T { return &v }
