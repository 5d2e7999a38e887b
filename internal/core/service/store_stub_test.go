package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wafflestudio/seminar-system/internal/core/domain"
	"github.com/wafflestudio/seminar-system/internal/core/ports"
)

// memStore is an in-memory ports.Store that counts calls per operation.
type memStore struct {
	mu sync.Mutex

	users       map[int64]*domain.User
	seminars    map[int64]*domain.Seminar
	memberships []*domain.Membership
	activity    []domain.ActivityEvent
	nextID      int64

	calls map[string]int

	// membershipCreateErr, when set, is returned by the next membership Create.
	membershipCreateErr error
	// afterDetail, when set, runs once after the next FindDetail has read the
	// store, outside the lock.
	afterDetail func()
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[int64]*domain.User),
		seminars: make(map[int64]*domain.Seminar),
		calls:    make(map[string]int),
	}
}

func (s *memStore) count(op string) {
	s.calls[op]++
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) Users() ports.UserRepository             { return memUsers{s} }
func (s *memStore) Seminars() ports.SeminarRepository       { return memSeminars{s} }
func (s *memStore) Memberships() ports.MembershipRepository { return memMemberships{s} }
func (s *memStore) Activity() ports.ActivityRepository      { return memActivity{s} }

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.count("tx")
	return fn(ctx)
}

func (s *memStore) Ping(context.Context) error  { return nil }
func (s *memStore) Close(context.Context) error { return nil }

// ── users ────────────────────────────────────────────────────────────────────

type memUsers struct{ s *memStore }

func cloneUser(u *domain.User) *domain.User {
	c := *u
	if u.Participant != nil {
		p := *u.Participant
		c.Participant = &p
	}
	if u.Instructor != nil {
		i := *u.Instructor
		c.Instructor = &i
	}
	return &c
}

func (r memUsers) Create(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.count("users.create")
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return domain.ErrEmailExists
		}
	}
	u.ID = r.s.id()
	r.s.users[u.ID] = cloneUser(u)
	return nil
}

func (r memUsers) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.count("users.find")
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.count("users.find_email")
	for _, u := range r.s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r memUsers) List(context.Context) ([]*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.count("users.list")
	out := make([]*domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memUsers) Update(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.count("users.update")
	if _, ok := r.s.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.s.users[u.ID] = cloneUser(u)
	return nil
}

func (r memUsers) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.count("users.delete")
	if _, ok := r.s.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.s.users, id)
	kept := r.s.memberships[:0]
	for _, m := range r.s.memberships {
		if m.UserID != id {
			kept = append(kept, m)
		}
	}
	r.s.memberships = kept
	return nil
}

// ── seminars ─────────────────────────────────────────────────────────────────

type memSeminars struct{ s *memStore }

func (r memSeminars) Create(_ context.Context, sem *domain.Seminar) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.count("seminars.create")
	sem.ID = r.s.id()
	c := *sem
	r.s.seminars[sem.ID] = &c
	return nil
}

func (r memSeminars) Update(_ context.Context, sem *domain.Seminar) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.count("seminars.update")
	c := *sem
	r.s.seminars[sem.ID] = &c
	return nil
}

func (r memSeminars) Lock(_ context.Context, id int64) (*domain.Seminar, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.count("seminars.lock")
	sem, ok := r.s.seminars[id]
	if !ok {
		return nil, domain.ErrSeminarNotFound
	}
	c := *sem
	return &c, nil
}

func (r memSeminars) FindByID(_ context.Context, id int64) (*domain.Seminar, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.count("seminars.find")
	sem, ok := r.s.seminars[id]
	if !ok {
		return nil, domain.ErrSeminarNotFound
	}
	c := *sem
	return &c, nil
}

func (r memSeminars) FindDetail(_ context.Context, id int64) (*domain.SeminarDetail, error) {
	r.s.mu.Lock()
	r.s.count("seminars.detail")
	sem, ok := r.s.seminars[id]
	if !ok {
		r.s.mu.Unlock()
		return nil, domain.ErrSeminarNotFound
	}
	d := r.s.detail(sem)
	hook := r.s.afterDetail
	r.s.afterDetail = nil
	r.s.mu.Unlock()

	if hook != nil {
		hook()
	}
	return d, nil
}

func (r memSeminars) List(_ context.Context, f ports.SeminarFilter) ([]*domain.SeminarDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.count("seminars.list")
	out := make([]*domain.SeminarDetail, 0, len(r.s.seminars))
	for _, sem := range r.s.seminars {
		if f.Name != "" && !strings.Contains(sem.Name, f.Name) {
			continue
		}
		out = append(out, r.s.detail(sem))
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if f.Earliest {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
		if f.Earliest {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})
	return out, nil
}

func (s *memStore) detail(sem *domain.Seminar) *domain.SeminarDetail {
	d := &domain.SeminarDetail{Seminar: *sem}
	for _, m := range s.memberships {
		if m.SeminarID != sem.ID {
			continue
		}
		u := s.users[m.UserID]
		member := domain.Member{Membership: *m}
		if u != nil {
			member.Email = u.Email
			member.Username = u.Username
		}
		d.Members = append(d.Members, member)
	}
	sort.SliceStable(d.Members, func(i, j int) bool {
		return d.Members[i].JoinedAt.Before(d.Members[j].JoinedAt)
	})
	return d
}

// ── memberships ──────────────────────────────────────────────────────────────

type memMemberships struct{ s *memStore }

func (r memMemberships) Create(_ context.Context, m *domain.Membership) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.count("memberships.create")
	if err := r.s.membershipCreateErr; err != nil {
		r.s.membershipCreateErr = nil
		return err
	}
	for _, existing := range r.s.memberships {
		if existing.UserID == m.UserID && existing.SeminarID == m.SeminarID {
			return domain.ErrMembershipExists
		}
	}
	m.ID = r.s.id()
	c := *m
	r.s.memberships = append(r.s.memberships, &c)
	return nil
}

func (r memMemberships) Update(_ context.Context, m *domain.Membership) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.count("memberships.update")
	for i, existing := range r.s.memberships {
		if existing.ID == m.ID {
			c := *m
			r.s.memberships[i] = &c
			return nil
		}
	}
	return domain.ErrMembershipNotFound
}

func (r memMemberships) Find(_ context.Context, userID, seminarID int64) (*domain.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.count("memberships.find")
	for _, m := range r.s.memberships {
		if m.UserID == userID && m.SeminarID == seminarID {
			c := *m
			return &c, nil
		}
	}
	return nil, domain.ErrMembershipNotFound
}

func (r memMemberships) FindLatestActive(_ context.Context, userID int64, role domain.Role) (*domain.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.count("memberships.latest")
	var found *domain.Membership
	for _, m := range r.s.memberships {
		if m.UserID != userID || m.Role != role || !m.IsActive {
			continue
		}
		if found == nil || !m.JoinedAt.Before(found.JoinedAt) {
			found = m
		}
	}
	if found == nil {
		return nil, domain.ErrMembershipNotFound
	}
	c := *found
	return &c, nil
}

func (r memMemberships) CountActive(_ context.Context, seminarID int64, role domain.Role) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.count("memberships.count")
	n := 0
	for _, m := range r.s.memberships {
		if m.SeminarID == seminarID && m.Role == role && m.IsActive {
			n++
		}
	}
	return n, nil
}

func (r memMemberships) ListByUsers(_ context.Context, userIDs []int64) ([]ports.UserMembership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.count("memberships.by_users")
	want := make(map[int64]bool, len(userIDs))
	for _, id := range userIDs {
		want[id] = true
	}
	var out []ports.UserMembership
	for _, m := range r.s.memberships {
		if !want[m.UserID] {
			continue
		}
		um := ports.UserMembership{Membership: *m}
		if sem := r.s.seminars[m.SeminarID]; sem != nil {
			um.SeminarName = sem.Name
		}
		out = append(out, um)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out, nil
}

// ── activity ─────────────────────────────────────────────────────────────────

type memActivity struct{ s *memStore }

func (r memActivity) Insert(_ context.Context, ev *domain.ActivityEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.count("activity.insert")
	r.s.activity = append(r.s.activity, *ev)
	return nil
}

func (r memActivity) ListBySeminar(_ context.Context, seminarID int64) ([]domain.ActivityEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.count("activity.list")
	var out []domain.ActivityEvent
	for _, ev := range r.s.activity {
		if ev.SeminarID == seminarID {
			out = append(out, ev)
		}
	}
	return out, nil
}

// ── collaborators ────────────────────────────────────────────────────────────

type recordingSink struct {
	events []domain.ActivityEvent
}

func (s *recordingSink) Publish(ev domain.ActivityEvent) {
	s.events = append(s.events, ev)
}

type memCache struct {
	entries     map[int64]*ports.SeminarProfile
	versions    map[int64]int64
	hits        int
	invalidated []int64
	skipped     int
}

func newMemCache() *memCache {
	return &memCache{
		entries:  make(map[int64]*ports.SeminarProfile),
		versions: make(map[int64]int64),
	}
}

func (c *memCache) Get(_ context.Context, id int64) (*ports.SeminarProfile, bool, error) {
	p, ok := c.entries[id]
	if ok {
		c.hits++
	}
	return p, ok, nil
}

func (c *memCache) Version(_ context.Context, id int64) (int64, error) {
	return c.versions[id], nil
}

func (c *memCache) SetIfVersion(_ context.Context, p *ports.SeminarProfile, version int64) (bool, error) {
	if c.versions[p.ID] != version {
		c.skipped++
		return false, nil
	}
	c.entries[p.ID] = p
	return true, nil
}

func (c *memCache) Invalidate(_ context.Context, id int64) error {
	c.versions[id]++
	delete(c.entries, id)
	c.invalidated = append(c.invalidated, id)
	return nil
}

// memIdempotency stores zero for a claimed key that has no seminar yet.
type memIdempotency struct {
	keys     map[string]int64
	released int
	// onClaim, when set, runs once right after a successful claim.
	onClaim func()
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{keys: make(map[string]int64)}
}

func (m *memIdempotency) Claim(_ context.Context, userID int64, key string) (int64, bool, error) {
	k := idemKey(userID, key)
	if id, ok := m.keys[k]; ok {
		return id, false, nil
	}
	m.keys[k] = 0
	if hook := m.onClaim; hook != nil {
		m.onClaim = nil
		hook()
	}
	return 0, true, nil
}

func (m *memIdempotency) Complete(_ context.Context, userID int64, key string, seminarID int64) error {
	m.keys[idemKey(userID, key)] = seminarID
	return nil
}

func (m *memIdempotency) Release(_ context.Context, userID int64, key string) error {
	k := idemKey(userID, key)
	if m.keys[k] == 0 {
		delete(m.keys, k)
		m.released++
	}
	return nil
}

func idemKey(userID int64, key string) string {
	return fmt.Sprintf("%d|%s", userID, key)
}

// tickingClock returns a clock advancing one minute per call.
func tickingClock() func() time.Time {
	t := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}
