package service

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/akshadjaiswal/hot-takes-arena/internal/events"
	"github.com/akshadjaiswal/hot-takes-arena/internal/model"
	"github.com/akshadjaiswal/hot-takes-arena/internal/moderation"
	"github.com/akshadjaiswal/hot-takes-arena/internal/ratelimit"
	"github.com/akshadjaiswal/hot-takes-arena/internal/repository"
	"github.com/akshadjaiswal/hot-takes-arena/internal/score"
)

const (
	testFP     = "fp_test_device_0001"
	testIPHash = "8f434346648f6b96df89dda901c5176b10a6d83961dd3c1ac88b59b2dc327aa4"
)

var errStoreDown = errors.New("store down")

// memTakes is an in-memory TakeStore ordered the same way as the SQL listing.
type memTakes struct {
	mu    sync.Mutex
	takes map[uuid.UUID]*model.Take
	cats  map[string]bool
	clock time.Time
	err   error
}

func newMemTakes() *memTakes {
	return &memTakes{
		takes: make(map[uuid.UUID]*model.Take),
		cats:  map[string]bool{"tech": true, "food": true, "random": true},
		clock: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (m *memTakes) Insert(_ context.Context, t *model.Take) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if !m.cats[t.Category] {
		return repository.ErrUnknownCategory
	}
	m.clock = m.clock.Add(time.Second)
	t.ID = uuid.New()
	t.CreatedAt = m.clock
	t.UpdatedAt = m.clock
	cp := *t
	m.takes[t.ID] = &cp
	return nil
}

func (m *memTakes) FindByID(_ context.Context, id uuid.UUID) (*model.Take, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	t, ok := m.takes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTakes) List(_ context.Context, p repository.ListParams) ([]model.Take, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}

	var out []model.Take
	for _, t := range m.takes {
		if t.IsHidden || (p.Category != "" && t.Category != p.Category) {
			continue
		}
		out = append(out, *t)
	}
	less := func(a, b *model.Take) bool {
		ka, kb := a.SortKey(p.Sort), b.SortKey(p.Sort)
		if ka != kb {
			return ka > kb
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return bytes.Compare(a.ID[:], b.ID[:]) > 0
	}
	sort.Slice(out, func(i, j int) bool { return less(&out[i], &out[j]) })

	if p.After != nil {
		c := p.After
		filtered := out[:0]
		for _, t := range out {
			k := t.SortKey(p.Sort)
			switch {
			case k != c.Key:
				if k < c.Key {
					filtered = append(filtered, t)
				}
			case !t.CreatedAt.Equal(c.CreatedAt):
				if t.CreatedAt.Before(c.CreatedAt) {
					filtered = append(filtered, t)
				}
			case bytes.Compare(t.ID[:], c.ID[:]) < 0:
				filtered = append(filtered, t)
			}
		}
		out = filtered
	}
	if len(out) > p.Limit {
		out = out[:p.Limit]
	}
	return out, nil
}

func (m *memTakes) HideIfVisible(_ context.Context, id uuid.UUID, reason string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	t, ok := m.takes[id]
	if !ok || t.IsHidden {
		return false, nil
	}
	t.IsHidden = true
	t.HiddenReason = &reason
	return true, nil
}

func (m *memTakes) SetVisibility(_ context.Context, id uuid.UUID, hidden bool, reason *string) (*model.Take, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.takes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	t.IsHidden = hidden
	t.HiddenReason = reason
	if !hidden {
		t.HiddenReason = nil
	}
	cp := *t
	return &cp, nil
}

func (m *memTakes) get(id uuid.UUID) model.Take {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.takes[id]
}

func (m *memTakes) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.takes)
}

// memVotes commits votes against a memTakes under one lock.
type memVotes struct {
	takes *memTakes
	votes map[string]model.Vote
}

func newMemVotes(takes *memTakes) *memVotes {
	return &memVotes{takes: takes, votes: make(map[string]model.Vote)}
}

func voteKey(id uuid.UUID, fp string) string { return id.String() + "|" + fp }

func (m *memVotes) FindByTakeAndFingerprint(_ context.Context, takeID uuid.UUID, fp string) (*model.Vote, error) {
	m.takes.mu.Lock()
	defer m.takes.mu.Unlock()
	v, ok := m.votes[voteKey(takeID, fp)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &v, nil
}

func (m *memVotes) Commit(_ context.Context, v *model.Vote, now time.Time) (*model.VoteCount, error) {
	m.takes.mu.Lock()
	defer m.takes.mu.Unlock()

	t, ok := m.takes.takes[v.TakeID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if t.IsHidden {
		return nil, repository.ErrTakeHidden
	}
	k := voteKey(v.TakeID, v.DeviceFingerprint)
	if _, dup := m.votes[k]; dup {
		return nil, repository.ErrDuplicateVote
	}

	v.ID = uuid.New()
	v.CreatedAt = now
	m.votes[k] = *v

	if v.VoteType == model.VoteAgree {
		t.AgreeCount++
	} else {
		t.DisagreeCount++
	}
	t.TotalVotes++
	cs := score.Controversy(t.AgreeCount, t.DisagreeCount)
	t.ControversyScore = &cs
	t.TrendingScore = score.Trending(t.TotalVotes, t.CreatedAt, now)

	c := model.VoteCount{
		TakeID:           t.ID,
		AgreeCount:       t.AgreeCount,
		DisagreeCount:    t.DisagreeCount,
		TotalVotes:       t.TotalVotes,
		ControversyScore: cs,
	}
	c.AgreePercentage, c.DisagreePercentage = score.Percentages(t.AgreeCount, t.DisagreeCount)
	return &c, nil
}

func (m *memVotes) VotesByFingerprint(_ context.Context, ids []uuid.UUID, fp string) (map[uuid.UUID]model.VoteType, error) {
	m.takes.mu.Lock()
	defer m.takes.mu.Unlock()
	out := make(map[uuid.UUID]model.VoteType)
	for _, id := range ids {
		if v, ok := m.votes[voteKey(id, fp)]; ok {
			out[id] = v.VoteType
		}
	}
	return out, nil
}

func (m *memVotes) Counts(_ context.Context, ids []uuid.UUID) ([]model.VoteCount, error) {
	m.takes.mu.Lock()
	defer m.takes.mu.Unlock()
	var out []model.VoteCount
	for _, id := range ids {
		t, ok := m.takes.takes[id]
		if !ok {
			continue
		}
		c := model.VoteCount{TakeID: id, AgreeCount: t.AgreeCount, DisagreeCount: t.DisagreeCount, TotalVotes: t.TotalVotes}
		c.ControversyScore = score.Controversy(t.AgreeCount, t.DisagreeCount)
		c.AgreePercentage, c.DisagreePercentage = score.Percentages(t.AgreeCount, t.DisagreeCount)
		out = append(out, c)
	}
	return out, nil
}

type memReports struct {
	mu      sync.Mutex
	takes   *memTakes
	reports []*model.Report
	err     error
}

func (m *memReports) Insert(_ context.Context, r *model.Report) error {
	if _, err := m.takes.FindByID(context.Background(), r.TakeID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = uuid.New()
	r.Status = model.StatusPending
	r.CreatedAt = time.Now()
	cp := *r
	m.reports = append(m.reports, &cp)
	return nil
}

func (m *memReports) CountPending(_ context.Context, takeID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	n := 0
	for _, r := range m.reports {
		if r.TakeID == takeID && r.Status == model.StatusPending {
			n++
		}
	}
	return n, nil
}

func (m *memReports) List(_ context.Context, status model.ReportStatus, limit int) ([]model.ReportWithTake, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ReportWithTake
	for i := len(m.reports) - 1; i >= 0 && len(out) < limit; i-- {
		r := m.reports[i]
		if status != "" && r.Status != status {
			continue
		}
		out = append(out, model.ReportWithTake{Report: *r})
	}
	return out, nil
}

func (m *memReports) ForTake(_ context.Context, takeID uuid.UUID) ([]model.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Report
	for _, r := range m.reports {
		if r.TakeID == takeID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memReports) UpdateStatus(_ context.Context, id uuid.UUID, status model.ReportStatus, reviewedBy *string, at time.Time) (*model.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reports {
		if r.ID == id {
			r.Status = status
			r.ReviewedBy = reviewedBy
			r.ReviewedAt = &at
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

type memCategories struct {
	calls int
	err   error
}

func (m *memCategories) ListActive(context.Context) ([]model.Category, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return []model.Category{
		{ID: 1, Slug: "tech", Name: "Tech", DisplayOrder: 1, IsActive: true},
		{ID: 2, Slug: "food", Name: "Food", DisplayOrder: 2, IsActive: true},
		{ID: 8, Slug: "random", Name: "Random", DisplayOrder: 8, IsActive: true},
	}, nil
}

// recorder keeps published events.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, evt events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *recorder) Close() error { return nil }

func (r *recorder) ofType(t events.Type) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// brokenStore fails every rate limit check.
type brokenStore struct{}

func (brokenStore) Check(context.Context, string, int, time.Duration) (ratelimit.Result, error) {
	return ratelimit.Result{}, errStoreDown
}

func (brokenStore) Reset(context.Context, string) error { return errStoreDown }

type env struct {
	takes    *memTakes
	votes    *memVotes
	reports  *memReports
	cats     *memCategories
	limiter  *ratelimit.Limiter
	events   *recorder
	cache    *CacheService
	redis    *miniredis.Miniredis
	takeSvc  *TakeService
	voteSvc  *VoteService
	reptSvc  *ReportService
	catSvc   *CategoryService
	adminSvc *AdminService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := ratelimit.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	return newEnvWithStore(t, store)
}

func newEnvWithStore(t *testing.T, store ratelimit.Store) *env {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	e := &env{
		takes:   newMemTakes(),
		cats:    &memCategories{},
		limiter: ratelimit.NewLimiter(store, true),
		events:  &recorder{},
		cache:   NewCacheServiceWithClient(rdb),
		redis:   mr,
	}
	e.votes = newMemVotes(e.takes)
	e.reports = &memReports{takes: e.takes}

	adm := NewAdmission(e.limiter)
	e.catSvc = NewCategoryService(e.cats, e.cache)
	content := moderation.NewValidator(moderation.NewDenylistPolicy(moderation.DefaultDenylist, moderation.DefaultWholeWords...))
	e.takeSvc = NewTakeService(e.takes, e.catSvc, content, adm, e.cache, e.events)
	e.voteSvc = NewVoteService(e.votes, adm, e.cache)
	e.reptSvc = NewReportService(e.reports, e.takes, adm, e.cache, e.events)

	admin, err := NewAdminService(AdminConfig{Password: "correct horse", JWTSecret: "test-secret"},
		e.reports, e.takes, adm, e.cache, e.events)
	if err != nil {
		t.Fatalf("NewAdminService: %v", err)
	}
	e.adminSvc = admin
	return e
}

// seedTake inserts a visible take directly.
func (e *env) seedTake(t *testing.T, content string) uuid.UUID {
	t.Helper()
	take := &model.Take{Content: content, Category: "tech", DeviceFingerprint: testFP, IPHash: testIPHash}
	if err := e.takes.Insert(context.Background(), take); err != nil {
		t.Fatalf("seed take: %v", err)
	}
	return take.ID
}

// deviceFP returns a distinct valid fingerprint per n.
func deviceFP(n int) string {
	return "device_" + strings.Repeat("x", 4) + "_" + uuid.NewSHA1(uuid.NameSpaceOID, []byte{byte(n), byte(n >> 8)}).String()[:8]
}
