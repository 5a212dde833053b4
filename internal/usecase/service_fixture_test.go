package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/fantasy-prediction/internal/domain/user"
	"github.com/riskibarqy/fantasy-prediction/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/fantasy-prediction/internal/platform/workerpool"
)

var (
	fixtureNow = time.Date(2026, time.April, 10, 8, 0, 0, 0, time.UTC)
	alice      = user.Principal{UserID: "user-alice", Email: "alice@example.com"}
	bob        = user.Principal{UserID: "user-bob", Email: "bob@example.com"}
	admin      = user.Principal{UserID: "user-admin", Email: "admin@example.com", IsAdmin: true}
)

var indAusRoster = []string{"ind-bat-01", "ind-bat-02", "ind-wk-01", "aus-bat-01", "ind-bowl-01"}

type fixture struct {
	matches     *memory.MatchRepository
	players     *memory.PlayerRepository
	predictions *memory.PredictionRepository
	guard       *stubGuard

	matchSvc      *MatchService
	predictionSvc *PredictionService
	adminSvc      *AdminPlayerService
	dashboardSvc  *DashboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	pool, err := workerpool.New(4)
	if err != nil {
		t.Fatalf("create worker pool: %v", err)
	}
	t.Cleanup(pool.Release)

	f := &fixture{
		matches:     memory.NewMatchRepository(memory.SeedMatches(fixtureNow)),
		players:     memory.NewPlayerRepository(memory.SeedPlayers(fixtureNow)),
		predictions: memory.NewPredictionRepository(),
		guard:       &stubGuard{held: make(map[string]struct{})},
	}
	f.matchSvc = NewMatchService(f.matches, f.players, nil)
	f.matchSvc.now = func() time.Time { return fixtureNow }
	f.predictionSvc = NewPredictionService(f.matches, f.players, f.predictions, f.guard, pool, nil)
	f.adminSvc = NewAdminPlayerService(f.matches, f.players, f.predictions, nil, pool, nil)
	f.adminSvc.now = func() time.Time { return fixtureNow }
	f.dashboardSvc = NewDashboardService(f.matches, f.players, f.predictions)

	return f
}

// stubGuard is a process-local SubmitGuard whose keys can be pre-held.
type stubGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func (g *stubGuard) Acquire(_ context.Context, key string) (func(), bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.held[key]; busy {
		return nil, false, nil
	}
	g.held[key] = struct{}{}
	return func() {
		g.mu.Lock()
		delete(g.held, key)
		g.mu.Unlock()
	}, true, nil
}

func (g *stubGuard) hold(key string) {
	g.mu.Lock()
	g.held[key] = struct{}{}
	g.mu.Unlock()
}

type countingRecorder struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (r *countingRecorder) ObserveSubmit(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcomes == nil {
		r.outcomes = make(map[string]int)
	}
	r.outcomes[outcome]++
}

func floatPtr(v float64) *float64 {
	return &v
}

func anonymous() user.Principal {
	return user.Principal{}
}
