package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/fantasy-prediction/internal/domain/match"
	"github.com/riskibarqy/fantasy-prediction/internal/infrastructure/repository/memory"
)

func TestMatchService_ListDerivesState(t *testing.T) {
	f := newFixture(t)

	items, err := f.matchSvc.List(t.Context(), fixtureNow)
	if err != nil {
		t.Fatalf("list matches: %v", err)
	}

	want := []struct {
		id     string
		state  match.ViewState
		locked bool
	}{
		{id: memory.MatchIDSouthAfricaNZ, state: match.ViewCompleted, locked: true},
		{id: memory.MatchIDEnglandPakistan, state: match.ViewLive, locked: true},
		{id: memory.MatchIDIndiaAustralia, state: match.ViewUpcoming, locked: false},
		{id: memory.MatchIDIndiaEnglandNext, state: match.ViewUpcoming, locked: false},
	}
	if len(items) != len(want) {
		t.Fatalf("unexpected match count: got=%d want=%d", len(items), len(want))
	}
	for i, w := range want {
		if items[i].Match.ID != w.id || items[i].State != w.state || items[i].Locked != w.locked {
			t.Fatalf("item %d: got id=%s state=%s locked=%v, want %+v", i, items[i].Match.ID, items[i].State, items[i].Locked, w)
		}
	}
}

func TestMatchService_ScheduledButStartedIsLive(t *testing.T) {
	f := newFixture(t)
	later := fixtureNow.Add(7 * time.Hour)

	view, err := f.matchSvc.Get(t.Context(), memory.MatchIDIndiaAustralia, later)
	if err != nil {
		t.Fatalf("get match: %v", err)
	}
	if view.Match.Status != match.StatusScheduled || view.State != match.ViewLive || !view.Locked {
		t.Fatalf("unexpected view: status=%s state=%s locked=%v", view.Match.Status, view.State, view.Locked)
	}
}

func TestMatchService_CreateAndSetStatus(t *testing.T) {
	f := newFixture(t)

	created, err := f.matchSvc.Create(t.Context(), admin, CreateMatchInput{
		Team1:    "Sri Lanka",
		Team2:    "Bangladesh",
		Venue:    "R. Premadasa Stadium",
		StartsAt: fixtureNow.Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create match: %v", err)
	}
	if created.ID == "" || created.Status != match.StatusScheduled {
		t.Fatalf("unexpected created match: %+v", created)
	}

	if _, err := f.matchSvc.Create(t.Context(), admin, CreateMatchInput{
		Team1:    "India",
		Team2:    "india",
		StartsAt: fixtureNow.Add(time.Hour),
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for identical teams, got %v", err)
	}

	if _, err := f.matchSvc.Create(t.Context(), alice, CreateMatchInput{Team1: "A", Team2: "B", StartsAt: fixtureNow}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	updated, err := f.matchSvc.SetStatus(t.Context(), admin, memory.MatchIDEnglandPakistan, "completed")
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if updated.Status != match.StatusCompleted || !updated.UpdatedAt.Equal(fixtureNow) {
		t.Fatalf("unexpected updated match: %+v", updated)
	}

	view, err := f.matchSvc.Get(t.Context(), memory.MatchIDEnglandPakistan, fixtureNow)
	if err != nil {
		t.Fatalf("get match: %v", err)
	}
	if view.State != match.ViewCompleted {
		t.Fatalf("expected completed view, got %s", view.State)
	}

	if _, err := f.matchSvc.SetStatus(t.Context(), admin, memory.MatchIDEnglandPakistan, "abandoned"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid status, got %v", err)
	}
}

func TestMatchService_ListCandidates(t *testing.T) {
	f := newFixture(t)

	players, err := f.matchSvc.ListCandidates(t.Context(), memory.MatchIDEnglandPakistan)
	if err != nil {
		t.Fatalf("list candidates: %v", err)
	}
	if len(players) != 5 {
		t.Fatalf("expected 5 candidates, got %d", len(players))
	}
	for _, p := range players {
		if !p.IsCandidateFor(memory.MatchIDEnglandPakistan) {
			t.Fatalf("player %s has no target for the match", p.ID)
		}
	}

	if _, err := f.matchSvc.ListCandidates(t.Context(), " "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
