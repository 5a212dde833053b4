package prediction

import "testing"

func TestID_IsStablePerUserAndMatch(t *testing.T) {
	if ID("u1", "m1") != ID(" u1 ", "m1") {
		t.Fatalf("expected whitespace-insensitive id")
	}
	if ID("u1", "m1") == ID("u2", "m1") {
		t.Fatalf("expected different ids for different users")
	}
}

func TestPrediction_Validate(t *testing.T) {
	valid := Prediction{
		ID:      ID("u1", "m1"),
		UserID:  "u1",
		MatchID: "m1",
		SelectedPlayers: []SelectedPlayer{
			{PlayerID: "p1"}, {PlayerID: "p2"}, {PlayerID: "p3"}, {PlayerID: "p4"}, {PlayerID: "p5"},
		},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wrongID := valid.Clone()
	wrongID.ID = "random"
	if err := wrongID.Validate(); err == nil {
		t.Fatalf("expected error for non deterministic id")
	}

	dup := valid.Clone()
	dup.SelectedPlayers[4].PlayerID = "p1"
	if err := dup.Validate(); err == nil {
		t.Fatalf("expected error for duplicate player")
	}

	short := valid.Clone()
	short.SelectedPlayers = short.SelectedPlayers[:4]
	if err := short.Validate(); err == nil {
		t.Fatalf("expected error for four players")
	}
}

func TestPrediction_ApplyOutcome(t *testing.T) {
	p := Prediction{SelectedPlayers: []SelectedPlayer{
		{PlayerID: "p1", Threshold: 30},
		{PlayerID: "p2", Threshold: 2},
	}}

	if !p.ApplyOutcome("p1", 31) {
		t.Fatalf("expected change")
	}
	if p.ApplyOutcome("p1", 31) {
		t.Fatalf("expected no change for identical outcome")
	}
	if p.ApplyOutcome("p9", 1) {
		t.Fatalf("expected no change for unknown player")
	}
	if p.SelectedPlayers[0].Threshold != 30 || *p.SelectedPlayers[0].ActualPoints != 31 {
		t.Fatalf("unexpected snapshot: %+v", p.SelectedPlayers[0])
	}
	if p.SelectedPlayers[1].ActualPoints != nil {
		t.Fatalf("other picks must be untouched")
	}
}
