package domino_test

import (
	"slices"
	"testing"

	"github.com/playperu/dominoscore/internal/domino"
)

func TestSpinnerSequence(t *testing.T) {
	want := []int{6, 5, 4, 3, 2, 1, 0, 0, 1, 2, 3, 4, 5, 6}
	if !slices.Equal(domino.SpinnerSequence[:], want) {
		t.Fatalf("sequence = %v, want %v", domino.SpinnerSequence, want)
	}
	if domino.TotalRounds != 14 {
		t.Fatalf("TotalRounds = %d, want 14", domino.TotalRounds)
	}
	for i, v := range want {
		if got := domino.SpinnerValue(i); got != v {
			t.Errorf("SpinnerValue(%d) = %d, want %d", i, got, v)
		}
	}
}

func TestShakerSeatIndexInRange(t *testing.T) {
	for n := domino.MinPlayers; n <= domino.MaxPlayers; n++ {
		for i := 0; i < domino.TotalRounds; i++ {
			got := domino.ShakerSeatIndex(i, n)
			if got < 0 || got >= n {
				t.Errorf("ShakerSeatIndex(%d, %d) = %d, out of range", i, n, got)
			}
		}
	}
}

func TestShakerRotationFourPlayers(t *testing.T) {
	want := []int{0, 1, 2, 3, 0, 1, 2, 3, 0, 1, 2, 3, 0, 1}
	var got []int
	for i := 0; i < domino.TotalRounds; i++ {
		got = append(got, domino.ShakerSeatIndex(i, 4))
	}
	if !slices.Equal(got, want) {
		t.Fatalf("shakers = %v, want %v", got, want)
	}
}

func TestRoundLabels(t *testing.T) {
	labels := domino.RoundLabels()
	if len(labels) != domino.TotalRounds {
		t.Fatalf("got %d labels, want %d", len(labels), domino.TotalRounds)
	}
	if labels[0] != "Double-6" || labels[6] != "Double-0" || labels[13] != "Double-6" {
		t.Errorf("unexpected labels: %v", labels)
	}
}

func TestValidRoundIndex(t *testing.T) {
	tests := []struct {
		index int
		want  bool
	}{
		{-1, false},
		{0, true},
		{13, true},
		{14, false},
	}
	for _, tt := range tests {
		if got := domino.ValidRoundIndex(tt.index); got != tt.want {
			t.Errorf("ValidRoundIndex(%d) = %v, want %v", tt.index, got, tt.want)
		}
	}
}

func TestParseGameStatus(t *testing.T) {
	for _, s := range []string{"active", "paused", "completed"} {
		got, err := domino.ParseGameStatus(s)
		if err != nil {
			t.Fatalf("ParseGameStatus(%q): %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseGameStatus(%q) = %q", s, got)
		}
	}
	if _, err := domino.ParseGameStatus("ACTIVE"); err == nil {
		t.Error("expected error for unknown status text")
	}
}
