package formatter

import (
	"strings"
	"testing"

	"github.com/desertthunder/tuneline/internal/game"
)

func testPlayers() []game.Player {
	return []game.Player{
		{Name: "Alice", Score: 3, Timeline: []game.Track{
			{ID: "t1", Title: "Hey Jude", Artist: "The Beatles", Year: 1968},
			{ID: "t2", Title: "One More Time", Artist: "Daft Punk", Year: 2000},
		}},
		{Name: "Bob", Score: 7, Timeline: []game.Track{
			{ID: "t3", Title: "Bohemian Rhapsody", Artist: "Queen", Year: 1975},
		}},
		{Name: "Carol", Score: 3, Timeline: nil},
	}
}

func TestStandings(t *testing.T) {
	t.Run("sorts by score descending", func(t *testing.T) {
		standings := Standings(testPlayers())

		if standings[0].Name != "Bob" {
			t.Errorf("expected Bob first, got %s", standings[0].Name)
		}
	})

	t.Run("ties keep the original order", func(t *testing.T) {
		standings := Standings(testPlayers())

		if standings[1].Name != "Alice" || standings[2].Name != "Carol" {
			t.Errorf("expected Alice then Carol, got %s then %s", standings[1].Name, standings[2].Name)
		}
	})

	t.Run("does not mutate the input", func(t *testing.T) {
		players := testPlayers()
		Standings(players)

		if players[0].Name != "Alice" || players[1].Name != "Bob" {
			t.Errorf("input order changed: %s, %s", players[0].Name, players[1].Name)
		}
	})

	t.Run("handles empty input", func(t *testing.T) {
		if standings := Standings(nil); len(standings) != 0 {
			t.Errorf("expected no standings, got %d", len(standings))
		}
	})
}

func TestResultsToCSV(t *testing.T) {
	out, err := ResultsToCSV(testPlayers())
	if err != nil {
		t.Fatalf("failed to render CSV: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header and 3 records, got %d lines", len(lines))
	}

	if lines[0] != "Rank,Player,Score,Timeline Length" {
		t.Errorf("unexpected header: %s", lines[0])
	}

	if lines[1] != "1,Bob,7,1" {
		t.Errorf("unexpected first record: %s", lines[1])
	}

	if lines[2] != "2,Alice,3,2" {
		t.Errorf("unexpected second record: %s", lines[2])
	}

	if lines[3] != "3,Carol,3,0" {
		t.Errorf("unexpected third record: %s", lines[3])
	}
}

func TestResultsToMarkdown(t *testing.T) {
	out, err := ResultsToMarkdown(testPlayers())
	if err != nil {
		t.Fatalf("failed to render Markdown: %v", err)
	}
	got := string(out)

	t.Run("starts with the results heading", func(t *testing.T) {
		if !strings.HasPrefix(got, "# Final Results\n") {
			t.Errorf("missing heading in:\n%s", got)
		}
	})

	t.Run("ranks by score", func(t *testing.T) {
		if !strings.Contains(got, "1. **Bob**: 7 points (1 cards)") {
			t.Errorf("missing Bob's standing in:\n%s", got)
		}
	})

	t.Run("renders each player's timeline", func(t *testing.T) {
		if !strings.Contains(got, "## Alice's Timeline") {
			t.Errorf("missing Alice's timeline heading in:\n%s", got)
		}
		if !strings.Contains(got, "- 1968: The Beatles - Hey Jude") {
			t.Errorf("missing timeline entry in:\n%s", got)
		}
	})

	t.Run("marks empty timelines", func(t *testing.T) {
		if !strings.Contains(got, "## Carol's Timeline\n\n_No cards placed._") {
			t.Errorf("missing empty timeline marker in:\n%s", got)
		}
	})
}

func TestResultsToText(t *testing.T) {
	out, err := ResultsToText(testPlayers())
	if err != nil {
		t.Fatalf("failed to render text: %v", err)
	}
	got := string(out)

	if !strings.HasPrefix(got, "Final Results\n") {
		t.Errorf("missing heading in:\n%s", got)
	}

	if !strings.Contains(got, "1. Bob: 7 points (1 cards)") {
		t.Errorf("missing Bob's standing in:\n%s", got)
	}

	if !strings.Contains(got, "Alice's timeline:\n  1968  The Beatles - Hey Jude") {
		t.Errorf("missing timeline entry in:\n%s", got)
	}

	if !strings.Contains(got, "Carol's timeline:\n  (no cards placed)") {
		t.Errorf("missing empty timeline marker in:\n%s", got)
	}
}

func TestExportResults(t *testing.T) {
	players := testPlayers()

	t.Run("dispatches by format name", func(t *testing.T) {
		cases := []struct {
			format string
			want   string
		}{
			{"csv", "Rank,Player,Score,Timeline Length"},
			{"markdown", "# Final Results"},
			{"md", "# Final Results"},
			{"txt", "Final Results\n============="},
			{"text", "Final Results\n============="},
			{"", "Final Results\n============="},
		}

		for _, tc := range cases {
			out, err := ExportResults(players, tc.format)
			if err != nil {
				t.Errorf("format %q: unexpected error: %v", tc.format, err)
				continue
			}
			if !strings.Contains(string(out), tc.want) {
				t.Errorf("format %q: expected output containing %q", tc.format, tc.want)
			}
		}
	})

	t.Run("rejects unknown formats", func(t *testing.T) {
		if _, err := ExportResults(players, "xml"); err == nil {
			t.Error("expected an error for an unsupported format")
		}
	})
}
