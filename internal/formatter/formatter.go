// package formatter exports final game results to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"

	"github.com/desertthunder/tuneline/internal/game"
)

// Standings returns the players sorted by score descending. Ties keep the
// original player order.
func Standings(players []game.Player) []game.Player {
	standings := make([]game.Player, len(players))
	copy(standings, players)
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Score > standings[j].Score
	})
	return standings
}

// ResultsToCSV renders standings as CSV with columns: Rank, Player, Score, Timeline Length
func ResultsToCSV(players []game.Player) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Rank", "Player", "Score", "Timeline Length"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, p := range Standings(players) {
		record := []string{
			strconv.Itoa(i + 1),
			p.Name,
			strconv.Itoa(p.Score),
			strconv.Itoa(len(p.Timeline)),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ResultsToMarkdown renders standings and each player's timeline as Markdown
func ResultsToMarkdown(players []game.Player) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Final Results\n\n")

	standings := Standings(players)
	for i, p := range standings {
		buf.WriteString(fmt.Sprintf("%d. **%s**: %d points (%d cards)\n", i+1, p.Name, p.Score, len(p.Timeline)))
	}
	buf.WriteString("\n")

	for _, p := range standings {
		buf.WriteString(fmt.Sprintf("## %s's Timeline\n\n", p.Name))
		if len(p.Timeline) == 0 {
			buf.WriteString("_No cards placed._\n\n")
			continue
		}
		for _, track := range p.Timeline {
			buf.WriteString(fmt.Sprintf("- %d: %s - %s\n", track.Year, track.Artist, track.Title))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ResultsToText renders standings and timelines as plain text
func ResultsToText(players []game.Player) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("Final Results\n")
	buf.WriteString("=============\n\n")

	standings := Standings(players)
	for i, p := range standings {
		buf.WriteString(fmt.Sprintf("%d. %s: %d points (%d cards)\n", i+1, p.Name, p.Score, len(p.Timeline)))
	}

	for _, p := range standings {
		buf.WriteString(fmt.Sprintf("\n%s's timeline:\n", p.Name))
		if len(p.Timeline) == 0 {
			buf.WriteString("  (no cards placed)\n")
			continue
		}
		for _, track := range p.Timeline {
			buf.WriteString(fmt.Sprintf("  %d  %s - %s\n", track.Year, track.Artist, track.Title))
		}
	}

	return buf.Bytes(), nil
}

// ExportResults renders standings in the requested format: csv, markdown, or txt.
func ExportResults(players []game.Player, format string) ([]byte, error) {
	switch format {
	case "csv":
		return ResultsToCSV(players)
	case "markdown", "md":
		return ResultsToMarkdown(players)
	case "txt", "text", "":
		return ResultsToText(players)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}
