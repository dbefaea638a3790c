package game

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/desertthunder/tuneline/internal/shared"
)

// RangeKind identifies where a placement range sits relative to the
// player's timeline.
type RangeKind int

const (
	RangeAnytime RangeKind = iota // empty timeline, first card goes anywhere
	RangeBefore
	RangeBetween
	RangeAfter
)

func (k RangeKind) String() string {
	switch k {
	case RangeAnytime:
		return "anytime"
	case RangeBefore:
		return "before"
	case RangeBetween:
		return "between"
	case RangeAfter:
		return "after"
	default:
		return ""
	}
}

// PlacementRange is a selectable year interval for the current turn,
// derived from the acting player's timeline. Bounds are inclusive;
// HasLower/HasUpper distinguish bounded sides from unbounded ones.
type PlacementRange struct {
	Kind     RangeKind `json:"kind"`
	Lower    int       `json:"lower"`
	Upper    int       `json:"upper"`
	HasLower bool      `json:"has_lower"`
	HasUpper bool      `json:"has_upper"`
	Value    string    `json:"value"`
	Label    string    `json:"label"`
}

// Contains reports whether year falls within the range. Unbounded sides
// always satisfy.
func (r PlacementRange) Contains(year int) bool {
	if r.HasLower && year < r.Lower {
		return false
	}
	if r.HasUpper && year > r.Upper {
		return false
	}
	return true
}

// encodeValue builds the canonical "lower..upper" value string, with "*"
// standing in for an unbounded side.
func (r PlacementRange) encodeValue() string {
	lower, upper := "*", "*"
	if r.HasLower {
		lower = strconv.Itoa(r.Lower)
	}
	if r.HasUpper {
		upper = strconv.Itoa(r.Upper)
	}
	return lower + ".." + upper
}

// ParseRangeValue decodes a range value string produced by OptionsFor back
// into a PlacementRange with its bounds. The kind and label are not
// recoverable and are left zero.
func ParseRangeValue(value string) (PlacementRange, error) {
	parts := strings.SplitN(value, "..", 2)
	if len(parts) != 2 {
		return PlacementRange{}, fmt.Errorf("%w: malformed range value %q", shared.ErrInvalidArgument, value)
	}

	var r PlacementRange
	r.Value = value

	if parts[0] != "*" {
		lower, err := strconv.Atoi(parts[0])
		if err != nil {
			return PlacementRange{}, fmt.Errorf("%w: bad lower bound in %q", shared.ErrInvalidArgument, value)
		}
		r.Lower = lower
		r.HasLower = true
	}
	if parts[1] != "*" {
		upper, err := strconv.Atoi(parts[1])
		if err != nil {
			return PlacementRange{}, fmt.Errorf("%w: bad upper bound in %q", shared.ErrInvalidArgument, value)
		}
		r.Upper = upper
		r.HasUpper = true
	}

	return r, nil
}

// sortedByYear returns a copy of the timeline sorted ascending by year.
// The sort is stable so tracks with equal years keep their relative order.
func sortedByYear(timeline []Track) []Track {
	sorted := make([]Track, len(timeline))
	copy(sorted, timeline)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Year < sorted[j].Year
	})
	return sorted
}

// OptionsFor derives the selectable placement ranges for a timeline.
//
// An empty timeline yields a single unbounded range. Otherwise the result
// is one "before" range, a "between" range per adjacent pair with distinct
// years, and one "after" range, in that order. Boundaries are exclusive of
// neighboring card years: placing a card means landing strictly between
// existing years or outside the outermost one.
func OptionsFor(timeline []Track) []PlacementRange {
	if len(timeline) == 0 {
		r := PlacementRange{Kind: RangeAnytime, Label: "Anytime (First Card)"}
		r.Value = r.encodeValue()
		return []PlacementRange{r}
	}

	sorted := sortedByYear(timeline)
	options := make([]PlacementRange, 0, len(sorted)+1)

	before := PlacementRange{
		Kind:     RangeBefore,
		Upper:    sorted[0].Year - 1,
		HasUpper: true,
		Label:    fmt.Sprintf("Before %d (%s)", sorted[0].Year, sorted[0].Title),
	}
	before.Value = before.encodeValue()
	options = append(options, before)

	for i := 0; i < len(sorted)-1; i++ {
		left, right := sorted[i], sorted[i+1]
		if left.Year == right.Year {
			continue
		}
		between := PlacementRange{
			Kind:     RangeBetween,
			Lower:    left.Year + 1,
			Upper:    right.Year - 1,
			HasLower: true,
			HasUpper: true,
			Label:    fmt.Sprintf("Between %d (%s) and %d (%s)", left.Year, left.Title, right.Year, right.Title),
		}
		between.Value = between.encodeValue()
		options = append(options, between)
	}

	last := sorted[len(sorted)-1]
	after := PlacementRange{
		Kind:     RangeAfter,
		Lower:    last.Year + 1,
		HasLower: true,
		Label:    fmt.Sprintf("After %d (%s)", last.Year, last.Title),
	}
	after.Value = after.encodeValue()
	options = append(options, after)

	return options
}
