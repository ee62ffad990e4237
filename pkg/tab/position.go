package tab

import (
	"math"
	"sort"
)

// fretWeight is the mild preference for lower frets (open-position playing).
// Together with the middle-string preference it fully determines position
// choice, so it must not change without breaking output compatibility.
const fretWeight = 0.1

// Position is a playable placement of a pitch on the fretboard.
type Position struct {
	String int
	Fret   int
}

// SelectPosition picks the best playable (string, fret) for a pitch.
//
// Candidates are every string where 0 <= pitch-open <= maxFret. Each is
// scored |string - center| + fret*0.1 with center = (N-1)/2, lower is
// better; ties go to the lowest string index. The second return is false
// when the pitch is outside the instrument's range entirely; the caller
// drops the note.
func (in *Instrument) SelectPosition(pitch int) (Position, bool) {
	center := float64(len(in.opens)-1) / 2

	var best Position
	bestScore := math.Inf(1)
	found := false
	for i, open := range in.opens {
		fret := pitch - open
		if fret < 0 || fret > in.maxFret {
			continue
		}
		score := math.Abs(float64(i)-center) + float64(fret)*fretWeight
		if score < bestScore {
			best = Position{String: i, Fret: fret}
			bestScore = score
			found = true
		}
	}
	return best, found
}

// rankedPositions returns every playable position for a pitch ordered best
// to worst by the same score as SelectPosition, ties by string index. Used
// by the collision-bumping mode to find alternative strings.
func (in *Instrument) rankedPositions(pitch int) []Position {
	center := float64(len(in.opens)-1) / 2

	type scored struct {
		pos   Position
		score float64
	}
	var candidates []scored
	for i, open := range in.opens {
		fret := pitch - open
		if fret < 0 || fret > in.maxFret {
			continue
		}
		candidates = append(candidates, scored{
			pos:   Position{String: i, Fret: fret},
			score: math.Abs(float64(i)-center) + float64(fret)*fretWeight,
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score < candidates[j].score
	})

	positions := make([]Position, len(candidates))
	for i, c := range candidates {
		positions[i] = c.pos
	}
	return positions
}
