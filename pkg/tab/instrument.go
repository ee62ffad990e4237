package tab

import (
	"github.com/fretline/fretline/pkg/errors"
)

// DefaultMaxFret is the highest playable fret on a standard guitar neck.
const DefaultMaxFret = 24

// StandardTuning returns the open-string MIDI pitches of a six-string guitar
// in standard tuning, low E to high E: E2 A2 D3 G3 B3 E4.
func StandardTuning() []int {
	return []int{40, 45, 50, 55, 59, 64}
}

// Instrument describes a fretted, multi-string instrument: the open pitch of
// each string (low to high) and the fret range. Instruments are immutable
// once constructed and safe to share across concurrent conversions.
type Instrument struct {
	opens   []int
	maxFret int
}

// NewInstrument validates a tuning and builds an Instrument.
//
// The tuning must list at least one string, open pitches must strictly
// increase from low to high, and maxFret must be positive. Violations are
// configuration errors (ErrCodeInvalidTuning): the engine refuses to run
// rather than silently produce nonsense positions.
func NewInstrument(tuning []int, maxFret int) (*Instrument, error) {
	if len(tuning) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidTuning, "tuning must have at least one string")
	}
	if maxFret <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidTuning, "max fret must be positive, got %d", maxFret)
	}
	for i := 1; i < len(tuning); i++ {
		if tuning[i] <= tuning[i-1] {
			return nil, errors.New(errors.ErrCodeInvalidTuning,
				"open pitches must strictly increase low to high: %v", tuning)
		}
	}
	opens := make([]int, len(tuning))
	copy(opens, tuning)
	return &Instrument{opens: opens, maxFret: maxFret}, nil
}

// NumStrings returns the number of strings.
func (in *Instrument) NumStrings() int { return len(in.opens) }

// OpenPitch returns the open pitch of string i (0 = lowest).
func (in *Instrument) OpenPitch(i int) int { return in.opens[i] }

// MaxFret returns the highest playable fret.
func (in *Instrument) MaxFret() int { return in.maxFret }

// Tuning returns a copy of the open-string pitches, low to high.
func (in *Instrument) Tuning() []int {
	t := make([]int, len(in.opens))
	copy(t, in.opens)
	return t
}
