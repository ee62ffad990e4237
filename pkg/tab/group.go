package tab

// DefaultTolerance is the maximum start-time difference, in seconds, for two
// notes to be treated as simultaneous (musical near-simultaneity, 50ms).
const DefaultTolerance = 0.05

// NoFret marks a string that is silent within a chord group.
const NoFret = -1

// ChordGroup is a set of notes sounding together: one fret per string (or
// NoFret), anchored at the start time of the group's first note. This
// flattened record is the shape external API consumers observe.
type ChordGroup struct {
	Time      float64 `json:"time"`
	Strings   []int   `json:"strings"`
	Duration  float64 `json:"duration"`
	NoteCount int     `json:"note_count"`
}

// Options configures an arrangement.
type Options struct {
	// Tolerance is the simultaneity window in seconds. Zero means
	// DefaultTolerance; negative disables the window so only notes with
	// identical start times share a group. Group times stay strictly
	// increasing either way.
	Tolerance float64

	// BumpCollisions reassigns a note whose chosen string is already
	// occupied within its group to the next-best free string instead of
	// dropping it from the grid. Off by default: the compatible behavior is
	// first writer wins, the collided note is omitted from the fret grid
	// though still counted in NoteCount.
	BumpCollisions bool
}

// Arrangement is the result of converting a note stream to chord groups,
// along with the conversion statistics callers need for observability.
type Arrangement struct {
	Groups []ChordGroup `json:"groups"`

	// TotalNotes counts input notes that found a playable position.
	TotalNotes int `json:"total_notes"`

	// Dropped counts input notes with no playable position. Dropping is
	// expected behavior, not an error.
	Dropped int `json:"dropped"`

	// Duration is the end time of the last note in the input, seconds.
	Duration float64 `json:"duration"`
}

// Arrange converts a note stream into chord groups on the given instrument.
//
// Notes are stably sorted by start time, assigned fretboard positions
// (unplayable pitches are counted and dropped), and merged into groups using
// a single pass with a tolerance window: a note joins the current group when
// its start lies within the tolerance of the group anchor, otherwise the
// group is emitted and a new one starts anchored at that note. Group times
// strictly increase. Empty input yields an empty arrangement.
func Arrange(notes []Note, inst *Instrument, opts Options) Arrangement {
	if opts.Tolerance == 0 {
		opts.Tolerance = DefaultTolerance
	}
	// A negative tolerance must still merge exact ties, otherwise two
	// groups would share the same time.
	if opts.Tolerance < 0 {
		opts.Tolerance = 0
	}

	var arr Arrangement
	sorted := sortNotes(notes)

	var placed []TabNote
	for _, n := range sorted {
		if n.End > arr.Duration {
			arr.Duration = n.End
		}
		pos, ok := inst.SelectPosition(n.Pitch)
		if !ok {
			arr.Dropped++
			continue
		}
		placed = append(placed, TabNote{
			Time:     n.Start,
			String:   pos.String,
			Fret:     pos.Fret,
			Duration: n.Duration(),
			Velocity: n.Velocity,
		})
	}
	arr.TotalNotes = len(placed)

	if len(placed) == 0 {
		return arr
	}

	var members []TabNote
	anchor := placed[0].Time
	for _, tn := range placed {
		if len(members) > 0 && tn.Time-anchor > opts.Tolerance {
			arr.Groups = append(arr.Groups, makeGroup(members, anchor, inst, opts.BumpCollisions))
			members = members[:0]
			anchor = tn.Time
		}
		members = append(members, tn)
	}
	arr.Groups = append(arr.Groups, makeGroup(members, anchor, inst, opts.BumpCollisions))

	return arr
}

// makeGroup builds the fret grid for one simultaneity group. The first note
// to claim a string keeps it; later notes on the same string are either
// omitted from the grid or, with bump enabled, moved to their next-best free
// string. NoteCount counts all members, placed or not.
func makeGroup(members []TabNote, anchor float64, inst *Instrument, bump bool) ChordGroup {
	g := ChordGroup{
		Time:      anchor,
		Strings:   make([]int, inst.NumStrings()),
		NoteCount: len(members),
	}
	for i := range g.Strings {
		g.Strings[i] = NoFret
	}

	for _, m := range members {
		if m.Duration > g.Duration {
			g.Duration = m.Duration
		}
		if g.Strings[m.String] == NoFret {
			g.Strings[m.String] = m.Fret
			continue
		}
		if !bump {
			continue
		}
		for _, alt := range inst.rankedPositions(inst.OpenPitch(m.String) + m.Fret) {
			if g.Strings[alt.String] == NoFret {
				g.Strings[alt.String] = alt.Fret
				break
			}
		}
	}
	return g
}
