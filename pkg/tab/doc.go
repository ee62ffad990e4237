// Package tab converts a time-ordered stream of pitched note events into
// guitar tablature: each note is assigned a (string, fret) position and
// near-simultaneous notes are merged into chord groups.
//
// # Pipeline
//
// The package implements the first two stages of the conversion pipeline:
//
//  1. Position selection: for each pitch, enumerate playable (string, fret)
//     candidates and pick the best by a deterministic playability score.
//  2. Chord grouping: merge the time-sorted note stream into simultaneity
//     groups using a fixed tolerance window, resolving string collisions.
//
// Layout onto a page grid lives in the layout subpackage; rendering lives in
// pkg/render/sheet.
//
// # Determinism
//
// Arrange is a pure function of its inputs. The scoring constants (middle
// string preference, fret weight 0.1) and the tolerance window (50ms) are
// part of the output contract: identical inputs always produce identical
// tablature, including tie-breaks.
//
// # Usage
//
//	inst, err := tab.NewInstrument(tab.StandardTuning(), tab.DefaultMaxFret)
//	if err != nil {
//	    return err
//	}
//	arr := tab.Arrange(notes, inst, tab.Options{})
//	for _, g := range arr.Groups {
//	    // g.Strings holds one fret per string, tab.NoFret for silent strings
//	}
package tab
