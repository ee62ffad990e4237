// Package io provides import and export of note documents.
//
// A note document is the JSON interchange format between the transcription
// step and the conversion pipeline: a flat list of pitched notes with start
// and end times, plus the name of the file they came from. The HTTP API
// persists one document per job so that rendering can be re-run with
// different options without re-transcribing.
//
// # Format
//
//	{
//	  "source": "riff.mid",
//	  "notes": [
//	    {"pitch": 40, "start_time": 0.0, "end_time": 0.5},
//	    {"pitch": 64, "start_time": 0.5, "end_time": 1.0}
//	  ]
//	}
//
// [ReadJSON] validates pitches and timing on import; [WriteJSON] produces
// output that round-trips through [ReadJSON].
package io
