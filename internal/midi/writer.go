// Package midi adapts a transcribed note sequence into a standard MIDI
// file. This is a thin output adaptor, not part of the core pitch
// pipeline: it owns no musical heuristics, only event ordering and tick
// arithmetic.
package midi

import (
	"bytes"
	"fmt"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/vocalscribe/vocalscribe/internal/pitch"
)

const (
	ticksPerQuarter = 480
	tempoBPM        = 120.0
	channel         = 0
)

// TicksPerSecond is the tick conversion factor at 480 ticks/quarter and
// 120 BPM: round(seconds * 480 * 120 / 60) = round(seconds * 960).
const TicksPerSecond = ticksPerQuarter * tempoBPM / 60.0

type event struct {
	tick     uint32
	isNoteOn bool
	note     uint8
	velocity uint8
}

// Write renders notes as a format-0 Standard MIDI File (single track): 480
// ticks per quarter note, one tempo meta-event at tick 0 declaring 120 BPM,
// a note_on/note_off pair per note. Events are sorted by absolute tick with
// note_off sorted before note_on at equal ticks, so a note ending and the
// next note of the same pitch starting on the same tick never produces a
// zero-length overlap.
func Write(notes []pitch.Note) ([]byte, error) {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	var track smf.Track

	microsecondsPerBeat := uint32(60000000.0 / tempoBPM)
	tempoMeta := smf.Message([]byte{
		0xFF, 0x51, 0x03,
		byte(microsecondsPerBeat >> 16),
		byte(microsecondsPerBeat >> 8),
		byte(microsecondsPerBeat),
	})
	track.Add(0, tempoMeta)

	events := make([]event, 0, len(notes)*2)
	for _, n := range notes {
		onTick := secondsToTick(n.StartTimeS)
		offTick := secondsToTick(n.EndTimeS())
		vel := uint8(clampByte(n.Velocity))
		events = append(events,
			event{tick: onTick, isNoteOn: true, note: uint8(n.MIDINumber), velocity: vel},
			event{tick: offTick, isNoteOn: false, note: uint8(n.MIDINumber), velocity: 0},
		)
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		// note_off sorts before note_on at equal ticks.
		return !events[i].isNoteOn && events[j].isNoteOn
	})

	var lastTick uint32
	for _, e := range events {
		delta := e.tick - lastTick
		if e.isNoteOn {
			track.Add(delta, midi.NoteOn(channel, e.note, e.velocity))
		} else {
			track.Add(delta, midi.NoteOff(channel, e.note))
		}
		lastTick = e.tick
	}

	track.Close(0)
	if err := s.Add(track); err != nil {
		return nil, fmt.Errorf("midi: add track: %w", err)
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("midi: write smf: %w", err)
	}
	return buf.Bytes(), nil
}

// secondsToTick converts a timestamp in seconds to an absolute MIDI tick.
func secondsToTick(seconds float64) uint32 {
	ticks := int64(seconds*TicksPerSecond + 0.5)
	if ticks < 0 {
		return 0
	}
	return uint32(ticks)
}

func clampByte(v int) int {
	if v < 0 {
		return 0
	}
	if v > 127 {
		return 127
	}
	return v
}
