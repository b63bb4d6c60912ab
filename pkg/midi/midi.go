// Package midi serializes a score into a Standard MIDI File, format 1. The
// layout is built byte by byte so identical input produces identical output.
package midi

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/compogen/compogen/pkg/score"
)

// TicksPerBeat is the fixed SMF resolution.
const TicksPerBeat = 480

const (
	percussionChannel = 9
	eventNoteOff      = 0x80
	eventNoteOn       = 0x90
	eventProgram      = 0xC0
	metaPrefix        = 0xFF
	metaTempo         = 0x51
	metaTimeSignature = 0x58
	metaEndOfTrack    = 0x2F
)

// Encode serializes the score. Track 0 carries the time signature; every
// track carries the shared tempo so each starts from the same map.
func Encode(s *score.Score) ([]byte, error) {
	if len(s.Tracks) == 0 {
		return nil, fmt.Errorf("midi: empty score")
	}
	if s.Tempo < 1 {
		return nil, &score.SerializationError{Field: "tempo", Value: fmt.Sprint(s.Tempo)}
	}

	var buf bytes.Buffer
	buf.WriteString("MThd")
	writeUint32(&buf, 6)
	writeUint16(&buf, 1) // format 1
	writeUint16(&buf, uint16(len(s.Tracks)))
	writeUint16(&buf, TicksPerBeat)

	channel := 0
	for i, track := range s.Tracks {
		ch := percussionChannel
		if !track.Percussion {
			ch = channel
			channel++
			if channel == percussionChannel {
				channel++
			}
			if channel > 15 {
				channel = 15
			}
		}
		chunk, err := encodeTrack(s, track, uint8(ch), i == 0)
		if err != nil {
			return nil, err
		}
		buf.WriteString("MTrk")
		writeUint32(&buf, uint32(len(chunk)))
		buf.Write(chunk)
	}
	return buf.Bytes(), nil
}

// event is one channel event at an absolute tick.
type event struct {
	tick   uint32
	status uint8
	data   [2]uint8
	// off orders note-offs before note-ons sharing a tick so repeated
	// pitches never stick.
	off bool
}

func encodeTrack(s *score.Score, track score.Track, channel uint8, first bool) ([]byte, error) {
	var buf bytes.Buffer

	// Shared tempo map: microseconds per quarter note.
	usPerBeat := 60000000 / s.Tempo
	buf.WriteByte(0) // delta
	buf.Write([]byte{metaPrefix, metaTempo, 3,
		byte(usPerBeat >> 16), byte(usPerBeat >> 8), byte(usPerBeat)})

	if first {
		dd := byte(math.Log2(float64(s.TimeSignature.Denominator)))
		buf.WriteByte(0)
		buf.Write([]byte{metaPrefix, metaTimeSignature, 4,
			byte(s.TimeSignature.Numerator), dd, 24, 8})
	}

	buf.WriteByte(0)
	buf.Write([]byte{eventProgram | channel, byte(track.Program)})

	events := make([]event, 0, len(track.Notes)*2)
	for _, n := range track.Notes {
		if n.Pitch < 0 || n.Pitch > 127 {
			return nil, &score.SerializationError{Field: "pitch", Value: fmt.Sprint(n.Pitch)}
		}
		if n.Velocity < 1 || n.Velocity > 127 {
			return nil, &score.SerializationError{Field: "velocity", Value: fmt.Sprint(n.Velocity)}
		}
		on := uint32(math.Round(n.Start * TicksPerBeat))
		off := uint32(math.Round(n.End() * TicksPerBeat))
		if off <= on {
			off = on + 1
		}
		events = append(events,
			event{tick: on, status: eventNoteOn | channel, data: [2]uint8{uint8(n.Pitch), uint8(n.Velocity)}},
			event{tick: off, status: eventNoteOff | channel, data: [2]uint8{uint8(n.Pitch), 0}, off: true},
		)
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return events[i].off && !events[j].off
	})

	var cursor uint32
	for _, e := range events {
		writeVLQ(&buf, e.tick-cursor)
		buf.Write([]byte{e.status, e.data[0], e.data[1]})
		cursor = e.tick
	}

	buf.WriteByte(0)
	buf.Write([]byte{metaPrefix, metaEndOfTrack, 0})
	return buf.Bytes(), nil
}

// writeVLQ writes a variable-length quantity: seven bits per byte, the high
// bit marking continuation.
func writeVLQ(buf *bytes.Buffer, v uint32) {
	var stack [5]byte
	i := len(stack)
	for {
		i--
		stack[i] = byte(v & 0x7F)
		v >>= 7
		if v == 0 {
			break
		}
	}
	for j := i; j < len(stack)-1; j++ {
		buf.WriteByte(stack[j] | 0x80)
	}
	buf.WriteByte(stack[len(stack)-1])
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	_ = binary.Write(buf, binary.BigEndian, v)
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	_ = binary.Write(buf, binary.BigEndian, v)
}
