// Package wav renders a score into preview audio: one equal-weighted sine
// oscillator per sounding note, a touch of noise, a fixed gain and a
// little-endian RIFF/WAVE container around the raw PCM16 payload.
package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/compogen/compogen/pkg/score"
	"github.com/compogen/compogen/pkg/theory"
)

// Config controls the render. Zero values take the defaults below.
type Config struct {
	SampleRate int
	Channels   int
	Seed       int64
}

const (
	defaultSampleRate = 44100
	defaultChannels   = 1
	bitsPerSample     = 16

	gain       = 7000.0
	noiseLevel = 0.004
)

type voice struct {
	start, end int // sample indices
	freq       float64
	amp        float64
}

// Encode renders the score to WAV bytes.
func Encode(s *score.Score, cfg *Config) ([]byte, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	rate := cfg.SampleRate
	if rate == 0 {
		rate = defaultSampleRate
	}
	channels := cfg.Channels
	if channels == 0 {
		channels = defaultChannels
	}
	if channels < 1 || channels > 8 {
		return nil, fmt.Errorf("wav: unsupported channel count %d", channels)
	}
	if s.Tempo < 1 {
		return nil, &score.SerializationError{Field: "tempo", Value: fmt.Sprint(s.Tempo)}
	}

	secondsPerBeat := 60.0 / float64(s.Tempo)
	var voices []voice
	for _, t := range s.Tracks {
		if t.Percussion {
			// Percussion has no stable pitch; the sine preview skips it.
			continue
		}
		for _, n := range t.Notes {
			if n.Pitch < 0 || n.Pitch > 127 {
				return nil, &score.SerializationError{Field: "pitch", Value: fmt.Sprint(n.Pitch)}
			}
			voices = append(voices, voice{
				start: int(n.Start * secondsPerBeat * float64(rate)),
				end:   int(n.End() * secondsPerBeat * float64(rate)),
				freq:  theory.Frequency(n.Pitch),
				amp:   float64(n.Velocity) / 127.0,
			})
		}
	}
	sort.Slice(voices, func(i, j int) bool { return voices[i].start < voices[j].start })

	numSamples := int(math.Ceil(s.Duration() * secondsPerBeat * float64(rate)))
	rng := rand.New(rand.NewSource(cfg.Seed))
	pcm := make([]int16, numSamples)

	var active []voice
	next := 0
	for i := 0; i < numSamples; i++ {
		for next < len(voices) && voices[next].start <= i {
			active = append(active, voices[next])
			next++
		}
		if len(active) > 0 {
			kept := active[:0]
			for _, v := range active {
				if v.end > i {
					kept = append(kept, v)
				}
			}
			active = kept
		}

		t := float64(i) / float64(rate)
		var sum float64
		for _, v := range active {
			sum += v.amp * math.Sin(2*math.Pi*v.freq*t)
		}
		sum += (rng.Float64()*2 - 1) * noiseLevel
		sample := sum * gain
		if sample > math.MaxInt16 {
			sample = math.MaxInt16
		}
		if sample < math.MinInt16 {
			sample = math.MinInt16
		}
		pcm[i] = int16(sample)
	}

	return wrapRIFF(pcm, rate, channels), nil
}

// wrapRIFF frames the PCM payload: RIFF header, "fmt " chunk (PCM=1) and
// "data" chunk, all little endian. Mono samples are duplicated across the
// requested channels.
func wrapRIFF(pcm []int16, rate, channels int) []byte {
	dataSize := len(pcm) * channels * (bitsPerSample / 8)
	var buf bytes.Buffer

	buf.WriteString("RIFF")
	writeUint32(&buf, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	writeUint32(&buf, 16)
	writeUint16(&buf, 1) // PCM
	writeUint16(&buf, uint16(channels))
	writeUint32(&buf, uint32(rate))
	writeUint32(&buf, uint32(rate*channels*(bitsPerSample/8)))
	writeUint16(&buf, uint16(channels*(bitsPerSample/8)))
	writeUint16(&buf, bitsPerSample)

	buf.WriteString("data")
	writeUint32(&buf, uint32(dataSize))
	for _, sample := range pcm {
		for c := 0; c < channels; c++ {
			writeUint16(&buf, uint16(sample))
		}
	}
	return buf.Bytes()
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	_ = binary.Write(buf, binary.LittleEndian, v)
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	_ = binary.Write(buf, binary.LittleEndian, v)
}
