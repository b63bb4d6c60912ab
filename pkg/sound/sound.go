// Package sound inspects generated preview audio: duration, peak and RMS
// envelopes, and a waveform plot. It reads the WAV files written by the wav
// package and MP3 renditions coming back from an external renderer.
package sound

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	mp3 "github.com/hajimehoshi/go-mp3"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

type Analyzer struct {
	mono     []float64
	rate     int
	duration time.Duration
	source   string
}

// NewAnalyzer loads a .wav or .mp3 file and normalizes it to mono float64
// samples in [-1, 1].
func NewAnalyzer(path string) (*Analyzer, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sound: couldn't read file: %w", err)
	}
	var mono []float64
	var rate int
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		mono, rate, err = decodeWAV(b)
	case ".mp3":
		mono, rate, err = decodeMP3(b)
	default:
		err = fmt.Errorf("sound: unsupported file type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	if len(mono) == 0 || rate == 0 {
		return nil, fmt.Errorf("sound: no samples in %s", path)
	}
	duration := time.Duration(float64(len(mono)) / float64(rate) * float64(time.Second))
	return &Analyzer{
		mono:     mono,
		rate:     rate,
		duration: duration,
		source:   path,
	}, nil
}

func (a *Analyzer) Source() string {
	return a.source
}

func (a *Analyzer) Duration() time.Duration {
	return a.duration
}

// Peak returns the largest absolute sample value.
func (a *Analyzer) Peak() float64 {
	var peak float64
	for _, v := range a.mono {
		if math.Abs(v) > peak {
			peak = math.Abs(v)
		}
	}
	return peak
}

// RMS returns the root-mean-square level per window.
func (a *Analyzer) RMS(windowSize time.Duration) []float64 {
	samples := a.mono
	windowLength := int(float64(a.rate) * windowSize.Seconds())
	if windowLength < 1 {
		windowLength = 1
	}
	var rms []float64
	for i := 0; i < len(samples); i += windowLength {
		end := i + windowLength
		if end > len(samples) {
			end = len(samples)
		}
		rms = append(rms, calculateRMS(samples[i:end]))
	}
	return rms
}

func calculateRMS(samples []float64) float64 {
	var squareSum float64
	for _, sample := range samples {
		squareSum += sample * sample
	}
	return math.Sqrt(squareSum / float64(len(samples)))
}

// PlotWave renders a min/max resampled waveform to a JPEG.
func (a *Analyzer) PlotWave(name string) ([]byte, error) {
	window := 50 * time.Millisecond
	windowLength := int(float64(a.rate) * window.Seconds())
	var resampled []float64
	for i := 0; i < len(a.mono); i += windowLength {
		end := i + windowLength
		if end > len(a.mono) {
			end = len(a.mono)
		}
		var min, max float64
		for _, v := range a.mono[i:end] {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		resampled = append(resampled, min, max)
	}

	p := plot.New()
	p.Y.Min = -1
	p.Y.Max = 1
	p.Title.Text = fmt.Sprintf("%s %s", name, a.duration)
	p.X.Label.Text = "time"
	p.Y.Label.Text = "amplitude"

	pts := make(plotter.XYs, len(resampled))
	for i, v := range resampled {
		pts[i].X = float64(i) * window.Seconds() / 2
		pts[i].Y = v
	}
	l, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("sound: couldn't create line plotter: %w", err)
	}
	l.LineStyle.Width = vg.Points(1)
	p.Add(l)

	c, err := p.WriterTo(4*vg.Inch, 4*vg.Inch, "jpeg")
	if err != nil {
		return nil, fmt.Errorf("sound: couldn't create plot: %w", err)
	}
	var buf bytes.Buffer
	if _, err := c.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("sound: couldn't write plot: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeWAV parses a PCM16 RIFF/WAVE file, averaging channels to mono.
func decodeWAV(b []byte) ([]float64, int, error) {
	if len(b) < 44 || string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("sound: not a RIFF/WAVE file")
	}
	var channels, rate, bits int
	var data []byte
	offset := 12
	for offset+8 <= len(b) {
		id := string(b[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(b[offset+4 : offset+8]))
		body := b[offset+8:]
		if size > len(body) {
			size = len(body)
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, fmt.Errorf("sound: short fmt chunk")
			}
			if format := binary.LittleEndian.Uint16(body[0:2]); format != 1 {
				return nil, 0, fmt.Errorf("sound: unsupported wav format %d", format)
			}
			channels = int(binary.LittleEndian.Uint16(body[2:4]))
			rate = int(binary.LittleEndian.Uint32(body[4:8]))
			bits = int(binary.LittleEndian.Uint16(body[14:16]))
		case "data":
			data = body[:size]
		}
		offset += 8 + size
		if size%2 == 1 {
			offset++
		}
	}
	if channels == 0 || rate == 0 || data == nil {
		return nil, 0, fmt.Errorf("sound: missing fmt or data chunk")
	}
	if bits != 16 {
		return nil, 0, fmt.Errorf("sound: unsupported bit depth %d", bits)
	}
	frame := channels * 2
	mono := make([]float64, 0, len(data)/frame)
	for i := 0; i+frame <= len(data); i += frame {
		var sum float64
		for c := 0; c < channels; c++ {
			sample := int16(binary.LittleEndian.Uint16(data[i+c*2 : i+c*2+2]))
			sum += float64(sample) / 32768.0
		}
		mono = append(mono, sum/float64(channels))
	}
	return mono, rate, nil
}

// decodeMP3 decodes an MP3 rendition, averaging the stereo pair to mono.
func decodeMP3(b []byte) ([]float64, int, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(b))
	if err != nil {
		return nil, 0, fmt.Errorf("sound: couldn't decode mp3: %w", err)
	}
	var stereo [2][]float64
	buf := make([]byte, 2) // 2 bytes per sample for 16-bit audio
	var i int
	for {
		_, err := decoder.Read(buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("sound: couldn't read sample: %w", err)
		}
		sample := int16(buf[0]) | int16(buf[1])<<8
		stereo[i%2] = append(stereo[i%2], float64(sample)/32768.0)
		i++
	}
	mono := make([]float64, 0, len(stereo[0]))
	for i, left := range stereo[0] {
		right := left
		if i < len(stereo[1]) {
			right = stereo[1][i]
		}
		mono = append(mono, (left+right)/2.0)
	}
	return mono, decoder.SampleRate(), nil
}
