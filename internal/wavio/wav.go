// Package wavio is a minimal, dependency-free reader/writer for mono
// 16-bit PCM WAV files — the boundary format used at the HTTP upload edge
// and by test fixtures. Full-format audio decoding and resampling belong
// to the caller; this package only handles the one container format the
// pipeline's boundary needs.
package wavio

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Read parses a canonical mono 16-bit PCM WAV stream into normalized
// float64 samples in [-1, 1], returning the file's declared sample rate.
func Read(r io.Reader) (samples []float64, sampleRate int, err error) {
	var riffHeader [12]byte
	if _, err := io.ReadFull(r, riffHeader[:]); err != nil {
		return nil, 0, fmt.Errorf("wavio: read riff header: %w", err)
	}
	if string(riffHeader[0:4]) != "RIFF" || string(riffHeader[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("wavio: not a RIFF/WAVE stream")
	}

	var numChannels, bitsPerSample uint16
	var dataFound bool

	for !dataFound {
		var chunkHeader [8]byte
		if _, err := io.ReadFull(r, chunkHeader[:]); err != nil {
			return nil, 0, fmt.Errorf("wavio: read chunk header: %w", err)
		}
		chunkID := string(chunkHeader[0:4])
		chunkSize := binary.LittleEndian.Uint32(chunkHeader[4:8])

		switch chunkID {
		case "fmt ":
			fmtBody := make([]byte, chunkSize)
			if _, err := io.ReadFull(r, fmtBody); err != nil {
				return nil, 0, fmt.Errorf("wavio: read fmt chunk: %w", err)
			}
			numChannels = binary.LittleEndian.Uint16(fmtBody[2:4])
			sampleRate = int(binary.LittleEndian.Uint32(fmtBody[4:8]))
			bitsPerSample = binary.LittleEndian.Uint16(fmtBody[14:16])

		case "data":
			if bitsPerSample != 16 {
				return nil, 0, fmt.Errorf("wavio: unsupported bit depth %d (only 16-bit PCM supported)", bitsPerSample)
			}
			if numChannels == 0 {
				return nil, 0, fmt.Errorf("wavio: fmt chunk missing or malformed")
			}

			raw := make([]byte, chunkSize)
			if _, err := io.ReadFull(r, raw); err != nil {
				return nil, 0, fmt.Errorf("wavio: read data chunk: %w", err)
			}

			frameCount := len(raw) / (2 * int(numChannels))
			samples = make([]float64, frameCount)
			for i := 0; i < frameCount; i++ {
				// Downmix to mono by averaging channels.
				var sum int32
				for c := 0; c < int(numChannels); c++ {
					off := (i*int(numChannels) + c) * 2
					sum += int32(int16(binary.LittleEndian.Uint16(raw[off : off+2])))
				}
				samples[i] = float64(sum) / float64(numChannels) / 32768.0
			}
			dataFound = true

		default:
			if _, err := io.CopyN(io.Discard, r, int64(chunkSize)); err != nil {
				return nil, 0, fmt.Errorf("wavio: skip chunk %q: %w", chunkID, err)
			}
		}

		// RIFF chunks are word-aligned; skip a pad byte on odd sizes.
		if chunkSize%2 == 1 {
			if _, err := io.CopyN(io.Discard, r, 1); err != nil && err != io.EOF {
				return nil, 0, fmt.Errorf("wavio: skip pad byte: %w", err)
			}
		}
	}

	return samples, sampleRate, nil
}

// Write encodes mono float64 samples in [-1, 1] as a canonical 16-bit PCM
// WAV stream at sampleRate, clamping any out-of-range sample.
func Write(w io.Writer, samples []float64, sampleRate int) error {
	const (
		bitsPerSample = 16
		numChannels   = 1
	)
	byteRate := sampleRate * numChannels * bitsPerSample / 8
	blockAlign := uint16(numChannels * bitsPerSample / 8)
	dataSize := len(samples) * 2
	riffSize := 36 + dataSize

	if _, err := w.Write([]byte("RIFF")); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(riffSize)); err != nil {
		return err
	}
	if _, err := w.Write([]byte("WAVE")); err != nil {
		return err
	}

	if _, err := w.Write([]byte("fmt ")); err != nil {
		return err
	}
	for _, v := range []any{
		uint32(16), uint16(1), uint16(numChannels), uint32(sampleRate),
		uint32(byteRate), blockAlign, uint16(bitsPerSample),
	} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}

	if _, err := w.Write([]byte("data")); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(dataSize)); err != nil {
		return err
	}

	buf := make([]int16, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		buf[i] = int16(s * 32767)
	}
	return binary.Write(w, binary.LittleEndian, buf)
}
