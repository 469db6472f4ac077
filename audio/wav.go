package audio

import (
	"encoding/binary"
	"fmt"
)

// WAV holds decoded 16-bit PCM audio.
type WAV struct {
	SampleRate int
	Channels   int
	Samples    []int16 // interleaved when Channels > 1
}

// ParseWAV decodes a RIFF/WAVE payload containing 16-bit PCM, the format the
// speech engine produces.
func ParseWAV(data []byte) (*WAV, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("audio: not a RIFF/WAVE payload")
	}

	var wav WAV
	var bitsPerSample int
	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		if body+chunkSize > len(data) {
			chunkSize = len(data) - body
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, fmt.Errorf("audio: fmt chunk too short (%d bytes)", chunkSize)
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			if format != 1 {
				return nil, fmt.Errorf("audio: unsupported WAV format %d (want PCM)", format)
			}
			wav.Channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			wav.SampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
		case "data":
			if bitsPerSample == 0 {
				return nil, fmt.Errorf("audio: data chunk before fmt chunk")
			}
			if bitsPerSample != 16 {
				return nil, fmt.Errorf("audio: unsupported bit depth %d (want 16)", bitsPerSample)
			}
			sampleCount := chunkSize / 2
			wav.Samples = make([]int16, sampleCount)
			for i := 0; i < sampleCount; i++ {
				wav.Samples[i] = int16(binary.LittleEndian.Uint16(data[body+i*2 : body+i*2+2]))
			}
		}

		// Chunks are word-aligned.
		offset = body + chunkSize
		if chunkSize%2 == 1 {
			offset++
		}
	}

	if wav.SampleRate == 0 || wav.Channels == 0 {
		return nil, fmt.Errorf("audio: missing fmt chunk")
	}
	if wav.Samples == nil {
		return nil, fmt.Errorf("audio: missing data chunk")
	}
	return &wav, nil
}

// ToStereo48k converts the decoded audio to the 48kHz interleaved stereo PCM
// that Discord voice expects, using linear interpolation for the sample-rate
// conversion.
func (w *WAV) ToStereo48k() []int16 {
	mono := w.Samples
	if w.Channels == 2 {
		mono = make([]int16, len(w.Samples)/2)
		for i := range mono {
			mono[i] = int16((int(w.Samples[i*2]) + int(w.Samples[i*2+1])) / 2)
		}
	}

	if len(mono) == 0 {
		return nil
	}

	outLen := len(mono) * SampleRate / w.SampleRate
	out := make([]int16, outLen*2)
	for i := 0; i < outLen; i++ {
		pos := float64(i) * float64(w.SampleRate) / float64(SampleRate)
		idx := int(pos)
		frac := pos - float64(idx)

		s := float64(mono[idx])
		if idx+1 < len(mono) {
			s = s*(1-frac) + float64(mono[idx+1])*frac
		}
		sample := int16(s)
		out[i*2] = sample
		out[i*2+1] = sample
	}
	return out
}
