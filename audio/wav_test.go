package audio

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildWAV assembles a minimal RIFF/WAVE payload around 16-bit PCM samples.
func buildWAV(t *testing.T, sampleRate, channels int, samples []int16) []byte {
	t.Helper()
	var data bytes.Buffer
	for _, s := range samples {
		binary.Write(&data, binary.LittleEndian, s)
	}

	var fmtChunk bytes.Buffer
	binary.Write(&fmtChunk, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&fmtChunk, binary.LittleEndian, uint16(channels))
	binary.Write(&fmtChunk, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&fmtChunk, binary.LittleEndian, uint32(sampleRate*channels*2)) // byte rate
	binary.Write(&fmtChunk, binary.LittleEndian, uint16(channels*2))            // block align
	binary.Write(&fmtChunk, binary.LittleEndian, uint16(16))                    // bits per sample

	var out bytes.Buffer
	out.WriteString("RIFF")
	binary.Write(&out, binary.LittleEndian, uint32(4+8+fmtChunk.Len()+8+data.Len()))
	out.WriteString("WAVE")
	out.WriteString("fmt ")
	binary.Write(&out, binary.LittleEndian, uint32(fmtChunk.Len()))
	out.Write(fmtChunk.Bytes())
	out.WriteString("data")
	binary.Write(&out, binary.LittleEndian, uint32(data.Len()))
	out.Write(data.Bytes())
	return out.Bytes()
}

func TestParseWAV(t *testing.T) {
	samples := []int16{0, 100, -100, 32000}
	payload := buildWAV(t, 24000, 1, samples)

	wav, err := ParseWAV(payload)
	require.NoError(t, err)
	assert.Equal(t, 24000, wav.SampleRate)
	assert.Equal(t, 1, wav.Channels)
	assert.Equal(t, samples, wav.Samples)
}

func TestParseWAV_Rejects(t *testing.T) {
	_, err := ParseWAV([]byte("not a wav"))
	assert.Error(t, err)

	_, err = ParseWAV([]byte("RIFF\x00\x00\x00\x00WAVE"))
	assert.Error(t, err)
}

func TestToStereo48k_Upsamples(t *testing.T) {
	// 24kHz mono doubles in length and duplicates to both channels.
	payload := buildWAV(t, 24000, 1, []int16{1000, 2000, 3000, 4000})
	wav, err := ParseWAV(payload)
	require.NoError(t, err)

	pcm := wav.ToStereo48k()
	require.Len(t, pcm, 16) // 4 samples * 2 (rate) * 2 (channels)

	// First output frame is the first input sample on both channels.
	assert.Equal(t, int16(1000), pcm[0])
	assert.Equal(t, int16(1000), pcm[1])
	// Interpolated midpoint between 1000 and 2000.
	assert.Equal(t, int16(1500), pcm[2])
	assert.Equal(t, int16(1500), pcm[3])
}

func TestToStereo48k_DownmixesStereo(t *testing.T) {
	// 48kHz stereo input stays the same length; channels average then split.
	payload := buildWAV(t, 48000, 2, []int16{1000, 3000, 2000, 4000})
	wav, err := ParseWAV(payload)
	require.NoError(t, err)

	pcm := wav.ToStereo48k()
	require.Len(t, pcm, 4)
	assert.Equal(t, int16(2000), pcm[0]) // (1000+3000)/2
	assert.Equal(t, int16(2000), pcm[1])
}
