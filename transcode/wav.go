package transcode

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/mjibson/go-dsp/wav"

	"github.com/RyanBlaney/sonido-estilo/algorithms/common"
)

// LoadWAV reads a WAV file into a mono waveform
func LoadWAV(path string) (*AudioData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	audio, err := DecodeWAV(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	audio.Metadata.Path = path
	return audio, nil
}

// DecodeWAV decodes 8-bit or 16-bit PCM or IEEE float WAV data. Samples are
// scaled to [-1, 1] and multi-channel audio is averaged down to mono.
func DecodeWAV(r io.Reader) (*AudioData, error) {
	w, err := wav.New(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read wav header: %w", err)
	}
	if w.SampleRate == 0 || w.NumChannels == 0 {
		return nil, fmt.Errorf("wav header has %d Hz and %d channels: %w",
			w.SampleRate, w.NumChannels, common.ErrInvalidParameter)
	}

	interleaved, codec, err := readWAVSamples(w)
	if err != nil {
		return nil, err
	}
	if len(interleaved) == 0 {
		return nil, fmt.Errorf("wav file has no samples: %w", common.ErrEmptyInput)
	}

	channels := int(w.NumChannels)
	pcm := downmix(interleaved, channels)
	if len(pcm) == 0 {
		return nil, fmt.Errorf("wav file has no complete frames: %w", common.ErrEmptyInput)
	}

	audio := NewAudioData(pcm, int(w.SampleRate))
	audio.Metadata = &AudioMetadata{
		Format:     "wav",
		Codec:      codec,
		SampleRate: int(w.SampleRate),
		Channels:   channels,
		Duration:   audio.Duration.Seconds(),
	}
	return audio, nil
}

// readWAVSamples reads the whole data chunk. go-dsp reports Samples rounded
// down to a multiple of 8, so the remainder is read one sample at a time
// until the chunk runs out. A trailing partial sample is dropped.
func readWAVSamples(w *wav.Wav) ([]float64, string, error) {
	var (
		out   []float64
		codec string
	)

	if w.Samples > 0 {
		raw, err := w.ReadSamples(w.Samples)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read wav samples: %w", err)
		}
		if out, codec, err = appendSamples(out, raw); err != nil {
			return nil, "", err
		}
	}

	for {
		raw, err := w.ReadSamples(1)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return nil, "", fmt.Errorf("failed to read wav samples: %w", err)
		}
		if out, codec, err = appendSamples(out, raw); err != nil {
			return nil, "", err
		}
	}

	return out, codec, nil
}

// appendSamples scales raw go-dsp samples to [-1, 1] and appends them to dst
func appendSamples(dst []float64, raw any) ([]float64, string, error) {
	switch samples := raw.(type) {
	case []uint8:
		for _, v := range samples {
			dst = append(dst, (float64(v)-128)/128)
		}
		return dst, "pcm_u8", nil
	case []int16:
		for _, v := range samples {
			dst = append(dst, float64(v)/32768)
		}
		return dst, "pcm_s16le", nil
	case []float32:
		for _, v := range samples {
			dst = append(dst, float64(v))
		}
		return dst, "pcm_f32le", nil
	default:
		return nil, "", fmt.Errorf("unsupported wav sample type %T", raw)
	}
}

// downmix averages interleaved frames. A trailing partial frame is dropped.
func downmix(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		return interleaved
	}

	frames := len(interleaved) / channels
	mono := make([]float64, frames)
	for i := range frames {
		sum := 0.0
		for c := range channels {
			sum += interleaved[i*channels+c]
		}
		mono[i] = sum / float64(channels)
	}
	return mono
}

// WriteWAV writes pcm as a 16-bit mono WAV stream. Samples outside [-1, 1]
// are clipped.
func WriteWAV(w io.Writer, pcm []float64, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d: %w", sampleRate, common.ErrInvalidParameter)
	}

	const (
		bitsPerSample = 16
		channels      = 1
		blockAlign    = channels * bitsPerSample / 8
	)
	dataSize := uint32(len(pcm) * blockAlign)

	bw := bufio.NewWriter(w)
	header := []any{
		[4]byte{'R', 'I', 'F', 'F'},
		36 + dataSize,
		[4]byte{'W', 'A', 'V', 'E'},
		[4]byte{'f', 'm', 't', ' '},
		uint32(16),
		uint16(1), // PCM
		uint16(channels),
		uint32(sampleRate),
		uint32(sampleRate * blockAlign),
		uint16(blockAlign),
		uint16(bitsPerSample),
		[4]byte{'d', 'a', 't', 'a'},
		dataSize,
	}
	for _, field := range header {
		if err := binary.Write(bw, binary.LittleEndian, field); err != nil {
			return fmt.Errorf("failed to write wav header: %w", err)
		}
	}

	samples := make([]int16, len(pcm))
	for i, v := range pcm {
		samples[i] = int16(math.Round(common.Clamp(v, -1, 1) * math.MaxInt16))
	}
	if err := binary.Write(bw, binary.LittleEndian, samples); err != nil {
		return fmt.Errorf("failed to write wav samples: %w", err)
	}

	return bw.Flush()
}

// SaveWAV writes pcm to path as a 16-bit mono WAV file
func SaveWAV(path string, pcm []float64, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create audio file: %w", err)
	}

	if err := WriteWAV(f, pcm, sampleRate); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
