package transcode

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-estilo/algorithms/common"
	"github.com/RyanBlaney/sonido-estilo/logging"
)

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	// TargetSampleRate resamples every clip to this rate. Zero keeps the
	// source rate.
	TargetSampleRate int           `json:"target_sample_rate" yaml:"target_sample_rate"`
	MaxDuration      time.Duration `json:"max_duration" yaml:"max_duration"`
	FFmpegPath       string        `json:"ffmpeg_path" yaml:"ffmpeg_path"`
	FFprobePath      string        `json:"ffprobe_path" yaml:"ffprobe_path"`
	Timeout          time.Duration `json:"timeout" yaml:"timeout"` // per ffmpeg invocation

	// DisableFFmpeg restricts decoding to native WAV
	DisableFFmpeg bool `json:"disable_ffmpeg" yaml:"disable_ffmpeg"`
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		TargetSampleRate: 16000,
		MaxDuration:      0, // no limit
		FFmpegPath:       "ffmpeg",
		FFprobePath:      "ffprobe",
		Timeout:          30 * time.Second,
	}
}

// Decoder loads clips as mono waveforms. WAV files are decoded natively;
// anything else goes through ffmpeg.
type Decoder struct {
	config *DecoderConfig
	logger logging.Logger
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{
		config: config,
		logger: logging.WithFields(logging.Fields{
			"component": "audio_decoder",
		}),
	}
}

// DecodeFile decodes an audio file into a mono waveform at the target rate
func (d *Decoder) DecodeFile(ctx context.Context, filename string) (*AudioData, error) {
	logger := d.logger.WithFields(logging.Fields{
		"function": "DecodeFile",
		"filename": filename,
	})

	if _, err := os.Stat(filename); err != nil {
		return nil, fmt.Errorf("audio file not found: %w", err)
	}

	if strings.EqualFold(filepath.Ext(filename), ".wav") {
		audio, err := LoadWAV(filename)
		if err == nil {
			logger.Debug("Decoded wav natively", logging.Fields{
				"sample_rate": audio.SampleRate,
				"samples":     len(audio.PCM),
			})
			return d.finish(audio)
		}
		if d.config.DisableFFmpeg {
			return nil, err
		}
		logger.Debug("Native wav decode failed, falling back to ffmpeg", logging.Fields{
			"reason": err.Error(),
		})
	} else if d.config.DisableFFmpeg {
		return nil, fmt.Errorf("cannot decode %s without ffmpeg: %w", filename, errors.ErrUnsupported)
	}

	metadata, err := d.probeAudioFile(ctx, filename)
	if err != nil {
		logger.Error(err, "Failed to probe audio file")
		return nil, err
	}

	logger.Debug("Audio metadata detected", logging.Fields{
		"input_sample_rate": metadata.SampleRate,
		"input_channels":    metadata.Channels,
		"input_codec":       metadata.Codec,
		"input_duration":    metadata.Duration,
	})

	return d.decodeFileWithFFmpeg(ctx, filename, metadata)
}

// DecodeReader decodes audio from a reader. WAV streams are decoded
// natively, everything else is piped through ffmpeg.
func (d *Decoder) DecodeReader(ctx context.Context, reader io.Reader) (*AudioData, error) {
	logger := d.logger.WithFields(logging.Fields{
		"function": "DecodeReader",
	})

	br := bufio.NewReader(reader)
	if magic, err := br.Peek(4); err == nil && string(magic) == "RIFF" {
		audio, err := DecodeWAV(br)
		if err != nil {
			return nil, err
		}
		return d.finish(audio)
	}

	if d.config.DisableFFmpeg {
		return nil, fmt.Errorf("stream is not wav and ffmpeg is disabled: %w", errors.ErrUnsupported)
	}

	data, err := io.ReadAll(br)
	if err != nil {
		logger.Error(err, "Failed to read data from reader")
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty audio stream: %w", common.ErrEmptyInput)
	}

	return d.decodeBytesWithFFmpeg(ctx, data)
}

// finish applies the duration limit and resamples to the target rate
func (d *Decoder) finish(audio *AudioData) (*AudioData, error) {
	if d.config.MaxDuration > 0 {
		limit := int(d.config.MaxDuration.Seconds() * float64(audio.SampleRate))
		if limit > 0 && limit < len(audio.PCM) {
			metadata := audio.Metadata
			audio = NewAudioData(audio.PCM[:limit], audio.SampleRate)
			audio.Metadata = metadata
		}
	}

	if d.config.TargetSampleRate > 0 && audio.SampleRate != d.config.TargetSampleRate {
		return ResampleAudio(audio, d.config.TargetSampleRate)
	}
	return audio, nil
}

// probeAudioFile uses ffprobe to get audio information from a file
func (d *Decoder) probeAudioFile(ctx context.Context, filename string) (*AudioMetadata, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "a:0",
		filename,
	}

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	output, err := exec.CommandContext(ctx, d.config.FFprobePath, args...).Output()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return nil, fmt.Errorf("ffprobe failed: %w, stderr: %s", err, string(exitError.Stderr))
		}
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	metadata, err := parseFFprobeOutput(output)
	if err != nil {
		return nil, err
	}
	metadata.Path = filename
	return metadata, nil
}

// parseFFprobeOutput parses ffprobe JSON to extract audio metadata
func parseFFprobeOutput(jsonData []byte) (*AudioMetadata, error) {
	var probe struct {
		Streams []struct {
			CodecType  string `json:"codec_type"`
			CodecName  string `json:"codec_name"`
			SampleRate string `json:"sample_rate"`
			Channels   int    `json:"channels"`
			Duration   string `json:"duration"`
			BitRate    string `json:"bit_rate"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	if len(probe.Streams) == 0 {
		return nil, fmt.Errorf("no audio streams found")
	}

	stream := probe.Streams[0]
	if stream.CodecType != "audio" {
		return nil, fmt.Errorf("stream is not audio type: %s", stream.CodecType)
	}

	sampleRate, err := strconv.Atoi(stream.SampleRate)
	if err != nil || sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %q", stream.SampleRate)
	}

	if stream.Channels <= 0 || stream.Channels > 8 {
		return nil, fmt.Errorf("invalid channel count: %d", stream.Channels)
	}

	// duration and bitrate are informational
	duration, _ := strconv.ParseFloat(stream.Duration, 64)
	bitrate, _ := strconv.Atoi(stream.BitRate)

	return &AudioMetadata{
		Format:     "ffmpeg",
		Codec:      stream.CodecName,
		SampleRate: sampleRate,
		Channels:   stream.Channels,
		Bitrate:    bitrate,
		Duration:   duration,
	}, nil
}

// decodeFileWithFFmpeg performs the actual audio decoding from a file
func (d *Decoder) decodeFileWithFFmpeg(ctx context.Context, filename string, metadata *AudioMetadata) (*AudioData, error) {
	outputRate := d.outputSampleRate(metadata.SampleRate)

	args := append([]string{"-i", filename}, d.buildFFmpegArgs(outputRate)...)
	args = append(args, "pipe:1")

	output, err := d.runFFmpeg(ctx, args, nil)
	if err != nil {
		return nil, err
	}

	audio, err := d.processFFmpegOutput(output, outputRate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	audio.Metadata = metadata
	return audio, nil
}

// decodeBytesWithFFmpeg decodes an in-memory clip piped through stdin
func (d *Decoder) decodeBytesWithFFmpeg(ctx context.Context, data []byte) (*AudioData, error) {
	outputRate := d.outputSampleRate(0)
	if outputRate == 0 {
		return nil, fmt.Errorf("a target sample rate is required to decode non-wav streams")
	}

	args := append([]string{"-i", "pipe:0"}, d.buildFFmpegArgs(outputRate)...)
	args = append(args, "pipe:1")

	output, err := d.runFFmpeg(ctx, args, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	audio, err := d.processFFmpegOutput(output, outputRate)
	if err != nil {
		return nil, err
	}
	audio.Metadata = &AudioMetadata{Format: "ffmpeg"}
	return audio, nil
}

func (d *Decoder) runFFmpeg(ctx context.Context, args []string, stdin io.Reader) ([]byte, error) {
	logger := d.logger.WithFields(logging.Fields{
		"function": "runFFmpeg",
	})

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, d.config.FFmpegPath, args...)
	cmd.Stdin = stdin

	logger.Debug("Running ffmpeg command", logging.Fields{
		"args": strings.Join(args, " "),
	})

	output, err := cmd.Output()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			logger.Error(err, "Ffmpeg decode failed", logging.Fields{
				"stderr": string(exitError.Stderr),
			})
		}
		return nil, fmt.Errorf("ffmpeg decode failed: %w", err)
	}
	return output, nil
}

// buildFFmpegArgs builds mono float64 little-endian output arguments
func (d *Decoder) buildFFmpegArgs(outputRate int) []string {
	args := []string{
		"-f", "f64le",
		"-ac", "1",
		"-ar", strconv.Itoa(outputRate),
	}

	if d.config.MaxDuration > 0 {
		args = append(args, "-t", fmt.Sprintf("%.2f", d.config.MaxDuration.Seconds()))
	}

	return append(args, "-v", "error")
}

// processFFmpegOutput turns raw ffmpeg output into a waveform
func (d *Decoder) processFFmpegOutput(output []byte, sampleRate int) (*AudioData, error) {
	samples := bytesToFloat64(output)
	if len(samples) == 0 {
		return nil, fmt.Errorf("no audio samples decoded")
	}

	audio := NewAudioData(samples, sampleRate)

	d.logger.Debug("FFmpeg decode completed successfully", logging.Fields{
		"function":        "processFFmpegOutput",
		"output_samples":  len(samples),
		"sample_rate":     sampleRate,
		"output_duration": audio.Duration.Seconds(),
	})

	return audio, nil
}

func (d *Decoder) outputSampleRate(sourceRate int) int {
	if d.config.TargetSampleRate > 0 {
		return d.config.TargetSampleRate
	}
	return sourceRate
}

func (d *Decoder) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.config.Timeout > 0 {
		return context.WithTimeout(ctx, d.config.Timeout)
	}
	return context.WithCancel(ctx)
}

// bytesToFloat64 converts raw float64 bytes to []float64
func bytesToFloat64(data []byte) []float64 {
	if len(data)%8 != 0 {
		data = data[:len(data)-(len(data)%8)]
	}

	if len(data) == 0 {
		return nil
	}

	sampleCount := len(data) / 8
	samples := make([]float64, sampleCount)

	for i := range sampleCount {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		samples[i] = math.Float64frombits(bits)
	}

	return samples
}

// ValidateConfig validates the decoder configuration
func (d *Decoder) ValidateConfig() error {
	if d.config.TargetSampleRate < 0 {
		return fmt.Errorf("target sample rate must not be negative: %d", d.config.TargetSampleRate)
	}

	if d.config.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative: %v", d.config.Timeout)
	}

	return nil
}

// CheckFFmpeg reports whether the ffmpeg and ffprobe binaries run
func (d *Decoder) CheckFFmpeg(ctx context.Context) error {
	if err := exec.CommandContext(ctx, d.config.FFmpegPath, "-version").Run(); err != nil {
		return fmt.Errorf("ffmpeg not found at %s: %w", d.config.FFmpegPath, err)
	}

	if err := exec.CommandContext(ctx, d.config.FFprobePath, "-version").Run(); err != nil {
		return fmt.Errorf("ffprobe not found at %s: %w", d.config.FFprobePath, err)
	}

	return nil
}

// GetConfig returns the decoder configuration
func (d *Decoder) GetConfig() DecoderConfig {
	return *d.config
}
