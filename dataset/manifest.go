package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/RyanBlaney/sonido-estilo/logging"
	"github.com/RyanBlaney/sonido-estilo/recognition"
	"github.com/RyanBlaney/sonido-estilo/transcode"
)

// ErrInvalidManifest reports a manifest with missing columns, bad rows or
// no samples
var ErrInvalidManifest = errors.New("invalid manifest")

const (
	pathColumn       = "path"
	labelColumn      = "label"
	transcriptColumn = "transcript" // older manifests name the label column this way
)

// Sample is one manifest row
type Sample struct {
	Path     string            `json:"path"`
	Label    recognition.Label `json:"label"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Dataset is the ordered list of samples read from a manifest
type Dataset struct {
	ManifestPath string
	Samples      []Sample
}

// LabelledWaveform is a decoded sample
type LabelledWaveform struct {
	Sample
	Audio *transcode.AudioData
}

// AudioDecoder decodes one clip from disk
type AudioDecoder interface {
	DecodeFile(ctx context.Context, path string) (*transcode.AudioData, error)
}

// LoadManifest reads a CSV manifest with a path column and a label (or
// transcript) column. Extra columns become per-sample metadata. Relative
// paths resolve against audioRoot, or the manifest's directory when
// audioRoot is empty.
func LoadManifest(manifestPath, audioRoot string) (*Dataset, error) {
	f, err := os.Open(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("manifest file not found: %w", err)
	}
	defer f.Close()

	if audioRoot == "" {
		audioRoot = filepath.Dir(manifestPath)
	}

	samples, err := parseManifest(f, audioRoot)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", manifestPath, err)
	}

	logging.Debug("Manifest loaded", logging.Fields{
		"component": "dataset",
		"function":  "LoadManifest",
		"manifest":  manifestPath,
		"samples":   len(samples),
	})

	return &Dataset{ManifestPath: manifestPath, Samples: samples}, nil
}

func parseManifest(r io.Reader, audioRoot string) ([]Sample, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest is empty: %w", ErrInvalidManifest)
		}
		return nil, fmt.Errorf("failed to read manifest header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	pathIdx, ok := columns[pathColumn]
	if !ok {
		return nil, fmt.Errorf("missing %q column: %w", pathColumn, ErrInvalidManifest)
	}
	labelIdx, ok := columns[labelColumn]
	if !ok {
		labelIdx, ok = columns[transcriptColumn]
	}
	if !ok {
		return nil, fmt.Errorf("missing %q or %q column: %w", labelColumn, transcriptColumn, ErrInvalidManifest)
	}

	var samples []Sample
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %v: %w", line, err, ErrInvalidManifest)
		}

		rel := strings.TrimSpace(row[pathIdx])
		if rel == "" || filepath.Ext(rel) == "" {
			return nil, fmt.Errorf("line %d: path %q must name a file with an extension: %w", line, rel, ErrInvalidManifest)
		}

		path := rel
		if !filepath.IsAbs(path) {
			path = filepath.Join(audioRoot, path)
		}

		var metadata map[string]string
		for i, value := range row {
			if i == pathIdx || i == labelIdx {
				continue
			}
			if metadata == nil {
				metadata = make(map[string]string)
			}
			metadata[strings.TrimSpace(header[i])] = value
		}

		samples = append(samples, Sample{
			Path:     filepath.Clean(path),
			Label:    recognition.Label(row[labelIdx]),
			Metadata: metadata,
		})
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("manifest has no samples: %w", ErrInvalidManifest)
	}
	return samples, nil
}

// Len returns the number of samples
func (d *Dataset) Len() int {
	return len(d.Samples)
}

// Labels returns every sample's label in manifest order
func (d *Dataset) Labels() []recognition.Label {
	labels := make([]recognition.Label, len(d.Samples))
	for i, s := range d.Samples {
		labels[i] = s.Label
	}
	return labels
}

// Load decodes every sample in manifest order and stops at the first error
func (d *Dataset) Load(ctx context.Context, decoder AudioDecoder) ([]LabelledWaveform, error) {
	out := make([]LabelledWaveform, 0, len(d.Samples))
	for i, s := range d.Samples {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		audio, err := decoder.DecodeFile(ctx, s.Path)
		if err != nil {
			return nil, fmt.Errorf("sample %d (%s): %w", i, s.Path, err)
		}
		if err := audio.Validate(); err != nil {
			return nil, fmt.Errorf("sample %d (%s): %w", i, s.Path, err)
		}
		out = append(out, LabelledWaveform{Sample: s, Audio: audio})
	}
	return out, nil
}
