package scene

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Document is the on-disk description of a scene: timeline settings plus
// objects with a rest transform and optional keyframes.
type Document struct {
	Name         string           `yaml:"name" toml:"name" json:"name"`
	FPS          float64          `yaml:"fps" toml:"fps" json:"fps"`
	FrameStart   int              `yaml:"frame_start" toml:"frame_start" json:"frame_start"`
	FrameEnd     int              `yaml:"frame_end" toml:"frame_end" json:"frame_end"`
	FrameCurrent *int             `yaml:"frame_current" toml:"frame_current" json:"frame_current"`
	Objects      []ObjectDocument `yaml:"objects" toml:"objects" json:"objects"`
}

type ObjectDocument struct {
	Name       string             `yaml:"name" toml:"name" json:"name"`
	Location   []float64          `yaml:"location" toml:"location" json:"location"`
	Rotation   []float64          `yaml:"rotation" toml:"rotation" json:"rotation"`
	Dimensions []float64          `yaml:"dimensions" toml:"dimensions" json:"dimensions"`
	Keyframes  []KeyframeDocument `yaml:"keyframes" toml:"keyframes" json:"keyframes"`
}

type KeyframeDocument struct {
	Frame    int       `yaml:"frame" toml:"frame" json:"frame"`
	Location []float64 `yaml:"location" toml:"location" json:"location"`
	Rotation []float64 `yaml:"rotation" toml:"rotation" json:"rotation"`
}

// Format selects the decoder used by Parse.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath infers the document format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported scene file extension %q", filepath.Ext(path))
	}
}

// Load reads and builds the scene stored at path.
func Load(path string) (*Scene, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene file: %w", err)
	}
	doc, err := Parse(data, format)
	if err != nil {
		return nil, err
	}
	return New(doc)
}

func Parse(data []byte, format Format) (*Document, error) {
	var doc Document
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parse scene yaml: %w", err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &doc)
		if err != nil {
			return nil, fmt.Errorf("parse scene toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("parse scene toml: unknown key %q", undecoded[0].String())
		}
	default:
		return nil, fmt.Errorf("unsupported scene format %q", format)
	}
	return &doc, nil
}
