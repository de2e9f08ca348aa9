package problem

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Format names a document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
}

// Load reads and validates a problem document. The name defaults to the file
// name without its extension.
func Load(path string) (*Problem, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open problem file: %w", err)
	}
	defer f.Close()

	p, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	log.Debug().
		Str("path", path).
		Str("format", string(format)).
		Int("alternatives", len(p.Matrix)).
		Int("criteria", len(p.Criteria)).
		Msg("Loaded problem")
	return p, nil
}

// Decode parses a document in the given format and validates it.
func Decode(r io.Reader, format Format) (*Problem, error) {
	var p *Problem
	var err error

	switch format {
	case FormatYAML:
		p = &Problem{}
		err = yaml.NewDecoder(r).Decode(p)
	case FormatJSON:
		var data []byte
		if data, err = io.ReadAll(r); err == nil {
			p = &Problem{}
			err = sonic.Unmarshal(data, p)
		}
	case FormatXLSX:
		p, err = decodeXLSX(r)
	default:
		return nil, fmt.Errorf("%q: %w", format, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, format, err)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Encode writes the document in the given format.
func (p *Problem) Encode(w io.Writer, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return err
		}
		return enc.Close()
	case FormatJSON:
		data, err := sonic.ConfigStd.MarshalIndent(p, "", "  ")
		if err != nil {
			return err
		}
		_, err = w.Write(append(data, '\n'))
		return err
	case FormatXLSX:
		return p.encodeXLSX(w)
	}
	return fmt.Errorf("%q: %w", format, ErrUnsupportedFormat)
}

// Save writes the document to path, choosing the format from the extension.
func (p *Problem) Save(path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create problem file: %w", err)
	}
	if err := p.Encode(f, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
