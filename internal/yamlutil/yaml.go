// Package yamlutil keeps goccy/go-yaml behind the three calls the config
// loader and the CLI need. Decoding is always strict and size-limited.
package yamlutil

import (
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
)

// MaxInputSize limits YAML input to 1 MiB.
var MaxInputSize int64 = 1 << 20

var (
	ErrEmptyInput     = errors.New("yamlutil: empty input")
	ErrNilDestination = errors.New("yamlutil: nil destination pointer")
	ErrInputTooLarge  = errors.New("yamlutil: input exceeds maximum size")
)

// Decode parses data into v, rejecting keys v does not declare.
// Fields absent from data keep the values v already holds, so callers
// can decode on top of defaults.
func Decode(data []byte, v any) error {
	if len(data) == 0 {
		return ErrEmptyInput
	}
	if int64(len(data)) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	}
	if v == nil {
		return ErrNilDestination
	}

	if err := yaml.UnmarshalWithOptions(data, v, yaml.Strict()); err != nil {
		// FormatError points at the offending line of the source.
		return fmt.Errorf("yamlutil: %s", yaml.FormatError(err, false, true))
	}
	return nil
}

// DecodeReader reads at most MaxInputSize bytes from r and decodes them.
func DecodeReader(r io.Reader, v any) error {
	data, err := io.ReadAll(io.LimitReader(r, MaxInputSize+1))
	if err != nil {
		return fmt.Errorf("yamlutil: reading input: %w", err)
	}
	return Decode(data, v)
}

// Encode renders v as YAML with two-space indentation.
func Encode(v any) ([]byte, error) {
	out, err := yaml.MarshalWithOptions(v, yaml.Indent(2))
	if err != nil {
		return nil, fmt.Errorf("yamlutil: %w", err)
	}
	return out, nil
}
