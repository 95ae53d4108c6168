package yamlutil_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/alnah/go-md2hatena/internal/yamlutil"
)

type settings struct {
	Name    string `yaml:"name"`
	Retries int    `yaml:"retries"`
	Nested  struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"nested"`
}

// ---------------------------------------------------------------------------
// TestDecode - Strict decoding on top of existing values
// ---------------------------------------------------------------------------

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		wantErr error
		errText string
		check   func(t *testing.T, s *settings)
	}{
		{
			name: "all fields",
			data: "name: blog\nretries: 3\nnested:\n  enabled: true\n",
			check: func(t *testing.T, s *settings) {
				if s.Name != "blog" || s.Retries != 3 || !s.Nested.Enabled {
					t.Errorf("decoded = %+v", s)
				}
			},
		},
		{
			name: "absent fields keep defaults",
			data: "retries: 5\n",
			check: func(t *testing.T, s *settings) {
				if s.Name != "default" {
					t.Errorf("Name = %q, want %q", s.Name, "default")
				}
				if s.Retries != 5 {
					t.Errorf("Retries = %d, want 5", s.Retries)
				}
			},
		},
		{
			name:    "empty input",
			data:    "",
			wantErr: yamlutil.ErrEmptyInput,
		},
		{
			name:    "unknown field rejected",
			data:    "name: x\ncolour: red\n",
			errText: "colour",
		},
		{
			name:    "wrong type",
			data:    "retries: many\n",
			errText: "yamlutil:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := &settings{Name: "default"}
			err := yamlutil.Decode([]byte(tt.data), s)

			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Decode() error = %v, want %v", err, tt.wantErr)
				}
			case tt.errText != "":
				if err == nil {
					t.Fatal("Decode() error = nil, want error")
				}
				if !strings.Contains(err.Error(), tt.errText) {
					t.Errorf("error %q does not mention %q", err, tt.errText)
				}
			default:
				if err != nil {
					t.Fatalf("Decode() error = %v", err)
				}
				tt.check(t, s)
			}
		})
	}
}

func TestDecode_NilDestination(t *testing.T) {
	t.Parallel()

	if err := yamlutil.Decode([]byte("a: 1"), nil); !errors.Is(err, yamlutil.ErrNilDestination) {
		t.Errorf("Decode() error = %v, want ErrNilDestination", err)
	}
}

func TestDecode_TooLarge(t *testing.T) {
	t.Parallel()

	data := []byte("name: " + strings.Repeat("x", int(yamlutil.MaxInputSize)))
	if err := yamlutil.Decode(data, &settings{}); !errors.Is(err, yamlutil.ErrInputTooLarge) {
		t.Errorf("Decode() error = %v, want ErrInputTooLarge", err)
	}
}

// ---------------------------------------------------------------------------
// TestDecodeReader - Bounded reads
// ---------------------------------------------------------------------------

func TestDecodeReader(t *testing.T) {
	t.Parallel()

	var s settings
	if err := yamlutil.DecodeReader(strings.NewReader("name: reader\n"), &s); err != nil {
		t.Fatalf("DecodeReader() error = %v", err)
	}
	if s.Name != "reader" {
		t.Errorf("Name = %q, want %q", s.Name, "reader")
	}
}

func TestDecodeReader_TooLarge(t *testing.T) {
	t.Parallel()

	r := strings.NewReader("name: " + strings.Repeat("y", int(yamlutil.MaxInputSize)))
	if err := yamlutil.DecodeReader(r, &settings{}); !errors.Is(err, yamlutil.ErrInputTooLarge) {
		t.Errorf("DecodeReader() error = %v, want ErrInputTooLarge", err)
	}
}

// ---------------------------------------------------------------------------
// TestEncode - Output decodes back strictly
// ---------------------------------------------------------------------------

func TestEncode(t *testing.T) {
	t.Parallel()

	in := settings{Name: "blog", Retries: 2}
	in.Nested.Enabled = true

	out, err := yamlutil.Encode(in)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !strings.Contains(string(out), "nested:\n  enabled: true") {
		t.Errorf("Encode() = %q, want two-space nesting", out)
	}

	var back settings
	if err := yamlutil.Decode(out, &back); err != nil {
		t.Fatalf("Decode(Encode()) error = %v", err)
	}
	if back != in {
		t.Errorf("decoded = %+v, want %+v", back, in)
	}
}
