package md2hatena

import (
	"errors"

	"github.com/alnah/go-md2hatena/internal/codeblock"
	"github.com/alnah/go-md2hatena/internal/pipeline"
)

// Sentinel errors for library operations.
var (
	ErrEmptyMarkdown = errors.New("markdown content cannot be empty")
	ErrNotParsed     = errors.New("no document parsed")
	ErrResolve       = errors.New("image resolution failed")
	ErrFrontMatter   = pipeline.ErrFrontMatter

	// Converter option errors.
	ErrInvalidHeadingMin  = pipeline.ErrInvalidHeadingDepth
	ErrUnknownRenderer    = codeblock.ErrUnknownKind
	ErrUnknownChromaStyle = codeblock.ErrUnknownStyle
)
