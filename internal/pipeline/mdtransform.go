package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/adrg/frontmatter"
)

// ErrFrontMatter indicates the note's front matter could not be decoded.
var ErrFrontMatter = errors.New("invalid front matter")

var crlfOrCR = regexp.MustCompile(`\r\n?`)

// FrontMatter holds the note metadata HackMD keeps in YAML front matter.
type FrontMatter struct {
	Title       string
	Tags        []string
	Description string
}

// Note is a preprocessed note: its metadata and the markdown body to convert.
type Note struct {
	Meta FrontMatter
	Body string
}

type frontMatterEnvelope struct {
	Title       string `yaml:"title"`
	Tags        any    `yaml:"tags"`
	Description string `yaml:"description"`
}

// Preprocess prepares raw note text for the two conversion passes.
func Preprocess(content string) (Note, error) {
	content = normalizeLineEndings(content)

	meta, body, err := splitFrontMatter(content)
	if err != nil {
		return Note{}, err
	}

	return Note{Meta: meta, Body: body}, nil
}

// normalizeLineEndings converts \r\n and \r to \n.
func normalizeLineEndings(content string) string {
	return crlfOrCR.ReplaceAllString(content, "\n")
}

// splitFrontMatter removes a leading YAML front matter block.
// A note without front matter is returned unchanged.
func splitFrontMatter(content string) (FrontMatter, string, error) {
	if !hasFrontMatter(content) {
		return FrontMatter{}, content, nil
	}

	var env frontMatterEnvelope
	body, err := frontmatter.Parse(strings.NewReader(content), &env)
	if err != nil {
		return FrontMatter{}, "", fmt.Errorf("%w: %v", ErrFrontMatter, err)
	}

	return FrontMatter{
		Title:       env.Title,
		Tags:        normalizeTags(env.Tags),
		Description: env.Description,
	}, string(bytes.TrimLeft(body, "\n")), nil
}

// hasFrontMatter reports whether content opens with a closed "---" block.
// A lone leading thematic break is not front matter.
func hasFrontMatter(content string) bool {
	rest, ok := strings.CutPrefix(content, "---\n")
	if !ok {
		return false
	}
	return strings.HasPrefix(rest, "---\n") ||
		strings.Contains(rest, "\n---\n") ||
		strings.HasSuffix(rest, "\n---")
}

// normalizeTags accepts both HackMD's "tags: a, b" and a YAML list.
func normalizeTags(v any) []string {
	var raw []string
	switch t := v.(type) {
	case string:
		raw = strings.Split(t, ",")
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	}

	tags := make([]string, 0, len(raw))
	for _, tag := range raw {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
