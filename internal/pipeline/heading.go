package pipeline

import (
	"errors"
	"fmt"
)

// Valid HTML heading levels.
const (
	MinHeadingLevel = 1
	MaxHeadingLevel = 6
)

// ErrInvalidHeadingDepth indicates a heading minimum outside 1-6.
var ErrInvalidHeadingDepth = errors.New("invalid heading depth")

// HeadingDepth shifts parsed heading levels so the shallowest heading
// renders at a configured minimum. Blog templates usually own <h1> and <h2>,
// so a note's "#" often needs to become <h3>.
//
// The zero value is the identity transform.
type HeadingDepth struct {
	floor int
}

// NewHeadingDepth returns a policy mapping level 1 to floor.
func NewHeadingDepth(floor int) (HeadingDepth, error) {
	if floor < MinHeadingLevel || floor > MaxHeadingLevel {
		return HeadingDepth{}, fmt.Errorf("%w: %d (must be %d-%d)",
			ErrInvalidHeadingDepth, floor, MinHeadingLevel, MaxHeadingLevel)
	}
	return HeadingDepth{floor: floor}, nil
}

// Min returns the output level of a level-1 heading.
func (h HeadingDepth) Min() int {
	if h.floor == 0 {
		return MinHeadingLevel
	}
	return h.floor
}

// Apply maps a parsed level to its output level, saturating at 6.
func (h HeadingDepth) Apply(level int) int {
	return clampLevel(h.Min() + level - 1)
}

func clampLevel(level int) int {
	return max(MinHeadingLevel, min(MaxHeadingLevel, level))
}
