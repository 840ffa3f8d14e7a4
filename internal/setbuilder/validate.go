package setbuilder

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/claude/calilog/internal/models"
)

var (
	// ErrMalformedNumber is returned for numeric input that is not a
	// non-negative integer.
	ErrMalformedNumber = errors.New("malformed number")
	// ErrOutOfRange is returned when an index does not address an existing
	// set or exercise.
	ErrOutOfRange = errors.New("index out of range")
)

// IsValidSession reports whether a program run may leave Confirm.
func IsValidSession(session models.ProgramExecutionSession) bool {
	return strings.TrimSpace(session.Program.Name) != "" &&
		len(session.Exercises) > 0 &&
		len(session.Sets) > 0
}

// IsValidIntervalProgram reports whether an interval run may leave Confirm.
func IsValidIntervalProgram(p models.IntervalProgram, exerciseCount int) bool {
	return exerciseCount > 0 && p.WorkSeconds > 0 && p.Rounds > 0
}

// ParseNonNegative parses user-entered numeric text. Anything other than
// decimal digits is rejected so that the caller keeps its last good value.
func ParseNonNegative(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty input: %w", ErrMalformedNumber)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%q: %w", s, ErrMalformedNumber)
		}
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, ErrMalformedNumber)
	}
	return v, nil
}
