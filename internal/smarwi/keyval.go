package smarwi

import (
	"fmt"
	"strings"
)

// Pair is a single key:value entry of a wire frame.
//
// Frames are ordered; commands written to the device must preserve the
// order entries were added in, so frames are represented as a slice of
// pairs rather than a Go map.
type Pair struct {
	Key   string
	Value string
}

// DecodeKeyVal parses a newline-separated key:value frame.
//
// Each line is split at the first colon. A line without a colon makes the
// whole frame invalid (ErrMalformedFrame) - malformed frames are protocol
// violations and are never partially applied. A trailing newline is
// tolerated.
func DecodeKeyVal(text string) ([]Pair, error) {
	lines := strings.Split(text, "\n")
	pairs := make([]Pair, 0, len(lines))

	for i, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if line == "" && i == len(lines)-1 {
			break // frame ended with a newline
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			return nil, fmt.Errorf("%w: line %d has no separator", ErrMalformedFrame, i+1)
		}
		pairs = append(pairs, Pair{Key: key, Value: value})
	}

	return pairs, nil
}

// EncodeKeyVal renders pairs as a newline-separated key:value frame,
// preserving insertion order.
func EncodeKeyVal(pairs []Pair) string {
	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(p.Key)
		b.WriteByte(':')
		b.WriteString(p.Value)
	}
	return b.String()
}
