// Package segment groups word-level transcript units into time-addressable
// chunks. Two policies are available and selected by name from config.
package segment

import (
	"fmt"
	"strings"
	"time"

	"github.com/kart-io/coursemind/internal/pkg/course"
)

// Policy names accepted by NewPolicy.
const (
	PolicyTime     = "time"
	PolicySentence = "sentence"
)

// DefaultMaxDuration bounds a time-bounded chunk.
const DefaultMaxDuration = 45 * time.Second

// DefaultTerminators includes the Devanagari danda.
const DefaultTerminators = "।?!."

// Chunk is a contiguous run of words. Start <= End and Text is never empty.
type Chunk struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Policy splits words into chunks.
type Policy interface {
	Segment(words []course.WordUnit) []Chunk
	Name() string
}

// Segment applies policy to words.
func Segment(words []course.WordUnit, policy Policy) []Chunk {
	return policy.Segment(words)
}

// NewPolicy builds a policy by name.
func NewPolicy(name string, maxDuration time.Duration, terminators string) (Policy, error) {
	switch name {
	case PolicyTime:
		if maxDuration <= 0 {
			maxDuration = DefaultMaxDuration
		}
		return TimeBounded{MaxDuration: maxDuration}, nil
	case PolicySentence:
		if terminators == "" {
			terminators = DefaultTerminators
		}
		return SentenceBounded{Terminators: terminators}, nil
	default:
		return nil, fmt.Errorf("unknown segment policy %q", name)
	}
}

// builder accumulates words of the running chunk.
type builder struct {
	words      []string
	start, end float64
}

func (b *builder) empty() bool { return len(b.words) == 0 }

func (b *builder) add(w course.WordUnit, text string) {
	if b.empty() {
		b.start = w.Start
	}
	b.words = append(b.words, text)
	b.end = w.End
}

func (b *builder) flush(out []Chunk) []Chunk {
	if b.empty() {
		return out
	}
	out = append(out, Chunk{Start: b.start, End: b.end, Text: strings.Join(b.words, " ")})
	b.words = b.words[:0]
	return out
}

// TimeBounded closes the running chunk once the next word starts more than
// MaxDuration after the chunk's start.
type TimeBounded struct {
	MaxDuration time.Duration
}

// Name returns PolicyTime.
func (TimeBounded) Name() string { return PolicyTime }

// Segment implements Policy.
func (p TimeBounded) Segment(words []course.WordUnit) []Chunk {
	limit := p.MaxDuration.Seconds()
	var (
		out []Chunk
		b   builder
	)
	for _, w := range words {
		text := strings.TrimSpace(w.Text)
		if text == "" {
			continue
		}
		if !b.empty() && w.Start-b.start > limit {
			out = b.flush(out)
		}
		b.add(w, text)
	}
	return b.flush(out)
}

// SentenceBounded closes the running chunk after a word ending in one of
// Terminators. An unterminated tail is flushed at end of input.
type SentenceBounded struct {
	Terminators string
}

// Name returns PolicySentence.
func (SentenceBounded) Name() string { return PolicySentence }

// Segment implements Policy.
func (p SentenceBounded) Segment(words []course.WordUnit) []Chunk {
	var (
		out []Chunk
		b   builder
	)
	for _, w := range words {
		text := strings.TrimSpace(w.Text)
		if text == "" {
			continue
		}
		b.add(w, text)
		if p.terminates(text) {
			out = b.flush(out)
		}
	}
	return b.flush(out)
}

func (p SentenceBounded) terminates(text string) bool {
	for _, r := range p.Terminators {
		if strings.HasSuffix(text, string(r)) {
			return true
		}
	}
	return false
}
