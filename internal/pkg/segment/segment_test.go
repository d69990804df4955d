package segment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/coursemind/internal/pkg/course"
)

// words builds one word per second starting at t=start.
func words(start float64, texts ...string) []course.WordUnit {
	out := make([]course.WordUnit, len(texts))
	for i, t := range texts {
		s := start + float64(i)
		out[i] = course.WordUnit{Text: t, Start: s, End: s + 0.8}
	}
	return out
}

func TestNewPolicy(t *testing.T) {
	p, err := NewPolicy(PolicyTime, 0, "")
	require.NoError(t, err)
	assert.Equal(t, TimeBounded{MaxDuration: DefaultMaxDuration}, p)

	p, err = NewPolicy(PolicySentence, 0, "")
	require.NoError(t, err)
	assert.Equal(t, SentenceBounded{Terminators: DefaultTerminators}, p)
	assert.Equal(t, PolicySentence, p.Name())

	_, err = NewPolicy("paragraph", 0, "")
	assert.Error(t, err)
}

func TestEmptyInput(t *testing.T) {
	for _, p := range []Policy{TimeBounded{MaxDuration: time.Second}, SentenceBounded{Terminators: "."}} {
		assert.Empty(t, Segment(nil, p), p.Name())
		assert.Empty(t, Segment([]course.WordUnit{{Text: "  ", Start: 1, End: 2}}, p), p.Name())
	}
}

func TestTimeBounded(t *testing.T) {
	// 10 words at t=0..9, 3s limit: a word starting more than 3s after the
	// chunk start opens a new chunk.
	in := words(0, "a", "b", "c", "d", "e", "f", "g", "h", "i", "j")
	got := Segment(in, TimeBounded{MaxDuration: 3 * time.Second})

	require.Equal(t, []Chunk{
		{Start: 0, End: 3.8, Text: "a b c d"},
		{Start: 4, End: 7.8, Text: "e f g h"},
		{Start: 8, End: 9.8, Text: "i j"},
	}, got)

	for i, c := range got {
		assert.LessOrEqual(t, c.Start, c.End)
		assert.NotEmpty(t, c.Text)
		if i > 0 {
			assert.GreaterOrEqual(t, c.Start, got[i-1].End)
		}
	}
}

func TestTimeBoundedDefault45s(t *testing.T) {
	in := []course.WordUnit{
		{Text: "one", Start: 0, End: 1},
		{Text: "two", Start: 45, End: 46},
		{Text: "three", Start: 45.5, End: 47},
	}
	got := Segment(in, TimeBounded{MaxDuration: DefaultMaxDuration})
	require.Len(t, got, 2)
	assert.Equal(t, "one two", got[0].Text)
	assert.Equal(t, Chunk{Start: 45.5, End: 47, Text: "three"}, got[1])
}

func TestSentenceBounded(t *testing.T) {
	in := words(10, "यह", "पहला", "वाक्य", "है।", "क्या", "सही?", "अंत", "बिना", "विराम")
	got := Segment(in, SentenceBounded{Terminators: DefaultTerminators})

	require.Equal(t, []Chunk{
		{Start: 10, End: 13.8, Text: "यह पहला वाक्य है।"},
		{Start: 14, End: 15.8, Text: "क्या सही?"},
		{Start: 16, End: 18.8, Text: "अंत बिना विराम"},
	}, got)
}

func TestSentenceBoundedSkipsBlankWords(t *testing.T) {
	in := []course.WordUnit{
		{Text: " hi ", Start: 0, End: 1},
		{Text: "", Start: 1, End: 2},
		{Text: "there.", Start: 2, End: 3},
		{Text: " ", Start: 3, End: 4},
	}
	got := Segment(in, SentenceBounded{Terminators: "."})
	assert.Equal(t, []Chunk{{Start: 0, End: 3, Text: "hi there."}}, got)
}
