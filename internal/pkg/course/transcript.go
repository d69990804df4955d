package course

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kart-io/coursemind/pkg/utils/json"
)

// WordUnit is one recognized word with its start/end offsets in seconds.
type WordUnit struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Transcript is the output of the transcription step for one video.
type Transcript struct {
	FullTranscript string     `json:"full_transcript"`
	WordUnits      []WordUnit `json:"word_units"`
}

// transcriptFile accepts both the current keys and the older
// language-suffixed ones (full_transcript_hindi / word_chunks_hindi).
type transcriptFile struct {
	FullTranscript      string     `json:"full_transcript"`
	WordUnits           []WordUnit `json:"word_units"`
	FullTranscriptHindi string     `json:"full_transcript_hindi"`
	WordChunksHindi     []WordUnit `json:"word_chunks_hindi"`
}

// TranscriptPath returns <dir>/<audio base name>.json.
func TranscriptPath(dir string, v Video) string {
	return filepath.Join(dir, v.BaseName()+".json")
}

// LoadTranscript reads a transcript file. A missing file is reported with
// an error satisfying errors.Is(err, fs.ErrNotExist).
func LoadTranscript(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTranscript(data)
}

// ParseTranscript decodes transcript JSON.
func ParseTranscript(data []byte) (*Transcript, error) {
	var f transcriptFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse transcript: %w", err)
	}

	t := &Transcript{FullTranscript: f.FullTranscript, WordUnits: f.WordUnits}
	if t.FullTranscript == "" {
		t.FullTranscript = f.FullTranscriptHindi
	}
	if len(t.WordUnits) == 0 {
		t.WordUnits = f.WordChunksHindi
	}
	return t, nil
}
