// Package course models the video catalog and the word-level transcripts
// produced by the external transcription step.
package course

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kart-io/coursemind/pkg/utils/json"
)

// Video is one catalog entry.
type Video struct {
	Number        int    `json:"number" yaml:"number"`
	VideoID       string `json:"video_id" yaml:"video_id"`
	Title         string `json:"title" yaml:"title"`
	URL           string `json:"url" yaml:"url"`
	AudioFilename string `json:"audio_filename" yaml:"audio_filename"`
}

// BaseName returns the audio filename without its extension; transcripts
// are stored as <BaseName>.json.
func (v Video) BaseName() string {
	return strings.TrimSuffix(v.AudioFilename, filepath.Ext(v.AudioFilename))
}

// Catalog is the ordered list of videos; its order is the ingestion order.
type Catalog []Video

// LoadCatalog reads a catalog from a .json, .yaml or .yml file.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var c Catalog
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &c)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &c)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks that every entry can be ingested and cited.
func (c Catalog) Validate() error {
	for i, v := range c {
		switch {
		case v.Title == "":
			return fmt.Errorf("catalog entry %d: title is required", i)
		case v.URL == "":
			return fmt.Errorf("catalog entry %d (%s): url is required", i, v.Title)
		case v.AudioFilename == "":
			return fmt.Errorf("catalog entry %d (%s): audio_filename is required", i, v.Title)
		}
	}
	return nil
}
