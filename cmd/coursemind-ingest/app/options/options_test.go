package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storeopts "github.com/kart-io/coursemind/pkg/options/store"
)

func TestIngestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *IngestOptions)
		wantErr string
	}{
		{name: "defaults", mutate: func(*IngestOptions) {}},
		{
			name:    "memory store",
			mutate:  func(o *IngestOptions) { o.StoreOptions.Backend = storeopts.BackendMemory },
			wantErr: "cannot persist",
		},
		{
			name:    "unknown output",
			mutate:  func(o *IngestOptions) { o.Output = "yaml" },
			wantErr: "output must be table or json",
		},
		{
			name:    "llm translator needs chat key",
			mutate:  func(o *IngestOptions) { o.TranslateOptions.Provider = "llm" },
			wantErr: "chat.api-key",
		},
		{
			name:    "bad segment policy",
			mutate:  func(o *IngestOptions) { o.IngestOptions.Segment.Policy = "paragraph" },
			wantErr: "ingest.segment.policy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewIngestOptions()
			o.TranslateOptions.ProjectID = "project"
			tt.mutate(o)
			err := o.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestIngestOptionsFlags(t *testing.T) {
	fss := NewIngestOptions().Flags()
	assert.NotNil(t, fss.FlagSets["ingest"].Lookup("ingest.workers"))
	assert.NotNil(t, fss.FlagSets["translate"].Lookup("translate.provider"))
	assert.NotNil(t, fss.FlagSets["misc"].ShorthandLookup("o"))
}
