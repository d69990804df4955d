package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type askBody struct {
	Query string `json:"query" validate:"notblank"`
	Note  string `json:"note,omitempty" validate:"omitempty,max=5"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name  string
		body  askBody
		lang  string
		field string
		msg   string
	}{
		{name: "valid", body: askBody{Query: "what is css?"}, lang: LangEN},
		{name: "empty query", body: askBody{}, lang: LangEN, field: "query", msg: "query must not be blank"},
		{name: "whitespace query", body: askBody{Query: " \t\n"}, lang: LangEN, field: "query", msg: "query must not be blank"},
		{name: "chinese message", body: askBody{Query: "  "}, lang: LangZH, field: "query", msg: "query不能为空"},
		{name: "unknown lang falls back", body: askBody{Query: ""}, lang: "fr", field: "query", msg: "query must not be blank"},
		{name: "builtin rule", body: askBody{Query: "q", Note: "too long"}, lang: LangEN, field: "note"},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.Struct(&tt.body, tt.lang)
			if tt.field == "" {
				assert.False(t, errs.HasErrors())
				assert.Empty(t, errs.Error())
				return
			}
			require.True(t, errs.HasErrors())
			assert.Equal(t, tt.field, errs.Errors[0].Field)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, errs.First())
			}
			assert.Contains(t, errs.Error(), "validation failed: ")
		})
	}
}

func TestGlobal(t *testing.T) {
	assert.Same(t, Global(), Global())
	assert.Nil(t, Struct(&askBody{Query: "ok"}, LangEN))
}
