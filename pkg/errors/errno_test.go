package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/grpc/codes"
)

func TestMakeCode(t *testing.T) {
	tests := []struct {
		service  int
		category int
		sequence int
		expected int
	}{
		{0, 0, 0, 0},
		{0, 1, 1, 1001},
		{20, 1, 1, 2001001},
		{20, 13, 2, 2013002},
		{90, 7, 1, 9007001},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_%d_%d", tt.service, tt.category, tt.sequence), func(t *testing.T) {
			got := MakeCode(tt.service, tt.category, tt.sequence)
			if got != tt.expected {
				t.Errorf("MakeCode(%d, %d, %d) = %d, want %d",
					tt.service, tt.category, tt.sequence, got, tt.expected)
			}
			s, c, q := ParseCode(got)
			if s != tt.service || c != tt.category || q != tt.sequence {
				t.Errorf("ParseCode(%d) = (%d, %d, %d)", got, s, c, q)
			}
		})
	}
}

func TestErrnoError(t *testing.T) {
	expected := "errno 1001: Invalid parameter"
	if got := ErrInvalidParam.Error(); got != expected {
		t.Errorf("Error() = %q, want %q", got, expected)
	}

	cause := fmt.Errorf("connection refused")
	err := ErrEmbeddingFailed.WithCause(cause)
	if err.Unwrap() != cause {
		t.Error("Unwrap() should return the cause")
	}
	if err.Code != ErrEmbeddingFailed.Code {
		t.Error("WithCause should preserve the code")
	}
	if ErrEmbeddingFailed.Unwrap() != nil {
		t.Error("WithCause must not mutate the registered errno")
	}
}

func TestErrnoWithMessage(t *testing.T) {
	err := ErrInvalidQuery.WithMessagef("field %s is empty", "query")
	if err.MessageEN != "field query is empty" {
		t.Errorf("WithMessagef should set MessageEN, got %q", err.MessageEN)
	}
	if err.MessageZH != ErrInvalidQuery.MessageZH {
		t.Error("WithMessage should keep the Chinese message")
	}
	if got := err.Message("zh-CN"); got != "问题不能为空" {
		t.Errorf("Message(zh-CN) = %q", got)
	}
	if got := err.Message("en"); got != "field query is empty" {
		t.Errorf("Message(en) = %q", got)
	}
}

func TestDomainStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  *Errno
		http int
		grpc codes.Code
	}{
		{"not ready", ErrNotReady, http.StatusServiceUnavailable, codes.Unavailable},
		{"invalid query", ErrInvalidQuery, http.StatusBadRequest, codes.InvalidArgument},
		{"embedding", ErrEmbeddingFailed, http.StatusInternalServerError, codes.Internal},
		{"retrieval", ErrRetrievalFailed, http.StatusInternalServerError, codes.Internal},
		{"generation", ErrGenerationFailed, http.StatusInternalServerError, codes.Internal},
		{"translation", ErrTranslationFailed, http.StatusInternalServerError, codes.Internal},
		{"partial ingest", ErrPartialIngest, http.StatusInternalServerError, codes.Internal},
		{"conversation", ErrConversationNotFound, http.StatusNotFound, codes.NotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.HTTPStatus(); got != tt.http {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.http)
			}
			if got := tt.err.GRPCStatus(); got != tt.grpc {
				t.Errorf("GRPCStatus() = %v, want %v", got, tt.grpc)
			}
			if s, _, _ := ParseCode(tt.err.Code); s != ServiceCourseMind {
				t.Errorf("service of %d = %d, want %d", tt.err.Code, s, ServiceCourseMind)
			}
		})
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil) != nil {
		t.Error("FromError(nil) should be nil")
	}

	wrapped := fmt.Errorf("retrieve: %w", ErrRetrievalFailed.WithCause(fmt.Errorf("timeout")))
	if got := FromError(wrapped); got.Code != ErrRetrievalFailed.Code {
		t.Errorf("FromError should find errno in chain, got %d", got.Code)
	}
	if !IsCode(wrapped, ErrRetrievalFailed.Code) {
		t.Error("IsCode should unwrap")
	}
	if GetCode(fmt.Errorf("plain")) != -1 {
		t.Error("GetCode(plain) should be -1")
	}

	plain := FromError(fmt.Errorf("boom"))
	if plain.Code != ErrInternal.Code {
		t.Errorf("plain error should map to ErrInternal, got %d", plain.Code)
	}
}

func TestErrnoIs(t *testing.T) {
	err := fmt.Errorf("ask: %w", ErrGenerationFailed.WithCause(fmt.Errorf("503")))
	if !stderrors.Is(err, ErrGenerationFailed) {
		t.Error("errors.Is should match by code")
	}
	if stderrors.Is(err, ErrEmbeddingFailed) {
		t.Error("errors.Is should not match a different code")
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Register should panic on duplicate code")
		}
	}()
	Register(&Errno{Code: ErrNotReady.Code, MessageEN: "dup"})
}

func TestLookup(t *testing.T) {
	e, ok := Lookup(ErrPartialIngest.Code)
	if !ok || e != ErrPartialIngest {
		t.Error("Lookup should return the registered errno")
	}
	if _, ok := GetAllRegistered()[ErrNotReady.Code]; !ok {
		t.Error("GetAllRegistered should include ErrNotReady")
	}
}

