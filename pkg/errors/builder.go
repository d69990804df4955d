package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// ErrnoBuilder provides a fluent API for building error codes.
//
// Example:
//
//	var ErrCourseMissing = errors.NewBuilder(errors.ServiceCourseMind, errors.CategoryResource, 9).
//	    HTTP(http.StatusNotFound).
//	    GRPC(codes.NotFound).
//	    Message("Course not found", "课程不存在").
//	    MustBuild()
type ErrnoBuilder struct {
	service   int
	category  int
	sequence  int
	http      int
	grpc      codes.Code
	messageEN string
	messageZH string
}

// NewBuilder creates a new ErrnoBuilder with the given service, category, and sequence.
func NewBuilder(service, category, sequence int) *ErrnoBuilder {
	return &ErrnoBuilder{
		service:  service,
		category: category,
		sequence: sequence,
		http:     http.StatusInternalServerError,
		grpc:     codes.Internal,
	}
}

// HTTP sets the HTTP status code.
func (b *ErrnoBuilder) HTTP(status int) *ErrnoBuilder {
	b.http = status
	return b
}

// GRPC sets the gRPC code.
func (b *ErrnoBuilder) GRPC(code codes.Code) *ErrnoBuilder {
	b.grpc = code
	return b
}

// Message sets both English and Chinese messages.
func (b *ErrnoBuilder) Message(en, zh string) *ErrnoBuilder {
	b.messageEN = en
	b.messageZH = zh
	return b
}

// Build creates the Errno without registering it.
func (b *ErrnoBuilder) Build() *Errno {
	return &Errno{
		Code:      MakeCode(b.service, b.category, b.sequence),
		HTTP:      b.http,
		GRPCCode:  b.grpc,
		MessageEN: b.messageEN,
		MessageZH: b.messageZH,
	}
}

// MustBuild creates and registers the Errno. Panics on a duplicate code.
func (b *ErrnoBuilder) MustBuild() *Errno {
	return Register(b.Build())
}

// NewRequestErr quickly creates and registers a request error (HTTP 400).
func NewRequestErr(service, sequence int, en, zh string) *Errno {
	return NewBuilder(service, CategoryRequest, sequence).
		HTTP(http.StatusBadRequest).
		GRPC(codes.InvalidArgument).
		Message(en, zh).
		MustBuild()
}

// NewNotFoundErr quickly creates and registers a not found error (HTTP 404).
func NewNotFoundErr(service, sequence int, en, zh string) *Errno {
	return NewBuilder(service, CategoryResource, sequence).
		HTTP(http.StatusNotFound).
		GRPC(codes.NotFound).
		Message(en, zh).
		MustBuild()
}

// NewInternalErr quickly creates and registers an internal error (HTTP 500).
func NewInternalErr(service, sequence int, en, zh string) *Errno {
	return NewBuilder(service, CategoryInternal, sequence).
		Message(en, zh).
		MustBuild()
}

// NewUnavailableErr quickly creates and registers an unavailable error (HTTP 503).
func NewUnavailableErr(service, sequence int, en, zh string) *Errno {
	return NewBuilder(service, CategoryNetwork, sequence).
		HTTP(http.StatusServiceUnavailable).
		GRPC(codes.Unavailable).
		Message(en, zh).
		MustBuild()
}
