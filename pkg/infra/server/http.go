package server

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	httpopts "github.com/kart-io/coursemind/pkg/options/server/http"
)

// HTTPServer serves a gin engine.
type HTTPServer struct {
	opts     *httpopts.Options
	engine   *gin.Engine
	server   *http.Server
	listener net.Listener
	errCh    chan error
}

// NewHTTPServer creates a gin engine without default middleware; handlers
// are applied in the given order before any route is registered.
func NewHTTPServer(opts *httpopts.Options, handlers ...gin.HandlerFunc) *HTTPServer {
	if opts == nil {
		opts = httpopts.NewOptions()
	}
	gin.SetMode(opts.Mode)

	engine := gin.New()
	// 中间件必须先于路由注册，子路由组才会继承
	engine.Use(handlers...)

	return &HTTPServer{opts: opts, engine: engine, errCh: make(chan error, 1)}
}

// Name returns the server name.
func (s *HTTPServer) Name() string { return "http" }

// Engine returns the underlying gin.Engine.
func (s *HTTPServer) Engine() *gin.Engine { return s.engine }

// Addr returns the bound address, or the configured one before Start.
func (s *HTTPServer) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.opts.Addr
}

// Err reports a failure of the serve loop after Start.
func (s *HTTPServer) Err() <-chan error { return s.errCh }

// Start binds the listener and serves in the background.
func (s *HTTPServer) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.server = &http.Server{
		Handler:      s.engine,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  s.opts.IdleTimeout,
	}

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errCh <- err
		}
	}()
	return nil
}

// Stop stops the HTTP server gracefully.
func (s *HTTPServer) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

var _ Runnable = (*HTTPServer)(nil)
