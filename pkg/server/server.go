//go:build linux

package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/filewire/filewire/internal/logger"
	"github.com/filewire/filewire/pkg/audit"
	"github.com/filewire/filewire/pkg/metrics"
	"github.com/filewire/filewire/pkg/store"
)

// Config holds the configuration a Server needs to start listening.
type Config struct {
	// ListenAddr is a "host:port" IPv4 address, e.g. ":9090".
	ListenAddr string
	// RecvBufferCap bounds each connection's receive accumulator; zero
	// selects DefaultRecvCap.
	RecvBufferCap int
}

// Server owns the readiness dispatcher's lifecycle: bind, run until
// cancelled or stopped, and tear down cleanly.
type Server struct {
	config  Config
	store   store.FileStore
	metrics metrics.ServerMetrics
	audit   *audit.Recorder

	shutdown     chan struct{}
	shutdownOnce sync.Once
	wg           sync.WaitGroup
}

// NewServer returns a Server that will serve st once Serve is called.
func NewServer(cfg Config, st store.FileStore) *Server {
	if cfg.RecvBufferCap <= 0 {
		cfg.RecvBufferCap = DefaultRecvCap
	}
	return &Server{config: cfg, store: st, shutdown: make(chan struct{})}
}

// SetMetrics installs the ServerMetrics sink the server's connections and
// dispatched requests report against. Call before Serve.
func (s *Server) SetMetrics(m metrics.ServerMetrics) {
	s.metrics = m
}

// SetAudit installs the Recorder the server's connections log dispatched
// requests to. Call before Serve.
func (s *Server) SetAudit(r *audit.Recorder) {
	s.audit = r
}

// Serve binds the listening socket and runs the reactor until ctx is
// cancelled or Stop is called. It returns nil on a clean shutdown.
func (s *Server) Serve(ctx context.Context) error {
	d, err := NewDispatcher(s.store, s.config.RecvBufferCap)
	if err != nil {
		return fmt.Errorf("create dispatcher: %w", err)
	}
	d.SetMetrics(s.metrics)
	d.SetAudit(s.audit)
	if err := d.Listen(s.config.ListenAddr); err != nil {
		d.Close()
		return fmt.Errorf("listen on %s: %w", s.config.ListenAddr, err)
	}

	logger.Info("filewire server listening", "address", s.config.ListenAddr)

	s.wg.Add(1)
	defer s.wg.Done()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stopWatch := make(chan struct{})
	go func() {
		defer close(stopWatch)
		select {
		case <-ctx.Done():
		case <-s.shutdown:
		}
		cancel()
	}()

	err = d.Run(runCtx)
	d.Close()
	<-stopWatch

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Stop requests a shutdown and blocks until Serve has returned.
func (s *Server) Stop() {
	s.shutdownOnce.Do(func() { close(s.shutdown) })
	s.wg.Wait()
}
