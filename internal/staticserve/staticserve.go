// Package staticserve serves one content directory over HTTP on an
// OS-assigned loopback port for the duration of a single audit pass.
package staticserve

import (
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"

	"revamp/internal/saferoot"
)

const indexDocument = "index.html"

// Server is a running ephemeral file server. Obtain one with Start and
// always release it with Close.
type Server struct {
	root *saferoot.Root
	ln   net.Listener
	srv  *http.Server

	closeOnce sync.Once
	closeErr  error
}

// Start binds 127.0.0.1:0 and begins serving dir. The returned server
// is ready to accept requests when Start returns.
func Start(dir string) (*Server, error) {
	root, err := saferoot.New(dir)
	if err != nil {
		return nil, fmt.Errorf("staticserve: %w", err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("staticserve: listen: %w", err)
	}

	s := &Server{root: root, ln: ln}
	s.srv = &http.Server{Handler: http.HandlerFunc(s.handle)}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("staticserve: serve: %v", err)
		}
	}()
	return s, nil
}

// URL returns the fully qualified base URL of the server.
func (s *Server) URL() string {
	return "http://" + s.ln.Addr().String()
}

// Addr returns the bound listener address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Close stops listening and drops open connections. It is synchronous —
// no request is served after it returns — and safe to call twice.
func (s *Server) Close() error {
	if s == nil {
		return nil
	}
	s.closeOnce.Do(func() {
		s.closeErr = s.srv.Close()
	})
	return s.closeErr
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rel := strings.TrimPrefix(r.URL.Path, "/")
	if rel == "" {
		rel = indexDocument
	}

	info, err := s.root.Stat(rel)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	f, err := s.root.Open(rel)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	// ServeContent picks the content type from the extension and
	// handles range/conditional requests.
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
