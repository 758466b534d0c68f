package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mathsprint/mathsprint/pkg/api/handlers"
	"github.com/mathsprint/mathsprint/pkg/log"
)

// APIServer serves the read-only status endpoints. It only ever reads
// snapshots copied out of the coordinator and never mutates game state.
type APIServer struct {
	server *http.Server
}

// NewAPIServerOptions contains options for creating a new APIServer.
type NewAPIServerOptions struct {
	Port int
	Game handlers.StatusProvider
}

// NewAPIServer creates a new http.Server for handling API requests.
func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	r := mux.NewRouter()
	r.HandleFunc("/status", handlers.HandleStatus(opts.Game)).Methods(http.MethodGet)
	r.HandleFunc("/version", handlers.HandleVersion()).Methods(http.MethodGet)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: r,
	}
	return &APIServer{
		server: server,
	}
}

// Start starts the APIServer until the context is canceled.
func (s *APIServer) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.server.Shutdown(context.Background())
	}()

	log.Info("API server listening on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("API server closed")
			return nil
		}
		return fmt.Errorf("api server error: %v", err)
	}
	return nil
}
