package commands

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	safeurl "github.com/doyensec/safeurl"
	"github.com/kavinsood/stackprint/internal/config"
	"github.com/kavinsood/stackprint/stackprint"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run an HTTP API exposing the fingerprinter.

  POST /analyze  {"url": "https://example.com"}  -> report JSON
  GET  /health                                   -> {"status": "healthy"}

Targets on private, loopback and link-local addresses are refused unless
listed in server.allowed_ips, and only server.allowed_ports may be reached.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := rt.newClient(NewSafeFetcher(rt.cfg, log.Logger))
			if err != nil {
				return &exitError{code: 2, err: err}
			}
			srv := NewServer(client, log.Logger)
			return srv.ListenAndServe(cmd.Context(), rt.cfg.Server)
		},
	}
	cmd.Flags().String("addr", config.DefaultConfig().Server.Addr, "Listen address")
	return cmd
}

// NewSafeFetcher builds the fetcher used by the API. Its client refuses
// internal addresses so callers cannot use the API to reach the host's network.
func NewSafeFetcher(cfg config.Config, logger zerolog.Logger) *stackprint.Fetcher {
	opts := cfg.FetchOptions()
	builder := safeurl.GetConfigBuilder().
		SetTimeout(opts.Timeout).
		SetCheckRedirect(stackprint.RedirectPolicy(opts))
	if len(cfg.Server.AllowedPorts) > 0 {
		builder = builder.SetAllowedPorts(cfg.Server.AllowedPorts...)
	}
	if len(cfg.Server.AllowedIPs) > 0 {
		builder = builder.SetAllowedIPs(cfg.Server.AllowedIPs...)
	}
	return stackprint.NewFetcherWithClient(safeurl.Client(builder.Build()), opts, logger)
}

// Server exposes the fingerprinter over HTTP.
type Server struct {
	client *stackprint.Client
	logger zerolog.Logger
}

type analyzeRequest struct {
	URL string `json:"url"`
}

type errorResponse struct {
	URL   string `json:"url,omitempty"`
	Kind  string `json:"kind,omitempty"`
	Error string `json:"error"`
}

func NewServer(client *stackprint.Client, logger zerolog.Logger) *Server {
	return &Server{client: client, logger: logger.With().Str("component", "server").Logger()}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/analyze", s.handleAnalyze)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, cfg config.ServerConfig) error {
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", cfg.Addr).Msg("Starting stackprint server")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// writeJSONResponse writes any struct as JSON to the response writer.
func writeJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) handleError(w http.ResponseWriter, err error, statusCode int) {
	writeJSONResponse(w, statusCode, errorResponse{Error: err.Error()})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	const maxBodySize = 64 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.handleError(w, err, http.StatusBadRequest)
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		s.handleError(w, errors.New("URL is required"), http.StatusBadRequest)
		return
	}

	report, err := s.client.FingerprintURL(r.Context(), req.URL)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", req.URL).Msg("analyze failed")
		writeJSONResponse(w, stackprint.HTTPStatus(err), errorResponse{
			URL:   req.URL,
			Kind:  string(stackprint.KindOf(err)),
			Error: err.Error(),
		})
		return
	}
	writeJSONResponse(w, http.StatusOK, report)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "healthy"})
}
