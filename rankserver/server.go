package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/mdlayher/vsock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/cloudx-io/bidranking/rankapi"
)

// RankServer accepts one JSON request per connection and answers it.
type RankServer struct {
	cfg      *Config
	signer   *ProofSigner
	service  *RankingService
	metrics  *Metrics
	registry *prometheus.Registry
	logger   zerolog.Logger

	attester    EnclaveAttester
	getAttester func() (EnclaveAttester, error)
}

// NewRankServer generates the signing key and wires the ranking service.
func NewRankServer(cfg *Config, logger zerolog.Logger) (*RankServer, error) {
	signer, err := NewProofSigner()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize proof signer: %w", err)
	}

	registry := prometheus.NewRegistry()
	metrics := NewMetrics()
	if err := metrics.Register(registry); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	return &RankServer{
		cfg:         cfg,
		signer:      signer,
		service:     NewRankingService(signer, cfg.Weights, metrics, logger),
		metrics:     metrics,
		registry:    registry,
		logger:      logger,
		getAttester: getEnclaveAttester,
	}, nil
}

// Start listens on the configured network and serves until ctx is done.
func (s *RankServer) Start(ctx context.Context) error {
	if s.cfg.AttestationEnabled {
		attester, err := s.getAttester()
		if err != nil {
			return fmt.Errorf("attestation enabled but unavailable: %w", err)
		}
		s.attester = attester
		s.logger.Info().Msg("NSM attester initialized")
	}

	listener, err := s.listen()
	if err != nil {
		return err
	}

	if s.cfg.MetricsAddr != "" {
		go s.serveMetrics(ctx)
	}

	go func() {
		<-ctx.Done()
		if err := listener.Close(); err != nil {
			s.logger.Error().Err(err).Msg("failed to close listener")
		}
	}()

	return s.Serve(ctx, listener)
}

func (s *RankServer) listen() (net.Listener, error) {
	switch s.cfg.Network {
	case NetworkVsock:
		listener, err := vsock.Listen(uint32(s.cfg.Port), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create vsock listener: %w", err)
		}
		s.logger.Info().Int("port", s.cfg.Port).Msg("rank server listening on vsock")
		return listener, nil
	default:
		listener, err := net.Listen("tcp", s.cfg.Address())
		if err != nil {
			return nil, fmt.Errorf("failed to create tcp listener: %w", err)
		}
		s.logger.Info().Str("addr", listener.Addr().String()).Msg("rank server listening on tcp")
		return listener, nil
	}
}

// Serve accepts connections from listener with a bounded worker pool.
// Connections arriving while every worker is busy are closed immediately.
func (s *RankServer) Serve(ctx context.Context, listener net.Listener) error {
	semaphore := make(chan struct{}, s.cfg.MaxWorkers)
	s.logger.Info().Int("max_workers", s.cfg.MaxWorkers).Msg("worker pool initialized")

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Error().Err(err).Msg("failed to accept connection")
			continue
		}

		// Acquire worker slot - immediate rejection if pool full
		select {
		case semaphore <- struct{}{}:
			go func(c net.Conn) {
				defer func() { <-semaphore }()
				s.handleConnection(c)
			}(conn)
		default:
			s.logger.Warn().Msg("no workers available, rejecting connection")
			s.metrics.IncRejectedConnections()
			if err := conn.Close(); err != nil {
				s.logger.Error().Err(err).Msg("failed to close rejected connection")
			}
		}
	}
}

func (s *RankServer) serveMetrics(ctx context.Context) {
	srv := &http.Server{
		Addr:              s.cfg.MetricsAddr,
		Handler:           MetricsHandler(s.registry),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	s.logger.Info().Str("addr", s.cfg.MetricsAddr).Msg("metrics listener started")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error().Err(err).Msg("metrics listener failed")
	}
}

func (s *RankServer) handleConnection(conn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("panic recovered in handleConnection")
		}
		if err := conn.Close(); err != nil {
			s.logger.Error().Err(err).Msg("failed to close connection")
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))

	var raw json.RawMessage
	if err := json.NewDecoder(conn).Decode(&raw); err != nil {
		s.logger.Error().Err(err).Msg("failed to read request")
		s.writeResponse(conn, "", errorResponse("Failed to decode request: %v", err))
		return
	}

	var baseReq struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &baseReq); err != nil {
		s.logger.Error().Err(err).Msg("failed to decode base request")
		s.writeResponse(conn, "", errorResponse("Failed to decode request: %v", err))
		return
	}

	s.logger.Debug().Str("type", baseReq.Type).Msg("received request")

	s.writeResponse(conn, baseReq.Type, s.dispatch(baseReq.Type, raw))
}

func (s *RankServer) dispatch(reqType string, raw json.RawMessage) any {
	switch reqType {
	case rankapi.TypePing:
		return map[string]any{
			"type":      rankapi.TypePong,
			"message":   "rank server is healthy",
			"timestamp": time.Now().Unix(),
		}

	case rankapi.TypeKeyRequest:
		keyResp, err := HandleKeyRequest(s.attester, s.signer)
		if err != nil {
			s.logger.Error().Err(err).Msg("key request failed")
			return errorResponse("Key request failed: %v", err)
		}
		return keyResp

	case rankapi.TypeRankRequest:
		var rankReq rankapi.RankRequest
		if err := json.Unmarshal(raw, &rankReq); err != nil {
			s.logger.Error().Err(err).Msg("failed to decode rank request")
			return errorResponse("Failed to decode rank request: %v", err)
		}
		return s.service.ProcessRanking(rankReq)

	default:
		return errorResponse("Unknown request type: %s", reqType)
	}
}

func (s *RankServer) writeResponse(conn net.Conn, reqType string, response any) {
	if err := json.NewEncoder(conn).Encode(response); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
		return
	}
	s.logger.Debug().Str("type", reqType).Msg("sent response")
}

func errorResponse(format string, args ...any) rankapi.ErrorResponse {
	return rankapi.ErrorResponse{
		Type:    rankapi.TypeError,
		Message: fmt.Sprintf(format, args...),
	}
}
