// Package handlers provides the HTTP and gRPC servers for the organization
// admin API, bridging the transport layer and the service layer.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/aymens/orgadmin/internal/orgadmin/metrics"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

const (
	healthPath  = "/healthz"
	metricsPath = "/metrics"
)

// Server holds references to both a gRPC server and an HTTP server.
// The gRPC server exposes the standard health service which the HTTP
// gateway reports on /healthz.
type Server struct {
	grpcServer   *grpc.Server
	httpServer   *http.Server
	health       *health.Server
	healthConn   *grpc.ClientConn
	logger       *zap.Logger
	grpcEndpoint string
	httpEndpoint string
}

// NewServer constructs a Server with separate endpoints for gRPC and HTTP.
func NewServer(
	grpcPort int,
	httpPort int,
	logger *zap.Logger,
	grpcOpts ...grpc.ServerOption,
) *Server {
	s := &Server{
		grpcServer:   grpc.NewServer(grpcOpts...),
		httpServer:   &http.Server{ReadHeaderTimeout: 10 * time.Second},
		health:       health.NewServer(),
		logger:       logger,
		grpcEndpoint: fmt.Sprintf(":%d", grpcPort),
		httpEndpoint: fmt.Sprintf(":%d", httpPort),
	}
	grpc_health_v1.RegisterHealthServer(s.grpcServer, s.health)
	return s
}

// RegisterHTTPGateway builds the REST mux for h and wraps it with the
// request id, access log, metrics and tracing middleware. Metrics are
// labelled by the matched route pattern.
func (s *Server) RegisterHTTPGateway(h *Handler, dialOpts []grpc.DialOption) error {
	conn, err := grpc.NewClient(s.grpcEndpoint, dialOpts...)
	if err != nil {
		return fmt.Errorf("failed to create health client: %w", err)
	}
	s.healthConn = conn

	mux := runtime.NewServeMux(
		runtime.WithHealthzEndpoint(grpc_health_v1.NewHealthClient(conn)),
	)
	if err := h.Register(mux); err != nil {
		return err
	}
	if err := mux.HandlePath(http.MethodGet, metricsPath, func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		setRoute(r, metricsPath)
		metrics.Handler().ServeHTTP(w, r)
	}); err != nil {
		return err
	}

	var handler http.Handler = otelhttp.NewHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The gateway serves the health endpoint itself.
		if r.Method == http.MethodGet && r.URL.Path == healthPath {
			setRoute(r, healthPath)
		}
		mux.ServeHTTP(w, r)
	}), "orgadmin")
	handler = metrics.HTTPMetricsMiddleware(handler, routeLabel)
	handler = matchedRoute(handler)
	handler = accessLog(s.logger.Named("http"), handler)
	handler = requestID(handler)

	s.httpServer.Handler = handler
	s.httpServer.Addr = s.httpEndpoint
	return nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start runs the gRPC and HTTP servers concurrently, returning on the first error.
func (s *Server) Start() error {
	var wg sync.WaitGroup
	wg.Add(2)
	errChan := make(chan error, 2)

	go func() {
		defer wg.Done()
		s.logger.Info("Starting gRPC server", zap.String("endpoint", s.grpcEndpoint))
		lis, err := net.Listen("tcp", s.grpcEndpoint)
		if err != nil {
			errChan <- fmt.Errorf("gRPC listen error: %w", err)
			return
		}
		s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
		if err := s.grpcServer.Serve(lis); err != nil {
			errChan <- fmt.Errorf("gRPC serve error: %w", err)
		}
	}()

	go func() {
		defer wg.Done()
		s.logger.Info("Starting HTTP server", zap.String("endpoint", s.httpEndpoint))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP serve error: %w", err)
		}
	}()

	go func() {
		wg.Wait()
		close(errChan)
	}()

	for err := range errChan {
		if err != nil {
			return err
		}
	}
	return nil
}

// Stop gracefully shuts down both gRPC and HTTP servers.
func (s *Server) Stop() {
	s.logger.Info("Shutting down servers...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.health.Shutdown()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
	}
	s.grpcServer.GracefulStop()
	if s.healthConn != nil {
		_ = s.healthConn.Close()
	}

	s.logger.Info("Servers stopped")
}
