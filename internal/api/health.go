package api

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"messenger/infrastructure"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping() error
}

// HealthChecker mirrors store reachability into the gRPC health service,
// which is also served over grpc-web and plain HTTP.
type HealthChecker struct {
	server *health.Server
	store  Pinger
	logger zerolog.Logger
}

func NewHealthChecker(store Pinger, logger zerolog.Logger) *HealthChecker {
	return &HealthChecker{
		server: health.NewServer(),
		store:  store,
		logger: logger.With().Str("component", "health").Logger(),
	}
}

// Check pings the store once and updates the serving status.
func (h *HealthChecker) Check() bool {
	status := healthpb.HealthCheckResponse_SERVING
	err := h.store.Ping()
	if err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		h.logger.Warn().Err(err).Msg("store unreachable")
	}
	h.server.SetServingStatus("", status)
	return err == nil
}

// Run checks every interval until ctx is cancelled.
func (h *HealthChecker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	h.Check()
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			h.Check()
		}
	}
}

func (h *HealthChecker) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.server)
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.Check() {
		infrastructure.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// LoggingInterceptor logs each unary gRPC call and maps domain errors onto
// gRPC status codes.
func LoggingInterceptor(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(logger.WithContext(ctx), req)
		err = infrastructure.GRPCError(err)
		logger.Info().
			Str("method", info.FullMethod).
			Dur("latency", time.Since(start)).
			Err(err).
			Msg("grpc call")
		return resp, err
	}
}
