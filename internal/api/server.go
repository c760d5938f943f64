package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/improbable-eng/grpc-web/go/grpcweb"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"messenger/config"
	"messenger/internal/block"
	"messenger/internal/channel"
	"messenger/internal/conversation"
	"messenger/internal/message"
	"messenger/internal/profile"
	"messenger/internal/verification"
)

// Handlers bundles the JSON handlers of every feature.
type Handlers struct {
	Profiles      *profile.JSONHandler
	Blocks        *block.JSONHandler
	Conversations *conversation.JSONHandler
	Channels      *channel.JSONHandler
	Messages      *message.JSONHandler
	Verification  *verification.JSONHandler
}

type Server struct {
	router  *mux.Router
	grpc    *grpc.Server
	grpcWeb *grpcweb.WrappedGrpcServer
	health  *HealthChecker
	limiter *RateLimiter
}

func NewServer(cfg *config.Config, logger zerolog.Logger, health *HealthChecker, h *Handlers) *Server {
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(LoggingInterceptor(logger)))
	health.Register(grpcServer)
	reflection.Register(grpcServer)

	s := &Server{
		router: mux.NewRouter(),
		grpc:   grpcServer,
		grpcWeb: grpcweb.WrapServer(grpcServer,
			grpcweb.WithOriginFunc(func(string) bool { return true }),
		),
		health:  health,
		limiter: NewRateLimiter(cfg.RateLimitRPS),
	}
	s.setupRoutes(cfg, logger, h)
	return s
}

func (s *Server) setupRoutes(cfg *config.Config, logger zerolog.Logger, h *Handlers) {
	s.router.Use(Logger(logger)...)
	s.router.Use(Metrics)

	s.router.Handle("/health", s.health).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Group for authenticated routes
	authRoute := s.router.PathPrefix("/api/v1").Subrouter()
	authRoute.Use(AuthMiddleware(cfg.JWTSecret))
	authRoute.Use(s.limiter.Middleware)

	profile.SetupJSONRoutes(authRoute, h.Profiles)
	block.SetupJSONRoutes(authRoute, h.Blocks)
	conversation.SetupJSONRoutes(authRoute, h.Conversations)
	channel.SetupJSONRoutes(authRoute, h.Channels)
	message.SetupJSONRoutes(authRoute, h.Messages)
	verification.SetupJSONRoutes(authRoute, h.Verification)
}

// ServeHTTP sends grpc-web traffic to the gRPC server and everything else to
// the JSON router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.grpcWeb.IsGrpcWebRequest(r) || s.grpcWeb.IsAcceptableGrpcCorsRequest(r) {
		s.grpcWeb.ServeHTTP(w, r)
		return
	}
	s.router.ServeHTTP(w, r)
}

func (s *Server) GRPC() *grpc.Server { return s.grpc }

func (s *Server) Health() *HealthChecker { return s.health }

func (s *Server) RateLimiter() *RateLimiter { return s.limiter }
