package grpc_server

import (
	"context"
	"net"
	"path"
	"runtime/debug"
	"strconv"
	"time"

	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/recovery"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	applog "gitlab.faza.io/quote-project/draft-quote-service/infrastructure/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

const ServiceName string = "draft-quote-service"

type Server struct {
	address       string
	port          uint16
	logger        applog.Logger
	health        *health.Server
	serverMetrics *grpc_prometheus.ServerMetrics
	grpcServer    *grpc.Server
}

func NewServer(address string, port uint16, registerer prometheus.Registerer, logger applog.Logger) *Server {
	server := &Server{
		address:       address,
		port:          port,
		logger:        logger,
		health:        health.NewServer(),
		serverMetrics: grpc_prometheus.NewServerMetrics(),
	}

	opts := []grpc_recovery.Option{
		grpc_recovery.WithRecoveryHandler(server.recoveryHandler),
	}

	uIntOpt := grpc.UnaryInterceptor(grpc_middleware.ChainUnaryServer(
		server.serverMetrics.UnaryServerInterceptor(),
		grpc_recovery.UnaryServerInterceptor(opts...),
		unaryLogger(logger),
	))

	sIntOpt := grpc.StreamInterceptor(grpc_middleware.ChainStreamServer(
		server.serverMetrics.StreamServerInterceptor(),
		grpc_recovery.StreamServerInterceptor(opts...),
	))

	// handling time histogram for grpc APIs
	server.serverMetrics.EnableHandlingTimeHistogram()
	if registerer != nil {
		registerer.MustRegister(server.serverMetrics)
	}

	server.grpcServer = grpc.NewServer(uIntOpt, sIntOpt)
	grpc_health_v1.RegisterHealthServer(server.grpcServer, server.health)
	server.serverMetrics.InitializeMetrics(server.grpcServer)
	server.SetServing(true)
	return server
}

// SetServing flips the health status of the whole server and of the draft quote service.
func (server *Server) SetServing(serving bool) {
	servingStatus := grpc_health_v1.HealthCheckResponse_SERVING
	if !serving {
		servingStatus = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	server.health.SetServingStatus("", servingStatus)
	server.health.SetServingStatus(ServiceName, servingStatus)
}

func (server *Server) Start() error {
	port := strconv.Itoa(int(server.port))
	lis, err := net.Listen("tcp", server.address+":"+port)
	if err != nil {
		server.logger.Error("Failed to listen to TCP on port", "fn", "Start", "port", port, "error", err)
		return errors.Wrap(err, "grpc listen failed")
	}
	server.logger.Info("GRPC server started", "fn", "Start", "address", server.address, "port", port)
	return server.Serve(lis)
}

func (server *Server) Serve(lis net.Listener) error {
	if err := server.grpcServer.Serve(lis); err != nil {
		server.logger.Error("GRPC server serve failed", "fn", "Serve", "error", err)
		return errors.Wrap(err, "grpc serve failed")
	}
	return nil
}

func (server *Server) Stop() {
	server.SetServing(false)
	server.health.Shutdown()
	server.grpcServer.GracefulStop()
}

func (server *Server) recoveryHandler(p interface{}) (err error) {
	server.logger.Error("rpc panic recovered", "fn", "recoveryHandler",
		"panic", p, "stacktrace", string(debug.Stack()))
	return status.Errorf(codes.Internal, "panic triggered: %v", p)
}

func unaryLogger(log applog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		startTime := time.Now()
		resp, err = handler(ctx, req)
		dur := time.Since(startTime)
		log.FromContext(ctx).With(
			"took_sec", dur,
			"grpc.Method", path.Base(info.FullMethod),
			"grpc.Service", path.Dir(info.FullMethod)[1:],
			"grpc.Code", status.Code(err).String(),
		).Debug("finished unary call")
		return
	}
}
