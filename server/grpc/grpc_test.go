package grpc_server

import (
	"context"
	"net"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	applog "gitlab.faza.io/quote-project/draft-quote-service/infrastructure/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func startServer(t *testing.T) (*Server, grpc_health_v1.HealthClient) {
	server := NewServer("127.0.0.1", 0, prometheus.NewRegistry(), applog.NewNopLogger())
	listener := bufconn.Listen(1024 * 1024)
	go func() {
		_ = server.Serve(listener)
	}()

	conn, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		server.grpcServer.Stop()
	})
	return server, grpc_health_v1.NewHealthClient(conn)
}

func TestHealthCheck(t *testing.T) {
	server, client := startServer(t)

	response, err := client.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	require.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, response.Status)

	server.SetServing(false)
	response, err = client.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{})
	require.NoError(t, err)
	require.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, response.Status)
}

func TestHealthCheckUnknownService(t *testing.T) {
	_, client := startServer(t)
	_, err := client.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: "order-service"})
	require.Equal(t, codes.NotFound, status.Code(err))
}

func TestRecoveryHandler(t *testing.T) {
	server := NewServer("127.0.0.1", 0, nil, applog.NewNopLogger())
	err := server.recoveryHandler("boom")
	require.Equal(t, codes.Internal, status.Code(err))
	require.Contains(t, err.Error(), "boom")
}

func TestUnaryLoggerPassesThrough(t *testing.T) {
	interceptor := unaryLogger(applog.NewNopLogger())
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	resp, err := interceptor(context.Background(), "req", info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return "resp", nil
	})
	require.NoError(t, err)
	require.Equal(t, "resp", resp)

	_, err = interceptor(context.Background(), "req", info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, status.Error(codes.Unavailable, "down")
	})
	require.Equal(t, codes.Unavailable, status.Code(err))
}
