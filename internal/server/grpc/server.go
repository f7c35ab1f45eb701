package grpc

import (
	"context"
	"net"

	"google.golang.org/grpc"

	"github.com/dmitrijs2005/duet/internal/gateway"
	"github.com/dmitrijs2005/duet/internal/logging"
	"github.com/dmitrijs2005/duet/internal/rpc"
	"github.com/dmitrijs2005/duet/internal/server/services"
)

type profileSvc interface {
	Login(ctx context.Context, name, pin string) (*services.Session, error)
	ChangePin(ctx context.Context, caller services.Caller, oldPin, newPin, confirmPin string) error
}

type recordSvc interface {
	List(ctx context.Context, caller services.Caller, c gateway.Collection, q gateway.Query) ([]gateway.Record, error)
	Insert(ctx context.Context, caller services.Caller, c gateway.Collection, fields map[string]any) (gateway.Record, error)
	Delete(ctx context.Context, caller services.Caller, c gateway.Collection, id string) error
}

type blobSvc interface {
	PresignUpload(ctx context.Context, b gateway.Bucket, filename string) (*services.Upload, error)
}

// GRPCServer serves duet.Gateway.
type GRPCServer struct {
	address   string
	profiles  profileSvc
	records   recordSvc
	blobs     blobSvc
	metrics   *Metrics
	logger    logging.Logger
	jwtSecret []byte
}

var _ rpc.GatewayServer = (*GRPCServer)(nil)

func NewGRPCServer(a string, l logging.Logger, ps profileSvc, rs recordSvc, bs blobSvc, m *Metrics, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		profiles:  ps,
		records:   rs,
		blobs:     bs,
		metrics:   m,
		jwtSecret: []byte(secretKey),
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	interceptors := []grpc.UnaryServerInterceptor{}
	if s.metrics != nil {
		interceptors = append(interceptors, s.metrics.UnaryInterceptor)
	}
	interceptors = append(interceptors, s.loggingInterceptor, s.accessTokenInterceptor)

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))
	rpc.RegisterGatewayServer(srv, s)
	return srv
}

// Run listens on the configured address until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
