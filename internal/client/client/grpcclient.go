package client

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"path"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dmitrijs2005/duet/internal/client/session"
	"github.com/dmitrijs2005/duet/internal/common"
	"github.com/dmitrijs2005/duet/internal/gateway"
	"github.com/dmitrijs2005/duet/internal/netx"
	"github.com/dmitrijs2005/duet/internal/rpc"
)

type GRPCClient struct {
	endpointURL string
	timeout     time.Duration
	conn        *grpc.ClientConn
	client      rpc.GatewayClient
	httpClient  *http.Client

	mu          sync.RWMutex
	accessToken string
}

var _ Client = (*GRPCClient)(nil)

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if t := s.token(); t != "" && !rpc.PublicMethods[method] {
		ctx = withAccessToken(ctx, t)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewDuetClient connects lazily to endpointURL. timeout bounds each call;
// zero means no bound beyond the caller's context.
func NewDuetClient(endpointURL string, timeout time.Duration) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, timeout: timeout, httpClient: &http.Client{}}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {
	conn, err := grpc.NewClient(s.endpointURL, grpc.WithTransportCredentials(insecure.NewCredentials()), grpc.WithUnaryInterceptor(s.accessTokenInterceptor))
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = rpc.NewGatewayClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

type call func(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)

// invoke encodes req, runs fn and decodes the reply into Resp.
func invoke[Resp any](ctx context.Context, s *GRPCClient, fn call, req any) (Resp, error) {
	var zero Resp

	in, err := rpc.Encode(req)
	if err != nil {
		return zero, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	out, err := fn(ctx, in)
	if err != nil {
		return zero, s.mapError(err)
	}
	return rpc.Decode[Resp](out)
}

func (s *GRPCClient) Login(ctx context.Context, name, pin string) (session.Session, error) {
	resp, err := invoke[rpc.LoginResponse](ctx, s, s.client.Login, rpc.LoginRequest{Name: name, Pin: pin})
	if err != nil {
		return session.Session{}, err
	}

	s.mu.Lock()
	s.accessToken = resp.AccessToken
	s.mu.Unlock()

	return session.Session{User: resp.Name, Partner: resp.Partner, Token: resp.AccessToken}, nil
}

// Logout forgets the access token.
func (s *GRPCClient) Logout() {
	s.mu.Lock()
	s.accessToken = ""
	s.mu.Unlock()
}

func (s *GRPCClient) ChangePin(ctx context.Context, oldPin, newPin, confirmPin string) error {
	_, err := invoke[struct{}](ctx, s, s.client.ChangePin, rpc.ChangePinRequest{OldPin: oldPin, NewPin: newPin, ConfirmPin: confirmPin})
	return err
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := invoke[rpc.PingResponse](ctx, s, s.client.Ping, struct{}{})
	if err != nil {
		return err
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) Query(ctx context.Context, c gateway.Collection, q gateway.Query) ([]gateway.Record, error) {
	resp, err := invoke[rpc.QueryResponse](ctx, s, s.client.Query, rpc.FromQuery(c, q))
	if err != nil {
		return nil, err
	}

	out := make([]gateway.Record, 0, len(resp.Records))
	for _, r := range resp.Records {
		rec, err := r.ToRecord()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *GRPCClient) Insert(ctx context.Context, c gateway.Collection, fields map[string]any) (gateway.Record, error) {
	resp, err := invoke[rpc.InsertResponse](ctx, s, s.client.Insert, rpc.InsertRequest{Collection: string(c), Fields: fields})
	if err != nil {
		return gateway.Record{}, err
	}
	return resp.Record.ToRecord()
}

func (s *GRPCClient) DeleteByID(ctx context.Context, c gateway.Collection, id string) error {
	_, err := invoke[struct{}](ctx, s, s.client.Delete, rpc.DeleteRequest{Collection: string(c), ID: id})
	return err
}

// UploadBlob asks the server for a presigned URL, PUTs data there and
// returns the public reference.
func (s *GRPCClient) UploadBlob(ctx context.Context, b gateway.Bucket, filename string, data []byte) (string, error) {
	resp, err := invoke[rpc.PresignUploadResponse](ctx, s, s.client.PresignUpload, rpc.PresignUploadRequest{Bucket: string(b), Filename: filename})
	if err != nil {
		return "", err
	}

	if err := netx.UploadToPresignedURL(ctx, s.httpClient, resp.UploadURL, mime.TypeByExtension(path.Ext(filename)), data); err != nil {
		return "", err
	}
	return resp.PublicURL, nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", common.ErrValidation, st.Message())
	case codes.NotFound:
		return common.ErrorNotFound
	case codes.ResourceExhausted:
		return common.ErrTooManyAttempts
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
