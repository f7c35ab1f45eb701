package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dmitrijs2005/duet/internal/common"
	"github.com/dmitrijs2005/duet/internal/gateway"
	"github.com/dmitrijs2005/duet/internal/rpc"
	"github.com/dmitrijs2005/duet/internal/server/services"
)

// toStatus maps service errors onto gRPC codes. Internal details are not
// sent to the client.
func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, common.ErrTooManyAttempts):
		return status.Error(codes.ResourceExhausted, "too many attempts")
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.PermissionDenied, err.Error())
	}
	return status.Error(codes.Internal, "internal error")
}

func decode[T any](in *structpb.Struct) (T, error) {
	v, err := rpc.Decode[T](in)
	if err != nil {
		return v, status.Error(codes.InvalidArgument, err.Error())
	}
	return v, nil
}

func encode(v any) (*structpb.Struct, error) {
	out, err := rpc.Encode(v)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

func caller(ctx context.Context) (services.Caller, error) {
	c, ok := CallerFromContext(ctx)
	if !ok {
		return c, status.Error(codes.Unauthenticated, "missing token")
	}
	return c, nil
}

func (s *GRPCServer) Login(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decode[rpc.LoginRequest](in)
	if err != nil {
		return nil, err
	}

	sess, err := s.profiles.Login(ctx, req.Name, req.Pin)
	if err != nil {
		// wrong PIN is an authentication failure, not a permission one
		if errors.Is(err, common.ErrorUnauthorized) {
			return nil, status.Error(codes.Unauthenticated, "unauthorized")
		}
		return nil, toStatus(err)
	}

	s.logger.Info(ctx, "Logged in", "profile", sess.Name)
	return encode(rpc.LoginResponse{AccessToken: sess.AccessToken, Name: sess.Name, Partner: sess.Partner})
}

func (s *GRPCServer) ChangePin(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	req, err := decode[rpc.ChangePinRequest](in)
	if err != nil {
		return nil, err
	}

	if err := s.profiles.ChangePin(ctx, c, req.OldPin, req.NewPin, req.ConfirmPin); err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return nil, status.Error(codes.Unauthenticated, "wrong PIN")
		}
		return nil, toStatus(err)
	}

	s.logger.Info(ctx, "PIN changed", "profile", c.Profile)
	return &structpb.Struct{}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return encode(rpc.PingResponse{Status: "OK"})
}

func (s *GRPCServer) Query(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	req, err := decode[rpc.QueryRequest](in)
	if err != nil {
		return nil, err
	}

	recs, err := s.records.List(ctx, c, gateway.Collection(req.Collection), req.ToQuery())
	if err != nil {
		return nil, toStatus(err)
	}

	resp := rpc.QueryResponse{Records: make([]rpc.Record, 0, len(recs))}
	for _, r := range recs {
		resp.Records = append(resp.Records, rpc.FromRecord(r))
	}
	return encode(resp)
}

func (s *GRPCServer) Insert(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	req, err := decode[rpc.InsertRequest](in)
	if err != nil {
		return nil, err
	}

	rec, err := s.records.Insert(ctx, c, gateway.Collection(req.Collection), req.Fields)
	if err != nil {
		return nil, toStatus(err)
	}

	s.logger.Debug(ctx, "Record inserted", "collection", req.Collection, "id", rec.ID)
	return encode(rpc.InsertResponse{Record: rpc.FromRecord(rec)})
}

func (s *GRPCServer) Delete(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	c, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	req, err := decode[rpc.DeleteRequest](in)
	if err != nil {
		return nil, err
	}

	if err := s.records.Delete(ctx, c, gateway.Collection(req.Collection), req.ID); err != nil {
		return nil, toStatus(err)
	}

	s.logger.Debug(ctx, "Record deleted", "collection", req.Collection, "id", req.ID)
	return &structpb.Struct{}, nil
}

func (s *GRPCServer) PresignUpload(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	req, err := decode[rpc.PresignUploadRequest](in)
	if err != nil {
		return nil, err
	}

	up, err := s.blobs.PresignUpload(ctx, gateway.Bucket(req.Bucket), req.Filename)
	if err != nil {
		return nil, toStatus(err)
	}

	return encode(rpc.PresignUploadResponse{UploadURL: up.UploadURL, PublicURL: up.PublicURL})
}
