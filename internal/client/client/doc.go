// Package client talks to the duet gateway over gRPC.
//
// GRPCClient implements gateway.Gateway for the reconciling stores and adds
// Login, ChangePin and Ping. After a successful Login the access token is
// attached to every call by a unary interceptor. Blob uploads ask the server
// for a presigned URL and PUT the bytes straight to object storage.
//
// gRPC status codes are mapped to ErrUnavailable and ErrUnauthorized, or to
// the common sentinels for validation, not-found and throttling.
package client
