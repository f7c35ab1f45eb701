// Package common contains shared constants and sentinel errors used across
// duet components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// PlaceholderPrefix marks ids generated locally for records the server has
// not acknowledged yet. Canonical ids are UUIDs and never carry it.
const PlaceholderPrefix = "temp-"
