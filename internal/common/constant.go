// Package common contains shared constants and sentinel errors used across
// homeshare components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// ContentSubtype is the gRPC content-subtype both sides use to select the
// JSON wire codec.
const ContentSubtype = "json"
