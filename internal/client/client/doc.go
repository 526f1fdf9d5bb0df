// Package client talks to the homeshare backend.
//
// GRPCClient implements Client over gRPC with the JSON codec from package
// api. It keeps the current session, injects the access token through a
// unary interceptor and, when the server answers "token expired", refreshes
// the session once and retries the call. Rotated sessions are reported
// through OnSessionRefresh so callers can persist them.
//
// Status codes are mapped to the sentinel errors in errors.go and wrapped in
// *RemoteError, which keeps the server's message for display.
//
// InitDatabase opens the local SQLite database and applies the embedded
// migrations.
package client
