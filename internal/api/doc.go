// Package api defines the homeshare.v1.Backend gRPC service shared by the
// server and the CLI: request/response messages, the service descriptor, a
// typed client stub and the JSON wire codec.
//
// Messages travel as JSON under the "json" content-subtype. The codec is
// registered with grpc's encoding registry on import, and the client stub
// requests it on every call, so neither side needs protoc-generated code.
package api
