// Package busbridge bridges synchronous HTTP/JSON clients onto the
// platform's asynchronous NATS request/reply services.
//
// # Architecture
//
// The gateway is a thin, stateless translation layer. Clients speak plain
// HTTP and JSON; downstream AI and game services speak CBOR over NATS
// subjects. The bridge owns nothing but the conversation in flight:
//
//	┌─────────────────────────────────────┐
//	│          HTTP clients               │  JSON bodies,
//	│   (game clients, tools, curl)       │  SSE for streams
//	└──────────────────┬──────────────────┘
//	                   │ POST /v1/...
//	┌──────────────────▼──────────────────┐
//	│          gateway/http               │  route lookup, envelope,
//	│   (unary and streaming bridges)     │  codec, error mapping
//	└──────────────────┬──────────────────┘
//	                   │ request/reply, reply inbox
//	┌──────────────────▼──────────────────┐
//	│          NATS messaging             │  svc.<domain>.<component>
//	│     (shared connection, drain)      │  .v<version>.<verb>
//	└─────────────────────────────────────┘
//
// # Request Flow
//
// Unary routes publish the encoded request and await exactly one reply
// within the route's deadline. Streaming routes subscribe a private reply
// inbox first, flush, then publish; chunks flow back through a bounded
// queue and out as Server-Sent Events. The HTTP status line is held until
// the first chunk arrives, so an early domain error still maps to its
// proper status code.
//
// # Packages
//
//   - gateway: the route registry, paths to subjects and payload types
//   - gateway/http: HTTP handlers, the unary and streaming bridges
//   - codec: JSON/CBOR conversion and the stream chunk format
//   - envelope: per-request metadata derived from HTTP headers
//   - schema: typed payloads for the downstream services
//   - natsclient: the shared NATS connection and reply inboxes
//   - errors: the domain error taxonomy and HTTP status mapping
//   - config, health, metric: the usual operational surface
//
// # Design Rules
//
// The gateway never interprets domain payloads, never retries on behalf of
// clients, and never persists anything. Downstream contracts are enforced
// structurally: unknown fields are tolerated on both sides, and a reply
// the gateway cannot parse is a 500, never a mangled 200.
package busbridge
