// Package api implements the HTTP surface of Pool Watch Core.
//
// This package provides:
//   - POST /check-user: resolve a user by email, return their controllers and issue a session token
//   - GET /refresh-data: re-read the controllers of the session's user
//   - POST /validate-session and POST /logout: session lifecycle
//   - GET /health, GET /metrics and GET /chlorine-estimate
//   - Middleware stack (request ID, logging, recovery, CORS, body limit, rate limit)
//
// # Sessions
//
// Tokens are opaque values issued by the session store. Clients send them in
// the Authorization header, either as "Bearer <token>" or as the bare token.
// Validation never extends a session.
//
// # Errors
//
// Error responses use the body {"detail": "<message>"}. Session failures are
// 401; configuration and upstream failures are 500. Unknown users are not an
// error: check-user answers 200 with exists=false.
//
// # Data access
//
// Every request that reads controller data acquires its own connection from
// the configured datasource and releases it before the response is written.
package api
