// Package httpserver wraps net/http with graceful shutdown, configurable
// timeouts, and liveness/readiness handlers.
//
// Run blocks until the context is cancelled or an interrupt/TERM signal
// arrives, then drains in-flight requests within the shutdown timeout and
// runs the registered stop hooks. The trust pool manager's Shutdown is
// registered as a stop hook so tenant pools close after the last request.
package httpserver
