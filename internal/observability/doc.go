// Package observability provides structured logging and Prometheus metrics
// for the orchestrator.
//
// This package implements:
//   - zap logger construction from LOG_LEVEL / LOG_FORMAT
//   - request, attempt, token and cooldown counters on a private registry
//   - the /metrics exposition handler
package observability
