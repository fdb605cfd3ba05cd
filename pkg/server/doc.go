// Package server provides the HTTP decision API.
//
// The server owns the request-side plumbing around the evaluators:
// it resolves the named policy from the active set, reads the
// account's spending totals from the ledger for the intent's
// timestamp, runs the evaluation, and commits approved spending back
// to the ledger before answering.
//
// # Endpoints
//
//   - POST /v1/decisions: evaluate a payment intent against a policy
//   - GET  /v1/policies: list the active policy set
//   - GET  /healthz: liveness and readiness
//   - GET  /metrics: Prometheus exposition (when enabled)
//
// Every response carries an X-Request-ID header for log correlation.
package server
