// Package http provides the HTTP transport used by loadflow executions.
//
// It wraps the standard library's http package with additional features:
//   - Configurable timeouts
//   - Redirect handling
//   - Connection pooling tuned for load generation
//   - Response handling and body reading with round-trip timing
package http
