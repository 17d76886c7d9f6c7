// Package api hosts the HTTP server, middleware, and REST handlers for the
// digest service. Notable routes:
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - POST /v1/digests to hash a raw request body and persist the record.
//   - GET /v1/digests/{id} to fetch a stored record.
//   - POST /v1/digests/verify?expected=<hex> to compare a body against a digest.
package api
