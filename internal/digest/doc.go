// Package digest turns raw payloads into persisted digest records.
//
// The Service hashes a payload with the configured Hasher, optionally
// archives the payload in a content-addressed BlobStore, saves a Record, and
// announces the result through a Publisher. Every collaborator is an
// interface so the HTTP API and the CLI can share one pipeline with memory,
// filesystem, GCS, Postgres and Pub/Sub backends.
package digest
