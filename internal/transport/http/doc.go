// Package http contains the HTTP handlers for the web server: archive
// ingest, chunked protected uploads, summaries, exports and health
// checks. Handlers follow the chi Routes() convention and report
// failures as RFC 7807 problem documents.
package http
