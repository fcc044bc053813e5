// Package devserver is an in-memory implementation of the backend the console
// talks to. It serves the auth, user and task endpoints, issues short-lived
// HS256 JWT access tokens with longer-lived refresh tokens, and keeps all data
// in process memory.
//
// It is meant for local development and end-to-end tests, not production.
package devserver
