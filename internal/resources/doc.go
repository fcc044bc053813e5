// Package resources provides typed clients for the backend's Users and Tasks
// endpoints. All calls go through an api.Client, so they share its session and
// its transparent token refresh.
package resources
