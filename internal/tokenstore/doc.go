// Package tokenstore provides the durable slot that mirrors the console's
// session token across process restarts.
//
// A store holds a single serialized value (the "token" slot). Four backends
// cover different deployment tradeoffs:
//   - File: Local filesystem storage with atomic writes and secure permissions
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential Manager, etc.)
//   - Redis: Shared storage for consoles running on several hosts or in containers
//   - Memory: Process-local storage, nothing survives a restart
//
// All backends report a missing slot as ErrNotFound.
package tokenstore
