// Package api is the authenticated request pipeline between the console and
// its REST backend.
//
// A request travels Client.Do -> Authorize -> Dispatcher.Send. The Dispatcher
// performs exactly one HTTP round trip. Authorize attaches the session's access
// token. The Client absorbs expired access tokens: the first request to see a
// 401 refreshes the token pair while every other request waits, then each of
// them is replayed once under the new access token.
//
// # Errors
//
// Failed requests return one of:
//   - *TransportError: no usable response (dial failure, timeout, unreadable body)
//   - *StatusError: the backend answered with a non-2xx status
//   - ErrSessionExpired: the token pair could not be refreshed and the session was cleared
//
// A 401 StatusError only reaches the caller when the single replay after a
// successful refresh is rejected again.
package api
