// Package session holds the console's current token pair and tells interested
// parties when it changes.
//
// The Store keeps the pair in memory behind an atomic pointer and mirrors every
// update into a durable tokenstore slot, so a restarted console resumes the
// session it had. Reads never block; writes are serialized.
//
// The Observer turns store transitions into navigation requests: losing the
// token sends the user to the login view, gaining one sends them home.
package session
