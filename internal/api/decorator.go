package api

import "github.com/florianilch/taskconsole/internal/session"

// Authorize returns req carrying token's access token as a bearer credential.
// Requests that already declare an Authorization header or a credential are
// returned unchanged, as are all requests when token is nil.
func Authorize(req *Request, token *session.Token) *Request {
	if token == nil || req.Credential != nil || req.Header.Get("Authorization") != "" {
		return req
	}

	authorized := req.clone()
	authorized.Credential = token.AccessCredential()
	return authorized
}
