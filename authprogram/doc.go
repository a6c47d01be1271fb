// Package authprogram implements the authentication used by dolist to
// protect http requests.
//
// Passwords are never kept, only a salted one-way digest of them.
// The digest carries the algorithm, cost and salt used to produce it,
// so verifying a password does not require any extra state.
//
// After a successful signup or login the user receives a signed token.
// The token is also appended to the list of tokens of the user document,
// and that list is the source of truth for active sessions: a token
// is only accepted if its signature is valid AND the user still holds it.
//
// Logging out removes the token from the user document, other sessions
// of the same user are not affected.
//
// Tokens do not expire unless a TTL is configured. Rotating the signing
// secret invalidates every token ever issued.
package authprogram
