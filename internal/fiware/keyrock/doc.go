// Package keyrock is the HTTP client for the Keyrock identity manager.
//
// Keyrock plays two roles for the gateway:
//
//   - Identity provider: it authenticates primary credentials and issues the
//     two upstream token families. The management token comes back in the
//     X-Subject-Token header of POST /v1/auth/tokens; the OAuth2 access and
//     refresh tokens come from the password and refresh_token grants of
//     POST /oauth2/token, authenticated with the gateway's client
//     credentials.
//   - Administration API: user, role, and permission CRUD, executed with the
//     caller's management token and passed through verbatim.
//
// Error mapping: a 401-class response to a credential exchange means the
// user's primary credentials were wrong (ErrInvalidCredentials); any
// transport failure means Keyrock itself is unreachable
// (fiware.ErrUnavailable); other upstream error statuses are preserved as
// *fiware.Error so the caller sees Keyrock's own diagnostic.
package keyrock
