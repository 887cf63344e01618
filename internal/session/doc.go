// Package session implements the server-side session and credential
// lifecycle for the FIWARE Gateway.
//
// The gateway holds two upstream credential families per authenticated user:
//
//   - The management credential, used against the Keyrock identity manager's
//     administration API (user/role/permission CRUD). Keyrock issues no
//     refresh token for it; once expired the user must log in again.
//   - The access credential, an OAuth2 token used against the Orion context
//     broker via its PEP proxy. It may carry a refresh token, in which case
//     an expired access credential is renewed transparently.
//
// Sessions live in process memory only. A restart logs everybody out; this
// is deliberate — the session table is a cache of upstream credentials, not
// a system of record.
//
// Expiry is checked lazily at point of use rather than by a background
// sweeper. The Manager serialises the check-then-refresh sequence per user,
// so two concurrent requests for the same user cannot race each other into a
// double refresh (Keyrock invalidates the first refresh token when a second
// refresh lands, which would silently corrupt the session).
//
// Thread Safety: Store and Manager are safe for concurrent use from multiple
// goroutines.
package session
