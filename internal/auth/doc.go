// Package auth orchestrates sign-in against Keyrock and owns the
// gateway's own JWTs.
//
// Login runs the full exchange: management token, OAuth2 password grant,
// profile fetch, role fetch, session creation, and finally a gateway JWT
// for the client. The JWT carries identity only; the Keyrock credentials
// stay server-side in the session store and never reach the browser.
//
// Me and Logout are the session-backed counterparts: Me re-reads the
// identity (refreshing the access credential if it lapsed), Logout drops
// the session.
package auth
