// Package pep forwards requests to the Orion context broker through its
// PEP proxy.
//
// The forwarder is pure plumbing: it attaches the tenancy trust headers and
// the caller's live access credential, dispatches the verb it was given, and
// hands the upstream response back untouched. Session lookup and credential
// refresh happen before a request ever reaches this package.
package pep
