// Package fiware holds the wire-level vocabulary shared by the gateway's
// downstream clients: the multi-tenancy trust headers every FIWARE component
// expects, and the error shapes used to pass upstream failures through to
// the caller unmodified.
//
// The clients themselves live in the subpackages keyrock (identity manager),
// pep (Orion context broker via PEP proxy), and iotagent (device
// provisioning and data ingestion).
package fiware
