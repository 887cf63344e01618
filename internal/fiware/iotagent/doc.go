// Package iotagent provides the client for the FIWARE IoT Agent.
//
// The agent exposes two distinct surfaces. The north port (:4041) is the
// provisioning API: service groups and device registrations, a normal
// JSON-over-HTTP API that expects the tenancy headers. The south port
// (:7896) is where devices deliver measurements, either as Ultralight 2.0
// ("t|25|h|50") or as JSON, keyed by the service API key and device ID in
// the query string rather than by tenancy headers.
//
// The gateway forwards provisioning calls north on behalf of
// authenticated operators, and relays device measurements south so
// devices on the local network never need FIWARE credentials. When MQTT
// ingestion is enabled, measurements are published to the agent's broker
// topic instead of the HTTP south port.
package iotagent
