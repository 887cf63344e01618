// Package influxdb mirrors gateway activity events into InfluxDB for
// long-horizon analysis.
//
// The in-memory activity log is capped and lost on restart; when this
// mirror is enabled, every recorded event is also written as a point in
// the "activity" measurement, tagged by category, severity and method so
// dashboards can slice error rates and latency without touching the
// gateway's API. Writes go through the client library's non-blocking
// batching API, so a slow or absent InfluxDB never stalls request
// handling.
//
// The mirror is optional. When influxdb.enabled is false in config the
// gateway runs without it.
package influxdb
