// Package mqtt provides the MQTT client used for south-bound device data
// transport.
//
// FIWARE IoT Agents accept measurements over MQTT as an alternative to the
// HTTP south port: a device (or the gateway on its behalf) publishes the
// payload to /<apiKey>/<deviceID>/attrs. This package wraps
// paho.mqtt.golang with connection management and bounded-time publishing;
// the topic convention lives with the IoT Agent client, not here.
//
// Thread Safety: All methods are safe for concurrent use from multiple
// goroutines.
package mqtt
