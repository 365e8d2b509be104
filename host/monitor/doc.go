// Package monitor polls a pad and streams its readings to sinks.
//
// A [Monitor] reads the sensors and thresholds feature reports every poll
// interval and hands the resulting [Sample] to each registered [Sink]:
//
//   - [MQTTSink] publishes samples as JSON on an MQTT topic and can accept
//     threshold writes on "<topic>/set"
//   - [Hub] serves a websocket at /ws streaming samples, accepting threshold
//     writes, and the latest sample as JSON at /api/state
//
// Threshold writes from either sink carry {"thresholds":[a,b,c,d]} and are
// forwarded to the pad through the monitor, which the pad persists when the
// vector changed.
package monitor
