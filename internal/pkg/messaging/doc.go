// Package messaging provides a broker-agnostic API for publishing and
// consuming domain events.
//
// Business code depends on Publisher and Consumer only; the driver (in-memory,
// NATS, NSQ, Kafka or Google Pub/Sub) is picked from configuration. A handler that returns an
// error asks the broker for a redelivery where the broker supports it.
package messaging
