// Package messaging is a thin publish/consume abstraction over NATS, Kafka,
// NSQ, Google Pub/Sub and an in-process broker.
//
// Handlers receive a Message and may settle it themselves. With WithAutoAck,
// the driver acks on a nil error and nacks otherwise.
package messaging
