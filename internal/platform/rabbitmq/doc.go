// Package rabbitmq implements task.Queue on a RabbitMQ quorum queue.
//
// Job ids are published with publisher confirms and consumed with manual
// acknowledgement. Retry requeues the message; the broker counts deliveries
// and dead-letters a message once x-delivery-limit is exceeded. Reject
// dead-letters immediately.
package rabbitmq
