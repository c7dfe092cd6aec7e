// Package notify delivers health alerts to an operator-facing channel.
//
// Every implementation satisfies Notifier. Delivery is best-effort: a
// returned error wraps ErrNotifyFailed and callers log it and move on.
//
// The channel is chosen from the configured topic:
//
//	https://hooks.example.com/opswatch   Webhook (JSON POST)
//	redis://localhost:6379/0#alerts      RedisPublisher (PUBLISH on "alerts")
//	log:                                 LogNotifier (structured log entry)
//	""                                   no notifier; alerts are skipped
package notify
