package port

import "context"

type StatusPublisher interface {
	PublishStatus(ctx context.Context, msg []byte) error
}

// IngestPublisher enqueues one submission message. The queue is what makes
// dispatch at-most-once per job id: one pending job, one message.
type IngestPublisher interface {
	PublishIngest(ctx context.Context, msg []byte) error
}

type DLQPublisher interface {
	PublishToDLQ(ctx context.Context, msg []byte, reason string) error
}
