package port

import "context"

type FailureNotifier interface {
	NotifyFailure(ctx context.Context, userEmail string, videoID string, title string, errorMsg string) error
}
