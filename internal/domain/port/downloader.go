package port

import "context"

// DownloadResult is a locally materialized remote video plus whatever
// metadata the remote side reported.
type DownloadResult struct {
	FilePath string
	Title    string
	Creator  string
}

// VideoDownloader fetches a remote video into local storage. Failures are
// reported as *entity.DownloadError.
type VideoDownloader interface {
	Download(ctx context.Context, url string) (*DownloadResult, error)
}
