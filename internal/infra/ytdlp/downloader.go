// Package ytdlp fetches remote videos by shelling out to yt-dlp.
package ytdlp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/nickmccarty/kinstretch-web-app/internal/domain/entity"
	"github.com/nickmccarty/kinstretch-web-app/internal/domain/port"
)

const downloadFormat = "mp4/bestvideo[ext=mp4]+bestaudio/best[ext=m4a]/best"

// Downloader implements port.VideoDownloader via the yt-dlp binary.
type Downloader struct {
	bin    string
	outDir string
	logger *zap.Logger
}

func NewDownloader(bin, outDir string, logger *zap.Logger) *Downloader {
	return &Downloader{bin: bin, outDir: outDir, logger: logger}
}

type videoInfo struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Channel  string `json:"channel"`
	Uploader string `json:"uploader"`
}

// Download resolves metadata first so the output filename is deterministic,
// then fetches the media. Every failure maps to *entity.DownloadError.
func (d *Downloader) Download(ctx context.Context, url string) (*port.DownloadResult, error) {
	info, err := d.probe(ctx, url)
	if err != nil {
		return nil, &entity.DownloadError{URL: url, Err: err}
	}

	if err := os.MkdirAll(d.outDir, 0o755); err != nil {
		return nil, &entity.DownloadError{URL: url, Err: fmt.Errorf("create download dir: %w", err)}
	}
	outPath := filepath.Join(d.outDir, info.ID+".mp4")

	cmd := exec.CommandContext(ctx, d.bin,
		"--no-playlist",
		"--no-progress",
		"-f", downloadFormat,
		"-o", outPath,
		url,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, &entity.DownloadError{URL: url, Err: fmt.Errorf("yt-dlp: %w: %s", err, string(out))}
	}

	creator := info.Channel
	if creator == "" {
		creator = info.Uploader
	}

	d.logger.Info("video downloaded",
		zap.String("url", url),
		zap.String("file_path", outPath),
		zap.String("title", info.Title),
	)

	return &port.DownloadResult{
		FilePath: outPath,
		Title:    info.Title,
		Creator:  creator,
	}, nil
}

func (d *Downloader) probe(ctx context.Context, url string) (*videoInfo, error) {
	cmd := exec.CommandContext(ctx, d.bin, "-J", "--no-playlist", url)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("yt-dlp metadata: %w", err)
	}

	var info videoInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("parse yt-dlp metadata: %w", err)
	}
	if info.ID == "" {
		return nil, fmt.Errorf("yt-dlp metadata missing video id")
	}
	return &info, nil
}
