package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/nickmccarty/kinstretch-web-app/internal/domain/entity"
	"github.com/nickmccarty/kinstretch-web-app/internal/domain/port"
)

// DepthClient implements port.DepthEstimator against the monocular depth
// sidecar. Availability is probed once at construction; when the service is
// absent the pipeline degrades to detector z values instead of failing
// jobs.
type DepthClient struct {
	baseURL   string
	client    *http.Client
	available bool
}

// NewDepthClient probes the service. An empty baseURL means depth
// enhancement is not configured at all.
func NewDepthClient(baseURL string, logger *zap.Logger) *DepthClient {
	d := &DepthClient{baseURL: baseURL, client: newHTTPClient()}
	if baseURL == "" {
		return d
	}

	probeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, baseURL+"/healthz", nil)
	if err == nil {
		if resp, perr := d.client.Do(req); perr == nil {
			resp.Body.Close()
			d.available = resp.StatusCode == http.StatusOK
		}
	}
	if d.available {
		logger.Info("depth estimator available", zap.String("url", baseURL))
	} else {
		logger.Warn("depth estimator unavailable, z values will not be enhanced", zap.String("url", baseURL))
	}
	return d
}

func (d *DepthClient) Available() bool { return d.available }

type depthRequestPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type depthResponse struct {
	Depths []float64 `json:"depths"`
}

// SampleDepths estimates a depth map for the frame and samples it at each
// normalized point, returning disparity values (higher = closer).
func (d *DepthClient) SampleDepths(ctx context.Context, frame *port.RawFrame, points []entity.Landmark) ([]float64, error) {
	pts := make([]depthRequestPoint, len(points))
	for i, p := range points {
		pts[i] = depthRequestPoint{X: p.X, Y: p.Y}
	}
	ptsJSON, err := json.Marshal(pts)
	if err != nil {
		return nil, err
	}

	body, contentType, err := frameForm(frame.JPEG, map[string]string{"points": string(ptsJSON)})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/v1/depth/sample", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("depth sample: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("depth sample: %w", httpError(resp))
	}

	var out depthResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("depth decode: %w", err)
	}
	if len(out.Depths) != len(points) {
		return nil, fmt.Errorf("depth returned %d samples, want %d", len(out.Depths), len(points))
	}
	return out.Depths, nil
}
