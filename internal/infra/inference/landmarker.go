package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/nickmccarty/kinstretch-web-app/internal/domain/entity"
	"github.com/nickmccarty/kinstretch-web-app/internal/domain/port"
)

// Landmarker implements port.PoseDetector against the pose-landmarker
// sidecar. Each pipeline run opens its own server-side session because the
// model is temporal: frames must arrive in timestamp order within one
// session.
type Landmarker struct {
	baseURL string
	client  *http.Client
}

func NewLandmarker(baseURL string) *Landmarker {
	return &Landmarker{baseURL: baseURL, client: newHTTPClient()}
}

type sessionCreated struct {
	SessionID string `json:"session_id"`
}

// NewSession asks the sidecar to load the model and open a video session.
// Failure here is a *entity.DetectorInitError: fatal to the job, not to one
// frame.
func (l *Landmarker) NewSession(ctx context.Context) (port.DetectorSession, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/v1/sessions", nil)
	if err != nil {
		return nil, &entity.DetectorInitError{Err: err}
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, &entity.DetectorInitError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, &entity.DetectorInitError{Err: httpError(resp)}
	}

	var created sessionCreated
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, &entity.DetectorInitError{Err: fmt.Errorf("decode session: %w", err)}
	}

	return &landmarkerSession{
		client:  l.client,
		baseURL: l.baseURL,
		id:      created.SessionID,
	}, nil
}

type landmarkerSession struct {
	client  *http.Client
	baseURL string
	id      string
}

type detectResponse struct {
	Detected  bool              `json:"detected"`
	Landmarks []entity.Landmark `json:"landmarks"`
}

func (s *landmarkerSession) Detect(ctx context.Context, frame *port.RawFrame) ([]entity.Landmark, bool, error) {
	body, contentType, err := frameForm(frame.JPEG, map[string]string{
		"timestamp_ms": strconv.FormatInt(frame.TimestampMS, 10),
	})
	if err != nil {
		return nil, false, err
	}

	url := fmt.Sprintf("%s/v1/sessions/%s/detect", s.baseURL, s.id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("landmarker detect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("landmarker detect: %w", httpError(resp))
	}

	var out detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, false, fmt.Errorf("landmarker decode: %w", err)
	}
	if !out.Detected {
		return nil, false, nil
	}
	if len(out.Landmarks) != entity.LandmarkCount {
		return nil, false, fmt.Errorf("landmarker returned %d landmarks, want %d", len(out.Landmarks), entity.LandmarkCount)
	}
	return out.Landmarks, true, nil
}

func (s *landmarkerSession) Close() error {
	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/v1/sessions/%s", s.baseURL, s.id), nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
