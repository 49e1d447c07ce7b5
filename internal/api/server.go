// Package api exposes the thin HTTP surface over the produced interfaces:
// job submission, status polling, pose queries, angle computation,
// measurements, and the live pose-stream websocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nickmccarty/kinstretch-web-app/internal/domain/entity"
	"github.com/nickmccarty/kinstretch-web-app/internal/domain/port"
	"github.com/nickmccarty/kinstretch-web-app/internal/stream"
	"github.com/nickmccarty/kinstretch-web-app/internal/usecase"
)

// maxUploadBytes bounds multipart uploads staged into the media store.
const maxUploadBytes = 2 << 30

type Server struct {
	submit  *usecase.SubmitIngestionUseCase
	status  *usecase.StatusUseCase
	poses   *usecase.PoseQueryUseCase
	angles  *usecase.AngleUseCase
	library *usecase.VideoLibraryUseCase
	streams *stream.Handler
	media   port.MediaStore
	logger  *zap.Logger
	srv     *http.Server
}

func NewServer(
	port int,
	submit *usecase.SubmitIngestionUseCase,
	status *usecase.StatusUseCase,
	poses *usecase.PoseQueryUseCase,
	angles *usecase.AngleUseCase,
	library *usecase.VideoLibraryUseCase,
	streams *stream.Handler,
	media port.MediaStore,
	logger *zap.Logger,
) *Server {
	s := &Server{
		submit:  submit,
		status:  status,
		poses:   poses,
		angles:  angles,
		library: library,
		streams: streams,
		media:   media,
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /api/videos", s.handleSubmit)
	mux.HandleFunc("POST /api/videos/upload", s.handleUpload)
	mux.HandleFunc("GET /api/videos/{video_id}", s.handleGetVideo)
	mux.HandleFunc("DELETE /api/videos/{video_id}", s.handleDeleteVideo)
	mux.HandleFunc("GET /api/sessions/{session_id}/videos", s.handleListVideos)
	mux.HandleFunc("GET /api/videos/{video_id}/status", s.handleStatus)
	mux.HandleFunc("GET /api/videos/{video_id}/poses", s.handleListPoses)
	mux.HandleFunc("GET /api/videos/{video_id}/poses/{frame_index}", s.handleGetFrame)
	mux.HandleFunc("POST /api/videos/{video_id}/angle", s.handleAngle)
	mux.HandleFunc("POST /api/measurements", s.handleCreateMeasurement)
	mux.HandleFunc("GET /api/measurements", s.handleListMeasurements)
	mux.HandleFunc("DELETE /api/measurements/{id}", s.handleDeleteMeasurement)
	mux.Handle("GET /ws/pose-stream/{video_id}", streams)

	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	return s
}

func (s *Server) Start() {
	go func() {
		s.logger.Info("api server starting", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", zap.Error(err))
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

type submitPayload struct {
	SessionID  uuid.UUID `json:"session_id"`
	SourceType string    `json:"source_type"`
	URL        string    `json:"url"`
	FilePath   string    `json:"file_path"`
	Title      string    `json:"title"`
	StartS     *float64  `json:"start_s"`
	StopS      *float64  `json:"stop_s"`
	UserEmail  string    `json:"user_email"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var p submitPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	source := entity.SourceType(p.SourceType)
	switch source {
	case entity.SourceUpload, entity.SourceYouTube, entity.SourceWebcam:
	default:
		writeError(w, http.StatusBadRequest, "unknown source_type")
		return
	}

	video, err := s.submit.Submit(r.Context(), usecase.SubmitRequest{
		SessionID:  p.SessionID,
		SourceType: source,
		URL:        p.URL,
		FilePath:   p.FilePath,
		Title:      p.Title,
		StartS:     p.StartS,
		StopS:      p.StopS,
		UserEmail:  p.UserEmail,
	})
	if err != nil {
		s.logger.Error("submission failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "submission failed")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"video_id": video.ID,
		"status":   video.Status,
		"title":    video.Title,
	})
}

// handleUpload stages a multipart video file into the media store and
// submits it as an upload job whose file path is the object key.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.media == nil {
		writeError(w, http.StatusServiceUnavailable, "no media store configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	sessionID, err := uuid.Parse(r.FormValue("session_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session_id")
		return
	}

	objectKey := fmt.Sprintf("uploads/%s/%s%s",
		time.Now().UTC().Format("2006-01-02"),
		uuid.New(),
		filepath.Ext(header.Filename),
	)
	if err := s.media.StoreVideo(r.Context(), objectKey, file, header.Size); err != nil {
		s.logger.Error("failed to stage upload", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	title := r.FormValue("title")
	if title == "" {
		base := filepath.Base(header.Filename)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	startS, err := optionalFloat(r.FormValue("start_s"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_s")
		return
	}
	stopS, err := optionalFloat(r.FormValue("stop_s"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid stop_s")
		return
	}

	video, err := s.submit.Submit(r.Context(), usecase.SubmitRequest{
		SessionID:  sessionID,
		SourceType: entity.SourceUpload,
		FilePath:   objectKey,
		Title:      title,
		StartS:     startS,
		StopS:      stopS,
		UserEmail:  r.FormValue("user_email"),
	})
	if err != nil {
		s.logger.Error("submission failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "submission failed")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"video_id":   video.ID,
		"status":     video.Status,
		"title":      video.Title,
		"object_key": objectKey,
	})
}

type videoResponse struct {
	ID           uuid.UUID          `json:"id"`
	SessionID    uuid.UUID          `json:"session_id"`
	SourceType   entity.SourceType  `json:"source_type"`
	URL          string             `json:"url,omitempty"`
	Title        string             `json:"title"`
	Creator      string             `json:"creator,omitempty"`
	DurationMS   int64              `json:"duration_ms"`
	FrameCount   int                `json:"frame_count"`
	Status       entity.VideoStatus `json:"status"`
	ErrorMessage string             `json:"error_message,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}

func toVideoResponse(v *entity.Video) videoResponse {
	return videoResponse{
		ID:           v.ID,
		SessionID:    v.SessionID,
		SourceType:   v.SourceType,
		URL:          v.URL,
		Title:        v.Title,
		Creator:      v.Creator,
		DurationMS:   v.DurationMS,
		FrameCount:   v.FrameCount,
		Status:       v.Status,
		ErrorMessage: v.ErrorMessage,
		CreatedAt:    v.CreatedAt,
	}
}

func (s *Server) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	videoID, ok := pathUUID(w, r, "video_id")
	if !ok {
		return
	}
	video, err := s.library.Get(r.Context(), videoID)
	if err != nil {
		respondLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVideoResponse(video))
}

func (s *Server) handleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	videoID, ok := pathUUID(w, r, "video_id")
	if !ok {
		return
	}
	if err := s.library.Delete(r.Context(), videoID); err != nil {
		respondLookupError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathUUID(w, r, "session_id")
	if !ok {
		return
	}
	videos, err := s.library.ListBySession(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list videos")
		return
	}
	out := make([]videoResponse, 0, len(videos))
	for _, v := range videos {
		out = append(out, toVideoResponse(v))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":  len(out),
		"videos": out,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	videoID, ok := pathUUID(w, r, "video_id")
	if !ok {
		return
	}

	st, err := s.status.Status(r.Context(), videoID)
	if err != nil {
		respondLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleListPoses(w http.ResponseWriter, r *http.Request) {
	videoID, ok := pathUUID(w, r, "video_id")
	if !ok {
		return
	}

	q := r.URL.Query()
	startMS, err := optionalInt64(q.Get("start_ms"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_ms")
		return
	}
	stopMS, err := optionalInt64(q.Get("stop_ms"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid stop_ms")
		return
	}
	stride := 1
	if raw := q.Get("stride"); raw != "" {
		stride, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid stride")
			return
		}
	}

	frames, err := s.poses.List(r.Context(), videoID, startMS, stopMS, stride)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			writeError(w, http.StatusNotFound, "video not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"video_id": videoID,
		"count":    len(frames),
		"frames":   frames,
	})
}

func (s *Server) handleGetFrame(w http.ResponseWriter, r *http.Request) {
	videoID, ok := pathUUID(w, r, "video_id")
	if !ok {
		return
	}
	frameIndex, err := strconv.Atoi(r.PathValue("frame_index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid frame index")
		return
	}

	frame, err := s.poses.GetFrame(r.Context(), videoID, frameIndex)
	if err != nil {
		respondLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, frame)
}

type anglePayload struct {
	FrameIndex int         `json:"frame_index"`
	EdgeA      entity.Edge `json:"edge_a"`
	EdgeB      entity.Edge `json:"edge_b"`
}

func (s *Server) handleAngle(w http.ResponseWriter, r *http.Request) {
	videoID, ok := pathUUID(w, r, "video_id")
	if !ok {
		return
	}
	var p anglePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.angles.Compute(r.Context(), videoID, p.FrameIndex, p.EdgeA, p.EdgeB)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrNotFound):
			writeError(w, http.StatusNotFound, "frame not found")
		case errors.Is(err, entity.ErrEdgesNotAdjacent):
			writeError(w, http.StatusBadRequest, "edges do not share a joint")
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type measurementPayload struct {
	SessionID        uuid.UUID   `json:"session_id"`
	VideoID          uuid.UUID   `json:"video_id"`
	FrameIndex       int         `json:"frame_index"`
	FrameTimestampMS int64       `json:"frame_timestamp_ms"`
	JointIndex       int         `json:"joint_index"`
	EdgeA            entity.Edge `json:"edge_a"`
	EdgeB            entity.Edge `json:"edge_b"`
	AngleDegrees     float64     `json:"angle_degrees"`
	Label            string      `json:"label"`
}

func (s *Server) handleCreateMeasurement(w http.ResponseWriter, r *http.Request) {
	var p measurementPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m, err := s.angles.Record(r.Context(), usecase.MeasurementInput{
		SessionID:        p.SessionID,
		VideoID:          p.VideoID,
		FrameIndex:       p.FrameIndex,
		FrameTimestampMS: p.FrameTimestampMS,
		JointIndex:       p.JointIndex,
		EdgeA:            p.EdgeA,
		EdgeB:            p.EdgeB,
		AngleDegrees:     p.AngleDegrees,
		Label:            p.Label,
	})
	if err != nil {
		s.logger.Error("failed to record measurement", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to record measurement")
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleListMeasurements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var sessionID, videoID *uuid.UUID
	if raw := q.Get("session_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid session_id")
			return
		}
		sessionID = &id
	}
	if raw := q.Get("video_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid video_id")
			return
		}
		videoID = &id
	}

	ms, err := s.angles.ListMeasurements(r.Context(), sessionID, videoID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list measurements")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":        len(ms),
		"measurements": ms,
	})
}

func (s *Server) handleDeleteMeasurement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := s.angles.DeleteMeasurement(r.Context(), id); err != nil {
		respondLookupError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func optionalFloat(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func optionalInt64(raw string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func respondLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, entity.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
