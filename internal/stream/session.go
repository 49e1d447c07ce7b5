// Package stream ingests client-computed pose frames over a bidirectional
// websocket session, one session per video id, converging on the same
// persisted record shape as the batch pipeline.
package stream

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nickmccarty/kinstretch-web-app/internal/domain/entity"
	"github.com/nickmccarty/kinstretch-web-app/internal/domain/port"
	"github.com/nickmccarty/kinstretch-web-app/internal/infra/metrics"
)

const (
	// flushThreshold is the buffered-frame count that triggers a mid-stream
	// bulk persist.
	flushThreshold = 500
	// ackEvery is the received-frame interval between acks, counted whether
	// or not recording is on.
	ackEvery = 30
)

// Conn is the subset of *websocket.Conn the session needs; tests substitute
// an in-memory implementation.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v interface{}) error
}

// Session is one live recording session. All persistence for the video id
// is issued from the session's own goroutine, so writes never interleave.
type Session struct {
	videoID uuid.UUID
	conn    Conn
	frames  port.PoseFrameRepository
	logger  *zap.Logger

	recording bool
	received  int
	buffer    []entity.PoseFrame
}

func NewSession(videoID uuid.UUID, conn Conn, frames port.PoseFrameRepository, logger *zap.Logger) *Session {
	return &Session{
		videoID: videoID,
		conn:    conn,
		frames:  frames,
		logger:  logger.With(zap.String("video_id", videoID.String())),
	}
}

// Run reads messages until the socket closes or a flush fails. A read error
// is treated as a clean partial completion: any buffered frames are
// persisted best-effort with the job's frame count incremented and status
// set to completed. Flush failures while the socket is alive are surfaced
// to the client before the session ends.
func (s *Session) Run(ctx context.Context) error {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.handleDisconnect(ctx)
			return nil
		}

		msg, err := decodeMessage(data)
		if err != nil {
			s.logger.Warn("dropping undecodable stream message", zap.Error(err))
			continue
		}

		switch m := msg.(type) {
		case startRecording:
			s.buffer = nil
			s.recording = true
			if err := s.conn.WriteJSON(recordingStartedReply{Type: typeRecordingStarted}); err != nil {
				return fmt.Errorf("write recording_started: %w", err)
			}

		case poseFrame:
			if err := s.handlePoseFrame(ctx, m); err != nil {
				return err
			}

		case stopRecording:
			if err := s.handleStop(ctx); err != nil {
				return err
			}
		}
	}
}

func (s *Session) handlePoseFrame(ctx context.Context, m poseFrame) error {
	s.received++
	metrics.StreamFramesReceived.Inc()

	if s.recording {
		s.buffer = append(s.buffer, entity.PoseFrame{
			VideoID:     s.videoID,
			FrameIndex:  m.FrameIndex,
			TimestampMS: m.TimestampMS,
			Landmarks:   m.Landmarks,
		})

		if len(s.buffer) >= flushThreshold {
			if err := s.frames.BulkInsert(ctx, s.videoID, s.buffer); err != nil {
				return s.surface(fmt.Errorf("flush %d buffered frames: %w", len(s.buffer), err))
			}
			metrics.StreamFlushesTotal.Inc()
			s.logger.Info("mid-stream flush", zap.Int("frames", len(s.buffer)))
			s.buffer = nil
		}
	}

	if s.received%ackEvery == 0 {
		if err := s.conn.WriteJSON(ackReply{Type: typeAck, FramesReceived: s.received}); err != nil {
			return fmt.Errorf("write ack: %w", err)
		}
	}
	return nil
}

func (s *Session) handleStop(ctx context.Context) error {
	s.recording = false

	// The stop reply reports the size of the final buffer, which after a
	// mid-stream flush is smaller than the cumulative persisted count. Kept
	// for client compatibility; see the service design notes.
	frameCount := len(s.buffer)
	var durationMS int64
	if frameCount > 0 {
		durationMS = s.buffer[frameCount-1].TimestampMS
	}

	if err := s.frames.FinishRecording(ctx, s.videoID, s.buffer, frameCount, durationMS); err != nil {
		return s.surface(fmt.Errorf("finish recording: %w", err))
	}
	metrics.StreamFlushesTotal.Inc()
	s.buffer = nil

	if err := s.conn.WriteJSON(recordingStoppedReply{
		Type:       typeRecordingStopped,
		FrameCount: frameCount,
		DurationMS: durationMS,
	}); err != nil {
		return fmt.Errorf("write recording_stopped: %w", err)
	}

	s.logger.Info("recording stopped",
		zap.Int("frame_count", frameCount),
		zap.Int64("duration_ms", durationMS),
	)
	return nil
}

// handleDisconnect persists whatever is still buffered. The job ends
// completed, never failed: a dropped socket is a partial but clean
// recording.
func (s *Session) handleDisconnect(ctx context.Context) {
	if len(s.buffer) == 0 {
		return
	}
	if err := s.frames.AppendRecording(ctx, s.videoID, s.buffer); err != nil {
		s.logger.Error("failed to persist frames after disconnect",
			zap.Int("frames", len(s.buffer)),
			zap.Error(err),
		)
		return
	}
	s.logger.Info("persisted buffered frames after disconnect", zap.Int("frames", len(s.buffer)))
	s.buffer = nil
}

// surface reports a flush failure to the client before ending the session;
// a live session has no polling channel to carry the error otherwise.
func (s *Session) surface(err error) error {
	s.logger.Error("stream persistence failed", zap.Error(err))
	if werr := s.conn.WriteJSON(errorReply{Type: typeError, Message: err.Error()}); werr != nil {
		s.logger.Warn("could not deliver stream error to client", zap.Error(werr))
	}
	return err
}
