package stream

import (
	"encoding/json"
	"fmt"

	"github.com/nickmccarty/kinstretch-web-app/internal/domain/entity"
)

// Message types spoken on a live pose stream. One JSON object per logical
// message.
const (
	typeStartRecording   = "start_recording"
	typeStopRecording    = "stop_recording"
	typePoseFrame        = "pose_frame"
	typeRecordingStarted = "recording_started"
	typeRecordingStopped = "recording_stopped"
	typeAck              = "ack"
	typeError            = "error"
)

type startRecording struct{}

type stopRecording struct{}

// poseFrame carries one client-computed frame. The client owns numbering
// and timestamps; they are persisted as-is.
type poseFrame struct {
	FrameIndex  int               `json:"frame_index"`
	TimestampMS int64             `json:"timestamp_ms"`
	Landmarks   []entity.Landmark `json:"landmarks"`
}

type envelope struct {
	Type        string            `json:"type"`
	FrameIndex  int               `json:"frame_index"`
	TimestampMS int64             `json:"timestamp_ms"`
	Landmarks   []entity.Landmark `json:"landmarks"`
}

// decodeMessage parses one inbound JSON object into its typed variant.
// Decoding happens once, here, at the socket boundary.
func decodeMessage(data []byte) (interface{}, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed stream message: %w", err)
	}

	switch env.Type {
	case typeStartRecording:
		return startRecording{}, nil
	case typeStopRecording:
		return stopRecording{}, nil
	case typePoseFrame:
		return poseFrame{
			FrameIndex:  env.FrameIndex,
			TimestampMS: env.TimestampMS,
			Landmarks:   env.Landmarks,
		}, nil
	default:
		return nil, fmt.Errorf("unknown stream message type %q", env.Type)
	}
}

type recordingStartedReply struct {
	Type string `json:"type"`
}

type ackReply struct {
	Type           string `json:"type"`
	FramesReceived int    `json:"frames_received"`
}

type recordingStoppedReply struct {
	Type       string `json:"type"`
	FrameCount int    `json:"frame_count"`
	DurationMS int64  `json:"duration_ms"`
}

type errorReply struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
