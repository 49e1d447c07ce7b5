package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nickmccarty/kinstretch-web-app/internal/domain/entity"
	"github.com/nickmccarty/kinstretch-web-app/internal/domain/port"
	"github.com/nickmccarty/kinstretch-web-app/internal/pose"
)

// AngleResult is one computed joint angle with display names for the UI.
type AngleResult struct {
	JointIndex   int     `json:"joint_index"`
	AngleDegrees float64 `json:"angle_degrees"`
	JointName    string  `json:"joint_name"`
	EdgeAName    string  `json:"edge_a_name"`
	EdgeBName    string  `json:"edge_b_name"`
}

// MeasurementInput records one user measurement against a stored frame.
type MeasurementInput struct {
	SessionID        uuid.UUID
	VideoID          uuid.UUID
	FrameIndex       int
	FrameTimestampMS int64
	JointIndex       int
	EdgeA            entity.Edge
	EdgeB            entity.Edge
	AngleDegrees     float64
	Label            string
}

// AngleUseCase computes joint angles against stored frames and manages
// measurement records. All operations are synchronous; errors go straight
// back to the caller.
type AngleUseCase struct {
	frames       port.PoseFrameRepository
	measurements port.MeasurementRepository
}

func NewAngleUseCase(frames port.PoseFrameRepository, measurements port.MeasurementRepository) *AngleUseCase {
	return &AngleUseCase{frames: frames, measurements: measurements}
}

// Compute loads the frame and evaluates the angle between the two edges at
// their shared joint.
func (uc *AngleUseCase) Compute(ctx context.Context, videoID uuid.UUID, frameIndex int, edgeA, edgeB entity.Edge) (*AngleResult, error) {
	frame, err := uc.frames.FindByIndex(ctx, videoID, frameIndex)
	if err != nil {
		return nil, err
	}

	joint, degrees, err := pose.Angle(frame.Landmarks, edgeA, edgeB)
	if err != nil {
		return nil, err
	}

	return &AngleResult{
		JointIndex:   joint,
		AngleDegrees: degrees,
		JointName:    pose.JointName(joint),
		EdgeAName:    pose.EdgeName(edgeA),
		EdgeBName:    pose.EdgeName(edgeB),
	}, nil
}

// Record stores a measurement. Measurements reference frames but have an
// independent lifecycle; nothing is recomputed later.
func (uc *AngleUseCase) Record(ctx context.Context, in MeasurementInput) (*entity.Measurement, error) {
	m := entity.NewMeasurement(in.SessionID, in.VideoID)
	m.FrameIndex = in.FrameIndex
	m.FrameTimestampMS = in.FrameTimestampMS
	m.JointIndex = in.JointIndex
	m.EdgeA = in.EdgeA
	m.EdgeB = in.EdgeB
	m.AngleDegrees = in.AngleDegrees
	m.Label = in.Label

	if err := uc.measurements.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create measurement: %w", err)
	}
	return m, nil
}

func (uc *AngleUseCase) ListMeasurements(ctx context.Context, sessionID, videoID *uuid.UUID) ([]*entity.Measurement, error) {
	return uc.measurements.List(ctx, sessionID, videoID)
}

func (uc *AngleUseCase) DeleteMeasurement(ctx context.Context, id uuid.UUID) error {
	return uc.measurements.Delete(ctx, id)
}
