package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nickmccarty/kinstretch-web-app/internal/domain/entity"
	"github.com/nickmccarty/kinstretch-web-app/internal/domain/port"
)

type PoseFrameRepository struct {
	pool *pgxpool.Pool
}

func NewPoseFrameRepository(pool *pgxpool.Pool) *PoseFrameRepository {
	return &PoseFrameRepository{pool: pool}
}

// BulkInsert persists one flush batch in a single transaction.
func (r *PoseFrameRepository) BulkInsert(ctx context.Context, videoID uuid.UUID, frames []entity.PoseFrame) error {
	if len(frames) == 0 {
		return nil
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := copyFrames(ctx, tx, videoID, frames); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PoseFrameRepository) ListByVideo(ctx context.Context, videoID uuid.UUID, q port.PoseQuery) ([]entity.PoseFrame, error) {
	query := `
		SELECT frame_index, timestamp_ms, landmarks
		FROM pose_frames WHERE video_id=$1`
	args := []any{videoID}

	if q.StartMS != nil {
		args = append(args, *q.StartMS)
		query += fmt.Sprintf(" AND timestamp_ms >= $%d", len(args))
	}
	if q.StopMS != nil {
		args = append(args, *q.StopMS)
		query += fmt.Sprintf(" AND timestamp_ms <= $%d", len(args))
	}
	query += " ORDER BY frame_index"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list pose frames: %w", err)
	}
	defer rows.Close()

	var frames []entity.PoseFrame
	for rows.Next() {
		f := entity.PoseFrame{VideoID: videoID}
		var landmarks []byte
		if err := rows.Scan(&f.FrameIndex, &f.TimestampMS, &landmarks); err != nil {
			return nil, fmt.Errorf("scan pose frame: %w", err)
		}
		if err := json.Unmarshal(landmarks, &f.Landmarks); err != nil {
			return nil, fmt.Errorf("decode landmarks: %w", err)
		}
		frames = append(frames, f)
	}
	return frames, rows.Err()
}

func (r *PoseFrameRepository) FindByIndex(ctx context.Context, videoID uuid.UUID, frameIndex int) (*entity.PoseFrame, error) {
	f := &entity.PoseFrame{VideoID: videoID}
	var landmarks []byte
	err := r.pool.QueryRow(ctx,
		`SELECT frame_index, timestamp_ms, landmarks FROM pose_frames WHERE video_id=$1 AND frame_index=$2`,
		videoID, frameIndex,
	).Scan(&f.FrameIndex, &f.TimestampMS, &landmarks)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("frame %d of video %s: %w", frameIndex, videoID, entity.ErrNotFound)
		}
		return nil, fmt.Errorf("find pose frame: %w", err)
	}
	if err := json.Unmarshal(landmarks, &f.Landmarks); err != nil {
		return nil, fmt.Errorf("decode landmarks: %w", err)
	}
	return f, nil
}

// FinishRecording flushes the final live buffer and overwrites the job's
// frame count and duration, marking it completed, all in one transaction.
func (r *PoseFrameRepository) FinishRecording(ctx context.Context, videoID uuid.UUID, frames []entity.PoseFrame, frameCount int, durationMS int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := copyFrames(ctx, tx, videoID, frames); err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		`UPDATE videos SET frame_count=$2, duration_ms=$3, status=$4 WHERE id=$1`,
		videoID, frameCount, durationMS, string(entity.StatusCompleted),
	)
	if err != nil {
		return fmt.Errorf("finish recording: %w", err)
	}
	return tx.Commit(ctx)
}

// AppendRecording flushes frames after an abrupt disconnect, incrementing
// the job's existing frame count rather than overwriting it.
func (r *PoseFrameRepository) AppendRecording(ctx context.Context, videoID uuid.UUID, frames []entity.PoseFrame) error {
	if len(frames) == 0 {
		return nil
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := copyFrames(ctx, tx, videoID, frames); err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		`UPDATE videos SET frame_count = frame_count + $2, status=$3 WHERE id=$1`,
		videoID, len(frames), string(entity.StatusCompleted),
	)
	if err != nil {
		return fmt.Errorf("append recording: %w", err)
	}
	return tx.Commit(ctx)
}

// copyFrames bulk-loads frames for one video inside the caller's
// transaction.
func copyFrames(ctx context.Context, tx pgx.Tx, videoID uuid.UUID, frames []entity.PoseFrame) error {
	if len(frames) == 0 {
		return nil
	}
	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"pose_frames"},
		[]string{"video_id", "frame_index", "timestamp_ms", "landmarks"},
		pgx.CopyFromSlice(len(frames), func(i int) ([]any, error) {
			landmarks, err := json.Marshal(frames[i].Landmarks)
			if err != nil {
				return nil, err
			}
			return []any{videoID, frames[i].FrameIndex, frames[i].TimestampMS, landmarks}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy pose frames: %w", err)
	}
	return nil
}
