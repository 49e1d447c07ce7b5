package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nickmccarty/kinstretch-web-app/internal/domain/entity"
)

type MeasurementRepository struct {
	pool *pgxpool.Pool
}

func NewMeasurementRepository(pool *pgxpool.Pool) *MeasurementRepository {
	return &MeasurementRepository{pool: pool}
}

func (r *MeasurementRepository) Create(ctx context.Context, m *entity.Measurement) error {
	query := `
		INSERT INTO measurements (
			id, session_id, video_id, frame_index, frame_timestamp_ms,
			joint_index, edge_a, edge_b, angle_degrees, label, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`

	_, err := r.pool.Exec(ctx, query,
		m.ID, m.SessionID, m.VideoID, m.FrameIndex, m.FrameTimestampMS,
		m.JointIndex, []int{m.EdgeA[0], m.EdgeA[1]}, []int{m.EdgeB[0], m.EdgeB[1]},
		m.AngleDegrees, m.Label, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert measurement: %w", err)
	}
	return nil
}

func (r *MeasurementRepository) List(ctx context.Context, sessionID, videoID *uuid.UUID) ([]*entity.Measurement, error) {
	query := `
		SELECT id, session_id, video_id, frame_index, frame_timestamp_ms,
			joint_index, edge_a, edge_b, angle_degrees, label, created_at
		FROM measurements WHERE 1=1`
	var args []any

	if sessionID != nil {
		args = append(args, *sessionID)
		query += fmt.Sprintf(" AND session_id=$%d", len(args))
	}
	if videoID != nil {
		args = append(args, *videoID)
		query += fmt.Sprintf(" AND video_id=$%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list measurements: %w", err)
	}
	defer rows.Close()

	var out []*entity.Measurement
	for rows.Next() {
		m := &entity.Measurement{}
		var edgeA, edgeB []int
		err := rows.Scan(
			&m.ID, &m.SessionID, &m.VideoID, &m.FrameIndex, &m.FrameTimestampMS,
			&m.JointIndex, &edgeA, &edgeB, &m.AngleDegrees, &m.Label, &m.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan measurement: %w", err)
		}
		if len(edgeA) == 2 {
			m.EdgeA = entity.Edge{edgeA[0], edgeA[1]}
		}
		if len(edgeB) == 2 {
			m.EdgeB = entity.Edge{edgeB[0], edgeB[1]}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MeasurementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM measurements WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete measurement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("measurement %s: %w", id, entity.ErrNotFound)
	}
	return nil
}
