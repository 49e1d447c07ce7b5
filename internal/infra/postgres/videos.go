package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nickmccarty/kinstretch-web-app/internal/domain/entity"
)

type VideoRepository struct {
	pool *pgxpool.Pool
}

func NewVideoRepository(pool *pgxpool.Pool) *VideoRepository {
	return &VideoRepository{pool: pool}
}

const videoColumns = `id, session_id, source_type, url, file_path, title, creator,
		duration_ms, frame_count, status, error_message, created_at`

func (r *VideoRepository) Create(ctx context.Context, v *entity.Video) error {
	query := `
		INSERT INTO videos (` + videoColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`

	_, err := r.pool.Exec(ctx, query,
		v.ID, v.SessionID, string(v.SourceType), v.URL, v.FilePath, v.Title, v.Creator,
		v.DurationMS, v.FrameCount, string(v.Status), v.ErrorMessage, v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert video: %w", err)
	}
	return nil
}

func (r *VideoRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE id=$1`
	v, err := scanVideo(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("video %s: %w", id, entity.ErrNotFound)
		}
		return nil, fmt.Errorf("find video by id: %w", err)
	}
	return v, nil
}

func (r *VideoRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*entity.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE session_id=$1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var videos []*entity.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

func (r *VideoRepository) Update(ctx context.Context, v *entity.Video) error {
	query := `
		UPDATE videos SET
			url=$2, file_path=$3, title=$4, creator=$5, duration_ms=$6,
			frame_count=$7, status=$8, error_message=$9
		WHERE id=$1`

	_, err := r.pool.Exec(ctx, query,
		v.ID, v.URL, v.FilePath, v.Title, v.Creator, v.DurationMS,
		v.FrameCount, string(v.Status), v.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("update video: %w", err)
	}
	return nil
}

func (r *VideoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM videos WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("video %s: %w", id, entity.ErrNotFound)
	}
	return nil
}

// ClaimPending is the one-shot pending→processing trigger: only the caller
// that flips the row runs the orchestration.
func (r *VideoRepository) ClaimPending(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE videos SET status=$2 WHERE id=$1 AND status=$3`,
		id, string(entity.StatusProcessing), string(entity.StatusPending),
	)
	if err != nil {
		return false, fmt.Errorf("claim video: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// CompleteIngestion writes all frames and the completed job fields in one
// transaction; a failure leaves the job untouched for the failure path.
func (r *VideoRepository) CompleteIngestion(ctx context.Context, v *entity.Video, frames []entity.PoseFrame) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := copyFrames(ctx, tx, v.ID, frames); err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`UPDATE videos SET frame_count=$2, duration_ms=$3, status=$4, error_message='' WHERE id=$1`,
		v.ID, v.FrameCount, v.DurationMS, string(entity.StatusCompleted),
	)
	if err != nil {
		return fmt.Errorf("complete video: %w", err)
	}

	return tx.Commit(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (*entity.Video, error) {
	v := &entity.Video{}
	var sourceType, status string
	err := row.Scan(
		&v.ID, &v.SessionID, &sourceType, &v.URL, &v.FilePath, &v.Title, &v.Creator,
		&v.DurationMS, &v.FrameCount, &status, &v.ErrorMessage, &v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	v.SourceType = entity.SourceType(sourceType)
	v.Status = entity.VideoStatus(status)
	return v, nil
}
