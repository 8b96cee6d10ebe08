package catalog

import (
	"context"
	"database/sql"
	"time"
)

type Repository interface {
	CreateScene(ctx context.Context, scene *Scene) error
	GetScene(ctx context.Context, id string) (*Scene, error)
	GetSceneByPath(ctx context.Context, path string) (*Scene, error)
	ListScenes(ctx context.Context) ([]*Scene, error)
	DeleteScene(ctx context.Context, id string) error
	CountScenes(ctx context.Context) (int, error)

	CreateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context, limit int) ([]*Job, error)
	LastCompletedJob(ctx context.Context) (*Job, error)
	FinishJob(ctx context.Context, id, status, errorMsg string, ticks, totalSteps int) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const sceneColumns = `id, name, path, fps, frame_start, frame_end, created_at`

func (r *SQLiteRepository) CreateScene(ctx context.Context, s *Scene) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO scenes (`+sceneColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.Name, s.Path, s.FPS, s.FrameStart, s.FrameEnd, s.CreatedAt.UTC().Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetScene(ctx context.Context, id string) (*Scene, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sceneColumns+` FROM scenes WHERE id = ?`, id)
	return scanScene(row)
}

func (r *SQLiteRepository) GetSceneByPath(ctx context.Context, path string) (*Scene, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sceneColumns+` FROM scenes WHERE path = ?`, path)
	return scanScene(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScene(row rowScanner) (*Scene, error) {
	var s Scene
	var createdAt string

	err := row.Scan(&s.ID, &s.Name, &s.Path, &s.FPS, &s.FrameStart, &s.FrameEnd, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &s, nil
}

func (r *SQLiteRepository) ListScenes(ctx context.Context) ([]*Scene, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+sceneColumns+` FROM scenes ORDER BY created_at DESC, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scenes []*Scene
	for rows.Next() {
		s, err := scanScene(rows)
		if err != nil {
			return nil, err
		}
		scenes = append(scenes, s)
	}
	return scenes, rows.Err()
}

// DeleteScene removes the scene and, through the foreign key, its jobs.
func (r *SQLiteRepository) DeleteScene(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM scenes WHERE id = ?", id)
	return err
}

func (r *SQLiteRepository) CountScenes(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM scenes").Scan(&count)
	return count, err
}

const jobColumns = `id, scene_id, status, object_name, boundary_name, tempo, output_dir, project_name,
	ticks, total_steps, error, created_at, updated_at`

func (r *SQLiteRepository) CreateJob(ctx context.Context, j *Job) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, j.ID, j.SceneID, j.Status, j.ObjectName, j.BoundaryName, j.Tempo, j.OutputDir, j.ProjectName,
		j.Ticks, j.TotalSteps, nullString(j.Error),
		j.CreatedAt.UTC().Format(time.RFC3339), j.UpdatedAt.UTC().Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetJob(ctx context.Context, id string) (*Job, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	return scanJob(row)
}

func scanJob(row rowScanner) (*Job, error) {
	var j Job
	var errMsg sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&j.ID, &j.SceneID, &j.Status, &j.ObjectName, &j.BoundaryName, &j.Tempo, &j.OutputDir,
		&j.ProjectName, &j.Ticks, &j.TotalSteps, &errMsg, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	j.Error = errMsg.String
	j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &j, nil
}

func (r *SQLiteRepository) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (r *SQLiteRepository) LastCompletedJob(ctx context.Context) (*Job, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+jobColumns+` FROM jobs WHERE status = ? ORDER BY created_at DESC, rowid DESC LIMIT 1
	`, JobStatusCompleted)
	return scanJob(row)
}

func (r *SQLiteRepository) FinishJob(ctx context.Context, id, status, errorMsg string, ticks, totalSteps int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error = ?, ticks = ?, total_steps = ?, updated_at = ? WHERE id = ?
	`, status, nullString(errorMsg), ticks, totalSteps, time.Now().UTC().Format(time.RFC3339), id)
	return err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
