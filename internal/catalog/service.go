package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/reaperio/autoitem/internal/export"
	"github.com/reaperio/autoitem/internal/logging"
	scenepkg "github.com/reaperio/autoitem/internal/scene"
)

const (
	DefaultProjectName = "myproject"
	maxProjectName     = 100
)

var (
	ErrSceneNotFound = errors.New("scene not found")
	ErrNoPriorExport = errors.New("no completed export to repeat")
)

type CatalogService interface {
	AddScene(ctx context.Context, path, name string) (*Scene, error)
	RemoveScene(ctx context.Context, id string) error
	GetScenes(ctx context.Context) ([]*Scene, error)
	GetScene(ctx context.Context, id string) (*Scene, error)
	CountScenes(ctx context.Context) (int, error)
	LoadScene(ctx context.Context, id string) (*scenepkg.Scene, error)
	Export(ctx context.Context, req export.ExportRequest) (*Job, *export.Summary, error)
	ExportAgain(ctx context.Context) (*Job, *export.Summary, error)
	ListJobs(ctx context.Context, limit int) ([]*Job, error)
	GetJob(ctx context.Context, id string) (*Job, error)
}

// Defaults fill in export request fields the caller left empty.
type Defaults struct {
	Tempo     int
	OutputDir string
}

type Service struct {
	repo     Repository
	logger   *slog.Logger
	defaults Defaults

	// exports share the scene cursor, one at a time
	exportMu sync.Mutex
}

func NewService(repo Repository, logger *slog.Logger, defaults Defaults) *Service {
	if defaults.Tempo == 0 {
		defaults.Tempo = export.DefaultTempo
	}
	return &Service{repo: repo, logger: logger, defaults: defaults}
}

func (s *Service) AddScene(ctx context.Context, path, name string) (*Scene, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("path does not exist: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory")
	}
	if !IsSceneFile(absPath) {
		return nil, fmt.Errorf("unsupported scene file: %s", filepath.Ext(absPath))
	}

	existing, err := s.repo.GetSceneByPath(ctx, absPath)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	sc, err := scenepkg.Load(absPath)
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = sc.Name
	}
	if name == "" {
		name = filepath.Base(absPath)
	}

	scene := &Scene{
		ID:         NewID(),
		Name:       name,
		Path:       absPath,
		FPS:        sc.FPS,
		FrameStart: sc.FrameStart,
		FrameEnd:   sc.FrameEnd,
		CreatedAt:  time.Now(),
	}
	if err := s.repo.CreateScene(ctx, scene); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("scene added", "scene_id", scene.ID, "path", logging.SanitizePath(absPath))
	}
	return scene, nil
}

func (s *Service) RemoveScene(ctx context.Context, id string) error {
	return s.repo.DeleteScene(ctx, id)
}

func (s *Service) GetScenes(ctx context.Context) ([]*Scene, error) {
	return s.repo.ListScenes(ctx)
}

func (s *Service) GetScene(ctx context.Context, id string) (*Scene, error) {
	return s.repo.GetScene(ctx, id)
}

func (s *Service) CountScenes(ctx context.Context) (int, error) {
	return s.repo.CountScenes(ctx)
}

// LoadScene reads the registered scene's document from disk.
func (s *Service) LoadScene(ctx context.Context, id string) (*scenepkg.Scene, error) {
	rec, err := s.repo.GetScene(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrSceneNotFound
	}
	return scenepkg.Load(rec.Path)
}

// Export runs one export synchronously and records it in the job history.
// Requests that fail validation are rejected without a job record.
func (s *Service) Export(ctx context.Context, req export.ExportRequest) (*Job, *export.Summary, error) {
	if req.Tempo == 0 {
		req.Tempo = s.defaults.Tempo
	}
	if req.OutputDir == "" {
		req.OutputDir = s.defaults.OutputDir
	}
	req.ProjectName = export.SanitizeName(req.ProjectName, maxProjectName)
	if req.ProjectName == "" {
		req.ProjectName = DefaultProjectName
	}

	sc, err := s.LoadScene(ctx, req.SceneID)
	if err != nil {
		return nil, nil, err
	}

	ej, err := export.NewJob(sc, req.Object, req.Boundary, req.Tempo, req.OutputDir, req.ProjectName)
	if err != nil {
		return nil, nil, err
	}

	s.exportMu.Lock()
	defer s.exportMu.Unlock()

	now := time.Now()
	job := &Job{
		ID:           NewID(),
		SceneID:      req.SceneID,
		Status:       JobStatusRunning,
		ObjectName:   req.Object,
		BoundaryName: req.Boundary,
		Tempo:        req.Tempo,
		OutputDir:    req.OutputDir,
		ProjectName:  req.ProjectName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, nil, err
	}

	logger := s.logger
	if logger != nil {
		logger = logging.WithSceneID(logging.WithJobID(logger, job.ID), job.SceneID)
		logger.Info("starting export", "project", job.ProjectName, "tempo", job.Tempo)
	}

	summary, runErr := export.Run(ctx, ej, logger)

	// record the outcome even when the request context is gone
	recordCtx := context.WithoutCancel(ctx)
	if runErr != nil {
		job.Status = JobStatusFailed
		job.Error = runErr.Error()
		if err := s.repo.FinishJob(recordCtx, job.ID, job.Status, job.Error, 0, 0); err != nil && logger != nil {
			logger.Error("failed to record export failure", "error", err)
		}
		if logger != nil {
			logger.Error("export failed", "error", runErr)
		}
		return job, nil, runErr
	}

	job.Status = JobStatusCompleted
	job.Ticks = summary.Ticks
	job.TotalSteps = summary.TotalSteps
	if err := s.repo.FinishJob(recordCtx, job.ID, job.Status, "", job.Ticks, job.TotalSteps); err != nil {
		return job, summary, fmt.Errorf("failed to record export: %w", err)
	}
	return job, summary, nil
}

// ExportAgain repeats the most recent completed export with the same
// parameters.
func (s *Service) ExportAgain(ctx context.Context) (*Job, *export.Summary, error) {
	last, err := s.repo.LastCompletedJob(ctx)
	if err != nil {
		return nil, nil, err
	}
	if last == nil {
		return nil, nil, ErrNoPriorExport
	}

	return s.Export(ctx, export.ExportRequest{
		SceneID:     last.SceneID,
		Object:      last.ObjectName,
		Boundary:    last.BoundaryName,
		Tempo:       last.Tempo,
		OutputDir:   last.OutputDir,
		ProjectName: last.ProjectName,
	})
}

func (s *Service) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	return s.repo.ListJobs(ctx, limit)
}

func (s *Service) GetJob(ctx context.Context, id string) (*Job, error) {
	return s.repo.GetJob(ctx, id)
}
