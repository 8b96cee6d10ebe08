package export

import (
	"time"

	"github.com/reaperio/autoitem/internal/scene"
)

const (
	MinTempo     = 1
	MaxTempo     = 1024
	DefaultTempo = 120
)

// ExportRequest is what a caller submits to start an export.
type ExportRequest struct {
	SceneID     string `json:"scene_id"`
	Object      string `json:"object"`
	Boundary    string `json:"boundary"`
	Tempo       int    `json:"tempo"`
	OutputDir   string `json:"output_dir"`
	ProjectName string `json:"project_name"`
}

// Job is the frozen parameter set of one export, with its objects already
// resolved to handles.
type Job struct {
	Scene       *scene.Scene
	Moving      *scene.Object
	Boundary    *scene.Object
	Tempo       int
	OutputDir   string
	ProjectName string
}

// Summary describes a finished export.
type Summary struct {
	OutputDir  string        `json:"output_dir"`
	Files      []string      `json:"files"`
	TotalSteps int           `json:"total_steps"`
	FrameStep  int           `json:"frame_step"`
	Ticks      int           `json:"ticks"`
	Duration   time.Duration `json:"duration"`
}

// Message is the human-readable completion line.
func (s *Summary) Message() string {
	return "files saved to: " + s.OutputDir
}

type ExportResponse struct {
	Status  string   `json:"status"`
	JobID   string   `json:"job_id"`
	Message string   `json:"message"`
	Summary *Summary `json:"summary"`
}
