package catalog

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Scene is a registered scene document on disk.
type Scene struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	FPS        float64   `json:"fps"`
	FrameStart int       `json:"frame_start"`
	FrameEnd   int       `json:"frame_end"`
	CreatedAt  time.Time `json:"created_at"`
}

const (
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Job records one export run.
type Job struct {
	ID           string    `json:"id"`
	SceneID      string    `json:"scene_id"`
	Status       string    `json:"status"`
	ObjectName   string    `json:"object"`
	BoundaryName string    `json:"boundary"`
	Tempo        int       `json:"tempo"`
	OutputDir    string    `json:"output_dir"`
	ProjectName  string    `json:"project_name"`
	Ticks        int       `json:"ticks"`
	TotalSteps   int       `json:"total_steps"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var SceneExtensions = map[string]bool{
	".yaml": true,
	".yml":  true,
	".toml": true,
}

func NewID() string {
	return uuid.NewString()
}

func IsSceneFile(filename string) bool {
	return SceneExtensions[strings.ToLower(filepath.Ext(filename))]
}
