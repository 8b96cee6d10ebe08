package api

import (
	"time"

	"github.com/reaperio/autoitem/internal/catalog"
	"github.com/reaperio/autoitem/internal/export"
	"github.com/reaperio/autoitem/internal/scene"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type StatusResponse struct {
	State       string       `json:"state"`
	LastError   string       `json:"last_error,omitempty"`
	ScenesCount int          `json:"scenes_count"`
	JobsCount   int          `json:"jobs_count"`
	LastJob     *JobResponse `json:"last_job,omitempty"`
}

type AddSceneRequest struct {
	Path string `json:"path"`
	Name string `json:"name,omitempty"`
}

type AddSceneResponse struct {
	SceneID string `json:"scene_id"`
}

type SceneResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Path       string  `json:"path"`
	FPS        float64 `json:"fps"`
	FrameStart int     `json:"frame_start"`
	FrameEnd   int     `json:"frame_end"`
	CreatedAt  string  `json:"created_at"`
}

type ScenesResponse struct {
	Scenes []SceneResponse `json:"scenes"`
}

type ObjectResponse struct {
	Name       string     `json:"name"`
	Dimensions [3]float64 `json:"dimensions"`
	Animated   bool       `json:"animated"`
}

type ObjectsResponse struct {
	SceneID string           `json:"scene_id"`
	Objects []ObjectResponse `json:"objects"`
}

type JobResponse struct {
	ID          string `json:"id"`
	SceneID     string `json:"scene_id"`
	Status      string `json:"status"`
	Object      string `json:"object"`
	Boundary    string `json:"boundary"`
	Tempo       int    `json:"tempo"`
	OutputDir   string `json:"output_dir"`
	ProjectName string `json:"project_name"`
	Ticks       int    `json:"ticks"`
	TotalSteps  int    `json:"total_steps"`
	Error       string `json:"error,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func SceneToResponse(s *catalog.Scene) SceneResponse {
	return SceneResponse{
		ID:         s.ID,
		Name:       s.Name,
		Path:       s.Path,
		FPS:        s.FPS,
		FrameStart: s.FrameStart,
		FrameEnd:   s.FrameEnd,
		CreatedAt:  s.CreatedAt.Format(time.RFC3339),
	}
}

func ObjectToResponse(o *scene.Object) ObjectResponse {
	return ObjectResponse{
		Name:       o.Name,
		Dimensions: [3]float64(o.Dimensions),
		Animated:   o.Animated(),
	}
}

func JobToResponse(j *catalog.Job) JobResponse {
	return JobResponse{
		ID:          j.ID,
		SceneID:     j.SceneID,
		Status:      j.Status,
		Object:      j.ObjectName,
		Boundary:    j.BoundaryName,
		Tempo:       j.Tempo,
		OutputDir:   j.OutputDir,
		ProjectName: j.ProjectName,
		Ticks:       j.Ticks,
		TotalSteps:  j.TotalSteps,
		Error:       j.Error,
		CreatedAt:   j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   j.UpdatedAt.Format(time.RFC3339),
	}
}

func ExportToResponse(j *catalog.Job, s *export.Summary) export.ExportResponse {
	return export.ExportResponse{
		Status:  "ok",
		JobID:   j.ID,
		Message: s.Message(),
		Summary: s,
	}
}
