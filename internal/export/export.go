// Package export turns one object's animation into REAPER automation items:
// one file per sampled channel, resampled onto a tempo grid.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/reaperio/autoitem/internal/sampler"
	"github.com/reaperio/autoitem/internal/scene"
)

var (
	ErrInvalidTempo  = fmt.Errorf("tempo must be between %d and %d", MinTempo, MaxTempo)
	ErrProjectName   = errors.New("project name is required")
	ErrMissingObject = errors.New("moving and boundary objects are required")
)

// NewJob resolves the object names against sc and freezes the parameters.
func NewJob(sc *scene.Scene, object, boundary string, tempo int, outputDir, projectName string) (*Job, error) {
	moving, err := sc.Object(object)
	if err != nil {
		return nil, fmt.Errorf("moving object: %w", err)
	}
	bound, err := sc.Object(boundary)
	if err != nil {
		return nil, fmt.Errorf("boundary object: %w", err)
	}

	job := &Job{
		Scene:       sc,
		Moving:      moving,
		Boundary:    bound,
		Tempo:       tempo,
		OutputDir:   outputDir,
		ProjectName: projectName,
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return job, nil
}

// Validate checks everything that can be checked without touching the
// output files.
func (j *Job) Validate() error {
	if j.Scene == nil || j.Moving == nil || j.Boundary == nil {
		return ErrMissingObject
	}
	if j.Tempo < MinTempo || j.Tempo > MaxTempo {
		return fmt.Errorf("%w: got %d", ErrInvalidTempo, j.Tempo)
	}
	if j.ProjectName == "" {
		return ErrProjectName
	}
	return ValidateOutputDir(j.OutputDir)
}

func (j *Job) Timeline() sampler.Timeline {
	return sampler.Timeline{
		FPS:        j.Scene.FPS,
		FrameStart: j.Scene.FrameStart,
		FrameEnd:   j.Scene.FrameEnd,
		Tempo:      j.Tempo,
	}
}

// Run samples the job's moving object and writes the four automation items.
// The scene's playback frame is restored before Run returns, whatever the
// outcome. Files already written are left in place on failure.
func Run(ctx context.Context, job *Job, logger *slog.Logger) (*Summary, error) {
	start := time.Now()
	if err := job.Validate(); err != nil {
		return nil, err
	}

	tl := job.Timeline()
	cursor := job.Scene.Acquire()
	defer cursor.Release()

	smp, err := sampler.New(sampler.Config{
		Timeline: tl,
		Moving:   job.Moving,
		Boundary: job.Boundary,
		Cursor:   cursor,
	})
	if err != nil {
		return nil, err
	}
	defer smp.Close()

	channels, err := OpenChannels(job.OutputDir, job.ProjectName)
	if err != nil {
		return nil, err
	}

	ticks, err := write(ctx, smp, channels, tl.TotalSteps())
	if cerr := channels.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		OutputDir:  job.OutputDir,
		Files:      channels.Paths(),
		TotalSteps: tl.TotalSteps(),
		FrameStep:  tl.Step(),
		Ticks:      ticks,
		Duration:   time.Since(start),
	}
	if logger != nil {
		logger.Info("automation items exported",
			"object", job.Moving.Name,
			"boundary", job.Boundary.Name,
			"tempo", job.Tempo,
			"ticks", ticks,
			"total_steps", summary.TotalSteps,
			"output_dir", summary.OutputDir,
		)
	}
	return summary, nil
}

func write(ctx context.Context, smp *sampler.Sampler, channels *ChannelSet, totalSteps int) (int, error) {
	if err := channels.WriteHeader(totalSteps); err != nil {
		return 0, err
	}

	ticks := 0
	for smp.Next(ctx) {
		if err := channels.Append(smp.Tick()); err != nil {
			return ticks, err
		}
		ticks++
	}
	if err := smp.Err(); err != nil {
		return ticks, fmt.Errorf("sampling interrupted: %w", err)
	}
	return ticks, nil
}
