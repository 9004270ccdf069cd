package voxelgif

import (
	"errors"
	"fmt"
)

// ErrNoFrames indicates an empty input sequence.
var ErrNoFrames = errors.New("voxelgif: no input frames")

// ErrBothBackendsFailed indicates that the primary quantization backend
// failed and the fallback backend failed as well.
var ErrBothBackendsFailed = errors.New("voxelgif: all quantization backends failed")

// ErrPipelineBusy indicates a Run call while another run is in flight on
// the same Pipeline.
var ErrPipelineBusy = errors.New("voxelgif: pipeline run already in progress")

// PipelineError wraps a stage failure with enough context to tell which
// stage, and where applicable which frame, broke the run.
type PipelineError struct {
	// Stage is the state the pipeline was in when the error occurred.
	Stage State
	// FrameIndex is the offending frame, or -1 when the error is not
	// tied to a single frame.
	FrameIndex int
	// Err is the underlying cause.
	Err error
}

func (e *PipelineError) Error() string {
	if e.FrameIndex >= 0 {
		return fmt.Sprintf("voxelgif: %s failed at frame %d: %v", e.Stage, e.FrameIndex, e.Err)
	}
	return fmt.Sprintf("voxelgif: %s failed: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

func stageError(stage State, err error) *PipelineError {
	return &PipelineError{Stage: stage, FrameIndex: -1, Err: err}
}
