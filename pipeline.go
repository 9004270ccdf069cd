package voxelgif

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/voxelkit/voxelgif/frame"
	"github.com/voxelkit/voxelgif/quant"
	"github.com/voxelkit/voxelgif/tensor"
)

// ProgressCallback is invoked on every state transition of a run.
type ProgressCallback func(runID string, state State)

// Result holds the two outputs of a completed run.
type Result struct {
	// RunID identifies the run that produced this result.
	RunID string
	// GIF is the complete animated GIF89a stream.
	GIF []byte
	// Tensor is the voxel volume, TargetSide cubed.
	Tensor *tensor.Tensor
	// Palette is the palette the GIF frames index into. In per-frame
	// mode it is the first frame's palette.
	Palette quant.Palette
	// Backend names the quantization backend that produced the GIF.
	Backend string
}

// Pipeline turns a sequence of square RGBA frames into an animated GIF
// plus a voxel tensor. A Pipeline is reusable but runs one sequence at
// a time; Run from a second goroutine while busy returns
// ErrPipelineBusy.
type Pipeline struct {
	options  *Options
	backends []backend

	mu       sync.Mutex
	state    State
	running  bool
	runID    string
	progress ProgressCallback

	// usedBackend names the backend that produced the current run's
	// GIF. Only touched by the Run goroutine.
	usedBackend string
}

// NewPipeline creates a pipeline with the given options.
func NewPipeline(options *Options) *Pipeline {
	if options == nil {
		options = NewOptions()
	}
	backends := []backend{medianCutBackend{}, kmeansBackend{}}
	if options.Backend == BackendKMeans {
		backends[0], backends[1] = backends[1], backends[0]
	}
	return &Pipeline{
		options:  options,
		backends: backends,
		state:    StateIdle,
	}
}

// OnProgress sets the callback for state transitions. The callback runs
// on the Run goroutine and must not call back into the pipeline.
func (p *Pipeline) OnProgress(callback ProgressCallback) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.progress = callback
}

// State returns the state of the current or most recent run.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	p.state = s
	cb := p.progress
	id := p.runID
	p.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"run_id": id,
		"state":  s.String(),
	}).Debug("Pipeline state transition")
	if cb != nil {
		cb(id, s)
	}
}

// Run processes frames through downsampling, quantization, GIF encoding
// and tensor building. Input frames must all share one square side; the
// sequence may be any positive length, and the voxel volume zero pads or
// truncates it to TargetSide depth slices.
func (p *Pipeline) Run(ctx context.Context, frames []frame.Frame) (*Result, error) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil, ErrPipelineBusy
	}
	p.running = true
	p.runID = uuid.New().String()
	runID := p.runID
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	res, err := p.run(ctx, runID, frames)
	if err != nil {
		p.setState(StateFailed)
		return nil, err
	}
	p.setState(StateComplete)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, runID string, frames []frame.Frame) (*Result, error) {
	opts := p.options
	if len(frames) == 0 {
		return nil, stageError(StateDownsampling, ErrNoFrames)
	}
	side := frames[0].Side
	if i, err := frame.ValidateAll(frames, side); err != nil {
		return nil, &PipelineError{Stage: StateDownsampling, FrameIndex: i, Err: err}
	}

	logrus.WithFields(logrus.Fields{
		"run_id":      runID,
		"frames":      len(frames),
		"input_side":  side,
		"target_side": opts.TargetSide,
		"palette":     opts.PaletteSize,
	}).Info("Pipeline run started")

	p.setState(StateDownsampling)
	small, err := frame.DownsampleAll(ctx, frames, opts.TargetSide, opts.Filter, opts.Workers)
	if err != nil {
		return nil, stageError(StateDownsampling, err)
	}

	gifData, qres, err := p.quantizeAndEncode(ctx, runID, small)
	if err != nil {
		return nil, err
	}

	p.setState(StateBuildingTensor)
	voxelFrames := small
	if opts.TensorSource == TensorFromQuantized {
		voxelFrames = make([]frame.Frame, len(qres.Frames))
		for i := range qres.Frames {
			voxelFrames[i] = qres.Materialize(i)
		}
	}
	vol, err := tensor.Build(voxelFrames, opts.TargetSide)
	if err != nil {
		return nil, stageError(StateBuildingTensor, err)
	}

	return &Result{
		RunID:   runID,
		GIF:     gifData,
		Tensor:  vol,
		Palette: qres.Palette,
		Backend: p.usedBackend,
	}, nil
}

// quantizeAndEncode runs the quantize and encode stages with the primary
// backend, falling back to the next backend on failure when enabled.
// Cancellation is never retried.
func (p *Pipeline) quantizeAndEncode(ctx context.Context, runID string, frames []frame.Frame) ([]byte, *quant.Result, error) {
	opts := p.options
	var firstErr error
	for i, b := range p.backends {
		p.setState(StateQuantizing)
		qres, err := b.quantize(ctx, frames, opts)
		if err == nil {
			p.setState(StateEncoding)
			var data []byte
			data, err = encodeResult(qres, opts)
			if err == nil {
				p.usedBackend = b.Name()
				return data, qres, nil
			}
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil, stageError(p.State(), err)
		}
		if !opts.AutoFallback {
			return nil, nil, stageError(p.State(), err)
		}
		if firstErr == nil {
			firstErr = err
		}
		if i == len(p.backends)-1 {
			return nil, nil, stageError(p.State(), fmt.Errorf("%w: %v", ErrBothBackendsFailed, firstErr))
		}
		logrus.WithFields(logrus.Fields{
			"run_id":  runID,
			"backend": b.Name(),
			"error":   err,
		}).Warn("Quantization backend failed, trying fallback")
	}
	// Unreachable; the loop always returns.
	return nil, nil, stageError(StateQuantizing, ErrBothBackendsFailed)
}
