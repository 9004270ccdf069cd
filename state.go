package voxelgif

// State is the pipeline lifecycle state. A run moves forward through
// the processing states and ends in StateComplete or StateFailed. The
// only backward transition is the backend fallback, which re-enters
// StateQuantizing after a failed quantize or encode attempt.
type State uint8

const (
	// StateIdle means no run has started yet.
	StateIdle State = iota
	// StateDownsampling means input frames are being resized.
	StateDownsampling
	// StateQuantizing means the palette is being built and applied.
	StateQuantizing
	// StateEncoding means the GIF stream is being serialized.
	StateEncoding
	// StateBuildingTensor means the voxel volume is being filled.
	StateBuildingTensor
	// StateComplete means the run finished and both outputs are ready.
	StateComplete
	// StateFailed means the run stopped with an error.
	StateFailed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDownsampling:
		return "downsampling"
	case StateQuantizing:
		return "quantizing"
	case StateEncoding:
		return "encoding"
	case StateBuildingTensor:
		return "building_tensor"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// terminal reports whether no further transitions are possible.
func (s State) terminal() bool {
	return s == StateComplete || s == StateFailed
}
