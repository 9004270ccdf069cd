// Package voxelgif turns fixed-length sequences of square RGBA camera
// frames into two aligned artifacts: an animated, palette-indexed
// GIF89a byte stream and a dense cubic voxel tensor.
//
// The pipeline runs four stages in order: downsampling to the target
// side, color quantization (at most 256 colors, shared or per-frame
// palettes, optional dithering), GIF serialization with hand-rolled
// variable-width LZW, and voxel volume assembly. The GIF and the tensor
// come from the same downsampled frames, so frame z of the animation is
// depth slice z of the volume.
//
// # Getting Started
//
// Create a pipeline with options and run it over a frame sequence:
//
//	options := voxelgif.NewOptions()
//	options.TargetSide = 128
//	options.PaletteSize = 256
//
//	pipeline := voxelgif.NewPipeline(options)
//	pipeline.OnProgress(func(runID string, state voxelgif.State) {
//	    fmt.Printf("%s: %s\n", runID, state)
//	})
//
//	result, err := pipeline.Run(ctx, frames)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	os.WriteFile("out.gif", result.GIF, 0644)
//	packed, _ := tensor.Marshal(result.Tensor)
//	os.WriteFile("out.yxv", packed, 0644)
//
// # Core Types
//
// The package defines several core types:
//
//   - [Pipeline]: Orchestrates the four stages and backend fallback
//   - [Options]: Configuration for a pipeline
//   - [Result]: The GIF stream, voxel tensor and palette of one run
//   - [State]: Lifecycle state reported to the progress callback
//
// # Subpackages
//
// The stages live in focused subpackages and are usable on their own:
//
//   - frame: the RGBA frame type, validation and downsampling
//   - quant: histogram accumulation, palette building and dithered
//     index mapping
//   - gif89a: deterministic GIF89a serialization
//   - tensor: the voxel volume and its compressed container format
//
// # Backend Fallback
//
// Palette building runs on the median-cut backend first. When
// AutoFallback is set and that backend fails, the same downsampled
// frames are retried on the k-means backend before the run is declared
// failed; the error then wraps [ErrBothBackendsFailed].
package voxelgif
