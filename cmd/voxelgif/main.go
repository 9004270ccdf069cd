// Command voxelgif packs image sequences into an animated GIF plus a
// voxel container, and inspects or unpacks existing containers.
//
// Usage:
//
//	voxelgif pack [flags] <out-prefix> <frame.png> [frame.png ...]
//	voxelgif info <file.yxv>
//	voxelgif extract <file.yxv> <out-dir>
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	_ "image/jpeg"

	"github.com/sirupsen/logrus"

	"github.com/voxelkit/voxelgif"
	"github.com/voxelkit/voxelgif/frame"
	"github.com/voxelkit/voxelgif/quant"
	"github.com/voxelkit/voxelgif/tensor"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "pack":
		err = runPack(os.Args[2:])
	case "info":
		err = runInfo(os.Args[2:])
	case "extract":
		err = runExtract(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "voxelgif:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage:
  voxelgif pack [flags] <out-prefix> <frame.png> [frame.png ...]
  voxelgif info <file.yxv>
  voxelgif extract <file.yxv> <out-dir>
`)
}

func runPack(args []string) error {
	fs := flag.NewFlagSet("pack", flag.ExitOnError)
	side := fs.Int("side", 128, "output cube side in pixels")
	palette := fs.Int("palette", 256, "maximum palette size")
	perFrame := fs.Bool("per-frame", false, "use one palette per frame")
	dither := fs.String("dither", "diffusion", "dithering: none, diffusion, bluenoise")
	delay := fs.Int("delay", 4, "frame delay in centiseconds")
	loop := fs.Int("loop", 0, "loop count, 0 loops forever")
	backendName := fs.String("backend", "median-cut", "primary quantization backend: median-cut, kmeans")
	noFallback := fs.Bool("no-fallback", false, "fail instead of retrying on the fallback backend")
	background := fs.Bool("background", false, "reserve index 0 for the background color")
	fromQuantized := fs.Bool("tensor-quantized", false, "fill the tensor from palette-mapped pixels")
	verbose := fs.Bool("v", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("pack needs an output prefix and at least one frame")
	}
	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	options := voxelgif.NewOptions()
	options.TargetSide = *side
	options.PaletteSize = *palette
	options.FrameDelayCS = *delay
	options.LoopCount = *loop
	options.ReserveBackground = *background
	if *perFrame {
		options.Mode = quant.ModePerFrame
	}
	if *fromQuantized {
		options.TensorSource = voxelgif.TensorFromQuantized
	}
	options.AutoFallback = !*noFallback
	switch *backendName {
	case "median-cut":
		options.Backend = voxelgif.BackendMedianCut
	case "kmeans":
		options.Backend = voxelgif.BackendKMeans
	default:
		return fmt.Errorf("unknown backend %q", *backendName)
	}
	switch *dither {
	case "none":
		options.Dither = quant.DitherNone
	case "diffusion":
		options.Dither = quant.DitherErrorDiffusion
	case "bluenoise":
		options.Dither = quant.DitherBlueNoise
	default:
		return fmt.Errorf("unknown dither mode %q", *dither)
	}

	prefix := fs.Arg(0)
	frames, err := loadFrames(fs.Args()[1:])
	if err != nil {
		return err
	}

	pipeline := voxelgif.NewPipeline(options)
	pipeline.OnProgress(func(runID string, state voxelgif.State) {
		logrus.WithFields(logrus.Fields{
			"run_id": runID,
			"state":  state.String(),
		}).Info("Progress")
	})

	result, err := pipeline.Run(context.Background(), frames)
	if err != nil {
		return err
	}

	gifPath := prefix + ".gif"
	if err := os.WriteFile(gifPath, result.GIF, 0644); err != nil {
		return err
	}
	var palBytes []byte
	if *fromQuantized {
		palBytes = result.Palette.Bytes()
	}
	packed, err := tensor.MarshalPalette(result.Tensor, palBytes)
	if err != nil {
		return err
	}
	yxvPath := prefix + ".yxv"
	if err := os.WriteFile(yxvPath, packed, 0644); err != nil {
		return err
	}

	fmt.Printf("Packed %d frames (%s backend) -> %s (%d bytes), %s (%d bytes)\n",
		len(frames), result.Backend, gifPath, len(result.GIF), yxvPath, len(packed))
	return nil
}

func runInfo(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("info needs exactly one container file")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	side, compressed, err := tensor.ReadHeader(data)
	if err != nil {
		return err
	}
	raw := side * side * side * frame.Channels
	fmt.Printf("%s: %dx%dx%d RGBA, %d raw bytes, %d compressed\n",
		args[0], side, side, side, raw, compressed)
	return nil
}

func runExtract(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("extract needs a container file and an output directory")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	vol, err := tensor.Unmarshal(data)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(args[1], 0755); err != nil {
		return err
	}
	for z := 0; z < vol.Side; z++ {
		f := vol.Frame(z)
		path := filepath.Join(args[1], fmt.Sprintf("slice_%03d.png", z))
		if err := writePNG(path, f); err != nil {
			return err
		}
	}
	fmt.Printf("Extracted %d slices to %s\n", vol.Side, args[1])
	return nil
}

// loadFrames decodes image files into RGBA frames. Non-square images
// are rejected; side consistency is checked by the pipeline.
func loadFrames(paths []string) ([]frame.Frame, error) {
	frames := make([]frame.Frame, 0, len(paths))
	for _, path := range paths {
		in, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		img, _, err := image.Decode(in)
		in.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		b := img.Bounds()
		if b.Dx() != b.Dy() {
			return nil, fmt.Errorf("%s: image is %dx%d, want square", path, b.Dx(), b.Dy())
		}
		rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
		f, err := frame.New(b.Dx(), rgba.Pix)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		frames = append(frames, f)
	}
	return frames, nil
}

func writePNG(path string, f frame.Frame) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	return png.Encode(out, f.RGBA())
}
