package gif89a

import (
	"bytes"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/voxelkit/voxelgif/quant"
)

// Encode serializes the document into a complete GIF89a byte stream.
// Frames are encoded strictly in order; the output is either a complete,
// finalized stream or an error, never a truncated stream.
func Encode(doc *Document) ([]byte, error) {
	if len(doc.Frames) == 0 {
		return nil, ErrNoFrames
	}
	if err := validate(doc); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"width":      doc.Width,
		"height":     doc.Height,
		"frames":     len(doc.Frames),
		"loop_count": doc.LoopCount,
		"global_pal": len(doc.GlobalPalette),
	}).Debug("Encoding GIF89a stream")

	var out bytes.Buffer
	out.WriteString("GIF89a")
	writeLogicalScreen(&out, doc)

	if len(doc.GlobalPalette) > 0 {
		writeColorTable(&out, doc.GlobalPalette)
	}

	if len(doc.Frames) > 1 {
		writeNetscapeLoop(&out, doc.LoopCount)
	}

	for i := range doc.Frames {
		writeFrame(&out, doc, &doc.Frames[i])
	}

	out.WriteByte(0x3B) // trailer
	return out.Bytes(), nil
}

func validate(doc *Document) error {
	want := doc.Width * doc.Height
	for i := range doc.Frames {
		f := &doc.Frames[i]
		if len(f.Index) != want {
			return fmt.Errorf("%w: frame %d has %d pixels, want %d",
				ErrFrameSizeMismatch, i, len(f.Index), want)
		}
		pal := doc.paletteFor(f)
		if len(pal) == 0 {
			return fmt.Errorf("%w: frame %d", ErrNoPalette, i)
		}
		for _, idx := range f.Index {
			if int(idx) >= len(pal) {
				return fmt.Errorf("%w: frame %d index %d, palette length %d",
					ErrIndexOutOfRange, i, idx, len(pal))
			}
		}
	}
	return nil
}

func writeUint16(out *bytes.Buffer, v int) {
	out.WriteByte(byte(v))
	out.WriteByte(byte(v >> 8))
}

// tableBits returns the exponent n such that 2^n is the smallest power
// of two >= len(pal), clamped to the format minimum of 2 entries.
func tableBits(pal quant.Palette) int {
	bits := 1
	for 1<<bits < len(pal) {
		bits++
	}
	return bits
}

func writeLogicalScreen(out *bytes.Buffer, doc *Document) {
	writeUint16(out, doc.Width)
	writeUint16(out, doc.Height)

	var packed byte
	if len(doc.GlobalPalette) > 0 {
		// Global table present, 8 bits/channel color resolution,
		// unsorted, size field = log2(entries)-1.
		packed = 0x80 | 0x70 | byte(tableBits(doc.GlobalPalette)-1)
	}
	out.WriteByte(packed)
	out.WriteByte(byte(doc.BackgroundIndex))
	out.WriteByte(0x00) // pixel aspect ratio
}

// writeColorTable emits the palette padded with black to the next power
// of two, as the size field can only express power-of-two tables.
func writeColorTable(out *bytes.Buffer, pal quant.Palette) {
	padded := 1 << tableBits(pal)
	for _, c := range pal {
		out.WriteByte(c.R)
		out.WriteByte(c.G)
		out.WriteByte(c.B)
	}
	for i := len(pal); i < padded; i++ {
		out.Write([]byte{0, 0, 0})
	}
}

func writeNetscapeLoop(out *bytes.Buffer, loopCount int) {
	out.WriteByte(0x21) // extension introducer
	out.WriteByte(0xFF) // application extension
	out.WriteByte(0x0B)
	out.WriteString("NETSCAPE2.0")
	out.WriteByte(0x03)
	out.WriteByte(0x01)
	writeUint16(out, loopCount)
	out.WriteByte(0x00)
}

func writeFrame(out *bytes.Buffer, doc *Document, f *Frame) {
	// Graphic Control Extension.
	out.WriteByte(0x21)
	out.WriteByte(0xF9)
	out.WriteByte(0x04)
	packed := byte(f.Disposal) << 2
	transparent := 0
	if f.TransparentIndex >= 0 {
		packed |= 0x01
		transparent = f.TransparentIndex
	}
	out.WriteByte(packed)
	writeUint16(out, f.DelayCS)
	out.WriteByte(byte(transparent))
	out.WriteByte(0x00)

	// Image Descriptor. Frames always cover the full logical screen.
	out.WriteByte(0x2C)
	writeUint16(out, 0)
	writeUint16(out, 0)
	writeUint16(out, doc.Width)
	writeUint16(out, doc.Height)
	if f.Palette != nil {
		out.WriteByte(0x80 | byte(tableBits(f.Palette)-1))
		writeColorTable(out, f.Palette)
	} else {
		out.WriteByte(0x00)
	}

	// LZW-compressed index stream.
	pal := doc.paletteFor(f)
	minCode := minCodeSize(len(pal))
	out.WriteByte(byte(minCode))
	bw := &blockWriter{out: out}
	enc := newLZWEncoder(bw, minCode)
	enc.write(f.Index)
	enc.close()
}

// minCodeSize is ceil(log2(paletteSize)) clamped to the format minimum
// of 2.
func minCodeSize(paletteLen int) uint {
	bits := uint(1)
	for 1<<bits < paletteLen {
		bits++
	}
	if bits < 2 {
		bits = 2
	}
	return bits
}
