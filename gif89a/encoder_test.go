package gif89a

import (
	"bytes"
	"image/gif"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxelkit/voxelgif/quant"
)

func testDoc(frames int) *Document {
	pal := quant.Palette{
		{R: 0, G: 0, B: 0},
		{R: 255, G: 0, B: 0},
		{R: 0, G: 255, B: 0},
		{R: 0, G: 0, B: 255},
	}
	doc := &Document{Width: 2, Height: 2, GlobalPalette: pal, LoopCount: 0}
	for i := 0; i < frames; i++ {
		doc.Frames = append(doc.Frames, Frame{
			Index:            []byte{byte(i % 4), 0, 1, 2},
			DelayCS:          4,
			Disposal:         DisposalKeep,
			TransparentIndex: -1,
		})
	}
	return doc
}

func TestEncodeFraming(t *testing.T) {
	data, err := Encode(testDoc(3))
	require.NoError(t, err)

	assert.Equal(t, []byte("GIF89a"), data[:6])
	assert.Equal(t, byte(0x3B), data[len(data)-1])
	// Logical screen: width 2, height 2, little endian.
	assert.Equal(t, []byte{2, 0, 2, 0}, data[6:10])
	// One image descriptor per frame.
	assert.Equal(t, 3, bytes.Count(data, []byte{0x21, 0xF9, 0x04}))
}

func TestEncodeEmptyDocument(t *testing.T) {
	_, err := Encode(&Document{Width: 2, Height: 2})
	assert.ErrorIs(t, err, ErrNoFrames)
}

func TestEncodeValidation(t *testing.T) {
	doc := testDoc(1)
	doc.Frames[0].Index = []byte{0, 1}
	_, err := Encode(doc)
	assert.ErrorIs(t, err, ErrFrameSizeMismatch)

	doc = testDoc(1)
	doc.Frames[0].Index = []byte{0, 1, 2, 200}
	_, err = Encode(doc)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	doc = testDoc(1)
	doc.GlobalPalette = nil
	_, err = Encode(doc)
	assert.ErrorIs(t, err, ErrNoPalette)
}

func TestEncodeIsDeterministic(t *testing.T) {
	a, err := Encode(testDoc(4))
	require.NoError(t, err)
	b, err := Encode(testDoc(4))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestLoopBlockOnlyForAnimations(t *testing.T) {
	netscape := []byte("NETSCAPE2.0")

	single, err := Encode(testDoc(1))
	require.NoError(t, err)
	assert.NotContains(t, string(single), string(netscape))

	multi, err := Encode(testDoc(2))
	require.NoError(t, err)
	assert.Contains(t, string(multi), string(netscape))
}

// The stdlib decoder is the strongest correctness oracle available: it
// checks block framing and re-expands the LZW stream.
func TestStdlibDecodeRoundTrip(t *testing.T) {
	doc := testDoc(3)
	data, err := Encode(doc)
	require.NoError(t, err)

	decoded, err := gif.DecodeAll(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, decoded.Image, 3)
	assert.Equal(t, 0, decoded.LoopCount, "netscape loop count 0 decodes as loop forever")

	for i, img := range decoded.Image {
		assert.Equal(t, 2, img.Rect.Dx())
		assert.Equal(t, 2, img.Rect.Dy())
		assert.Equal(t, doc.Frames[i].Index, img.Pix, "frame %d indices", i)
		assert.Equal(t, doc.Frames[i].DelayCS, decoded.Delay[i])
	}
}

func TestStdlibDecodeLargeFrame(t *testing.T) {
	// 128x128 gradient exercises code width growth and dictionary
	// resets inside the LZW stream.
	side := 128
	pal := make(quant.Palette, 256)
	for i := range pal {
		pal[i] = quant.Color{R: uint8(i), G: uint8(i), B: uint8(i)}
	}
	idx := make([]byte, side*side)
	for i := range idx {
		idx[i] = byte((i * 7) % 256)
	}
	doc := &Document{
		Width:         side,
		Height:        side,
		GlobalPalette: pal,
		Frames: []Frame{{
			Index:            idx,
			DelayCS:          4,
			TransparentIndex: -1,
		}},
	}

	data, err := Encode(doc)
	require.NoError(t, err)

	decoded, err := gif.DecodeAll(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, decoded.Image, 1)
	assert.Equal(t, idx, decoded.Image[0].Pix)
}

func TestLocalPaletteOverridesGlobal(t *testing.T) {
	local := quant.Palette{{R: 9, G: 9, B: 9}, {R: 200, G: 100, B: 50}}
	doc := testDoc(2)
	doc.Frames[1].Palette = local
	doc.Frames[1].Index = []byte{0, 1, 1, 0}

	data, err := Encode(doc)
	require.NoError(t, err)

	decoded, err := gif.DecodeAll(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, decoded.Image, 2)

	r, g, b, _ := decoded.Image[1].Palette[1].RGBA()
	assert.Equal(t, uint32(200), r>>8)
	assert.Equal(t, uint32(100), g>>8)
	assert.Equal(t, uint32(50), b>>8)
}

func TestTinyPaletteUsesMinimumCodeSize(t *testing.T) {
	doc := &Document{
		Width:         2,
		Height:        2,
		GlobalPalette: quant.Palette{{R: 255, G: 255, B: 255}},
		Frames: []Frame{{
			Index:            []byte{0, 0, 0, 0},
			TransparentIndex: -1,
		}},
	}
	data, err := Encode(doc)
	require.NoError(t, err)

	decoded, err := gif.DecodeAll(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0}, decoded.Image[0].Pix)
}

func TestBlockWriterSplitsAt255(t *testing.T) {
	var out bytes.Buffer
	bw := &blockWriter{out: &out}
	for i := 0; i < 300; i++ {
		bw.writeByte(byte(i))
	}
	bw.close()

	data := out.Bytes()
	assert.Equal(t, byte(255), data[0])
	assert.Equal(t, byte(45), data[256])
	assert.Equal(t, byte(0x00), data[len(data)-1])
}
