package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesBufferLength(t *testing.T) {
	f, err := New(2, make([]byte, 2*2*Channels))
	require.NoError(t, err)
	assert.Equal(t, 2, f.Side)

	_, err = New(2, make([]byte, 5))
	assert.ErrorIs(t, err, ErrSizeMismatch)

	_, err = New(0, nil)
	assert.ErrorIs(t, err, ErrBadSide)

	_, err = New(-3, make([]byte, 36))
	assert.ErrorIs(t, err, ErrBadSide)
}

func TestFromBGRASwapsChannels(t *testing.T) {
	// One pixel: B=10, G=20, R=30, A=40.
	f, err := FromBGRA(1, []byte{10, 20, 30, 40})
	require.NoError(t, err)

	r, g, b, a := f.At(0, 0)
	assert.Equal(t, byte(30), r)
	assert.Equal(t, byte(20), g)
	assert.Equal(t, byte(10), b)
	assert.Equal(t, byte(40), a)
}

func TestFromBGRACopiesInput(t *testing.T) {
	src := []byte{1, 2, 3, 4}
	f, err := FromBGRA(1, src)
	require.NoError(t, err)

	src[0] = 99
	_, _, b, _ := f.At(0, 0)
	assert.Equal(t, byte(1), b, "frame must not alias the caller's buffer")
}

func TestSolidAndAt(t *testing.T) {
	f := Solid(3, 10, 20, 30, 255)
	require.NoError(t, f.Validate())

	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			r, g, b, a := f.At(x, y)
			assert.Equal(t, byte(10), r)
			assert.Equal(t, byte(20), g)
			assert.Equal(t, byte(30), b)
			assert.Equal(t, byte(255), a)
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	f := Solid(2, 1, 2, 3, 4)
	c := f.Clone()
	c.Pix[0] = 200

	assert.Equal(t, byte(1), f.Pix[0])
	assert.Equal(t, byte(200), c.Pix[0])
}

func TestRGBAWrapsWithoutCopy(t *testing.T) {
	f := Solid(4, 5, 6, 7, 8)
	img := f.RGBA()

	assert.Equal(t, 4, img.Rect.Dx())
	assert.Equal(t, 4, img.Rect.Dy())
	assert.Equal(t, 4*Channels, img.Stride)
	// Same backing array.
	assert.Equal(t, &f.Pix[0], &img.Pix[0])
}

func TestValidateAllReportsFirstOffender(t *testing.T) {
	frames := []Frame{Solid(4, 0, 0, 0, 255), Solid(4, 0, 0, 0, 255), Solid(8, 0, 0, 0, 255)}

	i, err := ValidateAll(frames, 4)
	assert.Equal(t, 2, i)
	assert.ErrorIs(t, err, ErrSizeMismatch)

	i, err = ValidateAll(frames[:2], 4)
	assert.Equal(t, -1, i)
	assert.NoError(t, err)
}
