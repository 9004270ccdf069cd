package tensor

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"
)

// Container magic, followed by a little-endian uint32 header length, the
// CBOR header, and the zstd-compressed voxel payload.
var containerMagic = []byte("YXV1")

// ErrBadMagic indicates data that is not a voxel container.
var ErrBadMagic = errors.New("tensor: bad container magic")

// ErrBadHeader indicates a header that cannot be decoded or describes an
// impossible volume.
var ErrBadHeader = errors.New("tensor: bad container header")

// ErrChecksum indicates payload corruption.
var ErrChecksum = errors.New("tensor: payload checksum mismatch")

// ErrPayloadSize indicates a decompressed payload whose length disagrees
// with the header dimensions.
var ErrPayloadSize = errors.New("tensor: payload size does not match header")

const compressionZstd = "zstd"

// header describes the serialized volume. Checksum is BLAKE2b-256 over
// the uncompressed voxel bytes. Palette, when present, carries the
// 3-bytes-per-entry RGB table the volume was quantized against.
type header struct {
	Width       int    `cbor:"width"`
	Height      int    `cbor:"height"`
	Depth       int    `cbor:"depth"`
	Compression string `cbor:"compression"`
	Checksum    []byte `cbor:"checksum"`
	Palette     []byte `cbor:"palette,omitempty"`
}

// Marshal serializes the tensor into the container format.
func Marshal(t *Tensor) ([]byte, error) {
	return MarshalPalette(t, nil)
}

// MarshalPalette serializes the tensor with an optional RGB palette
// (3 bytes per entry) recorded in the header.
func MarshalPalette(t *Tensor, palette []byte) ([]byte, error) {
	sum := blake2b.Sum256(t.Data)
	hdr, err := cbor.Marshal(header{
		Width:       t.Side,
		Height:      t.Side,
		Depth:       t.Side,
		Compression: compressionZstd,
		Checksum:    sum[:],
		Palette:     palette,
	})
	if err != nil {
		return nil, fmt.Errorf("tensor: encode header: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("tensor: init compressor: %w", err)
	}
	defer enc.Close()
	payload := enc.EncodeAll(t.Data, nil)

	var out bytes.Buffer
	out.Write(containerMagic)
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(hdr)))
	out.Write(lenBuf[:])
	out.Write(hdr)
	out.Write(payload)

	logrus.WithFields(logrus.Fields{
		"side":       t.Side,
		"raw_bytes":  len(t.Data),
		"compressed": len(payload),
		"total":      out.Len(),
	}).Debug("Marshaled voxel container")
	return out.Bytes(), nil
}

// Unmarshal parses a container produced by Marshal, verifying the
// payload checksum.
func Unmarshal(data []byte) (*Tensor, error) {
	t, _, err := UnmarshalPalette(data)
	return t, err
}

// UnmarshalPalette parses a container and also returns the recorded RGB
// palette, which is nil when the volume was stored unquantized.
func UnmarshalPalette(data []byte) (*Tensor, []byte, error) {
	hdr, payload, err := splitContainer(data)
	if err != nil {
		return nil, nil, err
	}
	if hdr.Width != hdr.Height || hdr.Width != hdr.Depth || hdr.Width <= 0 {
		return nil, nil, fmt.Errorf("%w: dimensions %dx%dx%d",
			ErrBadHeader, hdr.Width, hdr.Height, hdr.Depth)
	}
	if hdr.Compression != compressionZstd {
		return nil, nil, fmt.Errorf("%w: unknown compression %q", ErrBadHeader, hdr.Compression)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("tensor: init decompressor: %w", err)
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(payload, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("tensor: decompress payload: %w", err)
	}

	side := hdr.Width
	if len(raw) != side*side*side*4 {
		return nil, nil, fmt.Errorf("%w: %d bytes for side %d", ErrPayloadSize, len(raw), side)
	}
	sum := blake2b.Sum256(raw)
	if !bytes.Equal(sum[:], hdr.Checksum) {
		return nil, nil, ErrChecksum
	}
	return &Tensor{Side: side, Data: raw}, hdr.Palette, nil
}

// ReadHeader parses just the container header, without decompressing or
// verifying the payload.
func ReadHeader(data []byte) (side int, compressed int, err error) {
	hdr, payload, err := splitContainer(data)
	if err != nil {
		return 0, 0, err
	}
	return hdr.Width, len(payload), nil
}

func splitContainer(data []byte) (*header, []byte, error) {
	if len(data) < len(containerMagic)+4 {
		return nil, nil, ErrBadMagic
	}
	if !bytes.Equal(data[:len(containerMagic)], containerMagic) {
		return nil, nil, ErrBadMagic
	}
	rest := data[len(containerMagic):]
	hdrLen := int(binary.LittleEndian.Uint32(rest[:4]))
	rest = rest[4:]
	if hdrLen <= 0 || hdrLen > len(rest) {
		return nil, nil, fmt.Errorf("%w: header length %d", ErrBadHeader, hdrLen)
	}
	var hdr header
	if err := cbor.Unmarshal(rest[:hdrLen], &hdr); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	return &hdr, rest[hdrLen:], nil
}
