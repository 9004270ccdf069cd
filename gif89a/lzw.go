package gif89a

import "bytes"

// maxCodeWidth is the GIF limit on LZW code width.
const maxCodeWidth = 12

// blockWriter packs bytes into GIF data sub-blocks: at most 255 payload
// bytes, each block preceded by its length byte. close flushes the
// partial block and writes the zero-length terminator.
type blockWriter struct {
	out *bytes.Buffer
	buf [255]byte
	n   int
}

func (bw *blockWriter) writeByte(b byte) {
	bw.buf[bw.n] = b
	bw.n++
	if bw.n == len(bw.buf) {
		bw.flush()
	}
}

func (bw *blockWriter) flush() {
	if bw.n == 0 {
		return
	}
	bw.out.WriteByte(byte(bw.n))
	bw.out.Write(bw.buf[:bw.n])
	bw.n = 0
}

func (bw *blockWriter) close() {
	bw.flush()
	bw.out.WriteByte(0x00)
}

// lzwEncoder implements the GIF variant of LZW: LSB-first bit packing,
// Clear and End-of-Information control codes, and code width growth from
// minCodeSize+1 up to 12 bits as the dictionary fills.
type lzwEncoder struct {
	bw        *blockWriter
	minCode   uint
	clearCode uint32
	eoiCode   uint32
	codeWidth uint
	nextCode  uint32
	dict      map[uint32]uint32

	bitBuf  uint32
	bitCnt  uint
	current int32 // current prefix code, -1 when empty
}

func newLZWEncoder(bw *blockWriter, minCodeSize uint) *lzwEncoder {
	e := &lzwEncoder{
		bw:        bw,
		minCode:   minCodeSize,
		clearCode: 1 << minCodeSize,
		current:   -1,
	}
	e.eoiCode = e.clearCode + 1
	e.reset()
	return e
}

func (e *lzwEncoder) reset() {
	e.codeWidth = e.minCode + 1
	e.nextCode = e.clearCode + 2
	e.dict = make(map[uint32]uint32, 4096)
}

func (e *lzwEncoder) emit(code uint32) {
	e.bitBuf |= code << e.bitCnt
	e.bitCnt += e.codeWidth
	for e.bitCnt >= 8 {
		e.bw.writeByte(byte(e.bitBuf))
		e.bitBuf >>= 8
		e.bitCnt -= 8
	}
}

// write consumes the whole index stream. The encoder emits a leading
// Clear code, resets the dictionary whenever code 4096 would be needed,
// and finishes with the pending prefix plus the End-of-Information code.
func (e *lzwEncoder) write(indices []byte) {
	e.emit(e.clearCode)
	for _, b := range indices {
		if e.current < 0 {
			e.current = int32(b)
			continue
		}
		key := uint32(e.current)<<8 | uint32(b)
		if code, ok := e.dict[key]; ok {
			e.current = int32(code)
			continue
		}
		e.emit(uint32(e.current))
		e.dict[key] = e.nextCode
		if e.nextCode == 1<<e.codeWidth && e.codeWidth < maxCodeWidth {
			e.codeWidth++
		}
		e.nextCode++
		if e.nextCode >= 1<<maxCodeWidth {
			e.emit(e.clearCode)
			e.reset()
		}
		e.current = int32(b)
	}
}

func (e *lzwEncoder) close() {
	if e.current >= 0 {
		e.emit(uint32(e.current))
		e.current = -1
	}
	e.emit(e.eoiCode)
	if e.bitCnt > 0 {
		e.bw.writeByte(byte(e.bitBuf))
		e.bitBuf = 0
		e.bitCnt = 0
	}
	e.bw.close()
}
