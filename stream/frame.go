// Package stream broadcasts shaded trail segments to remote renderers over
// websockets.
package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/pthm-cable/windtrail/canvas"
	"github.com/pthm-cable/windtrail/particles"
)

// Frame layout, little endian:
//
//	header:  magic uint32 | tick int64 | count uint32
//	segment: fromLon, fromLat, toLon, toLat, width float32 | r, g, b, a uint8
const (
	frameMagic  = 0x4C525457 // "WTRL"
	headerSize  = 16
	segmentSize = 24
)

// ErrBadFrame is returned when a frame cannot be decoded.
var ErrBadFrame = errors.New("malformed segment frame")

// EncodeFrame appends the binary frame for segs to buf.
func EncodeFrame(buf []byte, tick int64, segs []particles.Segment) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, frameMagic)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(tick))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(segs)))
	for i := range segs {
		s := &segs[i]
		for _, f := range [5]float32{s.From[0], s.From[1], s.To[0], s.To[1], s.Width} {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
		}
		for _, c := range s.Color {
			buf = append(buf, canvas.ToByte(c))
		}
	}
	return buf
}

// DecodeFrame parses a frame produced by EncodeFrame. Colors come back
// quantized to 8 bits.
func DecodeFrame(data []byte) (tick int64, segs []particles.Segment, err error) {
	if len(data) < headerSize || binary.LittleEndian.Uint32(data) != frameMagic {
		return 0, nil, ErrBadFrame
	}
	tick = int64(binary.LittleEndian.Uint64(data[4:]))
	n := int(binary.LittleEndian.Uint32(data[12:]))
	if len(data) != headerSize+n*segmentSize {
		return 0, nil, fmt.Errorf("%w: %d segments in %d bytes", ErrBadFrame, n, len(data))
	}

	segs = make([]particles.Segment, n)
	for i := range segs {
		p := data[headerSize+i*segmentSize:]
		var f [5]float32
		for k := range f {
			f[k] = math.Float32frombits(binary.LittleEndian.Uint32(p[k*4:]))
		}
		segs[i] = particles.Segment{
			From:  [2]float32{f[0], f[1]},
			To:    [2]float32{f[2], f[3]},
			Width: f[4],
		}
		for k := range 4 {
			segs[i].Color[k] = float32(p[20+k]) / 255
		}
	}
	return tick, segs, nil
}
