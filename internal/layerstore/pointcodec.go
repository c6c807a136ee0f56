package layerstore

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/klauspost/compress/zstd"

	"github.com/heat-tiles/server/internal/heatmap"
)

// pointRecordSize is the encoded size of one point: three float64 values.
const pointRecordSize = 24

// pointCodec packs points as little-endian float64 (x, y, weight) triples
// and compresses the buffer with zstd. One encoder/decoder pair is shared
// for the store's lifetime.
type pointCodec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newPointCodec() (*pointCodec, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &pointCodec{enc: enc, dec: dec}, nil
}

func (c *pointCodec) encode(points []heatmap.WeightedPoint) []byte {
	raw := make([]byte, len(points)*pointRecordSize)
	for i, p := range points {
		off := i * pointRecordSize
		binary.LittleEndian.PutUint64(raw[off:], math.Float64bits(p.X))
		binary.LittleEndian.PutUint64(raw[off+8:], math.Float64bits(p.Y))
		binary.LittleEndian.PutUint64(raw[off+16:], math.Float64bits(p.Weight))
	}
	return c.enc.EncodeAll(raw, make([]byte, 0, len(raw)/2))
}

func (c *pointCodec) decode(blob []byte) ([]heatmap.WeightedPoint, error) {
	raw, err := c.dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress failed: %w", err)
	}
	if len(raw)%pointRecordSize != 0 {
		return nil, fmt.Errorf("point blob length %d is not a multiple of %d", len(raw), pointRecordSize)
	}
	points := make([]heatmap.WeightedPoint, len(raw)/pointRecordSize)
	for i := range points {
		off := i * pointRecordSize
		points[i] = heatmap.WeightedPoint{
			Point: heatmap.Point{
				X: math.Float64frombits(binary.LittleEndian.Uint64(raw[off:])),
				Y: math.Float64frombits(binary.LittleEndian.Uint64(raw[off+8:])),
			},
			Weight: math.Float64frombits(binary.LittleEndian.Uint64(raw[off+16:])),
		}
	}
	return points, nil
}

func (c *pointCodec) close() {
	c.enc.Close()
	c.dec.Close()
}
