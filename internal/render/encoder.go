// Package render encodes heatmap tiles and draws per-layer diagnostics.
package render

import (
	"bytes"
	"image"
	"image/png"
	"sync"
)

// Encoder turns rendered images into PNG bytes. Buffers are pooled; the
// encoder is safe for concurrent use.
type Encoder struct {
	tileSize   int
	bufferPool sync.Pool

	emptyOnce sync.Once
	emptyTile []byte
	emptyErr  error
}

// NewEncoder creates a PNG encoder for tileSize-pixel square tiles.
func NewEncoder(tileSize int) *Encoder {
	return &Encoder{
		tileSize: tileSize,
		bufferPool: sync.Pool{
			New: func() interface{} {
				return bytes.NewBuffer(make([]byte, 0, 32*1024))
			},
		},
	}
}

// EncodePNG encodes img using the fast PNG encoder.
func (e *Encoder) EncodePNG(img image.Image) ([]byte, error) {
	buf := e.bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		e.bufferPool.Put(buf)
	}()

	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := encoder.Encode(buf, img); err != nil {
		return nil, err
	}

	// Copy buffer contents (buffer will be reused)
	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}

// EmptyTile returns a shared fully transparent tile, encoded once.
func (e *Encoder) EmptyTile() ([]byte, error) {
	e.emptyOnce.Do(func() {
		img := image.NewRGBA(image.Rect(0, 0, e.tileSize, e.tileSize))
		// Fill with transparent white
		for i := 0; i < len(img.Pix); i += 4 {
			img.Pix[i] = 255
			img.Pix[i+1] = 255
			img.Pix[i+2] = 255
			img.Pix[i+3] = 0
		}
		buf := bytes.NewBuffer(nil)
		e.emptyErr = png.Encode(buf, img)
		e.emptyTile = buf.Bytes()
	})
	return e.emptyTile, e.emptyErr
}
