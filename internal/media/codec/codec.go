package codec

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/disintegration/imaging"
)

// PNGNormalizer renders any decodable image to a fixed-size PNG. Aspect
// ratio is not preserved; the output is always exactly Width x Height.
type PNGNormalizer struct {
	Width  int
	Height int
}

func NewPNGNormalizer(width, height int) *PNGNormalizer {
	return &PNGNormalizer{Width: width, Height: height}
}

func (n *PNGNormalizer) Normalize(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	resized := imaging.Resize(img, n.Width, n.Height, imaging.Lanczos)

	var buf bytes.Buffer
	if err := png.Encode(&buf, resized); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
