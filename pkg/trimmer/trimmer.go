package trimmer

import (
	"context"
	"image"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"github.com/menta2k/creature-card/pkg/types"
)

// ErrEmptyImage is returned when an image has no pixel with alpha > 0,
// including images with zero width or height.
var ErrEmptyImage = errors.New("image has no visible pixels")

// ImageDecoder loads an image reference (URL, data URI or path) into memory
type ImageDecoder interface {
	Load(ctx context.Context, ref string) (image.Image, error)
}

// ImageEncoder turns an image into a self-contained string such as a data URI
type ImageEncoder interface {
	Encode(img image.Image) (string, error)
}

// Trimmer crops images down to their non-transparent content
type Trimmer struct {
	decoder ImageDecoder
	encoder ImageEncoder
}

// New creates a Trimmer using the given decode and encode capabilities
func New(decoder ImageDecoder, encoder ImageEncoder) *Trimmer {
	return &Trimmer{
		decoder: decoder,
		encoder: encoder,
	}
}

// Result contains the outcome of trimming one image reference
type Result struct {
	Image   *image.NRGBA
	Box     types.BoundingBox
	Source  image.Rectangle
	Encoded string
}

// TrimTransparentBorder loads ref, crops it to its bounding box and returns
// the encoded result
func (t *Trimmer) TrimTransparentBorder(ctx context.Context, ref string) (string, error) {
	result, err := t.TrimRef(ctx, ref)
	if err != nil {
		return "", err
	}
	return result.Encoded, nil
}

// TrimRef is TrimTransparentBorder but also returns the decoded buffers
func (t *Trimmer) TrimRef(ctx context.Context, ref string) (Result, error) {
	img, err := t.decoder.Load(ctx, ref)
	if err != nil {
		return Result{}, errors.Wrap(err, "failed to load image")
	}

	trimmed, box, err := Trim(img)
	if err != nil {
		return Result{Source: img.Bounds()}, err
	}

	encoded, err := t.encoder.Encode(trimmed)
	if err != nil {
		return Result{}, errors.Wrap(err, "failed to encode trimmed image")
	}

	return Result{
		Image:   trimmed,
		Box:     box,
		Source:  img.Bounds(),
		Encoded: encoded,
	}, nil
}

// Trim copies the bounding box of img into a new buffer anchored at (0,0).
// The source image is never modified.
func Trim(img image.Image) (*image.NRGBA, types.BoundingBox, error) {
	buf := toNRGBA(img)

	box, ok := findBox(buf)
	if !ok {
		return nil, types.BoundingBox{}, ErrEmptyImage
	}

	return imaging.Crop(buf, box.Rect()), box, nil
}

// FindBoundingBox reports the tight box around all pixels with alpha > 0.
// Coordinates are relative to the image's top-left corner. ok is false when
// no such pixel exists.
func FindBoundingBox(img image.Image) (box types.BoundingBox, ok bool) {
	return findBox(toNRGBA(img))
}

func findBox(buf *image.NRGBA) (types.BoundingBox, bool) {
	width, height := buf.Rect.Dx(), buf.Rect.Dy()
	top, left, right, bottom := -1, -1, -1, -1

	for y := 0; y < height; y++ {
		row := buf.Pix[y*buf.Stride : y*buf.Stride+width*4]
		for x := 0; x < width; x++ {
			if row[x*4+3] == 0 {
				continue
			}
			if top < 0 {
				top = y
			}
			if left < 0 || x < left {
				left = x
			}
			if x > right {
				right = x
			}
			bottom = y
		}
	}

	if top < 0 {
		return types.BoundingBox{}, false
	}
	return types.BoundingBox{Top: top, Left: left, Right: right, Bottom: bottom}, true
}

// toNRGBA returns img as an NRGBA buffer whose bounds start at (0,0)
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	return imaging.Clone(img)
}
