package trimmer

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/pkg/errors"

	"github.com/menta2k/creature-card/pkg/types"
)

// createSprite creates a transparent canvas with an opaque rectangle
func createSprite(width, height int, subject image.Rectangle) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := subject.Min.Y; y < subject.Max.Y; y++ {
		for x := subject.Min.X; x < subject.Max.X; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x), uint8(y), 200, 255})
		}
	}
	return img
}

type fakeDecoder struct {
	images map[string]image.Image
}

func (d *fakeDecoder) Load(_ context.Context, ref string) (image.Image, error) {
	img, ok := d.images[ref]
	if !ok {
		return nil, fmt.Errorf("no such image: %s", ref)
	}
	return img, nil
}

type fakeEncoder struct {
	last image.Image
}

func (e *fakeEncoder) Encode(img image.Image) (string, error) {
	e.last = img
	b := img.Bounds()
	return fmt.Sprintf("encoded:%dx%d", b.Dx(), b.Dy()), nil
}

func TestFindBoundingBox(t *testing.T) {
	tests := []struct {
		name string
		img  image.Image
		want types.BoundingBox
		ok   bool
	}{
		{
			name: "centered rectangle",
			img:  createSprite(96, 96, image.Rect(20, 30, 60, 80)),
			want: types.BoundingBox{Top: 30, Left: 20, Right: 59, Bottom: 79},
			ok:   true,
		},
		{
			name: "full image",
			img:  createSprite(10, 8, image.Rect(0, 0, 10, 8)),
			want: types.BoundingBox{Top: 0, Left: 0, Right: 9, Bottom: 7},
			ok:   true,
		},
		{
			name: "single pixel",
			img:  createSprite(10, 10, image.Rect(4, 6, 5, 7)),
			want: types.BoundingBox{Top: 6, Left: 4, Right: 4, Bottom: 6},
			ok:   true,
		},
		{
			name: "fully transparent",
			img:  image.NewNRGBA(image.Rect(0, 0, 16, 16)),
			ok:   false,
		},
		{
			name: "zero size",
			img:  image.NewNRGBA(image.Rect(0, 0, 0, 0)),
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindBoundingBox(tt.img)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("box = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFindBoundingBoxTracksColumnsPerPixel(t *testing.T) {
	// Leftmost pixel sits on a later row than the first visible one.
	img := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	img.SetNRGBA(10, 2, color.NRGBA{A: 255})
	img.SetNRGBA(3, 9, color.NRGBA{A: 255})
	img.SetNRGBA(15, 5, color.NRGBA{A: 255})

	got, ok := FindBoundingBox(img)
	if !ok {
		t.Fatal("expected a bounding box")
	}
	want := types.BoundingBox{Top: 2, Left: 3, Right: 15, Bottom: 9}
	if got != want {
		t.Errorf("box = %+v, want %+v", got, want)
	}
}

func TestFindBoundingBoxFaintAlpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	img.SetNRGBA(2, 3, color.NRGBA{R: 255, A: 1})

	got, ok := FindBoundingBox(img)
	if !ok {
		t.Fatal("alpha of 1 should count as visible")
	}
	if got != (types.BoundingBox{Top: 3, Left: 2, Right: 2, Bottom: 3}) {
		t.Errorf("unexpected box %+v", got)
	}
}

func TestFindBoundingBoxOffsetBounds(t *testing.T) {
	// SubImage keeps the parent's coordinates; the box is relative to Min.
	parent := createSprite(50, 50, image.Rect(20, 20, 25, 30))
	sub := parent.SubImage(image.Rect(10, 10, 40, 40))

	got, ok := FindBoundingBox(sub)
	if !ok {
		t.Fatal("expected a bounding box")
	}
	want := types.BoundingBox{Top: 10, Left: 10, Right: 14, Bottom: 19}
	if got != want {
		t.Errorf("box = %+v, want %+v", got, want)
	}
}

func TestTrimMatchesSourcePixels(t *testing.T) {
	subject := image.Rect(12, 7, 41, 33)
	src := createSprite(64, 48, subject)
	// Semi-transparent stray pixel widens the box.
	src.SetNRGBA(50, 40, color.NRGBA{1, 2, 3, 40})

	trimmed, box, err := Trim(src)
	if err != nil {
		t.Fatalf("Trim failed: %v", err)
	}

	if trimmed.Bounds().Dx() != box.Width() || trimmed.Bounds().Dy() != box.Height() {
		t.Fatalf("trimmed %v does not match box %+v", trimmed.Bounds(), box)
	}
	if trimmed.Bounds().Min != (image.Point{}) {
		t.Errorf("expected origin at (0,0), got %v", trimmed.Bounds().Min)
	}

	for y := 0; y < box.Height(); y++ {
		for x := 0; x < box.Width(); x++ {
			got := trimmed.NRGBAAt(x, y)
			want := src.NRGBAAt(x+box.Left, y+box.Top)
			if got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestTrimOpaqueRectangle(t *testing.T) {
	subject := image.Rect(25, 10, 70, 90)
	src := createSprite(96, 96, subject)

	trimmed, _, err := Trim(src)
	if err != nil {
		t.Fatalf("Trim failed: %v", err)
	}

	if trimmed.Bounds().Dx() != subject.Dx() || trimmed.Bounds().Dy() != subject.Dy() {
		t.Fatalf("Expected %dx%d, got %dx%d",
			subject.Dx(), subject.Dy(), trimmed.Bounds().Dx(), trimmed.Bounds().Dy())
	}

	for y := 0; y < subject.Dy(); y++ {
		for x := 0; x < subject.Dx(); x++ {
			if trimmed.NRGBAAt(x, y).A != 255 {
				t.Fatalf("transparent border left at (%d,%d)", x, y)
			}
		}
	}
}

func TestTrimNoBorderIsIdentity(t *testing.T) {
	src := createSprite(30, 20, image.Rect(0, 0, 30, 20))

	trimmed, _, err := Trim(src)
	if err != nil {
		t.Fatalf("Trim failed: %v", err)
	}
	if trimmed.Bounds() != src.Bounds() {
		t.Fatalf("Expected bounds %v, got %v", src.Bounds(), trimmed.Bounds())
	}
	for y := 0; y < 20; y++ {
		for x := 0; x < 30; x++ {
			if trimmed.NRGBAAt(x, y) != src.NRGBAAt(x, y) {
				t.Fatalf("pixel (%d,%d) differs", x, y)
			}
		}
	}
}

func TestTrimDoesNotMutateSource(t *testing.T) {
	src := createSprite(16, 16, image.Rect(4, 4, 8, 8))
	before := append([]uint8(nil), src.Pix...)

	trimmed, _, err := Trim(src)
	if err != nil {
		t.Fatalf("Trim failed: %v", err)
	}
	trimmed.SetNRGBA(0, 0, color.NRGBA{9, 9, 9, 9})

	for i := range before {
		if src.Pix[i] != before[i] {
			t.Fatalf("source modified at byte %d", i)
		}
	}
}

func TestTrimFullyTransparent(t *testing.T) {
	_, _, err := Trim(image.NewNRGBA(image.Rect(0, 0, 96, 96)))
	if !errors.Is(err, ErrEmptyImage) {
		t.Errorf("Expected ErrEmptyImage, got %v", err)
	}

	_, _, err = Trim(image.NewNRGBA(image.Rect(0, 0, 0, 5)))
	if !errors.Is(err, ErrEmptyImage) {
		t.Errorf("Expected ErrEmptyImage for zero width, got %v", err)
	}
}

func TestTrimRGBASource(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	src.Set(3, 4, color.RGBA{128, 0, 0, 128})
	src.Set(6, 5, color.RGBA{0, 0, 0, 255})

	trimmed, box, err := Trim(src)
	if err != nil {
		t.Fatalf("Trim failed: %v", err)
	}
	if box != (types.BoundingBox{Top: 4, Left: 3, Right: 6, Bottom: 5}) {
		t.Errorf("unexpected box %+v", box)
	}
	if trimmed.Bounds().Dx() != 4 || trimmed.Bounds().Dy() != 2 {
		t.Errorf("Expected 4x2, got %v", trimmed.Bounds())
	}
}

func TestTrimTransparentBorder(t *testing.T) {
	dec := &fakeDecoder{images: map[string]image.Image{
		"sprite.png": createSprite(96, 96, image.Rect(10, 20, 50, 70)),
		"blank.png":  image.NewNRGBA(image.Rect(0, 0, 96, 96)),
	}}
	enc := &fakeEncoder{}
	tr := New(dec, enc)

	got, err := tr.TrimTransparentBorder(context.Background(), "sprite.png")
	if err != nil {
		t.Fatalf("TrimTransparentBorder failed: %v", err)
	}
	if got != "encoded:40x50" {
		t.Errorf("Expected encoded:40x50, got %s", got)
	}

	_, err = tr.TrimTransparentBorder(context.Background(), "blank.png")
	if !errors.Is(err, ErrEmptyImage) {
		t.Errorf("Expected ErrEmptyImage, got %v", err)
	}

	_, err = tr.TrimTransparentBorder(context.Background(), "missing.png")
	if err == nil || errors.Is(err, ErrEmptyImage) {
		t.Errorf("Expected load error, got %v", err)
	}
}

func TestTrimRef(t *testing.T) {
	dec := &fakeDecoder{images: map[string]image.Image{
		"sprite.png": createSprite(96, 96, image.Rect(10, 20, 50, 70)),
	}}
	tr := New(dec, &fakeEncoder{})

	result, err := tr.TrimRef(context.Background(), "sprite.png")
	if err != nil {
		t.Fatalf("TrimRef failed: %v", err)
	}
	if result.Source != image.Rect(0, 0, 96, 96) {
		t.Errorf("unexpected source bounds %v", result.Source)
	}
	if result.Box != (types.BoundingBox{Top: 20, Left: 10, Right: 49, Bottom: 69}) {
		t.Errorf("unexpected box %+v", result.Box)
	}
	if result.Image == nil {
		t.Error("Expected trimmed image to be non-nil")
	}
}

func BenchmarkTrim(b *testing.B) {
	img := createSprite(475, 475, image.Rect(100, 80, 400, 420))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Trim(img)
	}
}

func BenchmarkFindBoundingBox(b *testing.B) {
	img := createSprite(96, 96, image.Rect(20, 20, 76, 76))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		FindBoundingBox(img)
	}
}
