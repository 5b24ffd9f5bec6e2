package types

import (
	"image"
	"testing"
)

func TestBoundingBoxDimensions(t *testing.T) {
	b := BoundingBox{Top: 2, Left: 3, Right: 7, Bottom: 4}

	if b.Width() != 5 {
		t.Errorf("Expected width 5, got %d", b.Width())
	}
	if b.Height() != 3 {
		t.Errorf("Expected height 3, got %d", b.Height())
	}
	if got, want := b.Rect(), image.Rect(3, 2, 8, 5); got != want {
		t.Errorf("Rect() = %v, want %v", got, want)
	}
}

func TestSinglePixelBox(t *testing.T) {
	b := BoundingBox{Top: 9, Left: 9, Right: 9, Bottom: 9}
	if b.Width() != 1 || b.Height() != 1 {
		t.Errorf("Expected 1x1, got %dx%d", b.Width(), b.Height())
	}
}

func TestRecordIsolatedFromCallerSlice(t *testing.T) {
	types := []string{"grass", "poison"}
	r := NewRecord("bulbasaur", "a.png", types, 1)
	types[0] = "fire"

	if r.Types[0] != "grass" {
		t.Errorf("Record shares caller slice: %v", r.Types)
	}

	w := r.WithSprite("data:image/png;base64,AA==")
	w.Types[1] = "water"
	if r.Types[1] != "poison" {
		t.Errorf("WithSprite shares slice with original: %v", r.Types)
	}
	if w.Sprite == r.Sprite {
		t.Error("WithSprite did not replace sprite")
	}
	if w.Name != r.Name || w.ID != r.ID {
		t.Error("WithSprite changed name or id")
	}
}
