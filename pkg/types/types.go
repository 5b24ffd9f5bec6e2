package types

import "image"

// Record is the normalized subset of a catalog entry used for display
type Record struct {
	Name   string   `json:"name"`
	Sprite string   `json:"sprite"`
	Types  []string `json:"types"`
	ID     int      `json:"id"`
}

// NewRecord builds a Record, copying types so the caller's slice can be reused
func NewRecord(name, sprite string, types []string, id int) Record {
	return Record{
		Name:   name,
		Sprite: sprite,
		Types:  append([]string(nil), types...),
		ID:     id,
	}
}

// WithSprite returns a copy of the record pointing at a different image
func (r Record) WithSprite(sprite string) Record {
	return NewRecord(r.Name, sprite, r.Types, r.ID)
}

// BoundingBox holds inclusive pixel coordinates of the smallest rectangle
// enclosing every pixel with non-zero alpha
type BoundingBox struct {
	Top    int `json:"top"`
	Left   int `json:"left"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// Width returns the number of columns covered by the box
func (b BoundingBox) Width() int {
	return b.Right - b.Left + 1
}

// Height returns the number of rows covered by the box
func (b BoundingBox) Height() int {
	return b.Bottom - b.Top + 1
}

// Rect converts the box to a half-open image.Rectangle
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.Left, b.Top, b.Right+1, b.Bottom+1)
}

// Card is a record whose sprite has gone through trimming
type Card struct {
	Record  Record `json:"record"`
	Trimmed bool   `json:"trimmed"`
	TaskID  string `json:"task_id"`
}
