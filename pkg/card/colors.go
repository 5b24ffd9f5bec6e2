package card

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// CategoryColor is the fill and border colour pair of one category badge
type CategoryColor struct {
	Fill   string `json:"fill"`
	Border string `json:"border"`
}

// FallbackCategory is used for categories missing from the table
const FallbackCategory = "normal"

var categoryColors = map[string]CategoryColor{
	"normal":   {"#A8A77A", "#6D6D4E"},
	"fire":     {"#EE8130", "#AB5500"},
	"water":    {"#6390F0", "#0A75BC"},
	"grass":    {"#7AC74C", "#3C824E"},
	"electric": {"#F7D02C", "#AA9900"},
	"ice":      {"#96D9D6", "#50A8A7"},
	"fighting": {"#C22E28", "#831717"},
	"poison":   {"#A33EA1", "#6C1A68"},
	"ground":   {"#E2BF65", "#B3851A"},
	"flying":   {"#A98FF3", "#7364AA"},
	"psychic":  {"#F95587", "#AA3363"},
	"bug":      {"#A6B91A", "#727C11"},
	"rock":     {"#B6A136", "#817524"},
	"ghost":    {"#735797", "#493763"},
	"dragon":   {"#6F35FC", "#4321A3"},
	"dark":     {"#705746", "#4E3C32"},
	"steel":    {"#B7B7CE", "#85859B"},
	"fairy":    {"#D685AD", "#A64D7D"},
}

// ColorFor returns the colours for a category, falling back to "normal"
func ColorFor(category string) CategoryColor {
	if c, ok := categoryColors[strings.ToLower(category)]; ok {
		return c
	}
	return categoryColors[FallbackCategory]
}

// Categories lists every category with a dedicated colour pair
func Categories() []string {
	names := make([]string, 0, len(categoryColors))
	for name := range categoryColors {
		names = append(names, name)
	}
	return names
}

// parseHex converts "#RRGGBB" into an opaque colour
func parseHex(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid hex colour %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
