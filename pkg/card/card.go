// Package card renders creature cards as an HTML page or as ANSI art for
// terminals.
package card

import (
	"embed"
	"fmt"
	"html/template"
	"image"
	"image/color"
	"io"
	"strings"

	"github.com/eliukblau/pixterm/pkg/ansimage"
	"github.com/pkg/errors"

	"github.com/menta2k/creature-card/pkg/types"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.New("page.html.tmpl").Funcs(template.FuncMap{
	"title": titleCase,
}).ParseFS(templateFS, "templates/page.html.tmpl"))

// Style describes how a card frame is painted. Dual-category cards use a
// diagonal split of both colours.
type Style struct {
	Background string
	Border     string
	Gradient   bool
}

// StyleFor builds the frame style for a category list
func StyleFor(categories []string) Style {
	switch len(categories) {
	case 0:
		c := ColorFor(FallbackCategory)
		return Style{Background: c.Fill, Border: c.Border}
	case 1:
		c := ColorFor(categories[0])
		return Style{Background: c.Fill, Border: c.Border}
	default:
		c1, c2 := ColorFor(categories[0]), ColorFor(categories[1])
		return Style{
			Background: fmt.Sprintf("linear-gradient(135deg, %s 50%%, %s 50%%)", c1.Fill, c2.Fill),
			Border:     fmt.Sprintf("linear-gradient(135deg, %s 50%%, %s 50%%)", c1.Border, c2.Border),
			Gradient:   true,
		}
	}
}

// CSS renders the style as an inline style attribute value
func (s Style) CSS() template.CSS {
	if s.Gradient {
		return template.CSS(fmt.Sprintf(
			"background-image: %s; border-image: %s 1; border-style: solid; border-width: 4px;",
			s.Background, s.Border))
	}
	return template.CSS(fmt.Sprintf(
		"background-color: %s; border-color: %s; border-style: solid; border-width: 4px;",
		s.Background, s.Border))
}

// Badge is one category label on a card
type Badge struct {
	Name  string
	Style template.CSS
}

// PageView is the data behind one rendering of the page. A nil Card means
// the first refresh has not completed yet.
type PageView struct {
	Card   *types.Card
	Status string
}

type pageData struct {
	Loading bool
	Status  string
	Name    string
	ID      int
	Sprite  template.URL
	Frame   template.CSS
	Badges  []Badge
}

// RenderPage writes the full HTML page
func RenderPage(w io.Writer, view PageView) error {
	data := pageData{Loading: view.Card == nil, Status: view.Status}
	if view.Card != nil {
		rec := view.Card.Record
		data.Name = rec.Name
		data.ID = rec.ID
		data.Sprite = spriteURL(rec.Sprite)
		data.Frame = StyleFor(rec.Types).CSS()
		for _, t := range rec.Types {
			data.Badges = append(data.Badges, Badge{
				Name:  t,
				Style: template.CSS("background-color: " + ColorFor(t).Fill + ";"),
			})
		}
	}

	if err := pageTemplate.Execute(w, data); err != nil {
		return errors.Wrap(err, "render page")
	}
	return nil
}

// spriteURL only lets data URIs and http(s) links through to the img tag
func spriteURL(ref string) template.URL {
	if strings.HasPrefix(ref, "data:image/") || strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "http://") {
		return template.URL(ref)
	}
	return ""
}

// RenderANSI writes a terminal rendition of the card: a header line with
// truecolour category badges followed by the sprite scaled to fit cols x rows
// character cells
func RenderANSI(w io.Writer, rec types.Record, img image.Image, cols, rows int) error {
	var header strings.Builder
	fmt.Fprintf(&header, "\x1b[1m%s\x1b[0m  #%d ", titleCase(rec.Name), rec.ID)
	for _, t := range rec.Types {
		fill, err := parseHex(ColorFor(t).Fill)
		if err != nil {
			return err
		}
		fmt.Fprintf(&header, " \x1b[48;2;%d;%d;%dm\x1b[38;2;0;0;0m %s \x1b[0m", fill.R, fill.G, fill.B, t)
	}
	header.WriteString("\n")
	if _, err := io.WriteString(w, header.String()); err != nil {
		return err
	}

	if img == nil {
		return nil
	}

	bg := color.Color(color.Black)
	if len(rec.Types) > 0 {
		if fill, err := parseHex(ColorFor(rec.Types[0]).Fill); err == nil {
			bg = fill
		}
	}

	// Each character cell holds two vertical pixels.
	ansi, err := ansimage.NewScaledFromImage(img, 2*rows, cols, bg, ansimage.ScaleModeFit, ansimage.NoDithering)
	if err != nil {
		return errors.Wrap(err, "ansimage.NewScaledFromImage")
	}
	_, err = io.WriteString(w, ansi.Render())
	return err
}

func titleCase(s string) string {
	parts := strings.Split(s, "-")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, "-")
}
