// Package creaturecard shows a randomly chosen creature from a public catalog
// as a styled card.
//
// A refresh fetches one record from the catalog, trims the transparent
// border off its sprite and publishes the result to a display store. Only
// the most recently started refresh may publish; older ones still in flight
// are cancelled and their results discarded.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		creaturecard "github.com/menta2k/creature-card"
//	)
//
//	func main() {
//		cc := creaturecard.New()
//
//		card, err := cc.Refresh(context.Background())
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Printf("%s #%d %v\n", card.Record.Name, card.Record.ID, card.Record.Types)
//	}
//
// The package consists of these components:
//
//  1. Catalog (pkg/catalog): fetches and normalises records
//  2. Processing (pkg/processing): loads and encodes images
//  3. Trimmer (pkg/trimmer): crops sprites to their visible pixels
//  4. Display (pkg/display): the displayed card and refresh lifecycle
//  5. Card (pkg/card): HTML and terminal rendering
package creaturecard

import (
	"context"
	"image"
	"io"

	"github.com/pkg/errors"

	"github.com/menta2k/creature-card/pkg/card"
	"github.com/menta2k/creature-card/pkg/catalog"
	"github.com/menta2k/creature-card/pkg/display"
	"github.com/menta2k/creature-card/pkg/processing"
	"github.com/menta2k/creature-card/pkg/trimmer"
	"github.com/menta2k/creature-card/pkg/types"
)

// Version of the creature card library
const Version = "1.0.0"

// CreatureCard wires the catalog, the image pipeline and the display store
type CreatureCard struct {
	catalog   *catalog.Client
	processor *processing.Processor
	trimmer   *trimmer.Trimmer
	refresher *display.Refresher
}

// New creates a CreatureCard backed by the public catalog
func New() *CreatureCard {
	return NewWithConfig(catalog.DefaultConfig(), processing.DefaultConfig())
}

// NewWithConfig creates a CreatureCard with custom catalog and image settings
func NewWithConfig(catalogConfig catalog.Config, processingConfig processing.Config) *CreatureCard {
	cat := catalog.NewClientWithConfig(catalogConfig)
	proc := processing.NewProcessorWithConfig(processingConfig)
	trim := trimmer.New(proc, proc)

	return &CreatureCard{
		catalog:   cat,
		processor: proc,
		trimmer:   trim,
		refresher: display.NewRefresher(cat, trim, &display.Store{}),
	}
}

// Refresh replaces the displayed card with a random record
func (cc *CreatureCard) Refresh(ctx context.Context) (types.Card, error) {
	return cc.refresher.Refresh(ctx)
}

// RefreshID replaces the displayed card with the record id
func (cc *CreatureCard) RefreshID(ctx context.Context, id int) (types.Card, error) {
	return cc.refresher.RefreshID(ctx, id)
}

// Current returns the displayed card; ok is false until a refresh succeeds
func (cc *CreatureCard) Current() (types.Card, bool) {
	return cc.refresher.Store().Current()
}

// Status reports on the most recent refresh
func (cc *CreatureCard) Status() display.Status {
	return cc.refresher.Status()
}

// Refresher exposes the underlying refresher for servers that need task
// level control
func (cc *CreatureCard) Refresher() *display.Refresher {
	return cc.refresher
}

// Processor exposes the image processor
func (cc *CreatureCard) Processor() *processing.Processor {
	return cc.processor
}

// FetchRecord fetches a record without touching the display
func (cc *CreatureCard) FetchRecord(ctx context.Context, id int) (types.Record, error) {
	return cc.catalog.FetchRecord(ctx, id)
}

// TrimTransparentBorder loads ref, trims it and returns a data URI
func (cc *CreatureCard) TrimTransparentBorder(ctx context.Context, ref string) (string, error) {
	return cc.trimmer.TrimTransparentBorder(ctx, ref)
}

// TrimRef loads ref and returns the trimmed pixels along with their data URI
func (cc *CreatureCard) TrimRef(ctx context.Context, ref string) (trimmer.Result, error) {
	return cc.trimmer.TrimRef(ctx, ref)
}

// RenderPage writes the HTML page for the displayed card
func (cc *CreatureCard) RenderPage(w io.Writer, status string) error {
	view := card.PageView{Status: status}
	if c, ok := cc.Current(); ok {
		view.Card = &c
	}
	return card.RenderPage(w, view)
}

// SpriteImage decodes the sprite of a record into pixels. Fully transparent
// sprites are returned untrimmed.
func (cc *CreatureCard) SpriteImage(ctx context.Context, rec types.Record) (image.Image, error) {
	res, err := cc.trimmer.TrimRef(ctx, rec.Sprite)
	switch {
	case errors.Is(err, trimmer.ErrEmptyImage):
		return cc.processor.Load(ctx, rec.Sprite)
	case err != nil:
		return nil, err
	}
	return res.Image, nil
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
