package client

import (
	"context"

	"github.com/menta2k/creature-card/pkg/types"
)

// RecordSource fetches catalog records by identifier
type RecordSource interface {
	FetchRecord(ctx context.Context, id int) (types.Record, error)
	RandomID() int
}

// SpriteTrimmer crops an image reference and returns the encoded result
type SpriteTrimmer interface {
	TrimTransparentBorder(ctx context.Context, ref string) (string, error)
}
