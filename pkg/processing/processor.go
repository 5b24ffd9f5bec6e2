package processing

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/die-net/lrucache"
	"github.com/disintegration/imaging"
	"github.com/gregjones/httpcache"
	"github.com/pkg/errors"
	"github.com/vincent-petithory/dataurl"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/creature-card/pkg/types"
)

// DefaultUserAgent is sent with every image download
const DefaultUserAgent = "creature-card/1.0 (+https://github.com/menta2k/creature-card)"

var (
	// ErrEmptyRef is returned when Load is called without a reference
	ErrEmptyRef = errors.New("empty image reference")
	// ErrNotImage is returned when a URL serves something other than an image
	ErrNotImage = errors.New("resource is not an image")
)

var (
	whiteBackground = color.NRGBA{255, 255, 255, 255}
	boxColor        = color.NRGBA{255, 0, 0, 255}
)

// Config controls how images are fetched and encoded
type Config struct {
	// Format of encoded output: png or webp
	Format   string
	Quality  int
	Lossless bool

	// FetchTimeout bounds each image download; zero means no timeout
	FetchTimeout time.Duration
	// CacheBytes enables an in-memory HTTP cache for image downloads
	CacheBytes int64
	UserAgent  string
}

// DefaultConfig returns the configuration used by NewProcessor
func DefaultConfig() Config {
	return Config{
		Format:    "png",
		Quality:   90,
		Lossless:  true,
		UserAgent: DefaultUserAgent,
	}
}

// Processor handles image loading and encoding. It satisfies both
// trimmer.ImageDecoder and trimmer.ImageEncoder.
type Processor struct {
	config Config
	client *http.Client
}

// NewProcessor creates a new image processor
func NewProcessor() *Processor {
	return NewProcessorWithConfig(DefaultConfig())
}

// NewProcessorWithConfig creates an image processor with custom configuration
func NewProcessorWithConfig(config Config) *Processor {
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}

	client := &http.Client{Timeout: config.FetchTimeout}
	if config.CacheBytes > 0 {
		transport := httpcache.NewTransport(lrucache.New(config.CacheBytes, 0))
		client.Transport = transport
	}

	return &Processor{config: config, client: client}
}

// Load resolves an image reference: a data URI, an http(s) URL or a file path
func (p *Processor) Load(ctx context.Context, ref string) (image.Image, error) {
	switch {
	case ref == "":
		return nil, ErrEmptyRef
	case strings.HasPrefix(ref, "data:"):
		return p.LoadImageFromDataURI(ref)
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		return p.LoadImageFromURL(ctx, ref)
	default:
		return p.LoadImage(ref)
	}
}

// LoadImageFromURL downloads and loads an image from a URL
func (p *Processor) LoadImageFromURL(ctx context.Context, imageURL string) (image.Image, error) {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid URL")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (only http and https are supported)", parsedURL.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", p.config.UserAgent)
	req.Header.Set("Accept", "image/*")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to download image")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") &&
		!strings.HasPrefix(contentType, "application/octet-stream") {
		return nil, errors.Wrapf(ErrNotImage, "Content-Type: %s", contentType)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read image data")
	}

	return p.decodeImageFromBytes(imageData)
}

// LoadImageFromDataURI decodes an inline base64 or percent-encoded image
func (p *Processor) LoadImageFromDataURI(uri string) (image.Image, error) {
	du, err := dataurl.DecodeString(uri)
	if err != nil {
		return nil, errors.Wrap(err, "invalid data URI")
	}
	if du.MediaType.Type != "" && du.MediaType.Type != "image" {
		return nil, errors.Wrapf(ErrNotImage, "media type %s", du.MediaType.ContentType())
	}
	return p.decodeImageFromBytes(du.Data)
}

// LoadImage loads an image from a file path with WebP support
func (p *Processor) LoadImage(path string) (image.Image, error) {
	// Try imaging.Open (registered decoders)
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open image file")
	}
	img, err := p.decodeImageFromBytes(data)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return img, nil
}

// decodeImageFromBytes decodes an image from byte data with WebP support
func (p *Processor) decodeImageFromBytes(data []byte) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	return nil, errors.New("image: unknown or unsupported format")
}

// Encode returns img as a data URI in the configured format
func (p *Processor) Encode(img image.Image) (string, error) {
	data, mediaType, err := p.EncodeBytes(img)
	if err != nil {
		return "", err
	}
	return dataurl.New(data, mediaType).String(), nil
}

// EncodeBytes encodes img in the configured format and reports its media type
func (p *Processor) EncodeBytes(img image.Image) ([]byte, string, error) {
	var buf bytes.Buffer
	switch strings.ToLower(p.config.Format) {
	case "webp":
		opts := &webp.Options{Lossless: p.config.Lossless, Quality: float32(p.config.Quality)}
		if err := webp.Encode(&buf, img, opts); err != nil {
			return nil, "", errors.Wrap(err, "webp encode")
		}
		return buf.Bytes(), "image/webp", nil
	case "png", "":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, "", errors.Wrap(err, "png encode")
		}
		return buf.Bytes(), "image/png", nil
	default:
		return nil, "", fmt.Errorf("unsupported output format: %s", p.config.Format)
	}
}

// Upscale enlarges img by an integer factor using nearest-neighbour sampling
func (p *Processor) Upscale(img image.Image, factor int) image.Image {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	return imaging.Resize(img, b.Dx()*factor, b.Dy()*factor, imaging.NearestNeighbor)
}

// SaveImage saves an image to a file with the specified format and quality
func (p *Processor) SaveImage(img image.Image, path, format string, quality int, lossless bool) error {
	switch strings.ToLower(format) {
	case "webp":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		opts := &webp.Options{Lossless: lossless, Quality: float32(quality)}
		return webp.Encode(f, img, opts)
	case "png":
		return imaging.Save(img, path)
	case "jpg", "jpeg":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		// JPEG has no alpha channel; flatten onto white
		flat := imaging.OverlayCenter(imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), whiteBackground), img, 1.0)
		return jpeg.Encode(f, flat, &jpeg.Options{Quality: quality})
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// CreateDebugOverlay copies img and outlines the trimmed bounding box on it
func (p *Processor) CreateDebugOverlay(img image.Image, box types.BoundingBox) image.Image {
	nrgba := imaging.Clone(img)
	drawHLine(nrgba, box.Top, box.Left, box.Right+1, boxColor)
	drawHLine(nrgba, box.Bottom, box.Left, box.Right+1, boxColor)
	drawVLine(nrgba, box.Left, box.Top, box.Bottom+1, boxColor)
	drawVLine(nrgba, box.Right, box.Top, box.Bottom+1, boxColor)
	return nrgba
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 < 0 {
		x0 = 0
	}
	if x1 > img.Bounds().Dx() {
		x1 = img.Bounds().Dx()
	}
	i := y*img.Stride + x0*4
	for x := x0; x < x1; x++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += 4
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 < 0 {
		y0 = 0
	}
	if y1 > img.Bounds().Dy() {
		y1 = img.Bounds().Dy()
	}
	i := y0*img.Stride + x*4
	for y := y0; y < y1; y++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += img.Stride
	}
}
