package converter

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/seolyze/imageaudit/internal/blobstore"
	"github.com/seolyze/imageaudit/internal/entities"
	"github.com/seolyze/imageaudit/internal/inspector"
)

// Fetcher retrieves the source bytes for one reference.
type Fetcher interface {
	Fetch(ctx context.Context, reference string) ([]byte, error)
}

// BlobStore persists optimized output and returns its public reference.
type BlobStore interface {
	Save(ctx context.Context, key, contentType string, payload []byte) (string, error)
}

// skipFastMaxKB is the size under which an already-webp, already-small-enough
// image is returned as-is without re-encoding.
const skipFastMaxKB = 100

// Converter re-encodes single images to webp. Failures never escape Convert:
// a fetch, decode, encode or persist error degrades the result to the
// original record's values with zero savings so the batch keeps moving.
type Converter struct {
	fetch Fetcher
	blobs BlobStore
}

func New(fetch Fetcher, blobs BlobStore) *Converter {
	return &Converter{fetch: fetch, blobs: blobs}
}

// Convert produces the conversion result for one image.
func (c *Converter) Convert(ctx context.Context, rec entities.ImageRecord, opts entities.ConversionOptions) entities.ConversionResult {
	if skipFast(rec, opts) {
		return unchanged(rec)
	}

	res, err := c.reencode(ctx, rec, opts)
	if err != nil {
		log.Printf("[converter] %s: %v", rec.Reference, err)
		return unchanged(rec)
	}
	return res
}

func (c *Converter) reencode(ctx context.Context, rec entities.ImageRecord, opts entities.ConversionOptions) (entities.ConversionResult, error) {
	var res entities.ConversionResult

	data, err := c.fetch.Fetch(ctx, rec.Reference)
	if err != nil {
		return res, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return res, fmt.Errorf("decode: %w", err)
	}

	img = fitToWidth(img, opts.MaxWidthPx)

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: float32(opts.Quality)}); err != nil {
		return res, fmt.Errorf("encode webp: %w", err)
	}

	key := blobstore.OptimizedKey(rec.Reference)
	publicRef, err := c.blobs.Save(ctx, key, "image/webp", buf.Bytes())
	if err != nil {
		return res, fmt.Errorf("persist %s: %w", key, err)
	}

	optimizedKB := float64(buf.Len()) / 1024
	savingsKB := rec.SizeKB - optimizedKB

	res = entities.ConversionResult{
		ImageRecord:        rec,
		OptimizedReference: publicRef,
		OptimizedSizeKB:    optimizedKB,
		SavingsKB:          savingsKB,
	}
	if rec.SizeKB > 0 {
		res.SavingsPercent = savingsKB / rec.SizeKB * 100
	}
	return res, nil
}

// skipFast reports whether the source already satisfies the target
// constraints, in which case re-encoding buys nothing.
func skipFast(rec entities.ImageRecord, opts entities.ConversionOptions) bool {
	return inspector.IsTargetFormat(rec.Format) &&
		rec.Width <= opts.MaxWidthPx &&
		rec.SizeKB <= skipFastMaxKB
}

func unchanged(rec entities.ImageRecord) entities.ConversionResult {
	return entities.ConversionResult{
		ImageRecord:        rec,
		OptimizedReference: rec.Reference,
		OptimizedSizeKB:    rec.SizeKB,
	}
}

// fitToWidth scales the image so its longer side does not exceed maxPx,
// preserving aspect ratio. Images already within bounds are returned as-is;
// there is never an upscale.
func fitToWidth(img image.Image, maxPx int) image.Image {
	w := float64(img.Bounds().Dx())
	h := float64(img.Bounds().Dy())

	if w == 0 || h == 0 || maxPx <= 0 {
		return img
	}

	ratio := w / float64(maxPx)
	if hRatio := h / float64(maxPx); hRatio > ratio {
		ratio = hRatio
	}

	// Nothing to do - return original image
	if ratio <= 1 {
		return img
	}

	return imaging.Resize(img, int(w/ratio), int(h/ratio), imaging.Lanczos)
}
