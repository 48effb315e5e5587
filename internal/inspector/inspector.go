// Package inspector decodes image bytes into structural metadata and derives
// quality flags from fixed rules. Decode failures never propagate: a corrupt
// or unsupported payload yields a degraded record with conservative flags so
// one bad image cannot abort a whole audit.
package inspector

import (
	"bytes"
	"image"
	"strings"

	// Register decoders for the formats the audit understands.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "github.com/chai2010/webp"
	"github.com/gabriel-vasile/mimetype"

	"github.com/seolyze/imageaudit/internal/entities"
)

const (
	// FormatUnknown marks records whose bytes could not be decoded.
	FormatUnknown = "unknown"

	oversizeKB    = 200
	oversizeDimPx = 2000
	minAltTextLen = 5
	targetFormat  = "webp"
)

// Inspect builds an ImageRecord from raw bytes. altText is nil when the
// source offers none (directory audits never have one).
func Inspect(data []byte, reference string, altText *string) entities.ImageRecord {
	rec := entities.ImageRecord{
		Reference: reference,
		SizeKB:    float64(len(data)) / 1024,
		AltText:   altText,
	}

	// An img src can serve anything, including an HTML error page. Sniff
	// before decoding so non-image payloads take the degraded path.
	if !strings.HasPrefix(mimetype.Detect(data).String(), "image/") {
		return degrade(rec)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return degrade(rec)
	}

	rec.Width = cfg.Width
	rec.Height = cfg.Height
	rec.Format = format
	rec.Flags = DeriveFlags(rec)
	return rec
}

// DeriveFlags evaluates every flag rule independently; flags are a pure
// function of the record's other fields.
func DeriveFlags(rec entities.ImageRecord) []entities.Flag {
	flags := make([]entities.Flag, 0, 3)

	if rec.SizeKB > oversizeKB || max(rec.Width, rec.Height) > oversizeDimPx {
		flags = append(flags, entities.FlagOversize)
	}
	if rec.AltText == nil || len(*rec.AltText) < minAltTextLen {
		flags = append(flags, entities.FlagMissingAlt)
	}
	if !IsTargetFormat(rec.Format) {
		flags = append(flags, entities.FlagNotWebP)
	}

	return flags
}

// IsTargetFormat reports whether format already is the optimization target.
func IsTargetFormat(format string) bool {
	return strings.EqualFold(format, targetFormat)
}

func degrade(rec entities.ImageRecord) entities.ImageRecord {
	rec.Width = 0
	rec.Height = 0
	rec.Format = FormatUnknown
	rec.Flags = []entities.Flag{entities.FlagOversize, entities.FlagNotWebP}
	return rec
}
