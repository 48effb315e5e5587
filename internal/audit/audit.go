// Package audit discovers candidate images from a remote page or a local
// directory tree and aggregates their metadata into a report. Failure of the
// whole source degrades to an empty, well-formed report; failure of a single
// item degrades to a conservative record. Neither aborts the audit.
package audit

import (
	"bytes"
	"context"
	"io/fs"
	"log"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/seolyze/imageaudit/internal/entities"
	"github.com/seolyze/imageaudit/internal/fetcher"
	"github.com/seolyze/imageaudit/internal/inspector"
)

// imageExts are the file extensions directory audits consider.
var imageExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
	".bmp":  {},
	".tiff": {},
	".tif":  {},
	".svg":  {},
}

// Auditor orchestrates image discovery and inspection for both source kinds.
type Auditor struct {
	fetch *fetcher.Client

	// fetchConcurrency bounds parallel image downloads during a URL audit
	// so the origin being audited is not overwhelmed.
	fetchConcurrency int
}

func New(fetch *fetcher.Client, fetchConcurrency int) *Auditor {
	if fetchConcurrency <= 0 {
		fetchConcurrency = 3
	}
	return &Auditor{fetch: fetch, fetchConcurrency: fetchConcurrency}
}

// discovered is one image reference pulled out of page markup.
type discovered struct {
	ref string
	alt *string
}

// AuditURL fetches the page at pageURL, discovers its image elements and
// inspects every one of them. An unreachable or unparseable page yields an
// empty report keyed to the given URL.
func (a *Auditor) AuditURL(ctx context.Context, pageURL string) *entities.AuditReport {
	report := &entities.AuditReport{
		Source: entities.AuditSource{URL: pageURL},
		Images: []entities.ImageRecord{},
	}

	body, err := a.fetch.Remote(ctx, pageURL)
	if err != nil {
		log.Printf("[audit] page %s: %v", pageURL, err)
		return report
	}

	refs, err := discoverImages(body, pageURL)
	if err != nil {
		log.Printf("[audit] parse %s: %v", pageURL, err)
		return report
	}

	// Keep records in discovery order while fetching under a bound.
	records := make([]entities.ImageRecord, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.fetchConcurrency)
	for i, d := range refs {
		g.Go(func() error {
			data, err := a.fetch.Remote(gctx, d.ref)
			if err != nil {
				log.Printf("[audit] image %s: %v", d.ref, err)
				records[i] = inspector.Inspect(nil, d.ref, d.alt)
				return nil
			}
			records[i] = inspector.Inspect(data, d.ref, d.alt)
			return nil
		})
	}
	_ = g.Wait()

	report.Images = records
	report.TotalOriginalSizeKB = totalSizeKB(records)
	return report
}

// AuditDir walks root recursively and inspects every file with a known image
// extension. Directory audits never carry alt text. An unreadable root
// yields an empty report; unreadable files degrade individually.
func (a *Auditor) AuditDir(ctx context.Context, root string) *entities.AuditReport {
	report := &entities.AuditReport{
		Source: entities.AuditSource{Path: root},
		Images: []entities.ImageRecord{},
	}

	var records []entities.ImageRecord
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			log.Printf("[audit] walk %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := imageExts[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}

		data, err := a.fetch.Local(path)
		if err != nil {
			log.Printf("[audit] file %s: %v", path, err)
			records = append(records, inspector.Inspect(nil, path, nil))
			return nil
		}
		records = append(records, inspector.Inspect(data, path, nil))
		return nil
	})
	if err != nil {
		log.Printf("[audit] dir %s: %v", root, err)
		return report
	}

	if records != nil {
		report.Images = records
	}
	report.TotalOriginalSizeKB = totalSizeKB(report.Images)
	return report
}

// discoverImages parses page markup and resolves each img src against the
// page's base address. Inline data URIs are skipped entirely.
func discoverImages(body []byte, pageURL string) ([]discovered, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}

	var refs []discovered
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok || src == "" || strings.HasPrefix(src, "data:") {
			return
		}
		u, err := url.Parse(src)
		if err != nil {
			return
		}

		d := discovered{ref: base.ResolveReference(u).String()}
		if alt, ok := s.Attr("alt"); ok {
			d.alt = &alt
		}
		refs = append(refs, d)
	})

	return refs, nil
}

func totalSizeKB(records []entities.ImageRecord) float64 {
	var total float64
	for _, r := range records {
		total += r.SizeKB
	}
	return total
}
