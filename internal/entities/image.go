package entities

// Flag is a rule-derived quality issue attached to an image record.
type Flag string

const (
	FlagOversize   Flag = "OVERSIZE"
	FlagMissingAlt Flag = "MISSING_ALT"
	FlagNotWebP    Flag = "NOT_WEBP"
)

// ImageRecord describes one discovered or processed image. Flags are derived
// from the other fields and are never set by callers.
type ImageRecord struct {
	Reference string  `json:"reference"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	SizeKB    float64 `json:"sizeKB"`
	Format    string  `json:"format"`
	AltText   *string `json:"altText"`
	Flags     []Flag  `json:"flags"`
}

// HasFlag reports whether the record carries the given flag.
func (r ImageRecord) HasFlag(f Flag) bool {
	for _, v := range r.Flags {
		if v == f {
			return true
		}
	}
	return false
}

// AuditSource identifies what was audited; exactly one field is set.
type AuditSource struct {
	URL  string `json:"url,omitempty"`
	Path string `json:"path,omitempty"`
}

// AuditReport is the aggregate result of one audit request. It is immutable
// after construction.
type AuditReport struct {
	Source              AuditSource   `json:"source"`
	Images              []ImageRecord `json:"images"`
	TotalOriginalSizeKB float64       `json:"totalOriginalSizeKB"`
}

// ConversionOptions control re-encoding. Zero values are replaced with
// defaults before a job starts.
type ConversionOptions struct {
	Quality    int `json:"quality"`
	MaxWidthPx int `json:"maxWidthPx"`
}

const (
	DefaultQuality    = 80
	DefaultMaxWidthPx = 1280
)

// WithDefaults fills unset option fields.
func (o ConversionOptions) WithDefaults() ConversionOptions {
	if o.Quality == 0 {
		o.Quality = DefaultQuality
	}
	if o.MaxWidthPx == 0 {
		o.MaxWidthPx = DefaultMaxWidthPx
	}
	return o
}

// ConversionResult is the per-image outcome of a conversion job.
type ConversionResult struct {
	ImageRecord
	OptimizedReference string  `json:"optimizedReference"`
	OptimizedSizeKB    float64 `json:"optimizedSizeKB"`
	SavingsKB          float64 `json:"savingsKB"`
	SavingsPercent     float64 `json:"savingsPercent"`
}

// JobStatus is the lifecycle state of a conversion job. Transitions are
// monotonic: pending → processing → (completed | failed).
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// Job tracks one asynchronous conversion run across multiple images.
type Job struct {
	ID             string             `json:"id"`
	Status         JobStatus          `json:"status"`
	CompletedCount int                `json:"completedCount"`
	TotalCount     int                `json:"totalCount"`
	Results        []ConversionResult `json:"results"`
	Error          *string            `json:"error"`
}
