package handler

import "github.com/seolyze/imageaudit/internal/entities"

// auditRequest carries exactly one source: a page URL or a local directory.
type auditRequest struct {
	URL  string `json:"url" validate:"omitempty,url"`
	Path string `json:"path" validate:"omitempty"`
}

type convertRequest struct {
	Images  []entities.ImageRecord `json:"images" validate:"required,min=1,dive"`
	Options *convertOptions        `json:"options" validate:"omitempty"`
}

type convertOptions struct {
	Quality    int `json:"quality" validate:"omitempty,gte=1,lte=100"`
	MaxWidthPx int `json:"maxWidthPx" validate:"omitempty,gte=1"`
}

type convertResponse struct {
	JobID string `json:"jobId"`
}
