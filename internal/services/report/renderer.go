// Package report talks to the external PDF rendering service.
package report

import (
	"context"
	"fmt"
	"time"

	"QuantForge/internal/domain/models"
	dservice "QuantForge/internal/domain/service"
	xhttp "QuantForge/pkg/http"
)

// Renderer is the HTTP implementation of service.ReportRenderer.
type Renderer struct {
	baseURL string
	client  *xhttp.Client
}

// NewRenderer builds a renderer client for the service at baseURL.
func NewRenderer(baseURL string, timeout time.Duration) dservice.ReportRenderer {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Renderer{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

// Render posts the project summary and returns the PDF bytes.
func (r *Renderer) Render(ctx context.Context, req *models.ReportRequest) ([]byte, error) {
	if r.baseURL == "" {
		return nil, fmt.Errorf("report renderer not configured")
	}
	var pdf []byte
	err := r.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    r.baseURL + "/render",
		Headers: map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/pdf",
		},
		Body: req,
	}, &pdf)
	if err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	if len(pdf) == 0 {
		return nil, fmt.Errorf("renderer returned an empty document")
	}
	return pdf, nil
}
