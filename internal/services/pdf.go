package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/starwalkn/gotenberg-go-client/v8"
	"github.com/starwalkn/gotenberg-go-client/v8/document"
)

// PDFService converts rendered document HTML into a PDF through Gotenberg.
type PDFService struct {
	client  *gotenberg.Client
	timeout time.Duration
}

func NewPDFService(gotenbergURL string, timeoutStr string) (*PDFService, error) {
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		timeout = 30 * time.Second
		fmt.Printf("Warning: failed to parse timeout '%s', using default 30s: %v\n", timeoutStr, err)
	}

	httpClient := &http.Client{
		Timeout: timeout,
	}

	client, err := gotenberg.NewClient(gotenbergURL, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gotenberg client: %w", err)
	}

	return &PDFService{
		client:  client,
		timeout: timeout,
	}, nil
}

func (s *PDFService) ConvertHTMLToPDF(ctx context.Context, html string) (io.ReadCloser, error) {
	return s.convertWithRetry(ctx, html, 3)
}

func (s *PDFService) convertWithRetry(ctx context.Context, html string, maxRetries int) (io.ReadCloser, error) {
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		convertCtx, cancel := context.WithTimeout(ctx, s.timeout)

		// A fresh reader per attempt; the previous one may be partially consumed.
		doc, err := document.FromReader("index.html", strings.NewReader(html))
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to create document from reader: %w", err)
		}

		req := gotenberg.NewHTMLRequest(doc)

		resp, err := s.client.Send(convertCtx, req)
		if err == nil {
			// Drain before the context is cancelled; the body is tied to it.
			data, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			cancel()
			if readErr == nil {
				return io.NopCloser(bytes.NewReader(data)), nil
			}
			err = readErr
		} else {
			cancel()
		}

		lastErr = err
		fmt.Printf("PDF conversion attempt %d/%d failed: %v\n", attempt, maxRetries, err)

		if attempt < maxRetries {
			time.Sleep(time.Duration(attempt) * time.Second)
		}
	}

	return nil, fmt.Errorf("failed to convert document after %d attempts: %w", maxRetries, lastErr)
}

func (s *PDFService) Close() error {
	// The HTTP client needs no explicit shutdown.
	return nil
}
