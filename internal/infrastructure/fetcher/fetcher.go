// Package fetcher downloads a job posting and reduces it to plain text.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"skillmatch/internal/config"
	"skillmatch/internal/logger"
)

const (
	defaultTimeout  = 20 * time.Second
	defaultMaxBytes = 2 << 20

	// below this many characters a static page is assumed to be rendered
	// client-side and the browser is tried
	minStaticText = 500
)

var (
	ErrInvalidURL = errors.New("invalid job url")
	ErrEmptyPage  = errors.New("job page has no readable text")
)

type Fetcher struct {
	timeout   time.Duration
	userAgent string
	maxBytes  int
	browser   *Browser
	logger    *zap.Logger
}

func New(cfg config.FetchConfig, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Fetcher{
		timeout:   cfg.Timeout,
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBytes,
		logger:    logger,
	}
	if f.timeout <= 0 {
		f.timeout = defaultTimeout
	}
	if f.maxBytes <= 0 {
		f.maxBytes = defaultMaxBytes
	}
	if cfg.Headless {
		f.browser = NewBrowser(f.timeout, f.userAgent)
	}
	return f
}

// FetchText returns the readable text of the page at rawURL. With a browser
// configured, pages whose static HTML carries little text are re-rendered.
func (f *Fetcher) FetchText(ctx context.Context, rawURL string) (string, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	body, contentType, err := f.get(u.String())
	if err != nil {
		return "", err
	}

	text := body
	if isHTML(contentType, body) {
		text, err = ExtractText(body)
		if err != nil {
			return "", err
		}
	} else {
		text = collapseWhitespace(text)
	}

	if f.browser != nil && len(text) < minStaticText {
		f.logger.Debug("static page text too short, rendering in browser",
			zap.String("url", u.String()), zap.Int("chars", len(text)))
		html, err := f.browser.Render(ctx, u.String())
		if err != nil {
			f.logger.Warn("browser render failed", zap.String("url", logger.TruncateForLog(u.String(), 200)), zap.Error(err))
		} else if rendered, err := ExtractText(html); err == nil && len(rendered) > len(text) {
			text = rendered
		}
	}

	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyPage
	}
	return text, nil
}

func (f *Fetcher) get(target string) (string, string, error) {
	opts := []colly.CollectorOption{colly.MaxBodySize(f.maxBytes)}
	if f.userAgent != "" {
		opts = append(opts, colly.UserAgent(f.userAgent))
	}
	c := colly.NewCollector(opts...)
	c.SetRequestTimeout(f.timeout)

	var (
		body        string
		contentType string
		reqErr      error
	)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")
	})

	c.OnResponse(func(r *colly.Response) {
		body = string(r.Body)
		if r.Headers != nil {
			contentType = r.Headers.Get("Content-Type")
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			reqErr = fmt.Errorf("fetch %s: status %d: %w", target, r.StatusCode, err)
			return
		}
		reqErr = fmt.Errorf("fetch %s: %w", target, err)
	})

	if err := c.Visit(target); err != nil && reqErr == nil {
		reqErr = fmt.Errorf("fetch %s: %w", target, err)
	}
	c.Wait()
	if reqErr != nil {
		return "", "", reqErr
	}
	return body, contentType, nil
}

// ParseURL accepts absolute http and https URLs only.
func ParseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, ErrInvalidURL
	}
	return u, nil
}

func isHTML(contentType, body string) bool {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "html"):
		return true
	case strings.HasPrefix(ct, "text/plain"):
		return false
	}
	head := strings.TrimSpace(body[:min(len(body), 512)])
	return strings.HasPrefix(head, "<")
}
