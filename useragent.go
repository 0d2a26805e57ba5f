package sitemap

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// sitemapUserAgent is the default User-Agent string sent with every
// request, per spec §6.
const sitemapUserAgent = "mediawords sitemap / https://github.com/mediacloud/sitemap-tree"

// gzipMagic is the two-byte gzip magic number, authoritative over any
// Content-Type header (spec §4.2, §9).
var gzipMagic = []byte{0x1f, 0x8b}

// Response is the minimal HTTP response surface the engine needs from a
// UserAgent implementation.
type Response interface {
	IsSuccess() bool
	StatusLine() string
	Header(name string) (string, bool)
	ContentBytes() []byte
}

// UserAgent is the injected HTTP capability the spec treats as an external
// collaborator (spec §1 "Out of scope"). The engine only ever calls Get.
type UserAgent interface {
	Get(ctx context.Context, url string) (Response, error)
}

type httpResponse struct {
	statusCode int
	status     string
	header     http.Header
	body       []byte
}

func (r *httpResponse) IsSuccess() bool { return r.statusCode >= 200 && r.statusCode < 300 }
func (r *httpResponse) StatusLine() string { return r.status }
func (r *httpResponse) Header(name string) (string, bool) {
	v := r.header.Get(name)
	if v == "" {
		return "", false
	}
	return v, true
}
func (r *httpResponse) ContentBytes() []byte { return r.body }

// HTTPUserAgent is the default UserAgent: it retries on 4xx (except 404 and
// 410) and 5xx responses with a bounded, doubling backoff, and returns the
// last response regardless of whether retries were exhausted (spec §4.2).
type HTTPUserAgent struct {
	Client      *http.Client
	UserAgent   string
	MaxAttempts int
	BackoffBase time.Duration
	Logger      *zerolog.Logger
}

// NewHTTPUserAgent builds a default HTTPUserAgent with sensible bounds.
func NewHTTPUserAgent() *HTTPUserAgent {
	return &HTTPUserAgent{
		Client:      &http.Client{Timeout: 30 * time.Second},
		UserAgent:   sitemapUserAgent,
		MaxAttempts: 5,
		BackoffBase: 200 * time.Millisecond,
	}
}

func (ua *HTTPUserAgent) Get(ctx context.Context, url string) (Response, error) {
	attempts := ua.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastResp *httpResponse
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := ua.BackoffBase * time.Duration(1<<uint(attempt-1))
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		resp, err := ua.doOnce(ctx, url)
		if err != nil {
			lastErr = err
			continue
		}
		lastResp = resp
		lastErr = nil

		if !shouldRetryStatus(resp.statusCode) {
			return resp, nil
		}

		ua.logger().Warn().Str("url", url).Int("attempt", attempt+1).Int("status", resp.statusCode).
			Msg("retrying sitemap fetch after retryable status")
	}

	if lastResp != nil {
		return lastResp, nil
	}
	return nil, lastErr
}

func (ua *HTTPUserAgent) logger() *zerolog.Logger {
	if ua.Logger != nil {
		return ua.Logger
	}
	return defaultZerologLogger()
}

func (ua *HTTPUserAgent) doOnce(ctx context.Context, url string) (*httpResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", ua.UserAgent)

	resp, err := ua.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &httpResponse{
		statusCode: resp.StatusCode,
		status:     resp.Status,
		header:     resp.Header,
		body:       body,
	}, nil
}

// shouldRetryStatus implements "retry on 4xx (except 404/410) and 5xx"
// (spec §4.2); 2xx/3xx are never retried.
func shouldRetryStatus(statusCode int) bool {
	if statusCode == http.StatusNotFound || statusCode == http.StatusGone {
		return false
	}
	if statusCode >= 400 && statusCode < 600 {
		return true
	}
	return false
}

// ungzippedResponseContent applies gunzip iff the URL, Content-Type, or
// magic bytes indicate a gzip payload (spec §4.2), then decodes the result
// via decodeBody: as UTF-8 when the bytes are valid UTF-8, otherwise with a
// small set of common legacy encodings; lossy UTF-8 replacement is used
// only when none of those decode (domain-stack enrichment: see DESIGN.md's
// useragent.go entry).
func ungzippedResponseContent(url string, resp Response) (string, error) {
	body := resp.ContentBytes()

	if shouldGunzip(url, resp, body) {
		unzipped, err := gunzip(body)
		if err != nil {
			return "", &DecompressionError{URL: url, Err: err}
		}
		body = unzipped
	}

	return decodeBody(body), nil
}

func shouldGunzip(url string, resp Response, body []byte) bool {
	if strings.HasSuffix(url, ".gz") {
		return true
	}
	if ct, ok := resp.Header("Content-Type"); ok {
		ct = strings.ToLower(ct)
		if strings.Contains(ct, "application/x-gzip") || strings.Contains(ct, "application/gzip") {
			return true
		}
	}
	return bytes.HasPrefix(body, gzipMagic)
}

func gunzip(content []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	uncompressed, err := io.ReadAll(reader)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	return uncompressed, nil
}

// decodeBody decodes body as UTF-8, falling back to UTF-16 (by BOM) or
// Windows-1252 when the bytes are not valid UTF-8 -- sitemaps served by
// misconfigured servers routinely mislabel their encoding.
func decodeBody(body []byte) string {
	if isValidUTF8(body) {
		return string(body)
	}

	for _, enc := range []encoding.Encoding{
		unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM),
		unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM),
		charmap.Windows1252,
	} {
		decoded, err := transformBytes(body, enc.NewDecoder())
		if err == nil {
			return decoded
		}
	}

	return string(bytes.ToValidUTF8(body, []byte("�")))
}

func transformBytes(body []byte, t transform.Transformer) (string, error) {
	out, _, err := transform.Bytes(t, body)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func isValidUTF8(body []byte) bool {
	return utf8.Valid(body)
}
