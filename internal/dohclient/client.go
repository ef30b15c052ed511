// Copyright (c) 2025-2026 dnsinfo.lol
// Licensed under BUSL-1.1 — See LICENSE for terms.
package dohclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var UserAgent = "dnsinfo.lol DNS-Intelligence/1.0 (+https://dnsinfo.lol)"

func SetUserAgentVersion(version string) {
	UserAgent = fmt.Sprintf("dnsinfo.lol DNS-Intelligence/%s (+https://dnsinfo.lol)", version)
}

// Error taxonomy for outbound queries. Callers classify with errors.Is;
// everything the client returns wraps exactly one of these.
var (
	ErrTimeout           = errors.New("doh: query deadline exceeded")
	ErrTransport         = errors.New("doh: transport failure")
	ErrMalformedResponse = errors.New("doh: malformed response payload")
)

const (
	DefaultTimeout = 5 * time.Second

	maxResponseBytes = 1 << 20
)

type Client struct {
	httpClient *http.Client
	userAgent  string
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        20,
				IdleConnTimeout:     30 * time.Second,
				DisableKeepAlives:   false,
				MaxIdleConnsPerHost: 5,
			},
		},
		userAgent: UserAgent,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// wireResponse mirrors the de-facto Google/Cloudflare DoH JSON convention.
// A missing Status decodes to 0 (NOERROR); every other field defaults to
// empty/false rather than failing the parse.
type wireResponse struct {
	Status   int `json:"Status"`
	TC       bool
	RD       bool
	RA       bool
	AD       bool
	CD       bool
	Question []struct {
		Name string `json:"name"`
		Type uint16 `json:"type"`
	} `json:"Question"`
	Answer     []wireRecord `json:"Answer"`
	Authority  []wireRecord `json:"Authority"`
	Additional []wireRecord `json:"Additional"`
}

type wireRecord struct {
	Name string `json:"name"`
	Type uint16 `json:"type"`
	TTL  uint32 `json:"TTL"`
	Data string `json:"data"`
}

// Query issues one DNS question against one DoH endpoint and normalizes the
// reply. The timeout is a hard deadline: the in-flight request is cancelled
// when it expires and the call fails with ErrTimeout.
func (c *Client) Query(ctx context.Context, endpoint, domain, recordType string, timeout time.Duration) (*Response, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	q := url.Values{}
	q.Set("name", domain)
	q.Set("type", normalizeTypeParam(recordType))
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/dns-json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: %s after %s", ErrTimeout, endpoint, timeout)
		}
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned HTTP %d", ErrTransport, endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: %s after %s", ErrTimeout, endpoint, timeout)
		}
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	parsed, err := parseResponse(body)
	if err != nil {
		slog.Debug("DoH parse failed", "endpoint", endpoint, "domain", domain, "type", recordType, "error", err)
		return nil, err
	}
	return parsed, nil
}

func parseResponse(body []byte) (*Response, error) {
	var wire wireResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	r := &Response{
		Status:            wire.Status,
		Answer:            normalizeRecords(wire.Answer),
		Authority:         normalizeRecords(wire.Authority),
		Additional:        normalizeRecords(wire.Additional),
		AuthenticatedData: wire.AD,
		CheckingDisabled:  wire.CD,
		Truncated:         wire.TC,
		RecursionDesired:  wire.RD,
		RecursionAvail:    wire.RA,
	}
	for _, q := range wire.Question {
		r.Question = append(r.Question, Question{Name: q.Name, Type: q.Type})
	}
	return r, nil
}

func normalizeRecords(in []wireRecord) []Record {
	if len(in) == 0 {
		return nil
	}
	out := make([]Record, 0, len(in))
	for _, w := range in {
		data := strings.TrimSpace(w.Data)
		out = append(out, Record{
			Name:     strings.TrimSuffix(strings.ToLower(w.Name), "."),
			Type:     w.Type,
			TypeName: TypeName(w.Type),
			TTL:      w.TTL,
			Data:     data,
		})
	}
	return out
}

// normalizeTypeParam maps known mnemonics through the type table so the query
// always carries the canonical spelling; unknown mnemonics go out verbatim
// and the resolver decides whether they are valid.
func normalizeTypeParam(recordType string) string {
	trimmed := strings.TrimSpace(recordType)
	if code, ok := TypeCode(trimmed); ok {
		if name, known := typeNames[code]; known {
			return name
		}
		return strconv.Itoa(int(code))
	}
	return trimmed
}
