// Copyright (c) 2024 The Seoul Map Project and its Contributors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package seoulapi implements the raw dataset client for the Seoul open data
// portal. It issues paginated row requests and normalizes the portal's two
// response dialects (tag-delimited markup and structured JSON) into flat
// Pages of RawRecords. It carries no dataset semantics and performs no
// caching; both belong to the aggregation strategies that call it.
package seoulapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/haeseungsung/seoul-map/config"
)

// result codes the portal answers with
const (
	// the request succeeded
	ResultOk = "INFO-000"
	// the dataset provides no data for the request (not an error)
	ResultNoData = "INFO-200"
)

// request format segments understood by the portal
const (
	FormatMarkup = "xml"
	FormatJson   = "json"
)

// A Client fetches pages of rows from the portal. It holds two HTTP clients:
// one with the page-request timeout and one with the longer bulk timeout used
// by strategies that page large datasets to completion.
type Client struct {
	Http    http.Client
	Bulk    http.Client
	BaseUrl string
	ApiKey  string
}

// creates a client from the process configuration
func NewClient() *Client {
	return NewClientWithBase(config.OpenApi.BaseUrl, config.OpenApi.ApiKey,
		config.OpenApi.Timeout(), config.OpenApi.BulkTimeoutDuration())
}

// creates a client against the given portal (used by tests to point the
// client at a fixture server)
func NewClientWithBase(baseUrl, apiKey string, timeout,
	bulkTimeout time.Duration) *Client {
	return &Client{
		Http:    http.Client{Timeout: timeout},
		Bulk:    http.Client{Timeout: bulkTimeout},
		BaseUrl: strings.TrimSuffix(baseUrl, "/"),
		ApiKey:  apiKey,
	}
}

// constructs the portal URL for one page request: the portal addresses rows
// with 1-based inclusive start/end indices
func (c *Client) pageUrl(format, endpoint string, start, end int) string {
	return fmt.Sprintf("%s/%s/%s/%s/%d/%d/", c.BaseUrl, c.ApiKey, format,
		endpoint, start, end)
}

// Fetches one page of rows from the given dataset endpoint. Most of the
// portal's datasets answer in the markup dialect, but the response is parsed
// by its actual content type, so endpoints that answer in JSON regardless of
// the requested format segment still work.
func (c *Client) FetchPage(ctx context.Context, endpoint string, start,
	end int) (Page, error) {
	return c.fetch(ctx, &c.Http, FormatMarkup, endpoint, start, end)
}

// Fetches one page from an endpoint known to speak the JSON dialect
// (e.g. bikeList and the living-population datasets).
func (c *Client) FetchJsonPage(ctx context.Context, endpoint string, start,
	end int) (Page, error) {
	return c.fetch(ctx, &c.Http, FormatJson, endpoint, start, end)
}

// Like FetchPage, but with the bulk timeout. Used by strategies that page
// large datasets to completion in 1000-row requests.
func (c *Client) FetchBulkPage(ctx context.Context, endpoint string, start,
	end int) (Page, error) {
	return c.fetch(ctx, &c.Bulk, FormatMarkup, endpoint, start, end)
}

func (c *Client) fetch(ctx context.Context, client *http.Client, format,
	endpoint string, start, end int) (Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.pageUrl(format, endpoint, start, end), nil)
	if err != nil {
		return Page{}, TransportError{Endpoint: endpoint, Message: err.Error()}
	}

	resp, err := client.Do(req)
	if err != nil {
		return Page{}, TransportError{Endpoint: endpoint, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Page{}, TransportError{Endpoint: endpoint, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Page{}, TransportError{Endpoint: endpoint, Message: err.Error()}
	}

	// The portal labels markup responses as text/xml and JSON responses as
	// application/json, but some endpoints mislabel, so fall back to sniffing
	// the first byte of the payload.
	var page Page
	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "json") || looksLikeJson(body) {
		page, err = parseJsonPage(endpoint, body)
	} else {
		page, err = parseMarkupPage(endpoint, body)
	}
	if err != nil {
		return Page{}, err
	}

	// a non-success code other than "no data" is a protocol error
	if page.ResultCode != ResultOk && page.ResultCode != ResultNoData {
		return Page{}, ProtocolError{
			Endpoint: endpoint,
			Code:     page.ResultCode,
			Message:  page.resultMessage,
		}
	}
	return page, nil
}

func looksLikeJson(body []byte) bool {
	for _, b := range body {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '{', '[':
			return true
		default:
			return false
		}
	}
	return false
}
