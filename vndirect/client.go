// Copyright 2022 Stock Parfait

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vndirect

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/fetch"
	"github.com/stockparfait/logging"

	"golang.org/x/exp/rand"
)

type contextKey int

const (
	clientContextKey contextKey = iota
)

// ContentType sent with every request.
const ContentType = "application/json"

// URL is the default industry classification endpoint, used by NewClient when
// no base URL is given.
var URL = "https://finfo-api.vndirect.com.vn/v4/industry_classification"

// Getter is the transport used by the Client. It issues a single GET request
// and returns the status code and the body. An error means that no complete
// response was received.
type Getter interface {
	Get(ctx context.Context, uri, rawQuery string, header http.Header) (int, []byte, error)
}

// HTTPGetter implements Getter with an http.Client. The raw query is sent as
// is, without re-encoding.
type HTTPGetter struct {
	Client *http.Client // nil: fetch.GetClient(ctx), then http.DefaultClient
}

var _ Getter = &HTTPGetter{}

func (g *HTTPGetter) Get(ctx context.Context, uri, rawQuery string, header http.Header) (int, []byte, error) {
	if rawQuery != "" {
		uri += "?" + rawQuery
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return 0, nil, errors.Annotate(err, "failed to create request")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	client := g.Client
	if client == nil {
		client = fetch.GetClient(ctx)
	}
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, errors.Annotate(err, "GET %s failed", uri)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, errors.Annotate(err, "failed to read response body")
	}
	return resp.StatusCode, body, nil
}

// GetOK issues exactly one request through g and returns the body of a 2xx
// response. Any other outcome is a *TransportError.
func GetOK(ctx context.Context, g Getter, uri, rawQuery string, header http.Header) ([]byte, error) {
	status, body, err := g.Get(ctx, uri, rawQuery, header)
	if err != nil {
		return nil, &TransportError{StatusCode: status, Err: err}
	}
	if status < 200 || status >= 300 {
		return nil, &TransportError{
			StatusCode: status,
			Err:        errors.Reason("unexpected HTTP status %d", status),
		}
	}
	return body, nil
}

// UserAgents is a pool of User-Agent strings to pick from for each request.
type UserAgents []string

// DefaultUserAgents is the pool used when none is configured.
var DefaultUserAgents = UserAgents{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/119.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:109.0) Gecko/20100101 Firefox/119.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36 Edg/118.0.2088.76",
}

// Pick a user agent uniformly at random. The pool must not be empty.
func (p UserAgents) Pick(r *rand.Rand) string {
	return p[r.Intn(len(p))]
}

// Client for the industry classification API.
type Client struct {
	baseURL    string
	userAgents UserAgents
	getter     Getter
	mu         sync.Mutex // guards rand
	rand       *rand.Rand
}

// NewClient creates a new client for baseURL, or for URL when baseURL is
// empty. The pool of user agents must not be empty.
func NewClient(baseURL string, getter Getter, agents UserAgents) (*Client, error) {
	if baseURL == "" {
		baseURL = URL
	}
	if getter == nil {
		return nil, errors.Reason("getter is required")
	}
	if len(agents) == 0 {
		return nil, errors.Reason("the pool of user agents is empty")
	}
	return &Client{
		baseURL:    baseURL,
		userAgents: append(UserAgents{}, agents...),
		getter:     getter,
		rand:       rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
	}, nil
}

// Seed the client's random source, for deterministic user agent selection.
func (c *Client) Seed(seed uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rand = rand.New(rand.NewSource(seed))
}

func (c *Client) userAgent() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userAgents.Pick(c.rand)
}

// UseClient injects the client into the context.
func UseClient(ctx context.Context, c *Client) context.Context {
	return context.WithValue(ctx, clientContextKey, c)
}

// GetClient extracts the Client from the context, if any.
func GetClient(ctx context.Context) *Client {
	c, ok := ctx.Value(clientContextKey).(*Client)
	if !ok {
		return nil
	}
	return c
}

// Lookup queries the industries matching the filters using the Client from the
// context. It issues exactly one request and never retries. The errors are
// *TransportError and *MalformedResponse, except when the context has no
// client.
func Lookup(ctx context.Context, f FilterRequest) (*LookupResult, error) {
	c := GetClient(ctx)
	if c == nil {
		return nil, errors.Reason("no vndirect client in context")
	}
	q := Encode(f)
	header := make(http.Header)
	header.Set("Content-Type", ContentType)
	header.Set("User-Agent", c.userAgent())

	logging.Debugf(ctx, "VNDirect: GET %s?%s", c.baseURL, q.RawQuery())
	body, err := GetOK(ctx, c.getter, c.baseURL, q.RawQuery(), header)
	if err != nil {
		return nil, err
	}
	res, err := Split(body)
	if err != nil {
		return nil, err
	}
	logging.Infof(ctx, "VNDirect: fetched %d industry records", len(res.Records))
	return res, nil
}

// LookupAll requests the entire classification in a single page of the
// maximum size.
func LookupAll(ctx context.Context) (*LookupResult, error) {
	return Lookup(ctx, FilterRequest{})
}
