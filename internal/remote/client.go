// Package remote is the client for the track-library service the
// acceptance suite runs against. The service applies mutations
// asynchronously: a created, renamed or deleted track may take several
// seconds to become visible in listings, which is why callers verify
// state through suite.Eventually rather than immediately after a write.
package remote

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const defaultPageSize = 100

// Track is a single item in the remote library.
type Track struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Artist         string `json:"artist"`
	Album          string `json:"album"`
	DurationMillis int64  `json:"durationMillis"`
}

// Client talks to the track-library API. All methods classify failures:
// anything that prevents a well-formed answer becomes a TransportError.
type Client struct {
	http     *resty.Client
	limiter  *rate.Limiter
	pageSize int
}

type Option func(*Client)

// WithPageSize sets the page size for listings.
func WithPageSize(n int) Option {
	return func(c *Client) {
		c.pageSize = n
	}
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		http:     resty.New().SetBaseURL(baseURL),
		limiter:  rate.NewLimiter(rate.Limit(10), 1),
		pageSize: defaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return c.limiter.Wait(req.Context())
	})
	return c
}

// Login authenticates and installs the session token on the client.
func (c *Client) Login(ctx context.Context, email, password string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email, "password": password}).
		Post("/auth/login")
	if err != nil {
		return transportErr("login", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return transportErrf("login", "unexpected status %d: %s", resp.StatusCode(), resp.Body())
	}
	token := gjson.GetBytes(resp.Body(), "token")
	if !token.Exists() {
		return transportErrf("login", "response missing token")
	}
	c.http.SetAuthToken(token.String())
	return nil
}

// Logout tears down the session. Safe to call without a session.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Post("/auth/logout")
	if err != nil {
		return transportErr("logout", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return transportErrf("logout", "unexpected status %d", resp.StatusCode())
	}
	c.http.SetAuthToken("")
	return nil
}

// ListTracks returns one page of the library and the token for the next
// page. An empty next token means the listing is exhausted.
func (c *Client) ListTracks(ctx context.Context, pageToken string) ([]Track, string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("maxResults", fmt.Sprintf("%d", c.pageSize)).
		SetQueryParam("pageToken", pageToken).
		Get("/tracks")
	if err != nil {
		return nil, "", transportErr("list tracks", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, "", transportErrf("list tracks", "unexpected status %d", resp.StatusCode())
	}

	body := resp.Body()
	var tracks []Track
	for _, item := range gjson.GetBytes(body, "items").Array() {
		tracks = append(tracks, trackFromJSON(item))
	}
	return tracks, gjson.GetBytes(body, "nextPageToken").String(), nil
}

// Tracks returns a lazy page iterator over the library.
func (c *Client) Tracks() *TrackIterator {
	return &TrackIterator{client: c}
}

// AllTracks eagerly lists the entire library.
func (c *Client) AllTracks(ctx context.Context) ([]Track, error) {
	var all []Track
	it := c.Tracks()
	for it.Next(ctx) {
		all = append(all, it.Page()...)
	}
	return all, it.Err()
}

// GetTrack fetches a single track. A missing track is ErrTrackNotFound,
// not a transport fault, so check actions can assert on absence.
func (c *Client) GetTrack(ctx context.Context, id string) (*Track, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/tracks/" + id)
	if err != nil {
		return nil, transportErr("get track", err)
	}
	switch resp.StatusCode() {
	case http.StatusOK:
		track := trackFromJSON(gjson.ParseBytes(resp.Body()))
		return &track, nil
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrTrackNotFound, id)
	default:
		return nil, transportErrf("get track", "unexpected status %d", resp.StatusCode())
	}
}

// UploadTrack creates a track and returns its server-assigned ID. The
// generated client ID lets the server deduplicate retried uploads.
func (c *Client) UploadTrack(ctx context.Context, track Track) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"clientId":       uuid.NewString(),
			"title":          track.Title,
			"artist":         track.Artist,
			"album":          track.Album,
			"durationMillis": track.DurationMillis,
		}).
		Post("/tracks")
	if err != nil {
		return "", transportErr("upload track", err)
	}
	if resp.StatusCode() != http.StatusCreated && resp.StatusCode() != http.StatusOK {
		return "", transportErrf("upload track", "unexpected status %d: %s", resp.StatusCode(), resp.Body())
	}
	id := gjson.GetBytes(resp.Body(), "id")
	if !id.Exists() {
		return "", transportErrf("upload track", "response missing id")
	}
	return id.String(), nil
}

// RenameTrack updates a track's title.
func (c *Client) RenameTrack(ctx context.Context, id, title string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"title": title}).
		Patch("/tracks/" + id)
	if err != nil {
		return transportErr("rename track", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return transportErrf("rename track", "unexpected status %d", resp.StatusCode())
	}
	return nil
}

// DeleteTrack removes a track from the library.
func (c *Client) DeleteTrack(ctx context.Context, id string) error {
	resp, err := c.http.R().SetContext(ctx).Delete("/tracks/" + id)
	if err != nil {
		return transportErr("delete track", err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusNoContent {
		return transportErrf("delete track", "unexpected status %d", resp.StatusCode())
	}
	return nil
}

func trackFromJSON(item gjson.Result) Track {
	return Track{
		ID:             item.Get("id").String(),
		Title:          item.Get("title").String(),
		Artist:         item.Get("artist").String(),
		Album:          item.Get("album").String(),
		DurationMillis: item.Get("durationMillis").Int(),
	}
}
