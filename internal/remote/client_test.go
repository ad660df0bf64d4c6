package remote_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sequor-org/sequor/internal/remote"
)

// fakeLibrary is an in-memory track-library API. Unlike the real
// service it applies writes synchronously; eventual consistency is
// exercised in the acceptance package tests.
type fakeLibrary struct {
	mu     sync.Mutex
	nextID int
	order  []string
	tracks map[string]map[string]any
	token  string
}

func newFakeLibrary() *fakeLibrary {
	return &fakeLibrary{tracks: map[string]map[string]any{}, token: "session-token"}
}

func (f *fakeLibrary) add(title, artist string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("t%04d", f.nextID)
	f.tracks[id] = map[string]any{"id": id, "title": title, "artist": artist}
	f.order = append(f.order, id)
	return id
}

func (f *fakeLibrary) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"token": f.token})
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /tracks", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+f.token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()

		offset := 0
		if tok := r.URL.Query().Get("pageToken"); tok != "" {
			offset, _ = strconv.Atoi(tok)
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("maxResults"))
		if limit <= 0 {
			limit = 100
		}

		end := min(offset+limit, len(f.order))
		items := make([]map[string]any, 0, end-offset)
		for _, id := range f.order[offset:end] {
			items = append(items, f.tracks[id])
		}
		next := ""
		if end < len(f.order) {
			next = strconv.Itoa(end)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"items": items, "nextPageToken": next})
	})
	mux.HandleFunc("POST /tracks", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		id := f.add(str(body["title"]), str(body["artist"]))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": id})
	})
	mux.HandleFunc("GET /tracks/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		track, ok := f.tracks[r.PathValue("id")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(track)
	})
	mux.HandleFunc("PATCH /tracks/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		track, ok := f.tracks[r.PathValue("id")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		track["title"] = str(body["title"])
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("DELETE /tracks/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id := r.PathValue("id")
		if _, ok := f.tracks[id]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		delete(f.tracks, id)
		for i, v := range f.order {
			if v == id {
				f.order = append(f.order[:i], f.order[i+1:]...)
				break
			}
		}
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func newTestClient(t *testing.T, opts ...remote.Option) (*remote.Client, *fakeLibrary) {
	t.Helper()
	lib := newFakeLibrary()
	srv := httptest.NewServer(lib.handler())
	t.Cleanup(srv.Close)

	opts = append([]remote.Option{remote.WithRateLimit(1000)}, opts...)
	client := remote.NewClient(srv.URL, opts...)
	require.NoError(t, client.Login(t.Context(), "user@example.com", "hunter2"))
	return client, lib
}

func TestLoginLogout(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.AllTracks(t.Context())
	require.NoError(t, err)

	require.NoError(t, client.Logout(t.Context()))

	// The session token is gone; listing must now be rejected.
	_, err = client.AllTracks(t.Context())
	require.True(t, remote.IsTransport(err))
}

func TestPagedIteratorMatchesFullListing(t *testing.T) {
	client, lib := newTestClient(t, remote.WithPageSize(10))
	for i := 0; i < 25; i++ {
		lib.add(fmt.Sprintf("track %d", i), "artist")
	}

	full, err := client.AllTracks(t.Context())
	require.NoError(t, err)
	require.Len(t, full, 25)

	var paged []remote.Track
	pages := 0
	it := client.Tracks()
	for it.Next(t.Context()) {
		pages++
		paged = append(paged, it.Page()...)
	}
	require.NoError(t, it.Err())
	require.Equal(t, 3, pages)
	require.Equal(t, full, paged)

	// Non-restartable: the iterator stays exhausted.
	require.False(t, it.Next(t.Context()))
}

func TestGetTrackNotFound(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.GetTrack(t.Context(), "missing")
	require.ErrorIs(t, err, remote.ErrTrackNotFound)
	require.False(t, remote.IsTransport(err))
}

func TestUploadRenameDelete(t *testing.T) {
	client, _ := newTestClient(t)

	id, err := client.UploadTrack(t.Context(), remote.Track{Title: "original", Artist: "someone"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NoError(t, client.RenameTrack(t.Context(), id, "renamed"))
	got, err := client.GetTrack(t.Context(), id)
	require.NoError(t, err)
	require.Equal(t, "renamed", got.Title)

	require.NoError(t, client.DeleteTrack(t.Context(), id))
	_, err = client.GetTrack(t.Context(), id)
	require.ErrorIs(t, err, remote.ErrTrackNotFound)
}

func TestServerErrorIsTransportFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client := remote.NewClient(srv.URL, remote.WithRateLimit(1000))
	_, _, err := client.ListTracks(t.Context(), "")
	require.True(t, remote.IsTransport(err))
	require.True(t, strings.Contains(err.Error(), "500"))
}

func TestConnectionFailureIsTransportFault(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	client := remote.NewClient(srv.URL, remote.WithRateLimit(1000))
	err := client.DeleteTrack(t.Context(), "x")
	require.True(t, remote.IsTransport(err))
}
