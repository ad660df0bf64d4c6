package remote

import "context"

// TrackIterator walks the library one page at a time. It is lazy, finite
// and non-restartable: concatenating every page it yields equals the
// eager full listing taken at the same time.
//
//	it := client.Tracks()
//	for it.Next(ctx) {
//		page := it.Page()
//		...
//	}
//	if err := it.Err(); err != nil { ... }
type TrackIterator struct {
	client *Client
	page   []Track
	next   string
	err    error
	state  iterState
}

type iterState int

const (
	iterInitial iterState = iota
	iterActive
	iterDone
)

// Next fetches the next page. It returns false once the listing is
// exhausted or a fetch failed; Err distinguishes the two.
func (it *TrackIterator) Next(ctx context.Context) bool {
	if it.state == iterDone {
		return false
	}
	if it.state == iterActive && it.next == "" {
		it.state = iterDone
		return false
	}

	page, next, err := it.client.ListTracks(ctx, it.next)
	if err != nil {
		it.err = err
		it.state = iterDone
		return false
	}

	it.page = page
	it.next = next
	it.state = iterActive
	if len(page) == 0 && next == "" {
		it.state = iterDone
		return false
	}
	return true
}

// Page returns the page fetched by the last successful Next.
func (it *TrackIterator) Page() []Track {
	return it.page
}

// Err returns the error that stopped iteration, if any.
func (it *TrackIterator) Err() error {
	return it.err
}
