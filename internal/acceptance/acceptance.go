// Package acceptance declares the built-in lifecycle suite for a remote
// track library: upload a track, verify it becomes visible, rename it,
// verify the rename propagates, then delete it and verify it is gone.
// The library applies writes asynchronously, so every verification polls
// through suite.Eventually. Cleanup is an always-run test: the uploaded
// track is removed even when an earlier step failed.
package acceptance

import (
	"context"
	"errors"
	"time"

	"github.com/samber/lo"

	"github.com/sequor-org/sequor/internal/remote"
	"github.com/sequor-org/sequor/internal/suite"
)

// Group names used for ordering. The delete group runs after both others
// so cleanup always comes last, whatever else is declared.
const (
	GroupCreate   = "create"
	GroupMetadata = "metadata"
	GroupDelete   = "delete"
)

type Options struct {
	// Poll bounds every Eventually verification in the suite.
	Poll suite.PollSpec
}

const renamedTitle = "checker and the derailleurs"

// Suite returns the lifecycle tests in declaration order. The returned
// tests share state (the uploaded track's ID) through closures, which is
// why a suite value must not be reused across runs.
func Suite(client *remote.Client, opts Options) []suite.Test {
	if opts.Poll.Attempts == 0 {
		opts.Poll = suite.DefaultPollSpec()
	}

	var trackID string
	track := remote.Track{
		Title:          "boredom",
		Artist:         "the buzzcocks",
		Album:          "spiral scratch",
		DurationMillis: 168 * int64(time.Second/time.Millisecond),
	}

	return []suite.Test{
		{
			Name:   "upload-track",
			Groups: []string{GroupCreate},
			Action: func(ctx context.Context) error {
				id, err := client.UploadTrack(ctx, track)
				if err != nil {
					return err
				}
				trackID = id
				return nil
			},
		},
		{
			Name:      "track-appears-in-listing",
			Groups:    []string{GroupCreate},
			DependsOn: []string{"upload-track"},
			Action: func(ctx context.Context) error {
				return suite.Eventually(ctx, func(ctx context.Context) error {
					tracks, err := client.AllTracks(ctx)
					if err != nil {
						return err
					}
					if !containsTrack(tracks, trackID) {
						return suite.Assertf("track %s not yet in listing of %d tracks", trackID, len(tracks))
					}
					return nil
				}, opts.Poll)
			},
		},
		{
			Name:      "listing-pages-match-full-listing",
			Groups:    []string{GroupCreate},
			DependsOn: []string{"track-appears-in-listing"},
			Action: func(ctx context.Context) error {
				return verifyPagedListing(ctx, client)
			},
		},
		{
			Name:            "rename-track",
			Groups:          []string{GroupMetadata},
			DependsOn:       []string{"track-appears-in-listing"},
			RunsAfterGroups: []string{GroupCreate},
			Action: func(ctx context.Context) error {
				return client.RenameTrack(ctx, trackID, renamedTitle)
			},
		},
		{
			Name:      "rename-propagates",
			Groups:    []string{GroupMetadata},
			DependsOn: []string{"rename-track"},
			Action: func(ctx context.Context) error {
				return suite.Eventually(ctx, func(ctx context.Context) error {
					got, err := client.GetTrack(ctx, trackID)
					if err != nil {
						return err
					}
					if got.Title != renamedTitle {
						return suite.Assertf("track title is %q, want %q", got.Title, renamedTitle)
					}
					return nil
				}, opts.Poll)
			},
		},
		{
			Name:            "delete-track",
			Groups:          []string{GroupDelete},
			DependsOn:       []string{"upload-track"},
			RunsAfterGroups: []string{GroupCreate, GroupMetadata},
			AlwaysRun:       true,
			Action: func(ctx context.Context) error {
				if trackID == "" {
					return suite.Skipf("no track was uploaded")
				}
				return client.DeleteTrack(ctx, trackID)
			},
		},
		{
			Name:      "track-gone-from-library",
			Groups:    []string{GroupDelete},
			DependsOn: []string{"delete-track"},
			Action: func(ctx context.Context) error {
				return suite.Eventually(ctx, func(ctx context.Context) error {
					_, err := client.GetTrack(ctx, trackID)
					switch {
					case err == nil:
						return suite.Assertf("track %s still present after delete", trackID)
					case errors.Is(err, remote.ErrTrackNotFound):
						return nil
					default:
						return err
					}
				}, opts.Poll)
			},
		},
	}
}

// verifyPagedListing confirms the lazy page iterator yields the same
// library as the eager full listing.
func verifyPagedListing(ctx context.Context, client *remote.Client) error {
	full, err := client.AllTracks(ctx)
	if err != nil {
		return err
	}

	var paged []remote.Track
	it := client.Tracks()
	for it.Next(ctx) {
		paged = append(paged, it.Page()...)
	}
	if err := it.Err(); err != nil {
		return err
	}

	if len(paged) != len(full) {
		return suite.Assertf("paged listing has %d tracks, full listing has %d", len(paged), len(full))
	}
	pagedIDs := lo.Map(paged, func(t remote.Track, _ int) string { return t.ID })
	fullIDs := lo.Map(full, func(t remote.Track, _ int) string { return t.ID })
	if missing, extra := lo.Difference(fullIDs, pagedIDs); len(missing) > 0 || len(extra) > 0 {
		return suite.Assertf("paged listing differs from full listing: missing %v, extra %v", missing, extra)
	}
	return nil
}

func containsTrack(tracks []remote.Track, id string) bool {
	return lo.ContainsBy(tracks, func(t remote.Track) bool { return t.ID == id })
}
