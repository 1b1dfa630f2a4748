package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mmcdole/kanshi/internal/catalog"
	"github.com/mmcdole/kanshi/internal/domain"
	"github.com/mmcdole/kanshi/internal/mylist"
	"github.com/mmcdole/kanshi/internal/recommend"
	"github.com/mmcdole/kanshi/internal/stats"
	"github.com/mmcdole/kanshi/internal/tui/styles"
)

// Home feeds take three gated requests
const reportFeedTimeout = 30 * time.Second

// printReport writes the list summary, continue-watching row and
// recommendations as plain text
func printReport(ctx context.Context, w io.Writer, q *mylist.Queries, svc *catalog.Service) error {
	entries := q.All()
	s := stats.Compute(entries)

	fmt.Fprintln(w, styles.TitleStyle.Render("Your list"))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  Titles\t%d\n", s.Total)
	for _, st := range domain.Statuses {
		fmt.Fprintf(tw, "  %s\t%d\n", st, s.ByStatus[st])
	}
	fmt.Fprintf(tw, "  Episodes seen\t%d\n", s.EpisodesSeen)
	if s.ScoredEntries > 0 {
		fmt.Fprintf(tw, "  Average score\t%.1f\n", s.AverageScore)
	}
	if len(s.TopGenres) > 0 {
		names := make([]string, len(s.TopGenres))
		for i, g := range s.TopGenres {
			names[i] = fmt.Sprintf("%s (%d)", g.Name, g.Count)
		}
		fmt.Fprintf(tw, "  Top genres\t%s\n", strings.Join(names, ", "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if continuing := q.ContinueWatching(); len(continuing) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, styles.TitleStyle.Render("Continue watching"))
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, e := range continuing {
			fmt.Fprintf(tw, "  %s\t%s\tnext: %d\n", e.Title, e.Progress(), e.NextEpisode())
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(recommend.AffinitySet(entries)) == 0 {
		return nil
	}

	feedCtx, cancel := context.WithTimeout(ctx, reportFeedTimeout)
	defer cancel()
	feeds, err := svc.Home(feedCtx)
	recs := recommend.Recommend(entries, catalog.CandidatePool(feeds))

	fmt.Fprintln(w)
	fmt.Fprintln(w, styles.TitleStyle.Render("Recommended for you"))
	if err != nil {
		fmt.Fprintf(w, "  (some catalog feeds failed: %v)\n", err)
	}
	if len(recs) == 0 {
		fmt.Fprintln(w, "  Nothing new right now")
		return nil
	}
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, item := range recs {
		fmt.Fprintf(tw, "  %s\t%s\t%.2f\n", item.Title, strings.Join(item.Genres, ", "), item.Score)
	}
	return tw.Flush()
}
