package main

import (
	"fmt"
	"io"
	"time"

	"catalogetl/internal/pipeline"

	"github.com/dustin/go-humanize"
)

func printSummary(w io.Writer, rep *pipeline.Report) {
	fmt.Fprintf(w, "run %s (%s) started %s, took %s\n",
		rep.RunID, rep.Job, humanize.Time(rep.StartedAt), rep.Duration.Truncate(time.Millisecond))

	s := rep.Source
	fmt.Fprintf(w, "  source     %s: %s rows, %s skipped, %s ragged\n",
		s.Location, humanize.Comma(int64(s.Rows)), humanize.Comma(int64(s.Skipped)), humanize.Comma(int64(s.Ragged)))

	fmt.Fprintf(w, "  schema     %d/%d statements, %d warnings\n",
		rep.Setup.Executed, rep.Setup.Statements, len(rep.Setup.Warnings))
	for _, wn := range rep.Setup.Warnings {
		fmt.Fprintf(w, "    #%d %s: %v\n", wn.Index, wn.Statement, wn.Err)
	}

	l := rep.Load
	fmt.Fprintf(w, "  load       %s upserted, %s errors, %s batches, %s duplicate keys\n",
		humanize.Comma(int64(l.Upserted)), humanize.Comma(int64(l.Errors)),
		humanize.Comma(int64(l.Batches)), humanize.Comma(int64(l.DuplicateKeys)))
	for _, f := range l.Failures {
		fmt.Fprintf(w, "    line %d app_id %d: %v\n", f.Line, f.AppID, f.Err)
	}

	for _, r := range rep.Relations {
		fmt.Fprintf(w, "  %-10s %s labels (%s new), %s links (%s new, %s unresolved)\n",
			r.Name, humanize.Comma(int64(r.Labels)), humanize.Comma(int64(r.LookupInserted)),
			humanize.Comma(int64(r.LinksInserted+r.LinksPresent)), humanize.Comma(int64(r.LinksInserted)),
			humanize.Comma(int64(r.LinksFailed)))
		if r.Err != "" {
			fmt.Fprintf(w, "    aborted: %s\n", r.Err)
		}
	}

	if rep.CountErr != "" {
		fmt.Fprintf(w, "  count      failed: %s\n", rep.CountErr)
	} else if rep.FinalCount >= 0 {
		fmt.Fprintf(w, "  count      %s games\n", humanize.Comma(rep.FinalCount))
	}
	if rep.HasWarnings() {
		fmt.Fprintln(w, "completed with warnings")
	}
}
