// Package renderer renders account snapshots as markdown reports.
package renderer

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"

	"github.com/etnz/payments"
	md "github.com/nao1215/markdown"
)

// Options holds configuration for rendering a snapshot report.
type Options struct {
	Title      string                     // Title of the report, "Accounts" by default.
	Currency   Currency                   // Currency used to display amounts.
	Stats      *payments.Stats            // Processing counters, not rendered when nil.
	Rejections map[payments.ErrorKind]int // Rejection counts by reason, overrides Stats.ByKind.
}

// SnapshotMarkdown renders the accounts of s, their totals and a summary of
// rejected events.
func SnapshotMarkdown(s payments.Snapshot, opts Options) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	title := opts.Title
	if title == "" {
		title = "Accounts"
	}
	doc.H1(title)

	if s.Len() == 0 {
		doc.PlainText("No accounts.")
	} else {
		rows := make([][]string, 0, s.Len())
		for a := range s.Accounts() {
			rows = append(rows, []string{
				strconv.FormatUint(uint64(a.Client), 10),
				opts.Currency.Format(a.Available),
				opts.Currency.Format(a.Held),
				opts.Currency.Format(a.Total()),
				lockedLabel(a.Locked),
			})
		}
		doc.Table(md.TableSet{
			Header: []string{"Client", "Available", "Held", "Total", "Locked"},
			Rows:   rows,
		})
	}

	available, held, total := s.Totals()
	doc.H2("Totals")
	doc.Table(md.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Accounts", strconv.Itoa(s.Len())},
			{"Locked accounts", strconv.Itoa(s.Locked())},
			{"Available", opts.Currency.Format(available)},
			{"Held", opts.Currency.Format(held)},
			{"Total", opts.Currency.Format(total)},
		},
	})

	rejections := opts.Rejections
	if rejections == nil && opts.Stats != nil {
		rejections = opts.Stats.ByKind
	}
	if opts.Stats != nil || len(rejections) > 0 {
		doc.H2("Events")
		if opts.Stats != nil {
			doc.PlainText(fmt.Sprintf("%d applied, %d rejected.", opts.Stats.Applied, opts.Stats.Rejected))
		}
		if len(rejections) > 0 {
			kinds := make([]payments.ErrorKind, 0, len(rejections))
			for k := range rejections {
				kinds = append(kinds, k)
			}
			slices.Sort(kinds)
			rows := make([][]string, 0, len(kinds))
			for _, k := range kinds {
				rows = append(rows, []string{string(k), strconv.Itoa(rejections[k])})
			}
			doc.Table(md.TableSet{
				Header: []string{"Rejection", "Count"},
				Rows:   rows,
			})
		}
	}

	return doc.String()
}

func lockedLabel(locked bool) string {
	if locked {
		return "yes"
	}
	return "no"
}
