package report

import (
	"fmt"
	"io"

	"github.com/aviladevs/fiscal-importer/internal/core/domain"
)

const (
	MaxListedErrors = 10
	MaxMessageRunes = 100
)

// Print writes the operator summary of a run.
func Print(w io.Writer, stats *domain.RunStatistics) error {
	if stats == nil {
		stats = &domain.RunStatistics{}
	}
	p := &printer{w: w}
	p.line("")
	p.line("Import summary (run %s)", stats.RunID)
	p.line("  %-4s %d succeeded (%d already imported), %d failed",
		domain.KindInvoice+":", stats.InvoiceSuccess, stats.InvoiceDuplicate, stats.InvoiceError)
	p.line("  %-4s %d succeeded (%d already imported), %d failed",
		domain.KindFreight+":", stats.FreightSuccess, stats.FreightDuplicate, stats.FreightError)
	p.line("  total: %d succeeded, %d failed", stats.TotalSuccess(), stats.TotalError())
	p.line("  items inserted: %d", stats.ItemsInserted)

	if first := stats.FirstErrors(MaxListedErrors); len(first) > 0 {
		p.line("")
		p.line("First %d of %d errors:", len(first), len(stats.Errors))
		for _, e := range first {
			p.line("  [%s] %s: %s", e.Kind, e.Filename, domain.Truncate(e.Message, MaxMessageRunes))
		}
	}
	return p.err
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}
