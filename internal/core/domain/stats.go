package domain

// ImportError is one failed document as surfaced to the operator.
type ImportError struct {
	Kind     DocumentKind
	Filename string
	Message  string
}

// RunStatistics accumulates counters for one import run. The error list is
// unbounded; reporters decide how much of it to show.
type RunStatistics struct {
	RunID            string
	InvoiceSuccess   int
	InvoiceError     int
	InvoiceDuplicate int
	FreightSuccess   int
	FreightError     int
	FreightDuplicate int
	ItemsInserted    int
	Errors           []ImportError
}

func NewRunStatistics(runID string) *RunStatistics {
	return &RunStatistics{RunID: runID}
}

// Record folds one document outcome into the counters.
func (s *RunStatistics) Record(kind DocumentKind, filename string, outcome ImportOutcome) {
	switch {
	case outcome.Succeeded():
		s.addSuccess(kind, outcome.Status == OutcomeDuplicate)
		s.ItemsInserted += outcome.ItemsInserted
	default:
		s.addError(kind)
		s.Errors = append(s.Errors, ImportError{Kind: kind, Filename: filename, Message: outcome.Reason})
	}
}

func (s *RunStatistics) addSuccess(kind DocumentKind, duplicate bool) {
	switch kind {
	case KindInvoice:
		s.InvoiceSuccess++
		if duplicate {
			s.InvoiceDuplicate++
		}
	case KindFreight:
		s.FreightSuccess++
		if duplicate {
			s.FreightDuplicate++
		}
	}
}

func (s *RunStatistics) addError(kind DocumentKind) {
	switch kind {
	case KindInvoice:
		s.InvoiceError++
	case KindFreight:
		s.FreightError++
	}
}

func (s *RunStatistics) TotalSuccess() int {
	return s.InvoiceSuccess + s.FreightSuccess
}

func (s *RunStatistics) TotalError() int {
	return s.InvoiceError + s.FreightError
}

// FirstErrors returns at most n error entries in the order they occurred.
func (s *RunStatistics) FirstErrors(n int) []ImportError {
	if n <= 0 || len(s.Errors) == 0 {
		return nil
	}
	if len(s.Errors) < n {
		n = len(s.Errors)
	}
	out := make([]ImportError, n)
	copy(out, s.Errors[:n])
	return out
}
