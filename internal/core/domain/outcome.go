package domain

import "time"

type OutcomeStatus string

const (
	OutcomeInserted  OutcomeStatus = "inserted"
	OutcomeDuplicate OutcomeStatus = "skipped_duplicate"
	OutcomeFailed    OutcomeStatus = "failed"
)

// ImportOutcome is the terminal state of one document in a run.
type ImportOutcome struct {
	Status        OutcomeStatus
	Reason        string
	RowID         int64
	ItemsInserted int
}

func Inserted(rowID int64, items int) ImportOutcome {
	return ImportOutcome{Status: OutcomeInserted, RowID: rowID, ItemsInserted: items}
}

func SkippedDuplicate() ImportOutcome {
	return ImportOutcome{Status: OutcomeDuplicate}
}

func Failed(reason string) ImportOutcome {
	return ImportOutcome{Status: OutcomeFailed, Reason: reason}
}

// Succeeded reports whether the outcome counts as a success in the run
// statistics. Duplicates are successes.
func (o ImportOutcome) Succeeded() bool {
	return o.Status == OutcomeInserted || o.Status == OutcomeDuplicate
}

type LogStatus string

const (
	LogSuccess LogStatus = "success"
	LogError   LogStatus = "error"
)

// AuditEntry is one append-only row of the import log.
type AuditEntry struct {
	RunID     string
	Kind      DocumentKind
	Filename  string
	Status    LogStatus
	Message   string
	AccessKey string
}

// DocumentEvent announces that a document header was durably committed.
type DocumentEvent struct {
	EventID        string       `json:"event_id"`
	RunID          string       `json:"run_id"`
	Kind           DocumentKind `json:"kind"`
	AccessKey      string       `json:"access_key"`
	DocumentNumber string       `json:"document_number,omitempty"`
	Series         string       `json:"series,omitempty"`
	IssuedAt       string       `json:"issued_at,omitempty"`
	IssuerTaxID    string       `json:"issuer_tax_id,omitempty"`
	IssuerName     string       `json:"issuer_name,omitempty"`
	RecipientTaxID string       `json:"recipient_tax_id,omitempty"`
	RecipientName  string       `json:"recipient_name,omitempty"`
	TotalValue     string       `json:"total_value"`
	StatusCode     string       `json:"status_code,omitempty"`
	Items          int          `json:"items"`
	Filename       string       `json:"filename"`
	CommittedAt    time.Time    `json:"committed_at"`
}
