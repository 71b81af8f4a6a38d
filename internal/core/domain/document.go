package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentKind identifies which fiscal layout a file follows.
type DocumentKind string

const (
	KindInvoice DocumentKind = "NFe"
	KindFreight DocumentKind = "CTe"
)

func (k DocumentKind) Valid() bool {
	return k == KindInvoice || k == KindFreight
}

// TimestampLayout is the zone-less format issue timestamps are normalized to.
const TimestampLayout = "2006-01-02T15:04:05"

// Party is an issuer, sender or recipient block. Every field is optional.
type Party struct {
	TaxID             *string `json:"tax_id,omitempty"`
	LegalName         *string `json:"legal_name,omitempty"`
	TradeName         *string `json:"trade_name,omitempty"`
	StateRegistration *string `json:"state_registration,omitempty"`
	Address           *string `json:"address,omitempty"`
	Municipality      *string `json:"municipality,omitempty"`
	State             *string `json:"state,omitempty"`
	PostalCode        *string `json:"postal_code,omitempty"`
}

// Totals holds document level values taken verbatim from the source.
type Totals struct {
	Total      decimal.NullDecimal `json:"total_value"`
	Products   decimal.NullDecimal `json:"product_value"`
	ICMS       decimal.NullDecimal `json:"icms_value"`
	IPI        decimal.NullDecimal `json:"ipi_value"`
	PIS        decimal.NullDecimal `json:"pis_value"`
	COFINS     decimal.NullDecimal `json:"cofins_value"`
	TaxBurden  decimal.NullDecimal `json:"total_taxes_value"`
	Receivable decimal.NullDecimal `json:"receivable_value"`
	Cargo      decimal.NullDecimal `json:"cargo_value"`
}

type Authorization struct {
	Protocol     *string `json:"protocol_number,omitempty"`
	StatusCode   *string `json:"status_code,omitempty"`
	StatusReason *string `json:"status_reason,omitempty"`
}

// FreightInfo carries the transport specific header fields.
type FreightInfo struct {
	Sender                  Party   `json:"sender"`
	Modal                   *string `json:"modal,omitempty"`
	ServiceType             *string `json:"service_type,omitempty"`
	CFOP                    *string `json:"cfop,omitempty"`
	OperationNature         *string `json:"operation_nature,omitempty"`
	OriginMunicipality      *string `json:"origin_municipality,omitempty"`
	OriginState             *string `json:"origin_state,omitempty"`
	DestinationMunicipality *string `json:"destination_municipality,omitempty"`
	DestinationState        *string `json:"destination_state,omitempty"`
}

// Item is one invoice line. SequenceNumber is the number declared by the
// source, never re-derived from position.
type Item struct {
	SequenceNumber *int                `json:"sequence_number,omitempty"`
	ProductCode    *string             `json:"product_code,omitempty"`
	Description    *string             `json:"description,omitempty"`
	NCM            *string             `json:"ncm,omitempty"`
	CFOP           *string             `json:"cfop,omitempty"`
	CEST           *string             `json:"cest,omitempty"`
	Unit           *string             `json:"unit,omitempty"`
	Quantity       decimal.NullDecimal `json:"quantity"`
	UnitValue      decimal.NullDecimal `json:"unit_value"`
	TotalValue     decimal.NullDecimal `json:"total_value"`
	Barcode        *string             `json:"barcode,omitempty"`
	ICMS           decimal.NullDecimal `json:"icms_value"`
	IPI            decimal.NullDecimal `json:"ipi_value"`
	PIS            decimal.NullDecimal `json:"pis_value"`
	COFINS         decimal.NullDecimal `json:"cofins_value"`
}

// Record is the parsed form of one fiscal document. AccessKey is the natural
// key and is never changed after parsing.
type Record struct {
	Kind           DocumentKind  `json:"kind"`
	AccessKey      string        `json:"access_key"`
	DocumentNumber *string       `json:"document_number,omitempty"`
	Series         *string       `json:"series,omitempty"`
	IssuedAt       *time.Time    `json:"issued_at,omitempty"`
	Issuer         Party         `json:"issuer"`
	Recipient      Party         `json:"recipient"`
	Totals         Totals        `json:"totals"`
	Authorization  Authorization `json:"authorization"`
	Freight        *FreightInfo  `json:"freight,omitempty"`
	Items          []Item        `json:"items,omitempty"`
	DroppedItems   int           `json:"-"`
	RawXML         string        `json:"-"`
}

func (r *Record) IssuedAtText() string {
	if r == nil || r.IssuedAt == nil {
		return ""
	}
	return r.IssuedAt.Format(TimestampLayout)
}

func (r *Record) Number() string {
	if r == nil || r.DocumentNumber == nil {
		return ""
	}
	return *r.DocumentNumber
}
