package postgres

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/aviladevs/fiscal-importer/internal/core/domain"
)

// Row structs map records onto named parameters. Nested party columns are
// addressed as :issuer.tax_id and so on.

type partyColumns struct {
	TaxID             *string `db:"tax_id"`
	LegalName         *string `db:"legal_name"`
	TradeName         *string `db:"trade_name"`
	StateRegistration *string `db:"state_registration"`
	Address           *string `db:"address"`
	Municipality      *string `db:"municipality"`
	State             *string `db:"state"`
	PostalCode        *string `db:"postal_code"`
}

func newPartyColumns(p domain.Party) partyColumns {
	return partyColumns{
		TaxID:             p.TaxID,
		LegalName:         p.LegalName,
		TradeName:         p.TradeName,
		StateRegistration: p.StateRegistration,
		Address:           p.Address,
		Municipality:      p.Municipality,
		State:             p.State,
		PostalCode:        p.PostalCode,
	}
}

type invoiceRow struct {
	AccessKey      string              `db:"access_key"`
	DocumentNumber *string             `db:"document_number"`
	Series         *string             `db:"series"`
	IssuedAt       *time.Time          `db:"issued_at"`
	Issuer         partyColumns        `db:"issuer"`
	Recipient      partyColumns        `db:"recipient"`
	TotalValue     decimal.NullDecimal `db:"total_value"`
	ProductValue   decimal.NullDecimal `db:"product_value"`
	ICMSValue      decimal.NullDecimal `db:"icms_value"`
	IPIValue       decimal.NullDecimal `db:"ipi_value"`
	PISValue       decimal.NullDecimal `db:"pis_value"`
	COFINSValue    decimal.NullDecimal `db:"cofins_value"`
	TotalTaxes     decimal.NullDecimal `db:"total_taxes_value"`
	ProtocolNumber *string             `db:"protocol_number"`
	StatusCode     *string             `db:"status_code"`
	StatusReason   *string             `db:"status_reason"`
	RawXML         string              `db:"raw_xml"`
	Filename       string              `db:"filename"`
}

func newInvoiceRow(rec *domain.Record, filename string) invoiceRow {
	return invoiceRow{
		AccessKey:      rec.AccessKey,
		DocumentNumber: rec.DocumentNumber,
		Series:         rec.Series,
		IssuedAt:       rec.IssuedAt,
		Issuer:         newPartyColumns(rec.Issuer),
		Recipient:      newPartyColumns(rec.Recipient),
		TotalValue:     rec.Totals.Total,
		ProductValue:   rec.Totals.Products,
		ICMSValue:      rec.Totals.ICMS,
		IPIValue:       rec.Totals.IPI,
		PISValue:       rec.Totals.PIS,
		COFINSValue:    rec.Totals.COFINS,
		TotalTaxes:     rec.Totals.TaxBurden,
		ProtocolNumber: rec.Authorization.Protocol,
		StatusCode:     rec.Authorization.StatusCode,
		StatusReason:   rec.Authorization.StatusReason,
		RawXML:         rec.RawXML,
		Filename:       filename,
	}
}

type itemRow struct {
	InvoiceID      int64               `db:"invoice_id"`
	AccessKey      string              `db:"access_key"`
	SequenceNumber *int                `db:"sequence_number"`
	ProductCode    *string             `db:"product_code"`
	Description    *string             `db:"description"`
	NCM            *string             `db:"ncm"`
	CFOP           *string             `db:"cfop"`
	CEST           *string             `db:"cest"`
	Unit           *string             `db:"unit"`
	Quantity       decimal.NullDecimal `db:"quantity"`
	UnitValue      decimal.NullDecimal `db:"unit_value"`
	TotalValue     decimal.NullDecimal `db:"total_value"`
	Barcode        *string             `db:"barcode"`
	ICMSValue      decimal.NullDecimal `db:"icms_value"`
	IPIValue       decimal.NullDecimal `db:"ipi_value"`
	PISValue       decimal.NullDecimal `db:"pis_value"`
	COFINSValue    decimal.NullDecimal `db:"cofins_value"`
}

func newItemRow(invoiceID int64, accessKey string, it domain.Item) itemRow {
	return itemRow{
		InvoiceID:      invoiceID,
		AccessKey:      accessKey,
		SequenceNumber: it.SequenceNumber,
		ProductCode:    it.ProductCode,
		Description:    it.Description,
		NCM:            it.NCM,
		CFOP:           it.CFOP,
		CEST:           it.CEST,
		Unit:           it.Unit,
		Quantity:       it.Quantity,
		UnitValue:      it.UnitValue,
		TotalValue:     it.TotalValue,
		Barcode:        it.Barcode,
		ICMSValue:      it.ICMS,
		IPIValue:       it.IPI,
		PISValue:       it.PIS,
		COFINSValue:    it.COFINS,
	}
}

type freightRow struct {
	AccessKey               string              `db:"access_key"`
	DocumentNumber          *string             `db:"document_number"`
	Series                  *string             `db:"series"`
	IssuedAt                *time.Time          `db:"issued_at"`
	Modal                   *string             `db:"modal"`
	ServiceType             *string             `db:"service_type"`
	CFOP                    *string             `db:"cfop"`
	OperationNature         *string             `db:"operation_nature"`
	OriginMunicipality      *string             `db:"origin_municipality"`
	OriginState             *string             `db:"origin_state"`
	DestinationMunicipality *string             `db:"destination_municipality"`
	DestinationState        *string             `db:"destination_state"`
	Issuer                  partyColumns        `db:"issuer"`
	Sender                  partyColumns        `db:"sender"`
	Recipient               partyColumns        `db:"recipient"`
	TotalValue              decimal.NullDecimal `db:"total_value"`
	ReceivableValue         decimal.NullDecimal `db:"receivable_value"`
	CargoValue              decimal.NullDecimal `db:"cargo_value"`
	ICMSValue               decimal.NullDecimal `db:"icms_value"`
	ProtocolNumber          *string             `db:"protocol_number"`
	StatusCode              *string             `db:"status_code"`
	StatusReason            *string             `db:"status_reason"`
	RawXML                  string              `db:"raw_xml"`
	Filename                string              `db:"filename"`
}

func newFreightRow(rec *domain.Record, filename string) freightRow {
	var info domain.FreightInfo
	if rec.Freight != nil {
		info = *rec.Freight
	}
	return freightRow{
		AccessKey:               rec.AccessKey,
		DocumentNumber:          rec.DocumentNumber,
		Series:                  rec.Series,
		IssuedAt:                rec.IssuedAt,
		Modal:                   info.Modal,
		ServiceType:             info.ServiceType,
		CFOP:                    info.CFOP,
		OperationNature:         info.OperationNature,
		OriginMunicipality:      info.OriginMunicipality,
		OriginState:             info.OriginState,
		DestinationMunicipality: info.DestinationMunicipality,
		DestinationState:        info.DestinationState,
		Issuer:                  newPartyColumns(rec.Issuer),
		Sender:                  newPartyColumns(info.Sender),
		Recipient:               newPartyColumns(rec.Recipient),
		TotalValue:              rec.Totals.Total,
		ReceivableValue:         rec.Totals.Receivable,
		CargoValue:              rec.Totals.Cargo,
		ICMSValue:               rec.Totals.ICMS,
		ProtocolNumber:          rec.Authorization.Protocol,
		StatusCode:              rec.Authorization.StatusCode,
		StatusReason:            rec.Authorization.StatusReason,
		RawXML:                  rec.RawXML,
		Filename:                filename,
	}
}

type auditRow struct {
	RunID     *string `db:"run_id"`
	Kind      string  `db:"kind"`
	Filename  string  `db:"filename"`
	Status    string  `db:"status"`
	Message   *string `db:"message"`
	AccessKey *string `db:"access_key"`
}

func newAuditRow(entry domain.AuditEntry) auditRow {
	return auditRow{
		RunID:     optional(entry.RunID),
		Kind:      string(entry.Kind),
		Filename:  entry.Filename,
		Status:    string(entry.Status),
		Message:   optional(domain.Truncate(entry.Message, auditMessageLimit)),
		AccessKey: optional(entry.AccessKey),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
