package fiscalxml

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"

	"github.com/aviladevs/fiscal-importer/internal/core/domain"
)

func mustParse(t *testing.T, raw string, kind domain.DocumentKind) *domain.Record {
	t.Helper()
	rec, err := New().Parse([]byte(raw), kind)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return rec
}

func assertText(t *testing.T, field string, got *string, want string) {
	t.Helper()
	if got == nil {
		t.Fatalf("%s: expected %q, got nil", field, want)
	}
	if *got != want {
		t.Fatalf("%s: expected %q, got %q", field, want, *got)
	}
}

func assertDecimal(t *testing.T, field string, got decimal.NullDecimal, want string) {
	t.Helper()
	if !got.Valid {
		t.Fatalf("%s: expected %s, got null", field, want)
	}
	if !got.Decimal.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("%s: expected %s, got %s", field, want, got.Decimal.String())
	}
}

func TestParseInvoiceHeader(t *testing.T) {
	rec := mustParse(t, invoiceXML(InvoiceNamespace, defaultDets), domain.KindInvoice)

	if rec.Kind != domain.KindInvoice {
		t.Fatalf("unexpected kind: %s", rec.Kind)
	}
	if rec.AccessKey != invoiceKey {
		t.Fatalf("unexpected access key: %s", rec.AccessKey)
	}
	assertText(t, "number", rec.DocumentNumber, "1234")
	assertText(t, "series", rec.Series, "1")
	if rec.IssuedAtText() != "2024-03-01T10:00:00" {
		t.Fatalf("unexpected issue timestamp: %s", rec.IssuedAtText())
	}

	assertText(t, "issuer tax id", rec.Issuer.TaxID, "12345678000190")
	assertText(t, "issuer name", rec.Issuer.LegalName, "Comercio Exemplo LTDA")
	assertText(t, "issuer trade name", rec.Issuer.TradeName, "Exemplo")
	assertText(t, "issuer IE", rec.Issuer.StateRegistration, "111222333444")
	assertText(t, "issuer address", rec.Issuer.Address, "Rua A, 100 - Centro")
	assertText(t, "issuer city", rec.Issuer.Municipality, "Sao Paulo")
	assertText(t, "issuer UF", rec.Issuer.State, "SP")
	assertText(t, "issuer CEP", rec.Issuer.PostalCode, "01001000")

	assertText(t, "recipient tax id", rec.Recipient.TaxID, "12345678909")
	assertText(t, "recipient address", rec.Recipient.Address, "Av B, 20")
	if rec.Recipient.StateRegistration != nil {
		t.Fatalf("expected no recipient IE, got %q", *rec.Recipient.StateRegistration)
	}

	assertDecimal(t, "total", rec.Totals.Total, "155.00")
	assertDecimal(t, "products", rec.Totals.Products, "150.00")
	assertDecimal(t, "icms", rec.Totals.ICMS, "18.00")
	assertDecimal(t, "ipi", rec.Totals.IPI, "5.00")
	assertDecimal(t, "pis", rec.Totals.PIS, "1.65")
	assertDecimal(t, "cofins", rec.Totals.COFINS, "7.60")
	assertDecimal(t, "tax burden", rec.Totals.TaxBurden, "30.25")
	if rec.Totals.Cargo.Valid || rec.Totals.Receivable.Valid {
		t.Fatalf("freight totals must be absent on invoices")
	}

	assertText(t, "protocol", rec.Authorization.Protocol, "135240000000001")
	assertText(t, "status", rec.Authorization.StatusCode, "100")
	assertText(t, "reason", rec.Authorization.StatusReason, "Autorizado o uso da NF-e")
	if rec.Freight != nil {
		t.Fatalf("invoice must not carry freight info")
	}
	if rec.RawXML == "" {
		t.Fatalf("expected raw xml to be kept")
	}
}

func TestParseInvoiceItems(t *testing.T) {
	rec := mustParse(t, invoiceXML(InvoiceNamespace, defaultDets), domain.KindInvoice)

	if len(rec.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(rec.Items))
	}
	if rec.DroppedItems != 0 {
		t.Fatalf("expected no dropped items, got %d", rec.DroppedItems)
	}

	first := rec.Items[0]
	if first.SequenceNumber == nil || *first.SequenceNumber != 1 {
		t.Fatalf("unexpected first sequence number: %v", first.SequenceNumber)
	}
	assertText(t, "code", first.ProductCode, "P-001")
	assertText(t, "description", first.Description, "Cabo USB Tipo C")
	assertText(t, "ncm", first.NCM, "85444200")
	assertText(t, "barcode", first.Barcode, "7891234567895")
	assertDecimal(t, "quantity", first.Quantity, "2")
	assertDecimal(t, "unit value", first.UnitValue, "50")
	assertDecimal(t, "total value", first.TotalValue, "100")
	assertDecimal(t, "item icms", first.ICMS, "18.00")
	assertDecimal(t, "item ipi", first.IPI, "5.00")
	assertDecimal(t, "item pis", first.PIS, "1.65")
	assertDecimal(t, "item cofins", first.COFINS, "7.60")
	if first.CEST != nil {
		t.Fatalf("expected no CEST on first item")
	}

	second := rec.Items[1]
	assertText(t, "cest", second.CEST, "2106400")
	assertDecimal(t, "comma quantity", second.Quantity, "1")
	assertDecimal(t, "comma total", second.TotalValue, "50")
	if second.ICMS.Valid {
		t.Fatalf("exempt item must have no ICMS value, got %s", second.ICMS.Decimal)
	}
	if second.IPI.Valid || second.PIS.Valid || second.COFINS.Valid {
		t.Fatalf("undeclared item taxes must be absent")
	}
}

func TestParseIsNamespaceInvariant(t *testing.T) {
	cases := []struct {
		name  string
		kind  domain.DocumentKind
		build func(space string) string
		space string
	}{
		{name: "invoice", kind: domain.KindInvoice, build: func(s string) string { return invoiceXML(s, defaultDets) }, space: InvoiceNamespace},
		{name: "freight", kind: domain.KindFreight, build: freightXML, space: FreightNamespace},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			qualified := mustParse(t, tc.build(tc.space), tc.kind)
			plain := mustParse(t, tc.build(""), tc.kind)

			qualified.RawXML = ""
			plain.RawXML = ""
			if !reflect.DeepEqual(qualified, plain) {
				t.Fatalf("records differ between namespaced and plain input:\n%+v\n%+v", qualified, plain)
			}
		})
	}
}

func TestParseCanonicalXMLRoundTrips(t *testing.T) {
	first := mustParse(t, invoiceXML(InvoiceNamespace, defaultDets), domain.KindInvoice)
	if !strings.Contains(first.RawXML, `xmlns="`+InvoiceNamespace+`"`) {
		t.Fatalf("expected namespace declaration in raw xml: %s", first.RawXML)
	}

	second := mustParse(t, first.RawXML, domain.KindInvoice)
	if second.RawXML != first.RawXML {
		t.Fatalf("canonical form is not stable")
	}
	first.RawXML, second.RawXML = "", ""
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("reparsed record differs")
	}
}

func TestParseFreight(t *testing.T) {
	rec := mustParse(t, freightXML(FreightNamespace), domain.KindFreight)

	if rec.AccessKey != freightKey {
		t.Fatalf("unexpected access key: %s", rec.AccessKey)
	}
	assertText(t, "number", rec.DocumentNumber, "567")
	if rec.IssuedAtText() != "2024-03-02T08:30:00" {
		t.Fatalf("unexpected issue timestamp: %s", rec.IssuedAtText())
	}
	assertText(t, "issuer", rec.Issuer.LegalName, "Transportadora Rapida")
	assertText(t, "issuer address", rec.Issuer.Address, "Rod BR 116, KM 10 - Distrito Industrial")
	assertText(t, "recipient", rec.Recipient.TaxID, "11222333000144")
	assertDecimal(t, "service total", rec.Totals.Total, "1500.75")
	assertDecimal(t, "receivable", rec.Totals.Receivable, "1500.75")
	assertDecimal(t, "cargo", rec.Totals.Cargo, "25000")
	assertDecimal(t, "icms", rec.Totals.ICMS, "180.09")
	assertText(t, "status", rec.Authorization.StatusCode, "100")

	if rec.Freight == nil {
		t.Fatalf("expected freight info")
	}
	f := rec.Freight
	assertText(t, "sender", f.Sender.TaxID, "12345678000190")
	assertText(t, "sender city", f.Sender.Municipality, "Sao Paulo")
	assertText(t, "modal", f.Modal, "01")
	assertText(t, "service type", f.ServiceType, "0")
	assertText(t, "cfop", f.CFOP, "5353")
	assertText(t, "nature", f.OperationNature, "PRESTACAO DE SERVICO DE TRANSPORTE")
	assertText(t, "origin", f.OriginMunicipality, "Sao Paulo")
	assertText(t, "origin UF", f.OriginState, "SP")
	assertText(t, "destination", f.DestinationMunicipality, "Curitiba")
	assertText(t, "destination UF", f.DestinationState, "PR")
	if len(rec.Items) != 0 {
		t.Fatalf("freight documents carry no items")
	}
}

func TestParseTaxSectionFirstDeclaredValueWins(t *testing.T) {
	cases := []struct {
		name string
		icms string
		want string
	}{
		{
			name: "first block without value is skipped",
			icms: `<ICMS><ICMS40><CST>40</CST></ICMS40><ICMS00><vICMS>12.34</vICMS></ICMS00></ICMS>`,
			want: "12.34",
		},
		{
			name: "first declared value wins",
			icms: `<ICMS><ICMS00><vICMS>1.00</vICMS></ICMS00><ICMS20><vICMS>2.00</vICMS></ICMS20></ICMS>`,
			want: "1.00",
		},
		{
			name: "blank value is not a declaration",
			icms: `<ICMS><ICMS00><vICMS>   </vICMS></ICMS00><ICMS20><vICMS>3,50</vICMS></ICMS20></ICMS>`,
			want: "3.50",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dets := `<det nItem="1"><prod><cProd>X</cProd></prod><imposto>` + tc.icms + `</imposto></det>`
			rec := mustParse(t, invoiceXML(InvoiceNamespace, dets), domain.KindInvoice)
			if len(rec.Items) != 1 {
				t.Fatalf("expected 1 item, got %d", len(rec.Items))
			}
			assertDecimal(t, "icms", rec.Items[0].ICMS, tc.want)
		})
	}
}

func TestParseDropsOnlyFailingItems(t *testing.T) {
	dets := `
      <det nItem="1"><prod><cProd>A</cProd></prod></det>
      <det nItem="abc"><prod><cProd>B</cProd></prod></det>
      <det nItem="3"><imposto/></det>
      <det nItem="4"><prod><cProd>D</cProd></prod></det>`
	rec := mustParse(t, invoiceXML(InvoiceNamespace, dets), domain.KindInvoice)

	if rec.DroppedItems != 2 {
		t.Fatalf("expected 2 dropped items, got %d", rec.DroppedItems)
	}
	if len(rec.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(rec.Items))
	}
	if *rec.Items[0].SequenceNumber != 1 || *rec.Items[1].SequenceNumber != 4 {
		t.Fatalf("sequence numbers must come from the source: %d, %d",
			*rec.Items[0].SequenceNumber, *rec.Items[1].SequenceNumber)
	}
}

func TestParseStructuralErrors(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		kind domain.DocumentKind
	}{
		{name: "malformed", raw: `<nfeProc><NFe>`, kind: domain.KindInvoice},
		{name: "empty", raw: ``, kind: domain.KindInvoice},
		{name: "no wrapper", raw: `<root><other/></root>`, kind: domain.KindInvoice},
		{name: "no information element", raw: `<nfeProc><NFe><signature/></NFe></nfeProc>`, kind: domain.KindInvoice},
		{name: "no access key", raw: `<NFe><infNFe versao="4.00"><ide><nNF>1</nNF></ide></infNFe></NFe>`, kind: domain.KindInvoice},
		{name: "invoice read as freight", raw: invoiceXML(InvoiceNamespace, defaultDets), kind: domain.KindFreight},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := New().Parse([]byte(tc.raw), tc.kind)
			if err == nil {
				t.Fatalf("expected error, got record %+v", rec)
			}
			if !errors.Is(err, domain.ErrMissingStructure) {
				t.Fatalf("expected missing structure error, got %v", err)
			}
			var structural *domain.StructuralError
			if !errors.As(err, &structural) || structural.Kind != tc.kind {
				t.Fatalf("expected structural error for %s, got %v", tc.kind, err)
			}
		})
	}
}

func TestParseRejectsUnknownKind(t *testing.T) {
	_, err := New().Parse([]byte(invoiceXML("", defaultDets)), domain.DocumentKind("MDFe"))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestParseAccessKeyFallsBackToProtocol(t *testing.T) {
	raw := strings.Replace(invoiceXML("", defaultDets), `Id="NFe`+invoiceKey+`"`, ``, 1)
	rec := mustParse(t, raw, domain.KindInvoice)
	if rec.AccessKey != invoiceKey {
		t.Fatalf("expected key from protocol, got %q", rec.AccessKey)
	}
}

func TestParseWithoutAuthorization(t *testing.T) {
	raw := `<NFe><infNFe Id="NFe123"><ide><nNF>9</nNF><dEmi>2009-05-10</dEmi></ide></infNFe></NFe>`
	rec := mustParse(t, raw, domain.KindInvoice)

	if rec.AccessKey != "123" {
		t.Fatalf("unexpected access key: %s", rec.AccessKey)
	}
	if !reflect.DeepEqual(rec.Authorization, domain.Authorization{}) {
		t.Fatalf("expected empty authorization, got %+v", rec.Authorization)
	}
	if rec.IssuedAtText() != "2009-05-10T00:00:00" {
		t.Fatalf("expected date-only fallback, got %q", rec.IssuedAtText())
	}
	if rec.Totals.Total.Valid {
		t.Fatalf("expected absent total")
	}
	if len(rec.Items) != 0 || rec.DroppedItems != 0 {
		t.Fatalf("expected no items")
	}
}

func TestParseLatin1Input(t *testing.T) {
	raw := `<?xml version="1.0" encoding="ISO-8859-1"?>` +
		`<NFe><infNFe Id="NFe42"><emit><xNome>Padaria São João</xNome></emit></infNFe></NFe>`
	encoded, err := charmap.ISO8859_1.NewEncoder().String(raw)
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	rec := mustParse(t, encoded, domain.KindInvoice)
	assertText(t, "issuer", rec.Issuer.LegalName, "Padaria São João")
}
