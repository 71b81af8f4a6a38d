package fiscalxml

import (
	"fmt"
	"strings"

	"github.com/aviladevs/fiscal-importer/internal/core/domain"
)

// Parser extracts records from NFe and CTe XML. It holds no state and is
// safe for concurrent use.
type Parser struct{}

func New() *Parser {
	return &Parser{}
}

// Parse builds a record for the given kind. The only error it returns is a
// *domain.StructuralError; every other anomaly degrades to absent fields.
func (p *Parser) Parse(raw []byte, kind domain.DocumentKind) (*domain.Record, error) {
	if !kind.Valid() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse document", fmt.Errorf("unknown kind %q", kind))
	}

	root, err := parseTree(raw)
	if err != nil {
		return nil, domain.MissingStructure(kind, "%v", err)
	}

	doc := scope{n: root, spaces: lookupOrder(kind)}
	var rec *domain.Record
	switch kind {
	case domain.KindInvoice:
		rec, err = parseInvoice(doc)
	case domain.KindFreight:
		rec, err = parseFreight(doc)
	}
	if err != nil {
		return nil, err
	}
	rec.RawXML = root.canonical()
	return rec, nil
}

// information locates the wrapper and its information element, which every
// document must have.
func information(doc scope, kind domain.DocumentKind, wrapperTag, infoTag string) (scope, error) {
	wrapper := doc.locate(wrapperTag)
	if !wrapper.ok() {
		return scope{}, domain.MissingStructure(kind, "%s element not found", wrapperTag)
	}
	info := wrapper.child(infoTag)
	if !info.ok() {
		return scope{}, domain.MissingStructure(kind, "%s element not found", infoTag)
	}
	return info, nil
}

// accessKey reads the Id attribute without its kind prefix, falling back to
// the key echoed in the authorization protocol.
func accessKey(kind domain.DocumentKind, info, protocol scope, protocolTag string) (string, error) {
	key := strings.TrimSpace(strings.TrimPrefix(info.attr("Id"), string(kind)))
	if key == "" {
		if v := protocol.text(protocolTag); v != nil {
			key = *v
		}
	}
	if key == "" {
		return "", domain.MissingStructure(kind, "access key not found")
	}
	return key, nil
}

func authorization(protocol scope) domain.Authorization {
	inf := protocol.child("infProt")
	return domain.Authorization{
		Protocol:     inf.text("nProt"),
		StatusCode:   inf.text("cStat"),
		StatusReason: inf.text("xMotivo"),
	}
}

// party reads an issuer/sender/recipient block. The tax id is the CNPJ when
// present, otherwise the CPF.
func party(block scope, addressTag string) domain.Party {
	if !block.ok() {
		return domain.Party{}
	}
	taxID := block.text("CNPJ")
	if taxID == nil {
		taxID = block.text("CPF")
	}
	out := domain.Party{
		TaxID:             taxID,
		LegalName:         block.text("xNome"),
		TradeName:         block.text("xFant"),
		StateRegistration: block.text("IE"),
	}
	if addr := block.child(addressTag); addr.ok() {
		out.Address = addressLine(addr.text("xLgr"), addr.text("nro"), addr.text("xBairro"))
		out.Municipality = addr.text("xMun")
		out.State = addr.text("UF")
		out.PostalCode = addr.text("CEP")
	}
	return out
}

func addressLine(street, number, district *string) *string {
	var b strings.Builder
	if street != nil {
		b.WriteString(*street)
	}
	if number != nil {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		b.WriteString(*number)
	}
	if district != nil {
		if b.Len() > 0 {
			b.WriteString(" - ")
		}
		b.WriteString(*district)
	}
	if b.Len() == 0 {
		return nil
	}
	line := b.String()
	return &line
}
