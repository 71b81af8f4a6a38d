package fiscalxml

import (
	"errors"
	"fmt"

	"github.com/aviladevs/fiscal-importer/internal/core/domain"
)

var errItemWithoutProduct = errors.New("item has no prod block")

func parseInvoice(doc scope) (*domain.Record, error) {
	info, err := information(doc, domain.KindInvoice, "NFe", "infNFe")
	if err != nil {
		return nil, err
	}
	protocol := doc.child("protNFe")
	key, err := accessKey(domain.KindInvoice, info, protocol, "chNFe")
	if err != nil {
		return nil, err
	}

	ide := info.child("ide")
	issued := ide.text("dhEmi")
	if issued == nil {
		issued = ide.text("dEmi")
	}

	tot := info.child("total").child("ICMSTot")
	rec := &domain.Record{
		Kind:           domain.KindInvoice,
		AccessKey:      key,
		DocumentNumber: ide.text("nNF"),
		Series:         ide.text("serie"),
		IssuedAt:       ParseTimestamp(issued),
		Issuer:         party(info.child("emit"), "enderEmit"),
		Recipient:      party(info.child("dest"), "enderDest"),
		Totals: domain.Totals{
			Total:     ParseDecimal(tot.text("vNF")),
			Products:  ParseDecimal(tot.text("vProd")),
			ICMS:      ParseDecimal(tot.text("vICMS")),
			IPI:       ParseDecimal(tot.text("vIPI")),
			PIS:       ParseDecimal(tot.text("vPIS")),
			COFINS:    ParseDecimal(tot.text("vCOFINS")),
			TaxBurden: ParseDecimal(tot.text("vTotTrib")),
		},
		Authorization: authorization(protocol),
	}

	for _, det := range info.all("det") {
		item, err := safeInvoiceItem(det)
		if err != nil {
			rec.DroppedItems++
			continue
		}
		rec.Items = append(rec.Items, item)
	}
	return rec, nil
}

// safeInvoiceItem isolates one item: a failure drops the item only.
func safeInvoiceItem(det scope) (item domain.Item, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extract item: %v", r)
		}
	}()
	return invoiceItem(det)
}

func invoiceItem(det scope) (domain.Item, error) {
	rawSeq := det.attr("nItem")
	if rawSeq == "" {
		if v := det.text("nItem"); v != nil {
			rawSeq = *v
		}
	}
	seq, err := parseSequence(rawSeq)
	if err != nil {
		return domain.Item{}, fmt.Errorf("item number %q: %w", rawSeq, err)
	}

	prod := det.child("prod")
	if !prod.ok() {
		return domain.Item{}, errItemWithoutProduct
	}

	item := domain.Item{
		SequenceNumber: seq,
		ProductCode:    prod.text("cProd"),
		Description:    prod.text("xProd"),
		NCM:            prod.text("NCM"),
		CFOP:           prod.text("CFOP"),
		CEST:           prod.text("CEST"),
		Unit:           prod.text("uCom"),
		Quantity:       ParseDecimal(prod.text("qCom")),
		UnitValue:      ParseDecimal(prod.text("vUnCom")),
		TotalValue:     ParseDecimal(prod.text("vProd")),
		Barcode:        prod.text("cEAN"),
	}

	if taxes := det.child("imposto"); taxes.ok() {
		item.ICMS = ParseDecimal(sectionValue(taxes.child("ICMS"), "vICMS"))
		item.IPI = ParseDecimal(sectionValue(taxes.child("IPI"), "vIPI"))
		item.PIS = ParseDecimal(sectionValue(taxes.child("PIS"), "vPIS"))
		item.COFINS = ParseDecimal(sectionValue(taxes.child("COFINS"), "vCOFINS"))
	}
	return item, nil
}
