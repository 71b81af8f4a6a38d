package fiscalxml

import "github.com/aviladevs/fiscal-importer/internal/core/domain"

func parseFreight(doc scope) (*domain.Record, error) {
	info, err := information(doc, domain.KindFreight, "CTe", "infCte")
	if err != nil {
		return nil, err
	}
	protocol := doc.child("protCTe")
	key, err := accessKey(domain.KindFreight, info, protocol, "chCTe")
	if err != nil {
		return nil, err
	}

	ide := info.child("ide")
	prest := info.child("vPrest")
	rec := &domain.Record{
		Kind:           domain.KindFreight,
		AccessKey:      key,
		DocumentNumber: ide.text("nCT"),
		Series:         ide.text("serie"),
		IssuedAt:       ParseTimestamp(ide.text("dhEmi")),
		Issuer:         party(info.child("emit"), "enderEmit"),
		Recipient:      party(info.child("dest"), "enderDest"),
		Totals: domain.Totals{
			Total:      ParseDecimal(prest.text("vTPrest")),
			Receivable: ParseDecimal(prest.text("vRec")),
			Cargo:      ParseDecimal(info.child("infCarga").text("vCarga")),
			ICMS:       ParseDecimal(sectionValue(info.child("imp").child("ICMS"), "vICMS")),
		},
		Authorization: authorization(protocol),
		Freight: &domain.FreightInfo{
			Sender:                  party(info.child("rem"), "enderReme"),
			Modal:                   ide.text("modal"),
			ServiceType:             ide.text("tpServ"),
			CFOP:                    ide.text("CFOP"),
			OperationNature:         ide.text("natOp"),
			OriginMunicipality:      ide.text("xMunIni"),
			OriginState:             ide.text("UFIni"),
			DestinationMunicipality: ide.text("xMunFim"),
			DestinationState:        ide.text("UFFim"),
		},
	}
	return rec, nil
}
