package fiscalxml

import "fmt"

const (
	invoiceKey = "35240312345678000190550010000012341000012345"
	freightKey = "35240398765432000110570010000005671000005678"
)

func xmlns(space string) string {
	if space == "" {
		return ""
	}
	return fmt.Sprintf(` xmlns="%s"`, space)
}

const defaultDets = `
      <det nItem="1">
        <prod>
          <cProd>P-001</cProd>
          <cEAN>7891234567895</cEAN>
          <xProd>Cabo   USB
            Tipo C</xProd>
          <NCM>85444200</NCM>
          <CFOP>5102</CFOP>
          <uCom>UN</uCom>
          <qCom>2.0000</qCom>
          <vUnCom>50.00</vUnCom>
          <vProd>100.00</vProd>
        </prod>
        <imposto>
          <vTotTrib>20.00</vTotTrib>
          <ICMS><ICMS00><orig>0</orig><CST>00</CST><vBC>100.00</vBC><pICMS>18.00</pICMS><vICMS>18.00</vICMS></ICMS00></ICMS>
          <IPI><cEnq>999</cEnq><IPITrib><CST>50</CST><vIPI>5.00</vIPI></IPITrib></IPI>
          <PIS><PISAliq><CST>01</CST><vPIS>1.65</vPIS></PISAliq></PIS>
          <COFINS><COFINSAliq><CST>01</CST><vCOFINS>7.60</vCOFINS></COFINSAliq></COFINS>
        </imposto>
      </det>
      <det nItem="2">
        <prod>
          <cProd>P-002</cProd>
          <cEAN>SEM GTIN</cEAN>
          <xProd>Carregador</xProd>
          <NCM>85044010</NCM>
          <CFOP>5102</CFOP>
          <CEST>2106400</CEST>
          <uCom>UN</uCom>
          <qCom>1,0000</qCom>
          <vUnCom>50,00</vUnCom>
          <vProd>50,00</vProd>
        </prod>
        <imposto>
          <ICMS><ICMS40><orig>0</orig><CST>40</CST></ICMS40></ICMS>
        </imposto>
      </det>`

func invoiceXML(space, dets string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<nfeProc versao="4.00"%[1]s>
  <NFe>
    <infNFe Id="NFe%[2]s" versao="4.00">
      <ide>
        <cUF>35</cUF>
        <natOp>VENDA</natOp>
        <serie>1</serie>
        <nNF>1234</nNF>
        <dhEmi>2024-03-01T10:00:00-03:00</dhEmi>
      </ide>
      <emit>
        <CNPJ>12345678000190</CNPJ>
        <xNome>  Comercio   Exemplo
          LTDA </xNome>
        <xFant>Exemplo</xFant>
        <enderEmit>
          <xLgr>Rua A</xLgr>
          <nro>100</nro>
          <xBairro>Centro</xBairro>
          <xMun>Sao Paulo</xMun>
          <UF>SP</UF>
          <CEP>01001000</CEP>
        </enderEmit>
        <IE>111222333444</IE>
      </emit>
      <dest>
        <CPF>12345678909</CPF>
        <xNome>Cliente Final</xNome>
        <enderDest>
          <xLgr>Av B</xLgr>
          <nro>20</nro>
          <xMun>Campinas</xMun>
          <UF>SP</UF>
          <CEP>13010000</CEP>
        </enderDest>
      </dest>%[3]s
      <total>
        <ICMSTot>
          <vICMS>18.00</vICMS>
          <vProd>150.00</vProd>
          <vIPI>5.00</vIPI>
          <vPIS>1.65</vPIS>
          <vCOFINS>7.60</vCOFINS>
          <vNF>155.00</vNF>
          <vTotTrib>30.25</vTotTrib>
        </ICMSTot>
      </total>
    </infNFe>
  </NFe>
  <protNFe versao="4.00">
    <infProt>
      <nProt>135240000000001</nProt>
      <chNFe>%[2]s</chNFe>
      <cStat>100</cStat>
      <xMotivo>Autorizado o uso da NF-e</xMotivo>
    </infProt>
  </protNFe>
</nfeProc>`, xmlns(space), invoiceKey, dets)
}

func freightXML(space string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<cteProc versao="4.00"%[1]s>
  <CTe>
    <infCte Id="CTe%[2]s" versao="4.00">
      <ide>
        <CFOP>5353</CFOP>
        <natOp>PRESTACAO DE SERVICO DE TRANSPORTE</natOp>
        <serie>1</serie>
        <nCT>567</nCT>
        <dhEmi>2024-03-02T08:30:00-03:00</dhEmi>
        <modal>01</modal>
        <tpServ>0</tpServ>
        <xMunIni>Sao Paulo</xMunIni>
        <UFIni>SP</UFIni>
        <xMunFim>Curitiba</xMunFim>
        <UFFim>PR</UFFim>
      </ide>
      <emit>
        <CNPJ>98765432000110</CNPJ>
        <IE>555666777888</IE>
        <xNome>Transportadora Rapida</xNome>
        <xFant>Rapida</xFant>
        <enderEmit>
          <xLgr>Rod BR 116</xLgr>
          <nro>KM 10</nro>
          <xBairro>Distrito Industrial</xBairro>
          <xMun>Guarulhos</xMun>
          <UF>SP</UF>
        </enderEmit>
      </emit>
      <rem>
        <CNPJ>12345678000190</CNPJ>
        <xNome>Comercio Exemplo LTDA</xNome>
        <enderReme>
          <xMun>Sao Paulo</xMun>
          <UF>SP</UF>
        </enderReme>
      </rem>
      <dest>
        <CNPJ>11222333000144</CNPJ>
        <xNome>Distribuidora Sul</xNome>
        <enderDest>
          <xMun>Curitiba</xMun>
          <UF>PR</UF>
        </enderDest>
      </dest>
      <vPrest>
        <vTPrest>1.500,75</vTPrest>
        <vRec>1500.75</vRec>
      </vPrest>
      <imp>
        <ICMS>
          <ICMS00><CST>00</CST><vBC>1500.75</vBC><pICMS>12.00</pICMS><vICMS>180.09</vICMS></ICMS00>
        </ICMS>
      </imp>
      <infCTeNorm>
        <infCarga>
          <vCarga>25000.00</vCarga>
          <proPred>ELETRONICOS</proPred>
        </infCarga>
      </infCTeNorm>
    </infCte>
  </CTe>
  <protCTe versao="4.00">
    <infProt>
      <nProt>135240000000777</nProt>
      <chCTe>%[2]s</chCTe>
      <cStat>100</cStat>
      <xMotivo>Autorizado o uso do CT-e</xMotivo>
    </infProt>
  </protCTe>
</cteProc>`, xmlns(space), freightKey)
}
