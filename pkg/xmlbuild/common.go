// Package xmlbuild builds outbound OTA message bodies wrapped in a SOAP
// envelope, one builder per domain.MessageType (spec.md §4.2). Builders
// accept a typed DTO, validate it against the §3 invariants before
// touching the XML encoder, and serialize deterministically: fixed child
// element order (driven by Go struct field order), canonical date format
// `YYYY-MM-DD`, canonical datetime format `YYYY-MM-DDTHH:MM:SS`. Builders
// never perform transport or authentication — pkg/soapheader supplies the
// header, pkg/transport sends the result.
package xmlbuild

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/roli854/travelclick-htng-gateway/pkg/soapheader"
)

const dateLayout = "2006-01-02"
const dateTimeLayout = "2006-01-02T15:04:05"

func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

func formatDateTime(t time.Time) string {
	return t.UTC().Format(dateTimeLayout)
}

// normalizeText applies NFC normalization to free-text fields (guest
// names, special requests) so that two builds of an identical DTO are
// byte-identical regardless of the normalization form the originating
// system used.
func normalizeText(s string) string {
	return norm.NFC.String(s)
}

const (
	nsSoap = "http://www.w3.org/2003/05/soap-envelope"
	nsWsa  = "http://www.w3.org/2005/08/addressing"
	nsWsse = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-secext-1.0.xsd"
	nsWsu  = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-utility-1.0.xsd"
	nsOta  = "http://www.opentravel.org/OTA/2003/05"
	nsHtn  = "http://htng.org/2011B/service"
	nsXsi  = "http://www.w3.org/2001/XMLSchema-instance"
	nsXsd  = "http://www.w3.org/2001/XMLSchema"
)

// envelope is the wire-level SOAP envelope. The body is built separately
// as its own typed root element and spliced in as raw inner XML, since
// encoding/xml cannot polymorphically marshal one of several concrete
// body types into a single struct field.
type envelope struct {
	XMLName   xml.Name `xml:"soap:Envelope"`
	XmlnsSoap string   `xml:"xmlns:soap,attr"`
	XmlnsWsa  string   `xml:"xmlns:wsa,attr"`
	XmlnsWsse string   `xml:"xmlns:wsse,attr"`
	XmlnsWsu  string   `xml:"xmlns:wsu,attr"`
	XmlnsOta  string   `xml:"xmlns:ota,attr"`
	XmlnsHtn  string   `xml:"xmlns:htn,attr"`
	XmlnsXsi  string   `xml:"xmlns:xsi,attr"`
	XmlnsXsd  string   `xml:"xmlns:xsd,attr"`
	Header    soapheader.Header `xml:"soap:Header"`
	Body      body              `xml:"soap:Body"`
}

type body struct {
	XMLName xml.Name `xml:"soap:Body"`
	Content []byte   `xml:",innerxml"`
}

// assemble marshals a typed body root and splices it into a complete SOAP
// envelope carrying header. The XML declaration is prepended explicitly
// since encoding/xml.Marshal does not emit one.
func assemble(header soapheader.Header, bodyRoot any) ([]byte, error) {
	bodyXML, err := xml.Marshal(bodyRoot)
	if err != nil {
		return nil, fmt.Errorf("xmlbuild: marshaling body: %w", err)
	}

	env := envelope{
		XmlnsSoap: nsSoap,
		XmlnsWsa:  nsWsa,
		XmlnsWsse: nsWsse,
		XmlnsWsu:  nsWsu,
		XmlnsOta:  nsOta,
		XmlnsHtn:  nsHtn,
		XmlnsXsi:  nsXsi,
		XmlnsXsd:  nsXsd,
		Header:    header,
		Body:      body{Content: bodyXML},
	}

	envXML, err := xml.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("xmlbuild: marshaling envelope: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.Write(envXML)
	return buf.Bytes(), nil
}
