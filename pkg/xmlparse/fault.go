package xmlparse

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

// Fault is the namespace-normalized form of a SOAP Fault, covering both
// the SOAP 1.1 (`faultcode`/`faultstring`) and SOAP 1.2
// (`soap:Code/Value`, `soap:Reason/Text`) shapes.
type Fault struct {
	Code   string
	String string
}

type rawFault struct {
	XMLName     xml.Name `xml:"Fault"`
	FaultCode   string   `xml:"faultcode"`
	FaultString string   `xml:"faultstring"`
	Code        struct {
		Value string `xml:"Value"`
	} `xml:"Code"`
	Reason struct {
		Text string `xml:"Text"`
	} `xml:"Reason"`
}

// ParseFault decodes the first SOAP Fault element in body, in either
// protocol version, whether body is the bare Fault or a whole envelope
// (such as BuildFault's output).
func ParseFault(body []byte) (Fault, error) {
	var raw rawFault
	dec := xml.NewDecoder(bytes.NewReader(body))
	for {
		tok, err := dec.Token()
		if err != nil {
			return Fault{}, fmt.Errorf("xmlparse: malformed SOAP fault: %w", err)
		}
		if start, ok := tok.(xml.StartElement); ok && start.Name.Local == "Fault" {
			if err := dec.DecodeElement(&raw, &start); err != nil {
				return Fault{}, fmt.Errorf("xmlparse: malformed SOAP fault: %w", err)
			}
			break
		}
	}

	if raw.FaultCode != "" || raw.FaultString != "" {
		return Fault{Code: stripPrefix(raw.FaultCode), String: raw.FaultString}, nil
	}
	return Fault{Code: stripPrefix(raw.Code.Value), String: raw.Reason.Text}, nil
}

func stripPrefix(value string) string {
	if idx := strings.Index(value, ":"); idx >= 0 {
		return value[idx+1:]
	}
	return value
}

// Soap fault codes used by BuildFault, per the SOAP 1.2 Client/Server
// distinction spec.md §4.9 requires ("internal errors are mapped to
// Server faultcode, validation to Client").
const (
	FaultCodeClient = "Client"
	FaultCodeServer = "Server"
)

type faultEnvelope struct {
	XMLName   xml.Name `xml:"soap:Envelope"`
	XmlnsSoap string   `xml:"xmlns:soap,attr"`
	Body      faultBody `xml:"soap:Body"`
}

type faultBody struct {
	Fault soapFault `xml:"soap:Fault"`
}

type soapFault struct {
	Code struct {
		Value string `xml:"soap:Value"`
	} `xml:"soap:Code"`
	Reason struct {
		Text string `xml:"soap:Text"`
	} `xml:"soap:Reason"`
}

// BuildFault serializes a minimal SOAP 1.2 Fault envelope. code should be
// FaultCodeClient or FaultCodeServer; reason is the faultstring, which
// per spec.md §4.3 is the first validation issue's message when the
// fault originates from a failed structural validation.
func BuildFault(code, reason string) []byte {
	env := faultEnvelope{XmlnsSoap: "http://www.w3.org/2003/05/soap-envelope"}
	env.Body.Fault.Code.Value = "soap:" + code
	env.Body.Fault.Reason.Text = reason

	out, err := xml.Marshal(env)
	if err != nil {
		// faultEnvelope has no fields that can fail to marshal (plain
		// strings only); this path is unreachable in practice.
		return []byte(fmt.Sprintf(`<soap:Fault><soap:Reason><soap:Text>%s</soap:Text></soap:Reason></soap:Fault>`, reason))
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.Write(out)
	return buf.Bytes()
}
