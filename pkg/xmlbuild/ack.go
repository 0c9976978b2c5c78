package xmlbuild

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/roli854/travelclick-htng-gateway/pkg/domain"
	"github.com/roli854/travelclick-htng-gateway/pkg/msgid"
)

// DefaultAckAction is the wsa:Action carried on a synchronous
// acknowledgement response to an inbound HTNG submission (spec.md §4.9
// step 5).
const DefaultAckAction = "HTNG2011B_SubmitResponse"

type ackHeader struct {
	XMLName   xml.Name `xml:"soap:Header"`
	MessageID string   `xml:"wsa:MessageID"`
	RelatesTo string   `xml:"wsa:RelatesTo"`
	Action    string   `xml:"wsa:Action"`
}

type ackEnvelope struct {
	XMLName   xml.Name  `xml:"soap:Envelope"`
	XmlnsSoap string    `xml:"xmlns:soap,attr"`
	XmlnsWsa  string    `xml:"xmlns:wsa,attr"`
	XmlnsOta  string    `xml:"xmlns:ota,attr"`
	Header    ackHeader `xml:"soap:Header"`
	Body      body      `xml:"soap:Body"`
}

type ackSuccessBody struct {
	XMLName xml.Name
	Success struct{} `xml:"ota:Success"`
}

// responseRootElement turns a request body root ("...RQ") into its
// acknowledgement counterpart ("...RS"), the convention every OTA 2003/05
// message family in this gateway follows.
func responseRootElement(mt domain.MessageType) string {
	root := mt.BodyRootElement()
	return strings.TrimSuffix(root, "RQ") + "RS"
}

// BuildAck serializes the synchronous acknowledgement the inbound
// dispatcher returns once a request has cleared authentication,
// classification and idempotency checks and been handed off for
// asynchronous processing: a bare OTA *_RS carrying Success, correlated
// to the inbound wsa:MessageID via wsa:RelatesTo. A request that fails
// any of those checks gets a SOAP Fault instead (pkg/xmlparse.BuildFault),
// never this.
func BuildAck(mt domain.MessageType, hotelCode, relatesTo string, now time.Time) ([]byte, error) {
	rsRoot := responseRootElement(mt)

	bodyXML, err := xml.Marshal(ackSuccessBody{XMLName: xml.Name{Local: "ota:" + rsRoot}})
	if err != nil {
		return nil, fmt.Errorf("xmlbuild: ack: marshaling body: %w", err)
	}

	env := ackEnvelope{
		XmlnsSoap: nsSoap,
		XmlnsWsa:  nsWsa,
		XmlnsOta:  nsOta,
		Header: ackHeader{
			MessageID: msgid.Unique(hotelCode, string(mt)+"_ACK"),
			RelatesTo: relatesTo,
			Action:    DefaultAckAction,
		},
		Body: body{Content: bodyXML},
	}

	envXML, err := xml.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("xmlbuild: ack: marshaling envelope: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.Write(envXML)
	return buf.Bytes(), nil
}
