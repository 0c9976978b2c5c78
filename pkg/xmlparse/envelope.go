// Package xmlparse decomposes inbound SOAP envelopes into typed data and
// parses outbound-response bodies back into structured acknowledgements
// (spec.md §4.9). Parsing is namespace-tolerant: both the SOAP 1.1 and
// SOAP 1.2 envelope namespaces are accepted, matching pkg/xmlns's
// AcceptedEnvelopeNamespaces, since encoding/xml's default unmarshaling
// matches struct tags by local name regardless of namespace.
package xmlparse

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/roli854/travelclick-htng-gateway/pkg/domain"
	"github.com/roli854/travelclick-htng-gateway/pkg/soapheader"
	"github.com/roli854/travelclick-htng-gateway/pkg/xmlns"
)

type rawEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Header  rawHeader `xml:"Header"`
	Body    rawBody   `xml:"Body"`
}

type rawHeader struct {
	MessageID string      `xml:"MessageID"`
	Action    string      `xml:"Action"`
	RelatesTo string      `xml:"RelatesTo"`
	Security  rawSecurity `xml:"Security"`
}

type rawSecurity struct {
	UsernameToken rawUsernameToken `xml:"UsernameToken"`
}

type rawUsernameToken struct {
	Username string `xml:"Username"`
	Password string `xml:"Password"`
	Nonce    string `xml:"Nonce"`
	Created  string `xml:"Created"`
}

type rawBody struct {
	Content []byte `xml:",innerxml"`
}

// Envelope is the decomposed form of an inbound SOAP request: the
// WS-Addressing/WSSE header fields plus the raw OTA body, classified by
// root element into a MessageType.
type Envelope struct {
	MessageID   string
	Action      string
	RelatesTo   string
	Security    soapheader.ParsedSecurity
	BodyRoot    string
	BodyContent []byte
	MessageType domain.MessageType
	IsFault     bool
	HotelCode   string
}

// ParseEnvelope decodes an inbound SOAP request, rejecting envelope
// namespaces outside pkg/xmlns.AcceptedEnvelopeNamespaces, and classifies
// the body's root element into a MessageType ("Classify" step of spec.md
// §4.9). UNKNOWN is returned (not an error) when the root element isn't
// recognized, so the caller can synthesize the appropriate SOAP Fault.
func ParseEnvelope(data []byte) (Envelope, error) {
	var raw rawEnvelope
	if err := xml.Unmarshal(data, &raw); err != nil {
		return Envelope{}, fmt.Errorf("xmlparse: malformed SOAP envelope: %w", err)
	}
	if !acceptedNamespace(raw.XMLName.Space) {
		return Envelope{}, fmt.Errorf("xmlparse: unrecognized SOAP envelope namespace %q", raw.XMLName.Space)
	}

	root, hotelCode, err := firstElement(raw.Body.Content)
	if err != nil {
		return Envelope{}, fmt.Errorf("xmlparse: reading body root element: %w", err)
	}

	var created time.Time
	if raw.Header.Security.UsernameToken.Created != "" {
		created, _ = soapheader.ParseCreated(raw.Header.Security.UsernameToken.Created)
	}

	env := Envelope{
		MessageID: raw.Header.MessageID,
		Action:    raw.Header.Action,
		RelatesTo: raw.Header.RelatesTo,
		Security: soapheader.ParsedSecurity{
			Username: raw.Header.Security.UsernameToken.Username,
			Password: raw.Header.Security.UsernameToken.Password,
			Nonce:    raw.Header.Security.UsernameToken.Nonce,
			Created:  created,
		},
		BodyRoot:    root,
		BodyContent: raw.Body.Content,
		MessageType: classifyRoot(root),
		IsFault:     root == "Fault",
		HotelCode:   hotelCode,
	}
	return env, nil
}

func acceptedNamespace(ns string) bool {
	for _, accepted := range xmlns.AcceptedEnvelopeNamespaces {
		if ns == accepted {
			return true
		}
	}
	return false
}

// classifyRoot inverts domain.MessageType.BodyRootElement.
func classifyRoot(root string) domain.MessageType {
	for _, mt := range []domain.MessageType{
		domain.MessageTypeInventory,
		domain.MessageTypeRates,
		domain.MessageTypeReservation,
		domain.MessageTypeRestrictions,
		domain.MessageTypeGroupBlock,
	} {
		if mt.BodyRootElement() == root {
			return mt
		}
	}
	return domain.MessageTypeUnknown
}

// firstElement returns the local name of the first StartElement in
// content (the body's root element) plus the first HotelCode attribute
// found anywhere in the subtree. The root element itself carries
// HotelCode for OTA_HotelResNotifRQ; the other four body roots carry it
// on a descendant (Inventories, RatePlans, AvailStatusMessages, and the
// InvBlock under InvBlocks) — scanning the whole subtree resolves it without
// hardcoding each root's shape, and without a second parse pass for the
// inbound dispatcher's authentication step (spec.md §4.9 step 2).
func firstElement(content []byte) (name, hotelCode string, err error) {
	dec := xml.NewDecoder(bytes.NewReader(content))
	for {
		tok, terr := dec.Token()
		if terr != nil {
			if name != "" && errors.Is(terr, io.EOF) {
				return name, hotelCode, nil
			}
			return "", "", terr
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if name == "" {
			name = start.Name.Local
		}
		if hotelCode == "" {
			for _, attr := range start.Attr {
				if attr.Name.Local == "HotelCode" {
					hotelCode = attr.Value
					break
				}
			}
		}
	}
}
