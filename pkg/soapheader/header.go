// Package soapheader builds and parses the SOAP Header block common to
// every outbound HTNG 2011B request: WS-Addressing plus a WSSE
// UsernameToken (PasswordText profile) carrying nonce and timestamp
// replay protection (spec.md §4.2).
package soapheader

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/roli854/travelclick-htng-gateway/pkg/msgid"
)

// AnonymousReplyTo is the fixed wsa:ReplyTo address for one-way
// notifications; the CRS does not call back to a dynamic endpoint.
const AnonymousReplyTo = "http://www.w3.org/2005/08/addressing/anonymous"

// DefaultAction is the wsa:Action used on every outbound submission
// unless the caller overrides it.
const DefaultAction = "HTNG2011B_SubmitRequest"

const createdLayout = "2006-01-02T15:04:05.000Z"

// Security carries the WSSE UsernameToken credentials used to build an
// outbound header.
type Security struct {
	Username string
	Password string
}

// Addressing carries the WS-Addressing fields that vary per request.
type Addressing struct {
	To        string
	HotelCode string
	Action    string // defaults to DefaultAction when empty
}

// Header is the fully resolved, serializable SOAP header.
type Header struct {
	XMLName  xml.Name      `xml:"soap:Header"`
	Wsa      WSAddressing  `xml:"wsa:MessageID,omitempty"`
	To       string        `xml:"wsa:To"`
	From     WSAFrom       `xml:"wsa:From"`
	ReplyTo  WSAReplyTo    `xml:"wsa:ReplyTo"`
	Action   string        `xml:"wsa:Action"`
	Security WSSESecurity  `xml:"wsse:Security"`
}

// WSAddressing is a thin wrapper so MessageID renders as a plain element
// value under the wsa namespace.
type WSAddressing string

type WSAFrom struct {
	ReferenceProperties WSARefProps `xml:"wsa:ReferenceProperties"`
}

type WSARefProps struct {
	HotelCode string `xml:"htn:HotelCode"`
}

type WSAReplyTo struct {
	Address string `xml:"wsa:Address"`
}

type WSSESecurity struct {
	UsernameToken WSSEUsernameToken `xml:"wsse:UsernameToken"`
}

type WSSEUsernameToken struct {
	Username string `xml:"wsse:Username"`
	Password WSSEPassword `xml:"wsse:Password"`
	Nonce    WSSENonce    `xml:"wsse:Nonce"`
	Created  string       `xml:"wsu:Created"`
}

type WSSEPassword struct {
	Type  string `xml:"Type,attr"`
	Value string `xml:",chardata"`
}

type WSSENonce struct {
	EncodingType string `xml:"EncodingType,attr"`
	Value        string `xml:",chardata"`
}

const passwordTextType = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-username-token-profile-1.0#PasswordText"
const nonceEncodingType = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-soap-message-security-1.0#Base64Binary"

// Build constructs a complete, deterministic-except-for-nonce-and-timestamp
// SOAP header for an outbound HTNG request.
func Build(addr Addressing, sec Security, hotelID, messageType string, now time.Time) (Header, error) {
	nonce, err := randomNonce()
	if err != nil {
		return Header{}, fmt.Errorf("soapheader: generating nonce: %w", err)
	}

	action := addr.Action
	if action == "" {
		action = DefaultAction
	}

	return Header{
		Wsa:    WSAddressing(msgid.Timestamped(hotelID, messageType, now)),
		To:     addr.To,
		From:   WSAFrom{ReferenceProperties: WSARefProps{HotelCode: addr.HotelCode}},
		ReplyTo: WSAReplyTo{Address: AnonymousReplyTo},
		Action: action,
		Security: WSSESecurity{
			UsernameToken: WSSEUsernameToken{
				Username: sec.Username,
				Password: WSSEPassword{Type: passwordTextType, Value: sec.Password},
				Nonce:    WSSENonce{EncodingType: nonceEncodingType, Value: nonce},
				Created:  now.UTC().Format(createdLayout),
			},
		},
	}, nil
}

func randomNonce() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// ParsedSecurity is the decoded form of an inbound wsse:Security header,
// independent of any particular XML library's element model — callers
// build this from whatever inbound envelope representation pkg/xmlparse
// produces.
type ParsedSecurity struct {
	Username string
	Password string
	Nonce    string
	Created  time.Time
}

// ParseCreated parses the ISO-8601 UTC timestamp carried in wsu:Created,
// tolerating both the millisecond and second-precision forms peers send.
func ParseCreated(value string) (time.Time, error) {
	if t, err := time.Parse(createdLayout, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// DecodeNonce base64-decodes a wsse:Nonce value.
func DecodeNonce(value string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(value)
}
