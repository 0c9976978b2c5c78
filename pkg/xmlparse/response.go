package xmlparse

import (
	"encoding/xml"
	"fmt"
)

// ResponseWarning and ResponseError mirror the OTA common-response
// Warning/Error elements (`{ShortText, Type, Code}`).
type ResponseWarning struct {
	Code      string `xml:"Code,attr"`
	Type      string `xml:"Type,attr"`
	ShortText string `xml:",chardata"`
}

type ResponseError struct {
	Code      string `xml:"Code,attr"`
	Type      string `xml:"Type,attr"`
	ShortText string `xml:",chardata"`
}

type rawOTAResponse struct {
	XMLName   xml.Name
	EchoToken string `xml:"EchoToken,attr"`
	Success   *struct{} `xml:"Success"`
	Warnings  struct {
		Warning []ResponseWarning `xml:"Warning"`
	} `xml:"Warnings"`
	Errors struct {
		Error []ResponseError `xml:"Error"`
	} `xml:"Errors"`
}

// Response is the parsed form of a CRS acknowledgement to an outbound
// OTA request: a well-formed OTA *_RS carries either a Success marker or
// one or more Errors, plus zero or more Warnings either way.
type Response struct {
	RootElement string
	EchoToken   string
	Success     bool
	Warnings    []ResponseWarning
	Errors      []ResponseError
	IsFault     bool
	Fault       *Fault
}

// ParseResponse parses the body of a CRS response to an outbound send.
// If the body is a SOAP Fault instead of an OTA *_RS, Response.IsFault
// is set and Response.Fault carries the decoded fault.
func ParseResponse(body []byte) (Response, error) {
	root, _, err := firstElement(body)
	if err != nil {
		return Response{}, fmt.Errorf("xmlparse: response: %w", err)
	}

	if root == "Fault" {
		fault, err := ParseFault(body)
		if err != nil {
			return Response{}, err
		}
		return Response{RootElement: root, IsFault: true, Fault: &fault}, nil
	}

	var raw rawOTAResponse
	if err := xml.Unmarshal(body, &raw); err != nil {
		return Response{}, fmt.Errorf("xmlparse: response: malformed OTA response: %w", err)
	}

	return Response{
		RootElement: root,
		EchoToken:   raw.EchoToken,
		Success:     raw.Success != nil,
		Warnings:    raw.Warnings.Warning,
		Errors:      raw.Errors.Error,
	}, nil
}
