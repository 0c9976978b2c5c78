// Package xmlvalidate implements the two-stage XML validation pipeline
// from spec.md §4.3: well-formedness via a streaming parse, followed by
// structural validation against the rules registered for a MessageType.
// Full XSD validation is out of scope for the standard library and no
// XSD library is available anywhere in the retrieved corpus, so stage
// two is a hand-rolled structural checker shaped like XSD constraints
// (required elements and attribute presence; element order is not
// checked) rather than a generic schema engine.
package xmlvalidate

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Issue is one validation failure, carrying enough position information
// to report `{line, column, code, message}` as spec.md §4.3 requires.
type Issue struct {
	Line    int
	Column  int
	Code    string
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("%d:%d %s: %s", i.Line, i.Column, i.Code, i.Message)
}

// Result holds every issue found across both validation stages. A nil
// slice (Result.OK() == true) means the document is valid.
type Result struct {
	Issues []Issue
}

func (r Result) OK() bool { return len(r.Issues) == 0 }

// First returns the first issue's message, used to populate a SOAP
// Fault's faultstring (spec.md §4.3: "faultstring = first error").
func (r Result) First() string {
	if len(r.Issues) == 0 {
		return ""
	}
	return r.Issues[0].Message
}

const (
	CodeMalformedXML     = "MALFORMED_XML"
	CodeUnexpectedEOF    = "UNEXPECTED_EOF"
	CodeMissingElement   = "MISSING_ELEMENT"
	CodeMissingAttribute = "MISSING_ATTRIBUTE"
	CodeUnexpectedRoot   = "UNEXPECTED_ROOT"
)

// WellFormed performs stage one: a streaming token-by-token parse that
// surfaces the first XML syntax error with its position, without
// materializing the whole document.
func WellFormed(r io.Reader) *Issue {
	dec := xml.NewDecoder(r)
	for {
		_, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			line, col := decoderPos(dec)
			if err == io.ErrUnexpectedEOF {
				return &Issue{Line: line, Column: col, Code: CodeUnexpectedEOF, Message: "document ended unexpectedly"}
			}
			return &Issue{Line: line, Column: col, Code: CodeMalformedXML, Message: err.Error()}
		}
	}
}

func decoderPos(dec *xml.Decoder) (line, col int) {
	line, col = dec.InputPos()
	return
}

// ElementRule describes a structural constraint for a single element:
// whether it must be present, and which attributes it must carry.
type ElementRule struct {
	Path               string // dot-separated element path, e.g. "OTA_HotelInvCountNotifRQ.HotelInvCounts.HotelInvCount"
	Required           bool
	RequiredAttributes []string
}

// Schema is the structural rule set registered for one MessageType's
// root element.
type Schema struct {
	RootElement string
	Rules       []ElementRule
}

// Structural performs stage two against an already well-formed document:
// confirms the root element matches the schema and that every required
// element/attribute is present. It re-parses the document (call after
// WellFormed returns nil).
func Structural(r io.Reader, schema Schema) Result {
	dec := xml.NewDecoder(r)
	var res Result

	seen := make(map[string]bool)
	var pathStack []string
	sawRoot := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			line, col := decoderPos(dec)
			res.Issues = append(res.Issues, Issue{Line: line, Column: col, Code: CodeMalformedXML, Message: err.Error()})
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			pathStack = append(pathStack, t.Name.Local)
			if !sawRoot {
				sawRoot = true
				if t.Name.Local != schema.RootElement {
					line, col := decoderPos(dec)
					res.Issues = append(res.Issues, Issue{
						Line: line, Column: col, Code: CodeUnexpectedRoot,
						Message: fmt.Sprintf("expected root element %q, found %q", schema.RootElement, t.Name.Local),
					})
				}
			}
			path := strings.Join(pathStack, ".")
			seen[path] = true

			for _, rule := range schema.Rules {
				if rule.Path != path {
					continue
				}
				for _, attrName := range rule.RequiredAttributes {
					if !hasAttr(t, attrName) {
						line, col := decoderPos(dec)
						res.Issues = append(res.Issues, Issue{
							Line: line, Column: col, Code: CodeMissingAttribute,
							Message: fmt.Sprintf("%s is missing required attribute %q", path, attrName),
						})
					}
				}
			}
		case xml.EndElement:
			if len(pathStack) > 0 {
				pathStack = pathStack[:len(pathStack)-1]
			}
		}
	}

	for _, rule := range schema.Rules {
		if rule.Required && !seen[rule.Path] {
			res.Issues = append(res.Issues, Issue{
				Code:    CodeMissingElement,
				Message: fmt.Sprintf("missing required element %s", rule.Path),
			})
		}
	}

	return res
}

func hasAttr(t xml.StartElement, name string) bool {
	for _, a := range t.Attr {
		if a.Name.Local == name {
			return true
		}
	}
	return false
}

// Validate runs both stages against the same content, returning a single
// Result. Outbound callers treat any issue as fatal (spec.md §4.3:
// "no transport attempt"); inbound callers use Result.First() to build a
// Client SOAP Fault.
func Validate(content []byte, schema Schema) Result {
	if issue := WellFormed(strings.NewReader(string(content))); issue != nil {
		return Result{Issues: []Issue{*issue}}
	}
	return Structural(strings.NewReader(string(content)), schema)
}
