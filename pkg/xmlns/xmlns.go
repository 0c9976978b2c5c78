// Package xmlns is the namespace and schema-version registry shared by
// every XML-facing package: prefix→URI lookups for building and
// validating envelopes (spec.md §4.3/§4.4), body root element names per
// MessageType, and semver-based resolution of which OTA schema version
// to target for a given property/environment.
package xmlns

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/roli854/travelclick-htng-gateway/pkg/domain"
)

// Well-known namespace URIs used across the gateway's SOAP envelopes.
const (
	SOAP11 = "http://schemas.xmlsoap.org/soap/envelope/"
	SOAP12 = "http://www.w3.org/2003/05/soap-envelope"
	WSA    = "http://www.w3.org/2005/08/addressing"
	WSSE   = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-secext-1.0.xsd"
	WSU    = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-utility-1.0.xsd"
	OTA    = "http://www.opentravel.org/OTA/2003/05"
	HTNG   = "http://htng.org/2011B/service"
	XSI    = "http://www.w3.org/2001/XMLSchema-instance"
	XSD    = "http://www.w3.org/2001/XMLSchema"
)

// prefixMapping is the canonical prefix→URI table (spec.md §7:
// getNamespaceByPrefix).
var prefixMapping = map[string]string{
	"soap": SOAP12,
	"wsa":  WSA,
	"wsse": WSSE,
	"wsu":  WSU,
	"ota":  OTA,
	"htn":  HTNG,
	"xsi":  XSI,
	"xsd":  XSD,
}

// ByPrefix returns the namespace URI registered for prefix, and whether
// one was found.
func ByPrefix(prefix string) (string, bool) {
	uri, ok := prefixMapping[prefix]
	return uri, ok
}

// AcceptedEnvelopeNamespaces lists the SOAP envelope namespaces tolerated
// on inbound requests; outbound always uses SOAP12.
var AcceptedEnvelopeNamespaces = []string{SOAP11, SOAP12}

// BodyRoot returns the OTA body root element name for a MessageType,
// delegating to domain.MessageType.BodyRootElement (the single source of
// truth for that mapping).
func BodyRoot(mt domain.MessageType) (string, error) {
	root := mt.BodyRootElement()
	if root == "" {
		return "", fmt.Errorf("xmlns: no body root registered for message type %q", mt)
	}
	return root, nil
}

// SchemaVersions declares, per MessageType, the semver constraint that a
// resolved schema version must satisfy. Properties and environments can
// pin to a specific version within that constraint via configuration.
type SchemaVersions struct {
	constraints map[domain.MessageType]*semver.Constraints
	defaults    map[domain.MessageType]*semver.Version
}

// NewSchemaVersions builds a registry from (messageType -> constraint
// string, default version string) pairs, e.g. ">=1.0.0 <2.0.0", "1.003".
func NewSchemaVersions(constraints map[domain.MessageType]string, defaults map[domain.MessageType]string) (*SchemaVersions, error) {
	sv := &SchemaVersions{
		constraints: make(map[domain.MessageType]*semver.Constraints, len(constraints)),
		defaults:    make(map[domain.MessageType]*semver.Version, len(defaults)),
	}
	for mt, raw := range constraints {
		c, err := semver.NewConstraint(raw)
		if err != nil {
			return nil, fmt.Errorf("xmlns: invalid schema constraint for %q: %w", mt, err)
		}
		sv.constraints[mt] = c
	}
	for mt, raw := range defaults {
		v, err := semver.NewVersion(raw)
		if err != nil {
			return nil, fmt.Errorf("xmlns: invalid default schema version for %q: %w", mt, err)
		}
		sv.defaults[mt] = v
	}
	return sv, nil
}

// Resolve returns the schema version to use for a MessageType, honoring
// an optional property-level override (from layered config) as long as
// it satisfies the registered constraint. An override that violates the
// constraint is rejected rather than silently ignored.
func (sv *SchemaVersions) Resolve(mt domain.MessageType, propertyOverride string) (*semver.Version, error) {
	constraint, hasConstraint := sv.constraints[mt]

	if propertyOverride != "" {
		v, err := semver.NewVersion(propertyOverride)
		if err != nil {
			return nil, fmt.Errorf("xmlns: property override %q is not a valid version: %w", propertyOverride, err)
		}
		if hasConstraint && !constraint.Check(v) {
			return nil, fmt.Errorf("xmlns: property override %s for %q does not satisfy constraint %s", propertyOverride, mt, constraint)
		}
		return v, nil
	}

	v, ok := sv.defaults[mt]
	if !ok {
		return nil, fmt.Errorf("xmlns: no default schema version registered for %q", mt)
	}
	return v, nil
}
