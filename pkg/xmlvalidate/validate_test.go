package xmlvalidate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWellFormed_ValidDocument(t *testing.T) {
	issue := WellFormed(strings.NewReader(`<Root><Child>x</Child></Root>`))
	assert.Nil(t, issue)
}

func TestWellFormed_MalformedDocument(t *testing.T) {
	issue := WellFormed(strings.NewReader(`<Root><Child>x</Root>`))
	require.NotNil(t, issue)
	assert.Equal(t, CodeMalformedXML, issue.Code)
}

func TestStructural_WrongRoot(t *testing.T) {
	schema := Schema{RootElement: "OTA_HotelInvCountNotifRQ"}
	res := Structural(strings.NewReader(`<SomethingElse/>`), schema)
	require.False(t, res.OK())
	assert.Equal(t, CodeUnexpectedRoot, res.Issues[0].Code)
}

func TestStructural_MissingRequiredElementAndAttribute(t *testing.T) {
	schema := Schema{
		RootElement: "OTA_HotelInvCountNotifRQ",
		Rules: []ElementRule{
			{Path: "OTA_HotelInvCountNotifRQ", Required: true, RequiredAttributes: []string{"TimeStamp"}},
			{Path: "OTA_HotelInvCountNotifRQ.HotelInvCounts", Required: true},
		},
	}
	res := Structural(strings.NewReader(`<OTA_HotelInvCountNotifRQ></OTA_HotelInvCountNotifRQ>`), schema)
	require.False(t, res.OK())

	var codes []string
	for _, issue := range res.Issues {
		codes = append(codes, issue.Code)
	}
	assert.Contains(t, codes, CodeMissingAttribute)
	assert.Contains(t, codes, CodeMissingElement)
}

func TestValidate_ValidDocumentPasses(t *testing.T) {
	schema := Schema{
		RootElement: "OTA_HotelInvCountNotifRQ",
		Rules: []ElementRule{
			{Path: "OTA_HotelInvCountNotifRQ", Required: true, RequiredAttributes: []string{"TimeStamp"}},
		},
	}
	doc := []byte(`<OTA_HotelInvCountNotifRQ TimeStamp="2026-07-31T00:00:00"></OTA_HotelInvCountNotifRQ>`)
	res := Validate(doc, schema)
	assert.True(t, res.OK())
}

func TestResult_FirstReturnsFirstMessage(t *testing.T) {
	res := Result{Issues: []Issue{{Message: "first"}, {Message: "second"}}}
	assert.Equal(t, "first", res.First())
}
