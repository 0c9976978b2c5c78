package xmlparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roli854/travelclick-htng-gateway/pkg/domain"
)

const sampleInventoryEnvelope = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope" xmlns:wsse="http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-secext-1.0.xsd" xmlns:wsa="http://www.w3.org/2005/08/addressing">
  <soap:Header>
    <wsa:MessageID>TC-HOTEL1-INVENTORY-abc123</wsa:MessageID>
    <wsa:Action>HTNG2011B_SubmitRequest</wsa:Action>
    <wsse:Security>
      <wsse:UsernameToken>
        <wsse:Username>gateway</wsse:Username>
        <wsse:Password Type="PasswordText">secret</wsse:Password>
        <wsse:Nonce EncodingType="Base64Binary">abcd1234==</wsse:Nonce>
        <wsu:Created>2026-07-31T10:00:00.000Z</wsu:Created>
      </wsse:UsernameToken>
    </wsse:Security>
  </soap:Header>
  <soap:Body>
    <ota:OTA_HotelInvCountNotifRQ xmlns:ota="http://www.opentravel.org/OTA/2003/05" TimeStamp="2026-07-31T10:00:00" EchoToken="ECHO1" Version="1.003">
      <ota:Inventories HotelCode="HOTEL1"/>
    </ota:OTA_HotelInvCountNotifRQ>
  </soap:Body>
</soap:Envelope>`

const soap11Envelope = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Header/>
  <soap:Body>
    <OTA_HotelRateNotifRQ xmlns="http://www.opentravel.org/OTA/2003/05"/>
  </soap:Body>
</soap:Envelope>`

func TestParseEnvelope_ClassifiesInventory(t *testing.T) {
	env, err := ParseEnvelope([]byte(sampleInventoryEnvelope))
	require.NoError(t, err)
	assert.Equal(t, domain.MessageTypeInventory, env.MessageType)
	assert.Equal(t, "gateway", env.Security.Username)
	assert.Equal(t, "secret", env.Security.Password)
	assert.Equal(t, "TC-HOTEL1-INVENTORY-abc123", env.MessageID)
	assert.Equal(t, "HOTEL1", env.HotelCode)
}

func TestParseEnvelope_AcceptsSOAP11Namespace(t *testing.T) {
	env, err := ParseEnvelope([]byte(soap11Envelope))
	require.NoError(t, err)
	assert.Equal(t, domain.MessageTypeRates, env.MessageType)
}

func TestParseEnvelope_RejectsUnknownNamespace(t *testing.T) {
	bad := `<soap:Envelope xmlns:soap="urn:not-soap"><soap:Body><X/></soap:Body></soap:Envelope>`
	_, err := ParseEnvelope([]byte(bad))
	assert.Error(t, err)
}

func TestParseEnvelope_UnknownBodyRootYieldsUnknownType(t *testing.T) {
	xml := `<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope"><soap:Body><SomeOtherThing/></soap:Body></soap:Envelope>`
	env, err := ParseEnvelope([]byte(xml))
	require.NoError(t, err)
	assert.Equal(t, domain.MessageTypeUnknown, env.MessageType)
}
