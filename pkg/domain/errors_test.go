package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKind_Retryable(t *testing.T) {
	assert.True(t, NewErrorKind(ErrorKindConnection, "dial failed", nil).Retryable())
	assert.False(t, NewErrorKind(ErrorKindValidation, "bad field", nil).Retryable())
	assert.False(t, NewErrorKind(ErrorKindBusinessLogic, "rule violated", nil).Retryable())

	auth := NewErrorKind(ErrorKindSoapXML, "fault", nil).WithFault("AUTHENTICATION_FAILED", "Invalid credentials")
	assert.Equal(t, ErrorKindAuthentication, auth.Kind)
	assert.False(t, auth.Retryable())

	transientAuth := NewErrorKind(ErrorKindSoapXML, "fault", nil).WithFault("", "Authentication service temporary unavailable")
	assert.Equal(t, ErrorKindAuthentication, transientAuth.Kind)
	assert.True(t, transientAuth.Retryable())
}

func TestErrorKind_MinRetryDelay(t *testing.T) {
	assert.Equal(t, 30.0, NewErrorKind(ErrorKindConnection, "", nil).MinRetryDelay().Seconds())
	assert.Equal(t, 60.0, NewErrorKind(ErrorKindAuthentication, "", nil).MinRetryDelay().Seconds())
	assert.Equal(t, 0.0, NewErrorKind(ErrorKindValidation, "", nil).MinRetryDelay().Seconds())
}
