package main

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionIdGeneration(t *testing.T) {
	sessionId := GenerateSessionId()
	// each byte is represented by 2 hex characters so length will be doubled
	require.Len(t, sessionId, 32)

	_, err := hex.DecodeString(sessionId)
	require.NoError(t, err)

	require.NotEqual(t, sessionId, GenerateSessionId())
}
