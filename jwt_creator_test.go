package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go-passport-scanner/models"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
)

const testCredential = "pbdf-staging.pbdf.passport"

// writeTestKey writes a fresh RSA private key to a temporary PEM file.
func writeTestKey(t *testing.T) (string, *rsa.PublicKey) {
	t.Helper()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "priv.pem")
	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privateKey)}
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))

	return path, &privateKey.PublicKey
}

func testPassportData() models.PassportData {
	return models.PassportData{
		DocumentNumber: "SPECI2014",
		DocumentType:   "P",
		FirstName:      "WILLEKE LISELOTTE",
		LastName:       "DE BRUIJN",
		FullName:       "WILLEKE LISELOTTE DE BRUIJN",
		Nationality:    "NLD",
		IsEuCitizen:    "Yes",
		DateOfBirth:    time.Date(1965, time.March, 10, 0, 0, 0, 0, time.UTC),
		YearOfBirth:    "1965",
		DateOfExpiry:   time.Date(2031, time.March, 9, 0, 0, 0, 0, time.UTC),
		Gender:         "F",
		Country:        "NLD",
		PersonalNumber: "999999990",
		Over12:         "Yes",
		Over16:         "Yes",
		Over18:         "Yes",
		Over21:         "Yes",
		Over65:         "No",
	}
}

func rs256KeyFunc(publicKey *rsa.PublicKey) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodRS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Header["alg"])
		}
		return publicKey, nil
	}
}

func TestDecodeValidateJwt(t *testing.T) {
	keyPath, publicKey := writeTestKey(t)
	jc, err := NewIrmaJwtCreator(keyPath, "passport_scanner", testCredential, 25)
	require.NoError(t, err)

	tokenString, err := jc.CreatePassportJwt(testPassportData())
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	parsedJWT, err := jwt.ParseWithClaims(tokenString, jwt.MapClaims{}, rs256KeyFunc(publicKey))
	require.NoError(t, err)
	require.True(t, parsedJWT.Valid)

	claims, ok := parsedJWT.Claims.(jwt.MapClaims)
	require.True(t, ok)
	require.Equal(t, "passport_scanner", claims["iss"])
	require.Contains(t, claims, "iprequest")
}

func TestJwtRejectedWithOtherKey(t *testing.T) {
	keyPath, _ := writeTestKey(t)
	_, otherPublicKey := writeTestKey(t)

	jc, err := NewIrmaJwtCreator(keyPath, "passport_scanner", testCredential, 25)
	require.NoError(t, err)

	tokenString, err := jc.CreatePassportJwt(testPassportData())
	require.NoError(t, err)

	_, err = jwt.ParseWithClaims(tokenString, jwt.MapClaims{}, rs256KeyFunc(otherPublicKey))
	require.Error(t, err)
}

func TestPassportAttributes(t *testing.T) {
	attributes := passportAttributes(testPassportData())

	require.Equal(t, "SPECI2014", attributes["documentNumber"])
	require.Equal(t, "WILLEKE LISELOTTE DE BRUIJN", attributes["fullName"])
	require.Equal(t, "1965-03-10", attributes["dateOfBirth"])
	require.Equal(t, "1965", attributes["yearOfBirth"])
	require.Equal(t, "2031-03-09", attributes["dateOfExpiry"])
	require.Equal(t, "999999990", attributes["personalNumber"])
	require.Equal(t, "Yes", attributes["isEuCitizen"])
	require.Equal(t, "No", attributes["over65"])
	require.Len(t, attributes, 18)
}

func TestBatchSizeConfiguration(t *testing.T) {
	keyPath, publicKey := writeTestKey(t)

	testCases := []struct {
		name      string
		batchSize uint
	}{
		{name: "batch size 1", batchSize: 1},
		{name: "batch size 10", batchSize: 10},
		{name: "batch size 25", batchSize: 25},
		{name: "batch size 100", batchSize: 100},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			jc, err := NewIrmaJwtCreator(keyPath, "passport_scanner", testCredential, tc.batchSize)
			require.NoError(t, err)
			require.Equal(t, tc.batchSize, jc.sdJwtBatchSize,
				"JWT creator should store the configured batch size")

			issuanceReq := jc.createIssuanceRequest(passportAttributes(testPassportData()))
			require.NotNil(t, issuanceReq)
			require.Len(t, issuanceReq.Credentials, 1, "Should have exactly one credential request")
			require.Equal(t, tc.batchSize, issuanceReq.Credentials[0].SdJwtBatchSize)
			require.Equal(t, "999999990", issuanceReq.Credentials[0].Attributes["personalNumber"])

			jwtString, err := jc.CreatePassportJwt(testPassportData())
			require.NoError(t, err)

			parsedJWT, err := jwt.ParseWithClaims(jwtString, jwt.MapClaims{}, rs256KeyFunc(publicKey))
			require.NoError(t, err)
			require.True(t, parsedJWT.Valid)
		})
	}
}

func TestNewIrmaJwtCreator_ErrorCases(t *testing.T) {
	t.Run("file not found", func(t *testing.T) {
		_, err := NewIrmaJwtCreator("./nonexistent.pem", "issuer", "credential", 25)
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to read jwt private key")
	})

	t.Run("invalid PEM format", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "invalid.pem")
		require.NoError(t, os.WriteFile(path, []byte("this is not a valid PEM file"), 0o600))

		_, err := NewIrmaJwtCreator(path, "issuer", "credential", 25)
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to parse jwt private key")
	})
}
