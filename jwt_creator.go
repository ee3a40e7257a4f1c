package main

import (
	"crypto/rsa"
	"fmt"
	"go-passport-scanner/models"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v4"
	irma "github.com/privacybydesign/irmago"
)

type JwtCreator interface {
	CreatePassportJwt(passport models.PassportData) (jwt string, err error)
}

func NewIrmaJwtCreator(privateKeyPath string,
	issuerId string,
	credential string,
	sdJwtBatchSize uint,
) (*DefaultJwtCreator, error) {
	keyBytes, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read jwt private key: %w", err)
	}

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse jwt private key: %w", err)
	}

	return &DefaultJwtCreator{
		issuerId:       issuerId,
		privateKey:     privateKey,
		credential:     credential,
		sdJwtBatchSize: sdJwtBatchSize,
	}, nil
}

type DefaultJwtCreator struct {
	privateKey     *rsa.PrivateKey
	issuerId       string
	credential     string
	sdJwtBatchSize uint
}

func (jc *DefaultJwtCreator) createJwt(attributes map[string]string) (string, error) {
	issuanceRequest := jc.createIssuanceRequest(attributes)

	return irma.SignSessionRequest(
		issuanceRequest,
		jwt.GetSigningMethod(jwt.SigningMethodRS256.Alg()),
		jc.privateKey,
		jc.issuerId,
	)
}

const DATE_FORMAT_CYMD = "2006-01-02"
const DATE_FORMAT_YEAR = "2006"

func passportAttributes(passport models.PassportData) map[string]string {
	return map[string]string{
		"documentNumber": passport.DocumentNumber,
		"documentType":   passport.DocumentType,
		"firstName":      passport.FirstName,
		"lastName":       passport.LastName,
		"fullName":       passport.FullName,
		"nationality":    passport.Nationality,
		"dateOfBirth":    passport.DateOfBirth.Format(DATE_FORMAT_CYMD),
		"yearOfBirth":    passport.DateOfBirth.Format(DATE_FORMAT_YEAR),
		"isEuCitizen":    passport.IsEuCitizen,
		"dateOfExpiry":   passport.DateOfExpiry.Format(DATE_FORMAT_CYMD),
		"gender":         passport.Gender,
		"country":        passport.Country,
		"personalNumber": passport.PersonalNumber,
		"over12":         passport.Over12,
		"over16":         passport.Over16,
		"over18":         passport.Over18,
		"over21":         passport.Over21,
		"over65":         passport.Over65,
	}
}

func (jc *DefaultJwtCreator) CreatePassportJwt(passport models.PassportData) (string, error) {
	return jc.createJwt(passportAttributes(passport))
}

// createIssuanceRequest creates an IRMA issuance request valid for one year
func (jc *DefaultJwtCreator) createIssuanceRequest(attributes map[string]string) *irma.IssuanceRequest {
	validity := irma.Timestamp(time.Unix(time.Now().AddDate(1, 0, 0).Unix(), 0)) // 1 year from now

	return irma.NewIssuanceRequest([]*irma.CredentialRequest{
		{
			CredentialTypeID: irma.NewCredentialTypeIdentifier(jc.credential),
			Attributes:       attributes,
			SdJwtBatchSize:   jc.sdJwtBatchSize,
			Validity:         &validity,
		},
	})
}
