package passport

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	mrtdDoc "go-passport-scanner/document"
	"go-passport-scanner/document/mrz"
	"go-passport-scanner/models"

	gmrtdMrz "github.com/gmrtd/gmrtd/mrz"
)

var euCountries = []string{
	"AUT", "BEL", "BGR", "HRV", "CYP",
	"CZE", "DNK", "EST", "FIN", "FRA",
	// Germany has D instead of the expected DEU.
	"D", "GRC", "HUN", "IRL", "ITA",
	"LVA", "LTU", "LUX", "MLT", "NLD",
	"POL", "PRT", "ROU", "SVK", "SVN",
	"ESP", "SWE",
}

func IsEuCitizen(nationality string) bool {
	for _, country := range euCountries {
		if strings.ToUpper(nationality) == country {
			return true
		}
	}
	return false
}

// ToGmrtdMRZ maps a scanned record onto the gmrtd MRZ type used for chip read
// documents. Country codes lose their filler ("D<<" becomes "D").
func ToGmrtdMRZ(record mrz.PassportRecord) *gmrtdMrz.MRZ {
	return &gmrtdMrz.MRZ{
		DocumentCode: mrz.StripFiller(record.DocumentType),
		IssuingState: mrz.StripFiller(record.CountryCode),
		NameOfHolder: &gmrtdMrz.MrzName{
			Primary:   record.Surname,
			Secondary: record.GivenNames,
		},
		DocumentNumber: record.PassportNumber,
		Nationality:    mrz.StripFiller(record.Nationality),
		DateOfBirth:    record.DateOfBirth,
		Sex:            record.Sex,
		DateOfExpiry:   record.ExpirationDate,
	}
}

func extractNames(m *gmrtdMrz.MRZ) (firstName, lastName string) {
	if m.NameOfHolder == nil {
		return "", ""
	}
	return m.NameOfHolder.Secondary, m.NameOfHolder.Primary
}

// ToPassportData builds the issuance attributes for a scanned passport. Age
// flags are computed relative to now.
func ToPassportData(m *gmrtdMrz.MRZ, personalNumber string, now time.Time) (models.PassportData, error) {
	slog.Debug("Converting MRZ to passport issuance data")

	if m == nil {
		return models.PassportData{}, fmt.Errorf("no MRZ data provided")
	}

	dob, err := mrtdDoc.ParseDateOfBirth(m.DateOfBirth, now)
	if err != nil {
		return models.PassportData{}, fmt.Errorf("failed to parse date of birth: %w", err)
	}

	doe, err := mrtdDoc.ParseExpiryDate(m.DateOfExpiry, now)
	if err != nil {
		return models.PassportData{}, fmt.Errorf("failed to parse date of expiry: %w", err)
	}

	firstName, lastName := extractNames(m)
	record := mrz.PassportRecord{Surname: lastName, GivenNames: firstName}

	return models.PassportData{
		DocumentNumber: m.DocumentNumber,
		DocumentType:   m.DocumentCode,
		FirstName:      firstName,
		LastName:       lastName,
		FullName:       record.FullName(),
		Nationality:    m.Nationality,
		IsEuCitizen:    mrtdDoc.BoolToYesNo(IsEuCitizen(m.Nationality)),
		DateOfBirth:    dob,
		YearOfBirth:    dob.Format("2006"),
		DateOfExpiry:   doe,
		Gender:         m.Sex,
		Country:        m.IssuingState,
		PersonalNumber: personalNumber,
		Over12:         mrtdDoc.BoolToYesNo(isOver(dob, 12, now)),
		Over16:         mrtdDoc.BoolToYesNo(isOver(dob, 16, now)),
		Over18:         mrtdDoc.BoolToYesNo(isOver(dob, 18, now)),
		Over21:         mrtdDoc.BoolToYesNo(isOver(dob, 21, now)),
		Over65:         mrtdDoc.BoolToYesNo(isOver(dob, 65, now)),
	}, nil
}

// FromRecord converts an accepted scan directly into issuance attributes.
func FromRecord(record mrz.PassportRecord, now time.Time) (models.PassportData, error) {
	return ToPassportData(ToGmrtdMRZ(record), record.PersonalNumber, now)
}

func isOver(dob time.Time, years int, now time.Time) bool {
	return dob.Before(now.AddDate(-years, 0, 0))
}
