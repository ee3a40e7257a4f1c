package mrz

import (
	"strings"
)

const (
	// LineLength is the width of a TD3 MRZ line.
	LineLength = 44
	// CandidateLength is the minimum length of two concatenated TD3 lines.
	CandidateLength = 2 * LineLength

	Filler          = "<"
	NameSeparator   = "<<"
	line1DataLength = LineLength - 1
)

// PassportRecord is the identity data decoded from a TD3 MRZ. Fields hold the
// raw MRZ text after filler handling and are empty when they could not be decoded.
type PassportRecord struct {
	DocumentType   string `json:"document_type"`
	CountryCode    string `json:"country_code"`
	Surname        string `json:"surname"`
	GivenNames     string `json:"given_names"`
	PassportNumber string `json:"passport_number"`
	Nationality    string `json:"nationality"`
	DateOfBirth    string `json:"date_of_birth"`
	Sex            string `json:"sex"`
	ExpirationDate string `json:"expiration_date"`
	PersonalNumber string `json:"personal_number"`
}

// FullName renders the holder's name as "given names surname".
func (r PassportRecord) FullName() string {
	return strings.TrimSpace(r.GivenNames + " " + r.Surname)
}

// Lines encodes the record back into a pair of 44 character TD3 lines. Check
// digit positions are written as filler.
func (r PassportRecord) Lines() (string, string) {
	name := toFiller(r.Surname)
	if r.GivenNames != "" {
		name += NameSeparator + toFiller(r.GivenNames)
	}

	var line1 strings.Builder
	line1.WriteString(padField(r.DocumentType, 1))
	line1.WriteString(Filler)
	line1.WriteString(padField(r.CountryCode, 3))
	line1.WriteString(padField(name, LineLength-5))

	var line2 strings.Builder
	line2.WriteString(padField(r.PassportNumber, 9))
	line2.WriteString(Filler)
	line2.WriteString(padField(r.Nationality, 3))
	line2.WriteString(padField(r.DateOfBirth, 6))
	line2.WriteString(Filler)
	line2.WriteString(padField(r.Sex, 1))
	line2.WriteString(padField(r.ExpirationDate, 6))
	line2.WriteString(Filler)
	line2.WriteString(padField(r.PersonalNumber, 14))
	line2.WriteString(Filler + Filler)

	return line1.String(), line2.String()
}

func toFiller(s string) string {
	return strings.ReplaceAll(s, " ", Filler)
}

// padField right-pads s with filler to exactly width runes, truncating longer input.
func padField(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return string(runes[:width])
	}
	return s + strings.Repeat(Filler, width-len(runes))
}
