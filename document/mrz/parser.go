package mrz

import (
	"log/slog"
	"strings"
)

// ParseFields decodes line1 (43 characters, the last character of the first
// MRZ line dropped) and line2 (44 characters) of a TD3 MRZ. It never fails:
// a field whose range is not fully present in its line is left empty.
func ParseFields(line1, line2 string) PassportRecord {
	l1 := []rune(line1)
	l2 := []rune(line2)

	surname, givenNames := SplitName(nameField(l1))

	record := PassportRecord{
		DocumentType:   field(l1, 0, 1),
		CountryCode:    field(l1, 2, 5),
		Surname:        surname,
		GivenNames:     givenNames,
		PassportNumber: StripFiller(field(l2, 0, 9)),
		Nationality:    field(l2, 10, 13),
		DateOfBirth:    field(l2, 13, 19),
		Sex:            field(l2, 20, 21),
		ExpirationDate: field(l2, 21, 27),
		PersonalNumber: StripFiller(field(l2, 28, 42)),
	}

	if len(l1) < line1DataLength || len(l2) < 42 {
		slog.Debug("MRZ lines shorter than TD3 layout, decoded partially", "line1_length", len(l1), "line2_length", len(l2))
	}
	return record
}

// SplitName splits the MRZ name field on the "<<" separator. The first part is
// the surname and the second the given names; further parts are trailing
// filler and ignored. Single fillers inside a part become spaces.
func SplitName(nameField string) (surname, givenNames string) {
	if nameField == "" {
		return "", ""
	}

	parts := strings.Split(nameField, NameSeparator)
	surname = cleanName(parts[0])
	if len(parts) > 1 {
		givenNames = cleanName(parts[1])
	}
	return surname, givenNames
}

// StripFiller removes every filler character. Applying it twice equals applying it once.
func StripFiller(s string) string {
	return strings.ReplaceAll(s, Filler, "")
}

func cleanName(s string) string {
	return strings.TrimRight(strings.ReplaceAll(s, Filler, " "), " ")
}

// field returns runes[start:end], or "" when the line does not reach end.
func field(runes []rune, start, end int) string {
	if end > len(runes) {
		return ""
	}
	return string(runes[start:end])
}

// nameField returns line1[5:43], tolerating a shorter line.
func nameField(l1 []rune) string {
	if len(l1) <= 5 {
		return ""
	}
	end := min(len(l1), line1DataLength)
	return string(l1[5:end])
}
