package mrz

import (
	"strings"
	"sync"
	"testing"
	"time"

	"go-passport-scanner/document"

	"github.com/stretchr/testify/require"
)

const (
	// first line without its last character
	doeLine1 = "P<USADOE<<JOHN<<<<<<<<<<<<<<<<<<<<<<<<<<<<<"
	doeLine2 = "L898902C36USA6908061F9406236<<<<<<<<<<<<<<02"

	// ICAO 9303 specimen
	erikssonLine1 = "P<UTOERIKSSON<<ANNA<MARIA<<<<<<<<<<<<<<<<<<<"
	erikssonLine2 = "L898902C36UTO7408122F1204159ZE184226B<<<<<10"

	// 44 characters of unrelated page text
	noiseLine = "HOTEL SUNRISE CHECK IN 2024 06 01 ROOM 123 A"
)

var testNow = time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)

func fullLine(s string) string {
	return s + strings.Repeat(Filler, LineLength-len(s))
}

func TestParseFields(t *testing.T) {
	t.Run("decodes the example passport", func(t *testing.T) {
		record := ParseFields(doeLine1, doeLine2)

		require.Equal(t, PassportRecord{
			DocumentType:   "P",
			CountryCode:    "USA",
			Surname:        "DOE",
			GivenNames:     "JOHN",
			PassportNumber: "L898902C3",
			Nationality:    "USA",
			DateOfBirth:    "690806",
			Sex:            "F",
			ExpirationDate: "940623",
			PersonalNumber: "",
		}, record)
	})

	t.Run("country code is read from fixed offsets", func(t *testing.T) {
		// a line missing a character of the country code shifts the surname
		record := ParseFields("P<USDOE<<JOHN<<<<<<<<<<<<<<<<<<<<<<<<<<<<<", doeLine2)

		require.Equal(t, "USD", record.CountryCode)
		require.Equal(t, "OE", record.Surname)
		require.Equal(t, "JOHN", record.GivenNames)
	})

	t.Run("decodes multi part names and personal number", func(t *testing.T) {
		record := ParseFields(erikssonLine1[:43], erikssonLine2)

		require.Equal(t, "UTO", record.CountryCode)
		require.Equal(t, "ERIKSSON", record.Surname)
		require.Equal(t, "ANNA MARIA", record.GivenNames)
		require.Equal(t, "ZE184226B", record.PersonalNumber)
		require.Equal(t, "740812", record.DateOfBirth)
		require.Equal(t, "120415", record.ExpirationDate)
	})

	t.Run("empty input yields empty fields", func(t *testing.T) {
		require.Equal(t, PassportRecord{}, ParseFields("", ""))
	})

	t.Run("short lines decode partially without panicking", func(t *testing.T) {
		record := ParseFields("P<NLDDE<BRUIJN<<WILLEKE", "XN01BC0150NLD7508")

		require.Equal(t, "P", record.DocumentType)
		require.Equal(t, "NLD", record.CountryCode)
		require.Equal(t, "DE BRUIJN", record.Surname)
		require.Equal(t, "WILLEKE", record.GivenNames)
		require.Equal(t, "XN01BC015", record.PassportNumber)
		require.Equal(t, "NLD", record.Nationality)
		require.Equal(t, "", record.DateOfBirth)
		require.Equal(t, "", record.Sex)
		require.Equal(t, "", record.ExpirationDate)
		require.Equal(t, "", record.PersonalNumber)
	})

	t.Run("non ascii characters are sliced per character", func(t *testing.T) {
		record := ParseFields("P<ÅLAND<<ÖRJAN<<<<<<<<<<<<<<<<<<<<<<<<<<<<", doeLine2)

		require.Equal(t, "ÅLA", record.CountryCode)
		require.Equal(t, "ND", record.Surname)
		require.Equal(t, "ÖRJAN", record.GivenNames)
	})
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		name      string
		field     string
		surname   string
		givenName string
	}{
		{"empty field", "", "", ""},
		{"surname only", "DOE", "DOE", ""},
		{"surname with trailing filler", "DOE<<<<<<", "DOE", ""},
		{"surname and given names", "DOE<<JOHN<<<<", "DOE", "JOHN"},
		{"compound names", "VAN<DER<BERG<<ANNA<MARIA<<<", "VAN DER BERG", "ANNA MARIA"},
		{"given names only", "<<JOHN", "", "JOHN"},
		{"trailing single filler", "DOE<<JOHN<", "DOE", "JOHN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			surname, given := SplitName(tt.field)
			require.Equal(t, tt.surname, surname)
			require.Equal(t, tt.givenName, given)
		})
	}
}

func TestStripFiller(t *testing.T) {
	inputs := []string{"", "<<<", "L898902C3", "ZE184226B<<<<<", "<A<B<"}

	for _, in := range inputs {
		once := StripFiller(in)
		require.NotContains(t, once, Filler)
		require.Equal(t, once, StripFiller(once), "stripping twice must equal stripping once for %q", in)
	}
}

func TestLocate(t *testing.T) {
	t.Run("empty input is not found", func(t *testing.T) {
		_, found := Locate(nil)
		require.False(t, found)

		_, found = Locate([]string{})
		require.False(t, found)
	})

	t.Run("single matching line is not found", func(t *testing.T) {
		_, found := Locate([]string{"PASSPORT", fullLine(doeLine1), "short"})
		require.False(t, found)
	})

	t.Run("concatenates the two matching lines", func(t *testing.T) {
		candidate, found := Locate([]string{fullLine(doeLine1), doeLine2})
		require.True(t, found)
		require.Equal(t, Candidate(fullLine(doeLine1)+doeLine2), candidate)
	})

	t.Run("selects the last two matches and skips noise", func(t *testing.T) {
		lines := []string{
			noiseLine,
			"REPUBLIC OF UTOPIA",
			fullLine(doeLine1),
			"",
			noiseLine,
			erikssonLine1,
			"x",
			erikssonLine2,
			"Signature of bearer",
		}

		candidate, found := Locate(lines)
		require.True(t, found)
		require.Equal(t, Candidate(erikssonLine1+erikssonLine2), candidate)
	})

	t.Run("surrounding whitespace is trimmed before measuring", func(t *testing.T) {
		candidate, found := Locate([]string{"  " + erikssonLine1 + "\t", " " + erikssonLine2})
		require.True(t, found)
		require.Equal(t, Candidate(erikssonLine1+erikssonLine2), candidate)
	})

	t.Run("longer lines are excluded, not truncated", func(t *testing.T) {
		_, found := Locate([]string{erikssonLine1 + "<", erikssonLine2})
		require.False(t, found)
	})
}

func TestSplitLines(t *testing.T) {
	t.Run("splits and trims lines in order", func(t *testing.T) {
		lines := SplitLines(" first \r\nsecond\rthird\n")
		require.Equal(t, []string{"first", "second", "third", ""}, lines)
	})

	t.Run("folds full width characters", func(t *testing.T) {
		lines := SplitLines("Ｐ＜ＵＴＯ")
		require.Equal(t, []string{"P<UTO"}, lines)
	})
}

func TestEvaluate(t *testing.T) {
	t.Run("missing candidate is rejected as not found", func(t *testing.T) {
		verdict := Evaluate("", false, testNow)
		require.Equal(t, OutcomeRejected, verdict.Outcome)
		require.Equal(t, ReasonNotFound, verdict.Reason)
		require.Nil(t, verdict.Record)
	})

	t.Run("short candidate is rejected regardless of content", func(t *testing.T) {
		candidate := Candidate(erikssonLine1 + erikssonLine2[:43])
		verdict := Evaluate(candidate, true, testNow)
		require.Equal(t, OutcomeRejected, verdict.Outcome)
		require.Equal(t, ReasonTooShort, verdict.Reason)

		verdict = Evaluate(Candidate(strings.Repeat("A", 87)), true, testNow)
		require.Equal(t, ReasonTooShort, verdict.Reason)
	})

	t.Run("skips the last character of the first line", func(t *testing.T) {
		line1 := doeLine1 + "X"
		verdict := Evaluate(Candidate(line1+doeLine2), true, testNow)
		require.True(t, verdict.Accepted())
		require.Equal(t, "JOHN", verdict.Record.GivenNames)
	})

	t.Run("expired passport is accepted with expired status", func(t *testing.T) {
		verdict := Evaluate(Candidate(fullLine(doeLine1)+doeLine2), true, testNow)

		require.True(t, verdict.Accepted())
		require.Empty(t, verdict.Reason)
		require.Equal(t, "L898902C3", verdict.Record.PassportNumber)
		require.False(t, verdict.IsExpired)
		require.Equal(t, document.ExpiryExpired, verdict.Expiry)
	})

	t.Run("valid passport reports IsExpired true", func(t *testing.T) {
		record := PassportRecord{DocumentType: "P", CountryCode: "NLD", Surname: "JANSEN", ExpirationDate: "300101"}
		line1, line2 := record.Lines()

		verdict := Evaluate(Candidate(line1+line2), true, testNow)
		require.True(t, verdict.Accepted())
		require.True(t, verdict.IsExpired)
		require.Equal(t, document.ExpiryValid, verdict.Expiry)
	})

	t.Run("unparsable expiry is unknown", func(t *testing.T) {
		record := PassportRecord{DocumentType: "P", ExpirationDate: "3O0I01"}
		line1, line2 := record.Lines()

		verdict := Evaluate(Candidate(line1+line2), true, testNow)
		require.True(t, verdict.Accepted())
		require.False(t, verdict.IsExpired)
		require.Equal(t, document.ExpiryUnknown, verdict.Expiry)
	})
}

func TestLocateAndParse(t *testing.T) {
	t.Run("empty input is not found", func(t *testing.T) {
		verdict := LocateAndParse(nil, testNow)
		require.Equal(t, ReasonNotFound, verdict.Reason)
	})

	t.Run("fewer than two matching lines is not found", func(t *testing.T) {
		verdict := LocateAndParse([]string{noiseLine, "P<USA", doeLine2[:40]}, testNow)
		require.Equal(t, OutcomeRejected, verdict.Outcome)
		require.Equal(t, ReasonNotFound, verdict.Reason)
	})

	t.Run("decodes MRZ from recognized text", func(t *testing.T) {
		text := "PASSPORT\nUnited States of America\n" + fullLine(doeLine1) + "\n" + doeLine2 + "\n"

		verdict := LocateAndParse(SplitLines(text), testNow)
		require.True(t, verdict.Accepted())
		require.Equal(t, "DOE", verdict.Record.Surname)
		require.Equal(t, "USA", verdict.Record.CountryCode)
	})

	t.Run("round trip reproduces the record", func(t *testing.T) {
		records := []PassportRecord{
			{
				DocumentType:   "P",
				CountryCode:    "NLD",
				Surname:        "DE BRUIJN",
				GivenNames:     "WILLEKE LISELOTTE",
				PassportNumber: "SPECI2014",
				Nationality:    "NLD",
				DateOfBirth:    "650310",
				Sex:            "F",
				ExpirationDate: "240309",
				PersonalNumber: "999999990",
			},
			{
				DocumentType:   "P",
				CountryCode:    "D<<",
				Surname:        "MUSTERMANN",
				GivenNames:     "ERIKA",
				PassportNumber: "C01X00T47",
				Nationality:    "D<<",
				DateOfBirth:    "640812",
				Sex:            "F",
				ExpirationDate: "320226",
			},
		}

		for _, record := range records {
			line1, line2 := record.Lines()
			require.Len(t, line1, LineLength)
			require.Len(t, line2, LineLength)

			verdict := LocateAndParse([]string{line1, line2}, testNow)
			require.True(t, verdict.Accepted())
			require.Equal(t, record, *verdict.Record)
		}
	})
}

func TestFullName(t *testing.T) {
	require.Equal(t, "ANNA MARIA ERIKSSON", PassportRecord{Surname: "ERIKSSON", GivenNames: "ANNA MARIA"}.FullName())
	require.Equal(t, "ERIKSSON", PassportRecord{Surname: "ERIKSSON"}.FullName())
}

func TestLatch(t *testing.T) {
	valid := []string{erikssonLine1, erikssonLine2}

	t.Run("rejected frames do not latch", func(t *testing.T) {
		var latch Latch
		verdict := latch.Offer([]string{noiseLine}, testNow)
		require.False(t, verdict.Accepted())

		_, ok := latch.Accepted()
		require.False(t, ok)
	})

	t.Run("accepted verdict survives later noisy frames", func(t *testing.T) {
		var latch Latch
		first := latch.Offer(valid, testNow)
		require.True(t, first.Accepted())

		second := latch.Offer([]string{noiseLine}, testNow)
		require.True(t, second.Accepted())
		require.Equal(t, first, second)

		other := LocateAndParse([]string{fullLine(doeLine1), doeLine2}, testNow)
		require.Equal(t, first, latch.Keep(other))
	})

	t.Run("reset allows a new scan", func(t *testing.T) {
		var latch Latch
		latch.Offer(valid, testNow)
		latch.Reset()

		_, ok := latch.Accepted()
		require.False(t, ok)
	})

	t.Run("concurrent offers latch a single verdict", func(t *testing.T) {
		var latch Latch
		var wg sync.WaitGroup
		results := make([]Verdict, 20)

		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if i%2 == 0 {
					results[i] = latch.Offer(valid, testNow)
				} else {
					results[i] = latch.Offer([]string{fullLine(doeLine1), doeLine2}, testNow)
				}
			}(i)
		}
		wg.Wait()

		held, ok := latch.Accepted()
		require.True(t, ok)
		for _, result := range results {
			require.Equal(t, held, result)
		}
	})
}
