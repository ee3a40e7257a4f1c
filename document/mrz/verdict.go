package mrz

import (
	"log/slog"
	"time"

	"go-passport-scanner/document"
)

// Outcome tells whether a run produced a usable record.
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
)

// Reason explains a rejected verdict. Both reasons are retry signals: the
// caller is expected to run the pipeline again on the next recognized text.
type Reason string

const (
	ReasonNotFound Reason = "not_found"
	ReasonTooShort Reason = "too_short"
)

// Verdict is the result of one locate-parse-validate run.
//
// IsExpired carries document.IsExpired as is: true while the document is still
// valid. Expiry is the unambiguous status and is ExpiryUnknown when the
// expiration date could not be parsed.
type Verdict struct {
	Outcome   Outcome               `json:"outcome"`
	Reason    Reason                `json:"reason,omitempty"`
	Record    *PassportRecord       `json:"record,omitempty"`
	IsExpired bool                  `json:"is_expired"`
	Expiry    document.ExpiryStatus `json:"expiry,omitempty"`
}

// Accepted reports whether the verdict carries a decoded record.
func (v Verdict) Accepted() bool {
	return v.Outcome == OutcomeAccepted
}

func rejected(reason Reason) Verdict {
	return Verdict{Outcome: OutcomeRejected, Reason: reason}
}

// Evaluate applies the length gate to a located candidate, decodes it and
// resolves its expiry against now.
func Evaluate(candidate Candidate, found bool, now time.Time) Verdict {
	if !found {
		return rejected(ReasonNotFound)
	}

	runes := []rune(string(candidate))
	if len(runes) < CandidateLength {
		slog.Debug("MRZ candidate too short", "length", len(runes))
		return rejected(ReasonTooShort)
	}

	// index 43 (last character of the first line) carries no field data
	line1 := string(runes[:line1DataLength])
	line2 := string(runes[LineLength:CandidateLength])

	record := ParseFields(line1, line2)
	isExpired, expiry := document.ExpiryStatusOf(record.ExpirationDate, now)
	if expiry == document.ExpiryUnknown {
		slog.Warn("Could not resolve expiration date", "expiration_date", record.ExpirationDate)
	}

	slog.Debug("MRZ accepted", "document_type", record.DocumentType, "country_code", record.CountryCode, "expiry", expiry)
	return Verdict{
		Outcome:   OutcomeAccepted,
		Record:    &record,
		IsExpired: isExpired,
		Expiry:    expiry,
	}
}

// LocateAndParse runs the full pipeline over the lines of a recognized text
// block. It is stateless and safe for concurrent use.
func LocateAndParse(lines []string, now time.Time) Verdict {
	candidate, found := Locate(lines)
	return Evaluate(candidate, found, now)
}
