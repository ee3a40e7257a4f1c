package main

import (
	"time"

	"go-passport-scanner/document/mrz"
	"go-passport-scanner/document/passport"
	"go-passport-scanner/models"
)

// abstract interfaces for easier testing

type PassportDataConverter interface {
	ToPassportData(mrz.PassportRecord, time.Time) (models.PassportData, error)
}

// Production implementations

type IssuanceRequestConverterImpl struct{}

func (IssuanceRequestConverterImpl) ToPassportData(record mrz.PassportRecord, now time.Time) (models.PassportData, error) {
	return passport.FromRecord(record, now)
}
