package validators

import (
	"encoding/json"
	"errors"
)

const ScanTypeMaxLength = 64

var (
	ErrScanTypeRequired = errors.New("no scan type provided")
	ErrScanTypeTooLong  = errors.New("scan type is longer than 64 characters")
	ErrThreatsNegative  = errors.New("negative threat count provided")
	ErrDurationNegative = errors.New("negative scan duration provided")
	ErrScanResults      = errors.New("scan results are not valid JSON")
)

func ScanValidator(scanType string, threatsFound int, duration *int64, results json.RawMessage) error {
	if scanType == "" {
		return ErrScanTypeRequired
	}

	if len(scanType) > ScanTypeMaxLength {
		return ErrScanTypeTooLong
	}

	if threatsFound < 0 {
		return ErrThreatsNegative
	}

	if duration != nil && *duration < 0 {
		return ErrDurationNegative
	}

	if len(results) > 0 && !json.Valid(results) {
		return ErrScanResults
	}

	return nil
}
