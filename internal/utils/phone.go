package utils

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is assumed for numbers written without a country code.
const DefaultRegion = "RO"

// NormalizePhoneNumber normalizes a phone number to E.164 format,
// assuming DefaultRegion when no country code is provided.
func NormalizePhoneNumber(phone string) (string, error) {
	return NormalizePhoneNumberIn(phone, DefaultRegion)
}

// NormalizePhoneNumberIn normalizes a phone number to E.164 format,
// reading national numbers as belonging to region (ISO 3166-1 alpha-2).
func NormalizePhoneNumberIn(phone, region string) (string, error) {
	phone = strings.TrimSpace(phone)
	if region == "" {
		region = DefaultRegion
	}

	num, err := phonenumbers.Parse(phone, strings.ToUpper(region))
	if err != nil {
		return "", err
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", phonenumbers.ErrNotANumber
	}

	// e.g. +40721234567
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
