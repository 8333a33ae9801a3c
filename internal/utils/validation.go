package utils

import (
	"errors"
	"regexp"
)

// Alphanumeric, underscore, hyphen, dot and colon, as found in transit ids
var validIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_.:-]+$`)

// ValidateID validates that an ID is safe and within reasonable limits
func ValidateID(id string) error {
	if id == "" {
		return errors.New("id cannot be empty")
	}
	if len(id) > 100 {
		return errors.New("id too long (max 100 characters)")
	}
	if !validIDPattern.MatchString(id) {
		return errors.New("id contains invalid characters")
	}
	return nil
}

// ValidateIDs checks every named id and collects the failures by field name.
// Empty optional ids are skipped; required ids must be present.
func ValidateIDs(required map[string]string, optional map[string]string) map[string][]string {
	fieldErrors := make(map[string][]string)
	for field, id := range required {
		if err := ValidateID(id); err != nil {
			fieldErrors[field] = append(fieldErrors[field], err.Error())
		}
	}
	for field, id := range optional {
		if id == "" {
			continue
		}
		if err := ValidateID(id); err != nil {
			fieldErrors[field] = append(fieldErrors[field], err.Error())
		}
	}
	if len(fieldErrors) == 0 {
		return nil
	}
	return fieldErrors
}
