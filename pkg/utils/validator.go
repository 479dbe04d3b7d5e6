package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	plateFormat  = regexp.MustCompile(`^[A-Z0-9][A-Z0-9 \-]{1,14}$`)
	vinFormat    = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)
)

// ValidateLicensePlate validates a vehicle license plate
func ValidateLicensePlate(plate string) error {
	if !plateFormat.MatchString(strings.ToUpper(strings.TrimSpace(plate))) {
		return fmt.Errorf("invalid license plate: %q", plate)
	}
	return nil
}

// ValidateVIN validates a vehicle identification number (chassis number).
// An empty VIN is accepted; fleets often register vehicles before the chassis number is known.
func ValidateVIN(vin string) error {
	if vin == "" {
		return nil
	}
	if !vinFormat.MatchString(strings.ToUpper(vin)) {
		return fmt.Errorf("VIN must be 17 characters without I, O or Q: %q", vin)
	}
	return nil
}

// SanitizeString removes control characters and surrounding whitespace
func SanitizeString(s string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(s, ""))
}
