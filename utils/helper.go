package utils

import (
	"regexp"
)

func IsValidEmail(email string) bool {
	// Basic email validation regex pattern
	pattern := `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	regex := regexp.MustCompile(pattern)
	return regex.MatchString(email)
}

// Barcodes are 8-14 digits (EAN-8 .. GTIN-14).
var barcodePattern = regexp.MustCompile(`^[0-9]{8,14}$`)

func IsValidBarcode(barcode string) bool {
	return barcodePattern.MatchString(barcode)
}
