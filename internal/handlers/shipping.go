package handlers

import (
	"fmt"
	"regexp"
	"strings"

	"sugarsphere/internal/models"
)

var phonePattern = regexp.MustCompile(`^\d{10}$`)

type shippingFieldError struct {
	Field  string
	Reason string
}

func (e shippingFieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// validateShippingAddress rejects bad addresses before any external
// call. Country is optional and defaults at normalization time.
func validateShippingAddress(addr models.ShippingAddress) error {
	required := []struct {
		field string
		value string
	}{
		{"fullName", addr.FullName},
		{"phone", addr.Phone},
		{"addressLine1", addr.AddressLine1},
		{"city", addr.City},
		{"state", addr.State},
		{"postalCode", addr.PostalCode},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return shippingFieldError{Field: r.field, Reason: "is required"}
		}
	}

	if !phonePattern.MatchString(strings.TrimSpace(addr.Phone)) {
		return shippingFieldError{Field: "phone", Reason: "must be a 10-digit number"}
	}

	return nil
}

func normalizeShippingAddress(addr models.ShippingAddress) models.ShippingAddress {
	addr.FullName = strings.TrimSpace(addr.FullName)
	addr.Phone = strings.TrimSpace(addr.Phone)
	addr.AddressLine1 = strings.TrimSpace(addr.AddressLine1)
	addr.AddressLine2 = strings.TrimSpace(addr.AddressLine2)
	addr.City = strings.TrimSpace(addr.City)
	addr.State = strings.TrimSpace(addr.State)
	addr.PostalCode = strings.TrimSpace(addr.PostalCode)
	addr.Country = strings.TrimSpace(addr.Country)
	if addr.Country == "" {
		addr.Country = "India"
	}
	return addr
}
