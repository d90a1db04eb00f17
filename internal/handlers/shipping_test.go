package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sugarsphere/internal/models"
)

func validAddress() models.ShippingAddress {
	return models.ShippingAddress{
		FullName:     "Asha Rao",
		Phone:        "9876543210",
		AddressLine1: "12 MG Road",
		City:         "Bengaluru",
		State:        "Karnataka",
		PostalCode:   "560001",
		Country:      "India",
	}
}

func TestValidateShippingAddressAccepted(t *testing.T) {
	assert.NoError(t, validateShippingAddress(validAddress()))
}

func TestValidateShippingAddressPhone(t *testing.T) {
	addr := validAddress()

	addr.Phone = "12345"
	err := validateShippingAddress(addr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "phone")

	addr.Phone = "98765432101" // 11 digits
	assert.Error(t, validateShippingAddress(addr))

	addr.Phone = "98765abcde"
	assert.Error(t, validateShippingAddress(addr))

	addr.Phone = "9876543210"
	assert.NoError(t, validateShippingAddress(addr))
}

func TestValidateShippingAddressMissingFields(t *testing.T) {
	addr := validAddress()
	addr.City = ""

	err := validateShippingAddress(addr)
	require.Error(t, err)
	assert.Equal(t, "city is required", err.Error())

	var fieldErr shippingFieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "city", fieldErr.Field)
}

func TestValidateShippingAddressLine2Optional(t *testing.T) {
	addr := validAddress()
	addr.AddressLine2 = ""
	assert.NoError(t, validateShippingAddress(addr))
}

func TestNormalizeShippingAddressDefaultsCountry(t *testing.T) {
	addr := validAddress()
	addr.Country = "  "

	assert.Equal(t, "India", normalizeShippingAddress(addr).Country)
}
