package flow

import (
	"regexp"
	"strings"

	"github.com/joyboxhq/funnel/internal/domain"
	"github.com/joyboxhq/funnel/internal/errors"
)

// Bengaluru pincodes share this prefix. Other regions may join the waitlist
// but cannot sign up for delivery yet.
const servedPincodePrefix = "56"

var (
	nonDigits     = regexp.MustCompile(`\D`)
	pincodeFormat = regexp.MustCompile(`^\d{6}$`)
)

// normalizePhone strips every non-digit character before validation, so
// "+91 98765-43210" and "9876543210" are treated the same.
func normalizePhone(raw string) string {
	return nonDigits.ReplaceAllString(raw, "")
}

func validateContact(c domain.ContactInfo) (domain.ContactInfo, error) {
	c.ParentName = strings.TrimSpace(c.ParentName)
	if c.ParentName == "" {
		return c, errors.New(errors.CodeInvalidArgument,
			errors.WithField("parent_name"),
			errors.WithMessagef("Please tell us the parent's name"))
	}

	c.WhatsappNumber = normalizePhone(c.WhatsappNumber)
	if len(c.WhatsappNumber) != 10 {
		return c, errors.New(errors.CodeInvalidArgument,
			errors.WithField("whatsapp_number"),
			errors.WithMessagef("Please enter a valid 10-digit WhatsApp number"))
	}

	c.Pincode = strings.TrimSpace(c.Pincode)
	if !pincodeFormat.MatchString(c.Pincode) {
		return c, errors.New(errors.CodeInvalidArgument,
			errors.WithField("pincode"),
			errors.WithMessagef("Please enter a valid 6-digit pincode"))
	}

	// Well-formed but unserved: distinct message, still a validation reject.
	if !strings.HasPrefix(c.Pincode, servedPincodePrefix) {
		return c, errors.New(errors.CodeInvalidArgument,
			errors.WithField("pincode"),
			errors.WithMessagef("We currently deliver only in Bengaluru"))
	}

	if c.ChildAge != nil && (*c.ChildAge < 0 || *c.ChildAge > 15) {
		return c, errors.New(errors.CodeInvalidArgument,
			errors.WithField("child_age"),
			errors.WithMessagef("Child age must be between 0 and 15"))
	}

	return c, nil
}
