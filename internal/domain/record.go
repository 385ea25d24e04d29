package domain

import (
	"fmt"
	"time"
)

// Field keys as stored in the record store documents. The intake mobile app
// owns this naming; the admin core reads and writes the same keys.
const (
	FieldFirstName         = "firstName"
	FieldLastName          = "lastName"
	FieldFatherName        = "fatherName"
	FieldGender            = "gender"
	FieldDOB               = "dob"
	FieldAddress           = "address"
	FieldEmail             = "email"
	FieldPhoneNumber       = "phoneNumber"
	FieldCitizenshipNumber = "citizenshipNumber"
	FieldLicenseNumber     = "licenseNumber"
	FieldIDIssueDate       = "idIssueDate"
	FieldIDExpiryDate      = "idExpiryDate"
	FieldEmailVerified     = "isEmailVerified"
	FieldDocumentVerified  = "isDocumentVerified"
	FieldSelfieVerified    = "isSelfieVerified"
	FieldLivenessVerified  = "isLivenessVerified"
	FieldCreatedAt         = "createdAt"
	FieldUpdatedAt         = "updatedAt"
)

// DateFields are normalized to the canonical YYYY-MM-DD form on ingest.
var DateFields = map[string]bool{
	FieldDOB:          true,
	FieldIDIssueDate:  true,
	FieldIDExpiryDate: true,
}

// ImmutableFields cannot be changed through the admin update path. Contact
// details are owned by the intake flow; an update containing them has those
// fields silently dropped.
var ImmutableFields = map[string]bool{
	FieldEmail:       true,
	FieldPhoneNumber: true,
}

// MutableFields is the full set an administrator may update.
var MutableFields = map[string]bool{
	FieldFirstName:         true,
	FieldLastName:          true,
	FieldFatherName:        true,
	FieldGender:            true,
	FieldDOB:               true,
	FieldAddress:           true,
	FieldCitizenshipNumber: true,
	FieldLicenseNumber:     true,
	FieldIDIssueDate:       true,
	FieldIDExpiryDate:      true,
	FieldEmailVerified:     true,
	FieldDocumentVerified:  true,
	FieldSelfieVerified:    true,
	FieldLivenessVerified:  true,
}

// RawRecord is one document as the record store hands it over: the owner id
// plus untyped field values. Temporal values may arrive as the store's
// native type or as strings, depending on which client wrote them.
type RawRecord struct {
	OwnerID string
	Fields  map[string]any
}

// VerificationRecord is the normalized directory entry for one end user.
type VerificationRecord struct {
	OwnerID string

	FirstName  string
	LastName   string
	FatherName string
	Gender     string
	Address    string

	Email       string
	PhoneNumber string

	CitizenshipNumber string
	LicenseNumber     string

	// Calendar dates in YYYY-MM-DD form. A value the normalizer could not
	// parse passes through raw so the record stays visible.
	DOB          string
	IDIssueDate  string
	IDExpiryDate string

	EmailVerified    bool
	DocumentVerified bool
	SelfieVerified   bool
	LivenessVerified bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DateLayout is the canonical calendar-date representation.
const DateLayout = "2006-01-02"

// NormalizeDate canonicalizes a store-native temporal value to YYYY-MM-DD.
// It is idempotent: a value already in canonical form is returned verbatim.
// Unparseable values are returned raw; directory visibility takes priority
// over display fidelity for a single field.
func NormalizeDate(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		return t.UTC().Format(DateLayout)
	case string:
		if t == "" {
			return ""
		}
		if _, err := time.Parse(DateLayout, t); err == nil {
			return t
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed.UTC().Format(DateLayout)
			}
		}
		return t
	default:
		return stringify(v)
	}
}

// FromRaw maps a store document onto a VerificationRecord, canonicalizing
// date fields and defaulting absent flags to false.
func FromRaw(raw RawRecord) VerificationRecord {
	f := raw.Fields
	return VerificationRecord{
		OwnerID:           raw.OwnerID,
		FirstName:         str(f[FieldFirstName]),
		LastName:          str(f[FieldLastName]),
		FatherName:        str(f[FieldFatherName]),
		Gender:            str(f[FieldGender]),
		Address:           str(f[FieldAddress]),
		Email:             str(f[FieldEmail]),
		PhoneNumber:       str(f[FieldPhoneNumber]),
		CitizenshipNumber: str(f[FieldCitizenshipNumber]),
		LicenseNumber:     str(f[FieldLicenseNumber]),
		DOB:               NormalizeDate(f[FieldDOB]),
		IDIssueDate:       NormalizeDate(f[FieldIDIssueDate]),
		IDExpiryDate:      NormalizeDate(f[FieldIDExpiryDate]),
		EmailVerified:     boolean(f[FieldEmailVerified]),
		DocumentVerified:  boolean(f[FieldDocumentVerified]),
		SelfieVerified:    boolean(f[FieldSelfieVerified]),
		LivenessVerified:  boolean(f[FieldLivenessVerified]),
		CreatedAt:         instant(f[FieldCreatedAt]),
		UpdatedAt:         instant(f[FieldUpdatedAt]),
	}
}

func str(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return stringify(v)
}

func boolean(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

func instant(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

func stringify(v any) string {
	return fmt.Sprintf("%v", v)
}
