package intake

import (
	"fmt"
	"unicode/utf8"
)

// Form field keys reported in validation errors.
const (
	FieldNIK     = "nik"
	FieldNoHP    = "no_hp"
	FieldCV      = "cv"
	FieldKTP     = "ktp"
	FieldPrivacy = "privacy"
)

const (
	nikLength      = 16
	phoneMinDigits = 10
	phoneMaxDigits = 14
)

// fieldOrder is the order fields appear on the form; the first failing one
// is the field the client should focus.
var fieldOrder = []string{FieldNIK, FieldNoHP, FieldCV, FieldKTP, FieldPrivacy}

// Errors maps a field key to its user-facing message.
type Errors map[string]string

// First returns the earliest failing field in form order, or "" when valid.
func (e Errors) First() string {
	for _, f := range fieldOrder {
		if _, ok := e[f]; ok {
			return f
		}
	}
	for f := range e {
		return f
	}
	return ""
}

func validateNIK(nik string) string {
	if nik == "" {
		return "NIK wajib diisi"
	}
	if n := utf8.RuneCountInString(nik); n != nikLength {
		return fmt.Sprintf("NIK harus %d digit (saat ini %d digit)", nikLength, n)
	}
	return ""
}

func validatePhone(phone string) string {
	if phone == "" {
		return "Nomor HP wajib diisi"
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return "Nomor HP hanya boleh berisi angka"
		}
	}
	if n := len(phone); n < phoneMinDigits || n > phoneMaxDigits {
		return fmt.Sprintf("Nomor HP harus %d-%d digit", phoneMinDigits, phoneMaxDigits)
	}
	return ""
}

// requireFile reports the gate's last rejection when nothing was accepted.
func requireFile(g *FileGate, missing string) string {
	if g.Current() != nil {
		return ""
	}
	if msg := g.Err(); msg != "" {
		return msg
	}
	return missing
}

// Validate checks submit eligibility, replaces f.Errors with the result and
// returns it together with the first failing field.
func Validate(f *Form) (Errors, string) {
	errs := Errors{}
	if msg := validateNIK(f.Applicant.NIK); msg != "" {
		errs[FieldNIK] = msg
	}
	if msg := validatePhone(f.Applicant.NoHP); msg != "" {
		errs[FieldNoHP] = msg
	}
	if msg := requireFile(f.CV, "CV wajib diunggah"); msg != "" {
		errs[FieldCV] = msg
	}
	if msg := requireFile(f.KTP, "Foto KTP wajib diunggah"); msg != "" {
		errs[FieldKTP] = msg
	}
	if !f.PrivacyAccepted {
		errs[FieldPrivacy] = "Anda harus menyetujui kebijakan privasi"
	}
	f.Errors = errs
	return errs, errs.First()
}
