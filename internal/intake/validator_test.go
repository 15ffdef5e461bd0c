package intake

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n")
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)
)

// validForm returns a form that passes every check.
func validForm() *Form {
	f := NewForm(DefaultMaxFileBytes, []string{"application/pdf", "image/jpeg", "image/png", "image/webp"})
	f.Applicant.NamaLengkap = "Budi Santoso"
	f.Applicant.NIK = "3171234567890001"
	f.Applicant.NoHP = "081234567890"
	f.PrivacyAccepted = true
	f.CV.Select(&Document{Name: "cv budi.pdf", Data: pdfBytes})
	f.KTP.Select(&Document{Name: "ktp.png", Data: pngBytes})
	return f
}

func TestValidate_ValidForm(t *testing.T) {
	errs, first := Validate(validForm())

	assert.Empty(t, errs)
	assert.Equal(t, "", first)
}

func TestValidate_NIK(t *testing.T) {
	tests := []struct {
		name string
		nik  string
		want string
	}{
		{"empty", "", "NIK wajib diisi"},
		{"too short", "12345", "NIK harus 16 digit (saat ini 5 digit)"},
		{"too long", strings.Repeat("1", 17), "NIK harus 16 digit (saat ini 17 digit)"},
		{"exact", strings.Repeat("1", 16), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForm()
			f.Applicant.NIK = tt.nik
			errs, _ := Validate(f)
			assert.Equal(t, tt.want, errs[FieldNIK])
		})
	}
}

func TestValidate_PhoneLengthBoundaries(t *testing.T) {
	for n := 8; n <= 16; n++ {
		f := validForm()
		f.Applicant.NoHP = strings.Repeat("8", n)
		errs, _ := Validate(f)

		if n >= 10 && n <= 14 {
			assert.NotContains(t, errs, FieldNoHP, "length %d", n)
		} else {
			assert.Equal(t, "Nomor HP harus 10-14 digit", errs[FieldNoHP], "length %d", n)
		}
	}
}

func TestValidate_PhoneRejectsNonDigits(t *testing.T) {
	for _, phone := range []string{"+6281234567890", "0812-3456-789", "0812 3456 7890", "08123456789a"} {
		f := validForm()
		f.Applicant.NoHP = phone
		errs, _ := Validate(f)
		assert.Equal(t, "Nomor HP hanya boleh berisi angka", errs[FieldNoHP], phone)
	}
}

func TestValidate_MissingFilesAndPrivacy(t *testing.T) {
	f := NewForm(DefaultMaxFileBytes, nil)
	f.Applicant.NIK = strings.Repeat("3", 16)
	f.Applicant.NoHP = "081234567890"

	errs, first := Validate(f)

	assert.Equal(t, FieldCV, first)
	assert.Equal(t, "CV wajib diunggah", errs[FieldCV])
	assert.Equal(t, "Foto KTP wajib diunggah", errs[FieldKTP])
	assert.Equal(t, "Anda harus menyetujui kebijakan privasi", errs[FieldPrivacy])
	assert.Equal(t, errs, f.Errors)
}

func TestValidate_FirstFailingFieldFollowsFormOrder(t *testing.T) {
	f := NewForm(DefaultMaxFileBytes, nil)

	errs, first := Validate(f)

	require.Len(t, errs, 5)
	assert.Equal(t, FieldNIK, first)

	f.Applicant.NIK = strings.Repeat("3", 16)
	_, first = Validate(f)
	assert.Equal(t, FieldNoHP, first)

	f.Applicant.NoHP = "081234567890"
	f.PrivacyAccepted = true
	f.CV.Select(&Document{Name: "a.pdf", Data: pdfBytes})
	_, first = Validate(f)
	assert.Equal(t, FieldKTP, first)
}

func TestValidate_RejectedFileReportsGateMessage(t *testing.T) {
	f := validForm()
	f.KTP = NewFileGate(DefaultMaxFileBytes, nil)
	f.KTP.Select(&Document{Name: "big.png", Data: make([]byte, DefaultMaxFileBytes+1)})

	errs, first := Validate(f)

	assert.Equal(t, FieldKTP, first)
	assert.Equal(t, "Ukuran file maksimal 2MB", errs[FieldKTP])
}

func TestErrors_First(t *testing.T) {
	assert.Equal(t, "", Errors{}.First())
	assert.Equal(t, FieldNoHP, Errors{FieldPrivacy: "x", FieldNoHP: "y"}.First())
	assert.Equal(t, "nama_lengkap", Errors{"nama_lengkap": "x"}.First())
}
