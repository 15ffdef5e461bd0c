package intake

import (
	"fmt"
	"strconv"
	"strings"

	"recruitment-portal/internal/models"
)

// Form is the state of one application while it is being filled in.
// Editing a field clears that field's error without re-validating.
type Form struct {
	Applicant       models.Applicant
	UmurText        string
	PrivacyAccepted bool
	CV              *FileGate
	KTP             *FileGate
	Errors          Errors
}

// NewForm returns an empty form whose file inputs share one size ceiling.
func NewForm(maxFileBytes int64, allowedTypes []string) *Form {
	return &Form{
		CV:     NewFileGate(maxFileBytes, allowedTypes),
		KTP:    NewFileGate(maxFileBytes, allowedTypes),
		Errors: Errors{},
	}
}

var textFields = map[string]func(a *models.Applicant) *string{
	"nama_lengkap":        func(a *models.Applicant) *string { return &a.NamaLengkap },
	"nik":                 func(a *models.Applicant) *string { return &a.NIK },
	"no_hp":               func(a *models.Applicant) *string { return &a.NoHP },
	"tempat_lahir":        func(a *models.Applicant) *string { return &a.TempatLahir },
	"tanggal_lahir":       func(a *models.Applicant) *string { return &a.TanggalLahir },
	"jenis_kelamin":       func(a *models.Applicant) *string { return &a.JenisKelamin },
	"status_perkawinan":   func(a *models.Applicant) *string { return &a.StatusPerkawinan },
	"agama":               func(a *models.Applicant) *string { return &a.Agama },
	"nama_ayah":           func(a *models.Applicant) *string { return &a.NamaAyah },
	"nama_ibu":            func(a *models.Applicant) *string { return &a.NamaIbu },
	"alamat_ktp":          func(a *models.Applicant) *string { return &a.AlamatKTP },
	"alamat_domisili":     func(a *models.Applicant) *string { return &a.AlamatDomisili },
	"rt_rw":               func(a *models.Applicant) *string { return &a.RTRW },
	"nomor_rumah":         func(a *models.Applicant) *string { return &a.NomorRumah },
	"kelurahan":           func(a *models.Applicant) *string { return &a.Kelurahan },
	"kecamatan":           func(a *models.Applicant) *string { return &a.Kecamatan },
	"kota":                func(a *models.Applicant) *string { return &a.Kota },
	"kode_pos":            func(a *models.Applicant) *string { return &a.KodePos },
	"pendidikan_terakhir": func(a *models.Applicant) *string { return &a.PendidikanTerakhir },
	"nama_sekolah":        func(a *models.Applicant) *string { return &a.NamaSekolah },
	"jurusan":             func(a *models.Applicant) *string { return &a.Jurusan },
	"tahun_masuk":         func(a *models.Applicant) *string { return &a.TahunMasuk },
	"tahun_lulus":         func(a *models.Applicant) *string { return &a.TahunLulus },
	"ipk":                 func(a *models.Applicant) *string { return &a.IPK },
	"nama_perusahaan":     func(a *models.Applicant) *string { return &a.NamaPerusahaan },
	"posisi_terakhir":     func(a *models.Applicant) *string { return &a.PosisiTerakhir },
	"lama_bekerja":        func(a *models.Applicant) *string { return &a.LamaBekerja },
	"deskripsi_tugas":     func(a *models.Applicant) *string { return &a.DeskripsiTugas },
	"posisi_dilamar":      func(a *models.Applicant) *string { return &a.PosisiDilamar },
	"penempatan":          func(a *models.Applicant) *string { return &a.Penempatan },
	"alasan_melamar":      func(a *models.Applicant) *string { return &a.AlasanMelamar },
}

var boolFields = map[string]func(a *models.Applicant) *bool{
	"has_pengalaman_leasing": func(a *models.Applicant) *bool { return &a.HasPengalamanLeasing },
	"kendaraan_pribadi":      func(a *models.Applicant) *bool { return &a.KendaraanPribadi },
	"ktp_asli":               func(a *models.Applicant) *bool { return &a.KTPAsli },
	"sim_c":                  func(a *models.Applicant) *bool { return &a.SIMC },
	"sim_a":                  func(a *models.Applicant) *bool { return &a.SIMA },
	"skck":                   func(a *models.Applicant) *bool { return &a.SKCK },
	"npwp":                   func(a *models.Applicant) *bool { return &a.NPWP },
	"riwayat_buruk_kredit":   func(a *models.Applicant) *bool { return &a.RiwayatBurukKredit },
}

// IsBoolField reports whether key names a checkbox input.
func IsBoolField(key string) bool {
	_, ok := boolFields[key]
	return ok || key == "has_pengalaman_kerja" || key == FieldPrivacy
}

// SetText assigns a text input and clears its error. NIK and phone are kept
// verbatim so padded input fails their digit rules.
func (f *Form) SetText(key, value string) error {
	if key != FieldNIK && key != FieldNoHP {
		value = strings.TrimSpace(value)
	}
	switch key {
	case "umur":
		f.UmurText = value
	default:
		field, ok := textFields[key]
		if !ok {
			return fmt.Errorf("unknown form field %q", key)
		}
		*field(&f.Applicant) = value
	}
	delete(f.Errors, key)
	return nil
}

// SetBool assigns a checkbox. Turning work experience off also clears the
// leasing-experience flag.
func (f *Form) SetBool(key string, value bool) error {
	switch key {
	case "has_pengalaman_kerja":
		f.Applicant.HasPengalamanKerja = value
		if !value {
			f.Applicant.HasPengalamanLeasing = false
		}
	case FieldPrivacy:
		f.PrivacyAccepted = value
	default:
		field, ok := boolFields[key]
		if !ok {
			return fmt.Errorf("unknown form field %q", key)
		}
		*field(&f.Applicant) = value
	}
	delete(f.Errors, key)
	return nil
}

// SelectFile routes doc to the CV or KTP gate. A rejected file leaves the
// previous selection in place and records the gate's message.
func (f *Form) SelectFile(key string, doc *Document) error {
	var gate *FileGate
	switch key {
	case FieldCV:
		gate = f.CV
	case FieldKTP:
		gate = f.KTP
	default:
		return fmt.Errorf("unknown file field %q", key)
	}
	if msg := gate.Select(doc); msg != "" {
		f.Errors[key] = msg
		return nil
	}
	delete(f.Errors, key)
	return nil
}

// Umur coerces the age input to a number; unparseable input becomes 0.
func (f *Form) Umur() int {
	n, err := strconv.Atoi(f.UmurText)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ParseBool accepts the values browsers and API clients send for checkboxes.
func ParseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes", "ya":
		return true
	}
	return false
}

// Fill assigns submitted text and checkbox values. Unknown keys are
// ignored; absent checkboxes stay false.
func (f *Form) Fill(values map[string][]string) {
	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		v := vals[len(vals)-1]
		if IsBoolField(key) {
			_ = f.SetBool(key, ParseBool(v))
			continue
		}
		_ = f.SetText(key, v)
	}
	// Work experience decides leasing experience regardless of key order.
	if !f.Applicant.HasPengalamanKerja {
		f.Applicant.HasPengalamanLeasing = false
	}
}
