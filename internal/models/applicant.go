package models

import "time"

const (
	GenderMale   = "Laki-laki"
	GenderFemale = "Perempuan"
)

// EducationLevels lists the accepted values of pendidikan_terakhir.
var EducationLevels = []string{"SD", "SMP", "SMA/SMK", "D3", "S1", "S2"}

// Applicant is one row of the applicants table.
type Applicant struct {
	ID int64 `json:"id"`

	NamaLengkap      string `json:"nama_lengkap"`
	NIK              string `json:"nik"`
	NoHP             string `json:"no_hp"`
	TempatLahir      string `json:"tempat_lahir"`
	TanggalLahir     string `json:"tanggal_lahir"`
	Umur             int    `json:"umur"`
	JenisKelamin     string `json:"jenis_kelamin"`
	StatusPerkawinan string `json:"status_perkawinan"`
	Agama            string `json:"agama"`
	NamaAyah         string `json:"nama_ayah"`
	NamaIbu          string `json:"nama_ibu"`

	AlamatKTP      string `json:"alamat_ktp"`
	AlamatDomisili string `json:"alamat_domisili"`
	RTRW           string `json:"rt_rw"`
	NomorRumah     string `json:"nomor_rumah"`
	Kelurahan      string `json:"kelurahan"`
	Kecamatan      string `json:"kecamatan"`
	Kota           string `json:"kota"`
	KodePos        string `json:"kode_pos"`

	PendidikanTerakhir string `json:"pendidikan_terakhir"`
	NamaSekolah        string `json:"nama_sekolah"`
	Jurusan            string `json:"jurusan"`
	TahunMasuk         string `json:"tahun_masuk"`
	TahunLulus         string `json:"tahun_lulus"`
	IPK                string `json:"ipk"`

	HasPengalamanKerja   bool   `json:"has_pengalaman_kerja"`
	HasPengalamanLeasing bool   `json:"has_pengalaman_leasing"`
	NamaPerusahaan       string `json:"nama_perusahaan"`
	PosisiTerakhir       string `json:"posisi_terakhir"`
	LamaBekerja          string `json:"lama_bekerja"`
	DeskripsiTugas       string `json:"deskripsi_tugas"`

	Assets

	PosisiDilamar string `json:"posisi_dilamar"`
	Penempatan    string `json:"penempatan"`
	AlasanMelamar string `json:"alasan_melamar"`
	CVPath        string `json:"cv_path"`
	KTPPath       string `json:"ktp_path"`

	Status    Status     `json:"status"`
	Catatan   string     `json:"catatan"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Assets is the seven-item document and asset checklist.
type Assets struct {
	KendaraanPribadi   bool `json:"kendaraan_pribadi"`
	KTPAsli            bool `json:"ktp_asli"`
	SIMC               bool `json:"sim_c"`
	SIMA               bool `json:"sim_a"`
	SKCK               bool `json:"skck"`
	NPWP               bool `json:"npwp"`
	RiwayatBurukKredit bool `json:"riwayat_buruk_kredit"`
}

// MetricsRow is the projection used for dashboard charts.
type MetricsRow struct {
	CreatedAt          time.Time `json:"created_at"`
	PendidikanTerakhir string    `json:"pendidikan_terakhir"`
	PosisiDilamar      string    `json:"posisi_dilamar"`
	JenisKelamin       string    `json:"jenis_kelamin"`
}

// ApplicantEdit carries operator changes to an existing applicant. Nil
// fields are left untouched.
type ApplicantEdit struct {
	NamaLengkap        *string `json:"nama_lengkap,omitempty"`
	NoHP               *string `json:"no_hp,omitempty"`
	PosisiDilamar      *string `json:"posisi_dilamar,omitempty"`
	Penempatan         *string `json:"penempatan,omitempty"`
	PendidikanTerakhir *string `json:"pendidikan_terakhir,omitempty"`
	Catatan            *string `json:"catatan,omitempty"`
}
