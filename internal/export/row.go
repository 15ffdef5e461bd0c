// Package export formats applicants for pasting into the client
// spreadsheets and for XLSX download.
package export

import (
	"strings"
	"time"

	"recruitment-portal/internal/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Position codes used by the client spreadsheets.
const (
	CodeCollection = "COLLECTION"
	CodeRO         = "RO"
	CodeSO         = "SO"
)

// Columns is the header of the export layout.
var Columns = []string{"Tanggal", "PIC", "Sub Lokasi", "NIK", "Cabang", "Nama", "Posisi", "No HP"}

// Input holds the operator-supplied values of an export.
type Input struct {
	PIC         string `json:"pic" form:"pic"`
	SubLocation string `json:"sub_location" form:"sub_location"`
	Branch      string `json:"branch" form:"branch"`
}

var flatten = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")

// PositionCode derives the short position code by keyword.
func PositionCode(position string) string {
	p := cases.Upper(language.Indonesian).String(position)
	switch {
	case strings.Contains(p, "KOLEKTOR"), strings.Contains(p, "REMEDIAL"):
		return CodeCollection
	case strings.Contains(p, "RELATION"):
		return CodeRO
	default:
		return CodeSO
	}
}

// FormatDate renders t the way the id-ID locale prints a short date.
func FormatDate(t time.Time) string {
	return t.Format("2/1/2006")
}

// Fields returns the export columns of a in layout order, without the
// text-forcing apostrophes.
func Fields(a models.Applicant, in Input, today time.Time) []string {
	return []string{
		FormatDate(today),
		in.PIC,
		in.SubLocation,
		a.NIK,
		in.Branch,
		a.NamaLengkap,
		PositionCode(a.PosisiDilamar),
		a.NoHP,
	}
}

// Row is the tab-separated clipboard line. NIK and phone carry a leading
// apostrophe so spreadsheets keep them as text.
func Row(a models.Applicant, in Input, today time.Time) string {
	f := Fields(a, in, today)
	f[3] = "'" + f[3]
	f[7] = "'" + f[7]
	for i := range f {
		f[i] = flatten.Replace(f[i])
	}
	return strings.Join(f, "\t")
}

// Rows renders one clipboard line per applicant.
func Rows(as []models.Applicant, in Input, today time.Time) string {
	lines := make([]string, 0, len(as))
	for _, a := range as {
		lines = append(lines, Row(a, in, today))
	}
	return strings.Join(lines, "\n")
}
