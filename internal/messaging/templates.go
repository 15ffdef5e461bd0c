// Package messaging renders the WhatsApp message templates offered to
// operators and builds the deep links that open them.
package messaging

import (
	"fmt"
	"strings"
)

// TemplateID identifies one of the fixed templates.
type TemplateID string

const (
	TemplateInterview TemplateID = "interview"
	TemplateLolos     TemplateID = "lolos"
	TemplateDokumen   TemplateID = "dokumen"
	TemplateTolak     TemplateID = "tolak"
	TemplateCustom    TemplateID = "custom"
)

// Template is a message skeleton filled from the applicant name and the
// applied position.
type Template struct {
	ID     TemplateID                         `json:"id"`
	Label  string                             `json:"label"`
	Render func(name, position string) string `json:"-"`
}

var templates = []Template{
	{
		ID:    TemplateInterview,
		Label: "Undangan Interview",
		Render: func(name, position string) string {
			return fmt.Sprintf("Halo %s,\n\nTerima kasih telah melamar posisi %s. "+
				"Kami mengundang Anda untuk mengikuti sesi interview. "+
				"Mohon konfirmasi ketersediaan Anda dengan membalas pesan ini.\n\nSalam,\nTim Rekrutmen", name, position)
		},
	},
	{
		ID:    TemplateLolos,
		Label: "Lolos Seleksi Berkas",
		Render: func(name, position string) string {
			return fmt.Sprintf("Halo %s,\n\nSelamat! Anda dinyatakan lolos seleksi berkas untuk posisi %s. "+
				"Informasi tahap selanjutnya akan kami sampaikan segera.\n\nSalam,\nTim Rekrutmen", name, position)
		},
	},
	{
		ID:    TemplateDokumen,
		Label: "Permintaan Dokumen",
		Render: func(name, position string) string {
			return fmt.Sprintf("Halo %s,\n\nTerkait lamaran Anda untuk posisi %s, "+
				"mohon kirimkan ulang CV dan foto KTP dengan kualitas yang lebih jelas agar dapat kami proses.\n\nSalam,\nTim Rekrutmen", name, position)
		},
	},
	{
		ID:    TemplateTolak,
		Label: "Belum Lolos",
		Render: func(name, position string) string {
			return fmt.Sprintf("Halo %s,\n\nTerima kasih atas minat Anda pada posisi %s. "+
				"Setelah pertimbangan, saat ini kami belum dapat melanjutkan lamaran Anda. "+
				"Semoga sukses untuk langkah Anda berikutnya.\n\nSalam,\nTim Rekrutmen", name, position)
		},
	},
	{
		ID:    TemplateCustom,
		Label: "Pesan Bebas",
		Render: func(name, _ string) string {
			return fmt.Sprintf("Halo %s,\n\n", name)
		},
	},
}

// Templates lists every template in menu order.
func Templates() []Template {
	out := make([]Template, len(templates))
	copy(out, templates)
	return out
}

// Lookup finds a template by id.
func Lookup(id TemplateID) (Template, bool) {
	for _, t := range templates {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

// Draft seeds the editable message text of template id.
func Draft(id TemplateID, name, position string) (string, error) {
	t, ok := Lookup(id)
	if !ok {
		return "", fmt.Errorf("unknown template %q", id)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Kandidat"
	}
	position = strings.TrimSpace(position)
	if position == "" {
		position = "yang Anda lamar"
	}
	return t.Render(name, position), nil
}
