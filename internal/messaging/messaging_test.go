package messaging

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplates_AllFiveInOrder(t *testing.T) {
	var ids []TemplateID
	for _, tpl := range Templates() {
		ids = append(ids, tpl.ID)
	}
	assert.Equal(t, []TemplateID{TemplateInterview, TemplateLolos, TemplateDokumen, TemplateTolak, TemplateCustom}, ids)
}

func TestDraft_FillsNameAndPosition(t *testing.T) {
	for _, id := range []TemplateID{TemplateInterview, TemplateLolos, TemplateDokumen, TemplateTolak} {
		text, err := Draft(id, "Siti", "SALES OFFICER")
		require.NoError(t, err)
		assert.Contains(t, text, "Siti", id)
		assert.Contains(t, text, "SALES OFFICER", id)
	}

	text, err := Draft(TemplateCustom, "Siti", "SALES OFFICER")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "Halo Siti"))
	assert.NotContains(t, text, "SALES OFFICER")
}

func TestDraft_Unknown(t *testing.T) {
	_, err := Draft("promo", "Siti", "SO")
	assert.Error(t, err)
}

func TestNormalizePhone(t *testing.T) {
	tests := map[string]string{
		"081234567890":     "6281234567890",
		"0812-3456-7890":   "6281234567890",
		"+62 812 3456 789": "628123456789",
		"6281234567890":    "6281234567890",
		"":                 "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizePhone(in), in)
	}
}

func TestWhatsAppLink(t *testing.T) {
	link, err := WhatsAppLink("0812 3456 7890", "Halo Budi & tim,\nsampai jumpa")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(link, "https://api.whatsapp.com/send?phone=6281234567890&text="))

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "Halo Budi & tim,\nsampai jumpa", u.Query().Get("text"))

	_, err = WhatsAppLink("n/a", "x")
	assert.Error(t, err)
}

func TestWhatsAppLink_EncodesLikeURIComponent(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Halo Budi, posisi A+B", "Halo%20Budi%2C%20posisi%20A%2BB"},
		{"(wajib) hadir!", "(wajib)%20hadir!"},
		{"jam 09.00 ~ 10.00 * WIB", "jam%2009.00%20~%2010.00%20*%20WIB"},
		{"100% don't", "100%25%20don't"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			link, err := WhatsAppLink("081234567890", tt.text)
			require.NoError(t, err)
			assert.Equal(t, "https://api.whatsapp.com/send?phone=6281234567890&text="+tt.want, link)
		})
	}
}
