package masking

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestMaskValue(t *testing.T) {
	assert.Equal(t, "", MaskValue("  "))
	assert.Equal(t, "****", MaskValue("1234"))
	assert.Equal(t, "****9012", MaskValue("123456789012"))
}

func TestMaskValueKeepsMultiByteRunesWhole(t *testing.T) {
	masked := MaskValue("अनिल.कुमार@example.in")
	assert.Equal(t, "****e.in", masked)

	masked = MaskValue("ज़ाहिद लोन")
	assert.True(t, utf8.ValidString(masked))
	assert.Equal(t, "**** लोन", masked)
	assert.Equal(t, "****", MaskValue("लोन"))
}

func TestMaskMetadataOnlyTouchesSensitiveKeys(t *testing.T) {
	mobile := "9876543210"
	masked := MaskMetadata(map[string]any{
		"nationalId": "123456789012",
		"name":       "Asha Bhat",
		"mobile":     &mobile,
		"client": map[string]any{
			"taxId": "ABCTY1234D",
			"name":  "ABC Trading Corp",
		},
		"vehicles": []any{"JK01AB1234"},
		"":         "dropped",
	})

	assert.Equal(t, "****9012", masked["nationalId"])
	assert.Equal(t, "Asha Bhat", masked["name"])
	assert.Equal(t, "****3210", masked["mobile"])
	client := masked["client"].(map[string]any)
	assert.Equal(t, "****234D", client["taxId"])
	assert.Equal(t, "ABC Trading Corp", client["name"])
	assert.Equal(t, []any{"JK01AB1234"}, masked["vehicles"])
	assert.NotContains(t, masked, "")
}
