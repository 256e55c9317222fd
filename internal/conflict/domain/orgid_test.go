package domain

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveOrgIDIsDeterministic(t *testing.T) {
	a := DeriveOrgID("Public Works Department", "PWD-SGR-01", "PWD/2024/117")
	b := DeriveOrgID("Public Works Department", "PWD-SGR-01", "PWD/2024/117")
	assert.Equal(t, a, b)
	assert.Regexp(t, regexp.MustCompile(`^[0-9A-F]{16}$`), a)
}

func TestDeriveOrgIDChangesWithEachInput(t *testing.T) {
	base := DeriveOrgID("Public Works Department", "PWD-SGR-01", "PWD/2024/117")
	assert.NotEqual(t, base, DeriveOrgID("Public Works Dept", "PWD-SGR-01", "PWD/2024/117"))
	assert.NotEqual(t, base, DeriveOrgID("Public Works Department", "PWD-SGR-02", "PWD/2024/117"))
	assert.NotEqual(t, base, DeriveOrgID("Public Works Department", "PWD-SGR-01", "PWD/2024/118"))
}
