package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "Sea view villa", SanitizeString("  <b>Sea view</b> villa "))
	assert.Equal(t, "3BHK &amp; garden", SanitizeString("3BHK & garden"))
	assert.Equal(t, "", SanitizeString(`<img src="x" onerror="alert(1)">`))
}

func TestValidateStringLength(t *testing.T) {
	assert.NoError(t, ValidateStringLength("Loft", 1, 10))
	assert.Error(t, ValidateStringLength("   ", 1, 10))
	assert.Error(t, ValidateStringLength("a very long title", 1, 5))
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "New Delhi", Title("  new   DELHI "))
	assert.Equal(t, "", Title(""))
}
