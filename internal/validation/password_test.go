package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	// 12 runes: the shortest password that can pass.
	const shortest = "Rock-ae-2026"

	accepted := map[string]string{
		"typical":          "Corr3ct-Horse-Battery",
		"minimum length":   shortest,
		"maximum length":   "R0ck!" + strings.Repeat("a", MaxPasswordLength-5),
		"symbol not punct": "Price+Tag+2026",
		"accented letters": "Éclair-Über-99",
	}
	for name, pw := range accepted {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, ValidatePassword(pw))
		})
	}

	rejected := map[string]string{
		"one rune short":    shortest[:11],
		"one rune too long": "R0ck!" + strings.Repeat("a", MaxPasswordLength-4),
		"no upper case":     "corr3ct-horse-battery",
		"no lower case":     "CORR3CT-HORSE-BATTERY",
		"no digit":          "Correct-Horse-Battery",
		"no symbol":         "Corr3ctHorseBattery",
	}
	for name, pw := range rejected {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, ValidatePassword(pw))
		})
	}
}
