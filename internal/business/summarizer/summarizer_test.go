package summarizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateWords(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want string
	}{
		{"within limit", "  Pente modérée  ", 12, "Pente modérée"},
		{"exact limit", "one two three", 3, "one two three"},
		{"over limit", "one two three four five", 3, "one two three…"},
		{"dangling comma", "Zone bruit, degré III, vérifier isolation", 2, "Zone bruit…"},
		{"dangling semicolon", "a b; c d", 2, "a b…"},
		{"default limit", strings.Repeat("mot ", 20), 0, strings.TrimSpace(strings.Repeat("mot ", 12)) + "…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateWords(tt.text, tt.max))
		})
	}
}

func TestTruncateWords_NeverExceedsLimit(t *testing.T) {
	text := "Secteur de protection des eaux S2, constructions soumises à autorisation cantonale, forages interdits, stockage limité"
	for max := 1; max <= 15; max++ {
		out := TruncateWords(text, max)
		assert.LessOrEqual(t, WordCount(out), max)
		if WordCount(text) > max {
			assert.True(t, strings.HasSuffix(out, Ellipsis))
			assert.NotContains(t, out, ","+Ellipsis)
		}
	}
}

func TestNormalizeAndSlug(t *testing.T) {
	assert.Equal(t, "tres fort", Normalize("Très  FORT !"))
	assert.Equal(t, "aeroport_de_geneve", Slug("Aéroport de Genève"))
	assert.Equal(t, "uber", FoldAccents("über"))
}

func TestDedupe(t *testing.T) {
	in := []string{
		"Zone de bruit DS III",
		"zone de bruit ds iii.",
		"",
		"Pente entre 30 et 45 %",
		"Zone de bruit DS III",
	}
	assert.Equal(t, []string{"Zone de bruit DS III", "Pente entre 30 et 45 %"}, Dedupe(in))

	assert.True(t, IsDuplicate("Danger naturel fort", "danger naturel FORT"))
	assert.False(t, IsDuplicate("Danger naturel fort", "Danger naturel faible"))
}

func TestCombine(t *testing.T) {
	out := Combine([]string{"Pente forte.", "pente forte", "Bruit élevé"}, 12)
	assert.Equal(t, "Pente forte; Bruit élevé", out)
}

func TestKeywords(t *testing.T) {
	kw := Keywords("Le secteur de protection des eaux et la protection du sol", 2)
	assert.Equal(t, []string{"protection", "secteur"}, kw)
	assert.Nil(t, Keywords("anything", 0))
}
