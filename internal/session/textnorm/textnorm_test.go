package textnorm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "Fever", "fever"},
		{"two words", "Chest Pain", "chest_pain"},
		{"surrounding whitespace", "  sore throat \n", "sore_throat"},
		{"internal runs", "shortness   of\tbreath", "shortness_of_breath"},
		{"already normalized", "body_aches", "body_aches"},
		{"mixed separators", "runny _ nose", "runny_nose"},
		{"empty", "", ""},
		{"whitespace only", " \t ", ""},
		{"delimiters only", "__", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestToDisplay(t *testing.T) {
	assert.Equal(t, "chest pain", ToDisplay("chest_pain"))
	assert.Equal(t, "fever", ToDisplay("fever"))
	assert.Equal(t, "", ToDisplay(""))
}

func TestNormalize_Properties(t *testing.T) {
	inputs := []string{
		"Fever",
		"  HEAD ache ",
		"Shortness\tOf  Breath",
		"ABDOMINAL_pain",
		"x",
		"Übelkeit  Stark",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			token := Normalize(in)

			assert.Equal(t, token, Normalize(token), "idempotent")
			assert.Equal(t, token, Normalize(ToDisplay(token)), "round trip")
			assert.Equal(t, strings.ToLower(token), token, "no uppercase")
			assert.Equal(t, strings.TrimSpace(token), token, "no surrounding whitespace")
			assert.NotContains(t, token, " ")
		})
	}
}

func TestLen(t *testing.T) {
	assert.Equal(t, 0, Len("   "))
	assert.Equal(t, 1, Len(" f "))
	assert.Equal(t, 3, Len("a b"))
	assert.Equal(t, 2, Len("üb"))
}
