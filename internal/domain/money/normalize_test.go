package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"iso code passes through", "USD", "USD"},
		{"iso code lowercased", "usd", "USD"},
		{"local dollar shorthand", "U$D", "USD"},
		{"alternative dollar shorthand", "u$s", "USD"},
		{"peso shorthand", "AR$", "ARS"},
		{"bare dollar sign means pesos", "$", "ARS"},
		{"euro symbol", "€", "EUR"},
		{"iso run inside noise", "  eur ", "EUR"},
		{"garbage falls back", "???", "ARS"},
		{"empty falls back", "", "ARS"},
		{"three letters but not a currency", "ZZZ", "ARS"},
		{"ars stays ars", "ARS", "ARS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.token))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, token := range []string{"U$D", "AR$", "usd", "???", "EUR"} {
		once := Normalize(token)
		assert.Equal(t, once, Normalize(once), "normalizing %q twice must be stable", token)
	}
}
