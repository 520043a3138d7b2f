// Package money normalizes free-text currency tokens into ISO 4217 codes.
//
// Upstream data entry is free text and inconsistently cased ("U$D", "ar$",
// bare "$"), so every path that groups or displays amounts normalizes the
// token first.
package money

import (
	"regexp"
	"strings"

	"golang.org/x/text/currency"
)

// DefaultCurrency is the fallback for unrecognized tokens.
const DefaultCurrency = "ARS"

// shorthand maps common local spellings to ISO codes. Matched after
// trimming and uppercasing.
var shorthand = map[string]string{
	"$":       "ARS",
	"AR$":     "ARS",
	"ARS$":    "ARS",
	"PESOS":   "ARS",
	"U$":      "USD",
	"U$D":     "USD",
	"U$S":     "USD",
	"US$":     "USD",
	"DOLAR":   "USD",
	"DOLARES": "USD",
	"€":       "EUR",
	"R$":      "BRL",
}

var isoRun = regexp.MustCompile(`[A-Z]{3}`)

// Normalize maps an arbitrary currency token to its best-effort ISO 4217
// code. Unrecognized input falls back to DefaultCurrency. Pure function;
// idempotent on already-normalized codes.
func Normalize(token string) string {
	t := strings.ToUpper(strings.TrimSpace(token))
	if t == "" {
		return DefaultCurrency
	}

	if code, ok := shorthand[t]; ok {
		return code
	}

	// Extract a 3-letter run and validate it as a real ISO code.
	if run := isoRun.FindString(t); run != "" {
		if unit, err := currency.ParseISO(run); err == nil {
			return unit.String()
		}
	}

	return DefaultCurrency
}
