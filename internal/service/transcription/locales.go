package transcription

import "strings"

// CanonicalLocale is the provider locale used when the caller requests no
// language or a Spanish tag.
const CanonicalLocale = "es-US"

// localeTable folds the Spanish tags clients send into the single locale the
// provider's transcription engine accepts. Keys are lowercase.
var localeTable = map[string]string{
	"es":    CanonicalLocale,
	"es-es": CanonicalLocale,
	"es-mx": CanonicalLocale,
	"es-us": CanonicalLocale,
}

// ResolveLocale maps a requested language tag to the provider locale code.
// Unrecognized tags pass through unchanged; an empty tag resolves to the
// canonical locale.
func ResolveLocale(requested string) string {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return CanonicalLocale
	}
	if code, ok := localeTable[strings.ToLower(requested)]; ok {
		return code
	}
	return requested
}
