package binding

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Raw type names come from compiler-generated type-name strings and carry
// wrapper and decoration text around the qualified name. Normalize strips at
// most one wrapper prefix, then at most one kind keyword, then at most one
// decorative suffix.
var (
	wrapperPrefixes = []string{
		"class ls::_StringView<char> __cdecl ls::GetTypeName<",
	}
	kindPrefixes = []string{
		"class ",
		"struct ",
		"enum ",
	}
	decorativeSuffixes = []string{
		">(void)",
	}
)

// Normalize maps a raw type name to its stable semantic key.
func Normalize(raw string) string {
	key := strings.TrimSpace(norm.NFC.String(raw))
	key = trimFirstPrefix(key, wrapperPrefixes)
	key = trimFirstPrefix(key, kindPrefixes)
	for _, s := range decorativeSuffixes {
		if len(key) > len(s) && strings.HasSuffix(key, s) {
			key = key[:len(key)-len(s)]
			break
		}
	}
	return strings.TrimSpace(key)
}

func trimFirstPrefix(key string, prefixes []string) string {
	for _, p := range prefixes {
		if len(key) > len(p) && strings.HasPrefix(key, p) {
			return key[len(p):]
		}
	}
	return key
}
