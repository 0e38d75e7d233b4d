package meta

import (
	"os"
	"strings"
	"unicode"
)

const envPrefix = "${env."

// expandEnv replaces ${env.KEY} with the KEY environment variable; unset
// variables expand to an empty string, malformed expressions stay literal
func expandEnv(text string) string {
	var builder strings.Builder
	for {
		start := strings.Index(text, envPrefix)
		if start < 0 {
			builder.WriteString(text)
			return builder.String()
		}
		builder.WriteString(text[:start])
		rest := text[start+len(envPrefix):]
		end := strings.IndexByte(rest, '}')
		if end < 0 {
			builder.WriteString(text[start:])
			return builder.String()
		}
		key := rest[:end]
		if !isEnvKey(key) {
			builder.WriteString(envPrefix)
			text = rest
			continue
		}
		builder.WriteString(os.Getenv(key))
		text = rest[end+1:]
	}
}

func isEnvKey(key string) bool {
	for _, r := range key {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			return false
		}
	}
	return true
}
