// Package sanitize turns untrusted free text into either a safe, persistable
// string or a rejection with a user-facing reason.
//
// Every function is a pure function of its input: no state, no errors.
// Rejection reasons are Spanish user-facing strings — callers surface them
// verbatim and abort the action.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

// Result is the outcome of validating one input. Exactly one of Error and
// Sanitized is populated: Error when Valid is false, Sanitized when true.
// Password validation is the exception — passwords are never transformed,
// so a valid password result carries neither.
type Result struct {
	Valid     bool
	Error     string
	Sanitized string
}

// Default length caps per field kind.
const (
	MaxMessageLen = 500
	MaxNameLen    = 100
	MaxNotesLen   = 2000
)

var (
	htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

	// XSS patterns are matched case-insensitively against raw input.
	// The script-block pattern is dot-all so multi-line payloads match.
	xssPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<script\b.*?</script>`),
		regexp.MustCompile(`(?i)<script\b`),
		regexp.MustCompile(`(?i)javascript:`),
		regexp.MustCompile(`(?i)\bon\w+\s*=`),
		regexp.MustCompile(`(?i)<iframe`),
		regexp.MustCompile(`(?i)<img[^>]+src[^>]*>`),
		regexp.MustCompile(`(?i)data:text/html`),
	}

	sqlPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(DROP|DELETE|INSERT|UPDATE|TRUNCATE)\s+`),
		regexp.MustCompile(`(?i)('|")\s*(OR|AND)\s*('|")`),
		regexp.MustCompile(`;\s*--`),
	}

	urlPattern        = regexp.MustCompile(`(?i)https?://[^\s]+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	emailPattern      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]{2,}$`)
)

// Sanitize strips HTML tags and known XSS payloads, collapses whitespace runs
// to a single space, trims, and truncates to maxLength characters. It never
// rejects: oversized input is truncated silently. Idempotent.
func Sanitize(input string, maxLength int) string {
	s := htmlTagPattern.ReplaceAllString(input, "")
	for _, p := range xssPatterns {
		s = p.ReplaceAllString(s, "")
	}
	s = whitespacePattern.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > maxLength {
		s = strings.TrimSpace(string(r[:maxLength]))
	}
	return s
}

// ValidateMessage validates a chat or direct message.
// Rejects empty, too-short (< 2 chars), and spam-shaped input.
func ValidateMessage(input string) Result {
	s := Sanitize(input, MaxMessageLen)

	if s == "" {
		return Result{Error: "El mensaje no puede estar vacío"}
	}
	if len([]rune(s)) < 2 {
		return Result{Error: "El mensaje es demasiado corto"}
	}
	if isSpam(s) {
		return Result{Error: "Mensaje no permitido"}
	}
	return Result{Valid: true, Sanitized: s}
}

// ValidateEmail lower-cases, trims, and checks local@domain.tld shape.
func ValidateEmail(input string) Result {
	s := strings.ToLower(strings.TrimSpace(input))
	if !emailPattern.MatchString(s) {
		return Result{Error: "Correo electrónico inválido"}
	}
	return Result{Valid: true, Sanitized: s}
}

// ValidatePassword checks basic strength: length >= 8, at least one
// uppercase ASCII letter, at least one digit. Passwords are never
// transformed, so no sanitized value is returned.
func ValidatePassword(input string) Result {
	if len(input) < 8 {
		return Result{Error: "La contraseña debe tener al menos 8 caracteres"}
	}
	if !strings.ContainsFunc(input, func(r rune) bool { return r >= 'A' && r <= 'Z' }) {
		return Result{Error: "La contraseña debe tener al menos una mayúscula"}
	}
	if !strings.ContainsFunc(input, func(r rune) bool { return r >= '0' && r <= '9' }) {
		return Result{Error: "La contraseña debe tener al menos un número"}
	}
	return Result{Valid: true}
}

// ValidateName validates a person or profile name: 2–100 characters after
// sanitization, letters/whitespace/hyphen/apostrophe only.
func ValidateName(input string) Result {
	s := Sanitize(input, MaxNameLen)

	if len([]rune(s)) < 2 {
		return Result{Error: "El nombre debe tener al menos 2 caracteres"}
	}
	if len([]rune(s)) > MaxNameLen {
		return Result{Error: "El nombre es demasiado largo (máx 100 caracteres)"}
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsSpace(r) && r != '-' && r != '\'' {
			return Result{Error: "El nombre contiene caracteres no permitidos"}
		}
	}
	return Result{Valid: true, Sanitized: s}
}

// ValidateNotes validates free-text notes (bitácora fields, brain dump).
// Rejects only when the sanitized result is empty.
func ValidateNotes(input string, maxLength int) Result {
	if maxLength <= 0 {
		maxLength = MaxNotesLen
	}
	s := Sanitize(input, maxLength)
	if s == "" {
		return Result{Error: "Las notas no pueden estar vacías"}
	}
	return Result{Valid: true, Sanitized: s}
}

// HasSQLInjection reports whether input matches SQL injection shapes
// (statement keywords, quoted boolean clauses, terminator-then-comment).
// An auditing signal layered over parameterized queries, not a blocking gate.
func HasSQLInjection(input string) bool {
	for _, p := range sqlPatterns {
		if p.MatchString(input) {
			return true
		}
	}
	return false
}

// HasXSS reports whether input matches any known XSS pattern.
// The same pattern set Sanitize strips.
func HasXSS(input string) bool {
	for _, p := range xssPatterns {
		if p.MatchString(input) {
			return true
		}
	}
	return false
}

// isSpam reports whether a sanitized message trips the spam heuristics:
// one character repeated 16+ times consecutively, or 4+ URLs in one message.
// The repeat check walks runes because RE2 has no backreferences.
func isSpam(s string) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev {
			run++
			if run >= 16 {
				return true
			}
		} else {
			prev, run = r, 1
		}
	}
	return len(urlPattern.FindAllString(s, 5)) >= 4
}
