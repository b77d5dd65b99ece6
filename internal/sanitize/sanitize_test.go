package sanitize_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Inova117/mamapanic/internal/sanitize"
)

func TestSanitizeStripsTags(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text untouched", "hola bebé", "hola bebé"},
		{"html tags removed", "hola <b>mamá</b>", "hola mamá"},
		{"script tag removed", `antes <script>alert("x")</script> después`, `antes alert("x") después`},
		{"iframe removed", `<iframe src="evil">`, ""},
		{"event handler removed", `click onerror=alert(1) aquí`, "click alert(1) aquí"},
		{"javascript uri removed", "ver javascript:robar()", "ver robar()"},
		{"whitespace collapsed", "hola    \n\t  mamá ", "hola mamá"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitize.Sanitize(tt.input, 500))
		})
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		"texto normal",
		"<div>anidado <span>html</span></div>",
		"   espacios   por   todas   partes   ",
		`<script>alert("xss")</script> resto`,
		strings.Repeat("larga ", 200),
	}
	for _, in := range inputs {
		once := sanitize.Sanitize(in, 500)
		twice := sanitize.Sanitize(once, 500)
		assert.Equal(t, once, twice, "Sanitize not idempotent for %q", in)
	}
}

func TestSanitizeTruncates(t *testing.T) {
	long := strings.Repeat("a", 600)
	got := sanitize.Sanitize(long, 500)
	assert.Len(t, got, 500)

	// Multi-byte runes count as one character each.
	accented := strings.Repeat("á", 20)
	assert.Equal(t, strings.Repeat("á", 10), sanitize.Sanitize(accented, 10))
}

func TestValidateMessage(t *testing.T) {
	t.Run("empty rejected", func(t *testing.T) {
		res := sanitize.ValidateMessage("")
		require.False(t, res.Valid)
		assert.Equal(t, "El mensaje no puede estar vacío", res.Error)
		assert.Empty(t, res.Sanitized)
	})

	t.Run("whitespace only rejected", func(t *testing.T) {
		res := sanitize.ValidateMessage("   \n\t  ")
		require.False(t, res.Valid)
		assert.Equal(t, "El mensaje no puede estar vacío", res.Error)
	})

	t.Run("too short rejected", func(t *testing.T) {
		res := sanitize.ValidateMessage("a")
		require.False(t, res.Valid)
		assert.Equal(t, "El mensaje es demasiado corto", res.Error)
	})

	t.Run("two chars accepted", func(t *testing.T) {
		res := sanitize.ValidateMessage("hi")
		require.True(t, res.Valid)
		assert.Equal(t, "hi", res.Sanitized)
		assert.Empty(t, res.Error)
	})

	t.Run("repeated char spam rejected", func(t *testing.T) {
		res := sanitize.ValidateMessage(strings.Repeat("a", 19))
		require.False(t, res.Valid)
		assert.Equal(t, "Mensaje no permitido", res.Error)
	})

	t.Run("url flood rejected", func(t *testing.T) {
		msg := "mira https://a.com https://b.com https://c.com https://d.com"
		res := sanitize.ValidateMessage(msg)
		require.False(t, res.Valid)
		assert.Equal(t, "Mensaje no permitido", res.Error)
	})

	t.Run("three urls allowed", func(t *testing.T) {
		msg := "mira https://a.com https://b.com https://c.com"
		res := sanitize.ValidateMessage(msg)
		assert.True(t, res.Valid)
	})

	t.Run("sanitized value returned", func(t *testing.T) {
		res := sanitize.ValidateMessage("  hola   <b>coach</b>  ")
		require.True(t, res.Valid)
		assert.Equal(t, "hola coach", res.Sanitized)
	})
}

func TestValidateEmail(t *testing.T) {
	t.Run("invalid shapes rejected", func(t *testing.T) {
		for _, in := range []string{"nota-valid-email", "a@b", "a b@c.com", "@x.com", "user@.es"} {
			res := sanitize.ValidateEmail(in)
			assert.False(t, res.Valid, "expected invalid: %q", in)
			assert.Equal(t, "Correo electrónico inválido", res.Error)
		}
	})

	t.Run("lowercased and trimmed", func(t *testing.T) {
		res := sanitize.ValidateEmail("  USER@Example.com ")
		require.True(t, res.Valid)
		assert.Equal(t, "user@example.com", res.Sanitized)
	})
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		input   string
		wantErr string
	}{
		{"short1", "La contraseña debe tener al menos 8 caracteres"},
		{"nouppercase1", "La contraseña debe tener al menos una mayúscula"},
		{"NoDigitsHere", "La contraseña debe tener al menos un número"},
		{"GoodPass1", ""},
	}
	for _, tt := range tests {
		res := sanitize.ValidatePassword(tt.input)
		if tt.wantErr == "" {
			assert.True(t, res.Valid, "expected valid: %q", tt.input)
			// Passwords are never echoed back sanitized.
			assert.Empty(t, res.Sanitized)
		} else {
			assert.False(t, res.Valid, "expected invalid: %q", tt.input)
			assert.Equal(t, tt.wantErr, res.Error)
		}
	}
}

func TestValidateName(t *testing.T) {
	t.Run("accepts accents hyphens apostrophes", func(t *testing.T) {
		for _, in := range []string{"María José", "O'Brien", "Ana-Lucía"} {
			res := sanitize.ValidateName(in)
			assert.True(t, res.Valid, "expected valid: %q", in)
		}
	})

	t.Run("rejects digits and symbols", func(t *testing.T) {
		for _, in := range []string{"Ana123", "Bob!", "x_y"} {
			res := sanitize.ValidateName(in)
			assert.False(t, res.Valid, "expected invalid: %q", in)
			assert.Equal(t, "El nombre contiene caracteres no permitidos", res.Error)
		}
	})

	t.Run("too short", func(t *testing.T) {
		res := sanitize.ValidateName("A")
		require.False(t, res.Valid)
		assert.Equal(t, "El nombre debe tener al menos 2 caracteres", res.Error)
	})
}

func TestValidateNotes(t *testing.T) {
	res := sanitize.ValidateNotes("  durmió  bien ", 0)
	require.True(t, res.Valid)
	assert.Equal(t, "durmió bien", res.Sanitized)

	res = sanitize.ValidateNotes("<br/>", 0)
	require.False(t, res.Valid)
	assert.Equal(t, "Las notas no pueden estar vacías", res.Error)

	long := strings.Repeat("x", 3000)
	res = sanitize.ValidateNotes(long, 0)
	require.True(t, res.Valid)
	assert.Len(t, res.Sanitized, 2000)
}

func TestHasXSS(t *testing.T) {
	positive := []string{
		`<script>alert(1)</script>`,
		`<SCRIPT src="x">`,
		`a href="javascript:void(0)"`,
		`<img src=x onerror=alert(1)>`,
		`<iframe src="x">`,
		`data:text/html;base64,xxxx`,
	}
	for _, in := range positive {
		assert.True(t, sanitize.HasXSS(in), "expected XSS: %q", in)
	}

	negative := []string{"hola mamá", "2 < 3 y 5 > 4", "script de la obra"}
	for _, in := range negative {
		assert.False(t, sanitize.HasXSS(in), "expected clean: %q", in)
	}
}

func TestHasSQLInjection(t *testing.T) {
	positive := []string{
		"DROP TABLE users",
		"'; DELETE FROM checkins; --",
		`x' OR 'a'='a`,
		"1; -- comentario",
	}
	for _, in := range positive {
		assert.True(t, sanitize.HasSQLInjection(in), "expected injection: %q", in)
	}

	negative := []string{"dormimos bien", "update: el bebé durmió", "insertamos la siesta"}
	for _, in := range negative {
		assert.False(t, sanitize.HasSQLInjection(in), "expected clean: %q", in)
	}
}
