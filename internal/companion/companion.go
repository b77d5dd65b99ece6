package companion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Inova117/mamapanic/internal/model"
)

// abuelaPrompt is the persona for chat and check-in responses.
const abuelaPrompt = `Eres "Abuela Sabia" - una consejera empática y cariñosa para mamás primerizas exhaustas.

Tu personalidad:
- Cálida como una abuela que ha visto todo
- Honesta pero nunca crítica
- Prioriza la validación emocional SIEMPRE antes de dar consejos
- Hablas en español de forma sencilla y reconfortante
- Usas frases cortas y directas (la mamá está agotada, no puede leer párrafos largos)

Reglas ESTRICTAS:
1. SIEMPRE valida la emoción primero. "Entiendo lo agotada que estás" ANTES de cualquier consejo.
2. NUNCA des consejos médicos directos. Si hay preocupación de salud, sugiere consultar al pediatra.
3. Mantén respuestas CORTAS (máximo 3-4 oraciones).
4. Si detectas señales de depresión postparto severa, menciona gentilmente buscar ayuda profesional.
5. Normaliza los sentimientos difíciles de la maternidad.
6. NUNCA juzgues decisiones de crianza (pecho/biberón, colecho, etc.)
7. Nunca des consejos medicinales o que tengan que ver con salud.
8. Si te preguntan por tu nombre, di que eres Abuela Sabia.
9. Si te preguntan por tu edad, di que tienes 60 años.
10. Si te preguntan información que solo un doctor puede responder, di que no puedes responder y que debe consultar a su doctor.

Recuerda: Tu objetivo es que la mamá pase de pánico a calma en menos de 30 segundos.`

// coachPrompt is the persona for bitácora summaries.
const coachPrompt = "Eres una coach de sueño infantil profesional. Da análisis concisos y útiles."

// Canned responses used when the provider fails. The mother always
// gets something warm back, never an error.
const (
	fallbackChat       = "Lo siento, no pude responder ahora. Recuerda: estás haciendo un gran trabajo. Respira profundo. 💛"
	fallbackValidation = "Gracias por compartir. Recuerda: cada día que pasas con tu bebé es un día de amor. 💛"
	fallbackSummary    = "Registro guardado exitosamente."
	emptySummary       = "Registro guardado. La coach revisará los datos."
)

// Token caps per response kind.
const (
	chatMaxTokens       = 500
	validationMaxTokens = 200
	summaryMaxTokens    = 300
)

// historyWindow is how many prior turns feed the chat context.
const historyWindow = 10

// Companion wraps a Provider with the personas and fallbacks.
type Companion struct {
	provider Provider
	logger   *slog.Logger
}

// New creates a Companion.
func New(provider Provider, logger *slog.Logger) *Companion {
	return &Companion{provider: provider, logger: logger}
}

// ProviderName reports which provider backs the companion.
func (c *Companion) ProviderName() string {
	return c.provider.Name()
}

// ChatReply answers a chat message in the Abuela Sabia persona, feeding
// the most recent history turns as context. Never returns an error.
func (c *Companion) ChatReply(ctx context.Context, history []model.ChatMessage, userMessage string) string {
	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: RoleSystem, Content: abuelaPrompt})

	turns := history
	if len(turns) > historyWindow {
		turns = turns[len(turns)-historyWindow:]
	}
	for _, m := range turns {
		role := RoleUser
		if m.Role == model.ChatRoleAssistant {
			role = RoleAssistant
		}
		messages = append(messages, Message{Role: role, Content: m.Content})
	}
	messages = append(messages, Message{Role: RoleUser, Content: userMessage})

	reply, err := c.provider.Complete(ctx, messages, chatMaxTokens)
	if err != nil {
		c.logger.Warn("companion: chat completion failed", "provider", c.provider.Name(), "error", err)
		return fallbackChat
	}
	return reply
}

// CheckInValidation generates the short validation attached to a daily
// check-in. Never returns an error.
func (c *Companion) CheckInValidation(ctx context.Context, mood int, brainDump *string) string {
	var moodContext string
	switch mood {
	case model.MoodSad:
		moodContext = "La mamá se siente muy mal/triste hoy."
	case model.MoodNeutral:
		moodContext = "La mamá se siente regular/neutral hoy."
	case model.MoodHappy:
		moodContext = "La mamá se siente bien hoy."
	}

	prompt := moodContext
	if brainDump != nil && *brainDump != "" {
		prompt += fmt.Sprintf(" Ella escribió: %q", *brainDump)
	}
	prompt += "\n\nResponde con una validación corta y cariñosa (máximo 2 oraciones)."

	reply, err := c.provider.Complete(ctx, []Message{
		{Role: RoleSystem, Content: abuelaPrompt},
		{Role: RoleUser, Content: prompt},
	}, validationMaxTokens)
	if err != nil {
		c.logger.Warn("companion: validation completion failed", "provider", c.provider.Name(), "error", err)
		return fallbackValidation
	}
	return reply
}

// BitacoraSummary condenses a sleep log into a short analysis for the
// coach. Returns a static confirmation when the log carries no data.
// Never returns an error.
func (c *Companion) BitacoraSummary(ctx context.Context, b model.Bitacora) string {
	parts := summaryParts(b)
	if len(parts) == 0 {
		return emptySummary
	}

	prompt := fmt.Sprintf(`Analiza este registro de sueño de un bebé y da un resumen breve (2-3 oraciones) para la coach de sueño. Incluye patrones observados y posibles recomendaciones:

%s

Responde solo con el resumen, sin introducciones.`, strings.Join(parts, "\n"))

	reply, err := c.provider.Complete(ctx, []Message{
		{Role: RoleSystem, Content: coachPrompt},
		{Role: RoleUser, Content: prompt},
	}, summaryMaxTokens)
	if err != nil {
		c.logger.Warn("companion: summary completion failed", "provider", c.provider.Name(), "error", err)
		return fallbackSummary
	}
	return reply
}

func summaryParts(b model.Bitacora) []string {
	var parts []string
	if b.PreviousDayWakeTime != nil {
		parts = append(parts, "Despertó ayer: "+*b.PreviousDayWakeTime)
	}
	for i, nap := range []*model.NapEntry{b.Nap1, b.Nap2, b.Nap3} {
		if nap == nil || (nap.LaidDownTime == nil && nap.DurationMinutes == nil) {
			continue
		}
		s := fmt.Sprintf("Siesta %d", i+1)
		if nap.DurationMinutes != nil {
			s += fmt.Sprintf(": %dmin", *nap.DurationMinutes)
		}
		if nap.HowFellAsleep != nil {
			s += fmt.Sprintf(" (%s)", *nap.HowFellAsleep)
		}
		parts = append(parts, s)
	}
	if b.HowBabyAte != nil {
		parts = append(parts, "Alimentación: "+*b.HowBabyAte)
	}
	if b.BabyMood != nil {
		parts = append(parts, "Humor: "+*b.BabyMood)
	}
	if b.TimeToFallAsleepMinutes != nil {
		parts = append(parts, fmt.Sprintf("Tardó en dormirse: %dmin", *b.TimeToFallAsleepMinutes))
	}
	if b.NumberOfWakings != nil {
		parts = append(parts, fmt.Sprintf("Despertares nocturnos: %d", *b.NumberOfWakings))
	}
	if b.MorningWakeTime != nil {
		parts = append(parts, "Despertó hoy: "+*b.MorningWakeTime)
	}
	return parts
}
