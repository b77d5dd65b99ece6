package model

import (
	"time"

	"github.com/google/uuid"
)

// ValidationCategory groups affirmation cards by theme.
type ValidationCategory string

const (
	CategoryGeneral  ValidationCategory = "general"
	CategorySleep    ValidationCategory = "sleep"
	CategoryCrying   ValidationCategory = "crying"
	CategoryFeeding  ValidationCategory = "feeding"
	CategorySelfCare ValidationCategory = "self_care"
)

// ValidationCard is a short affirmation shown to reassure an exhausted
// mother. Spanish is the primary language; English is optional.
type ValidationCard struct {
	ID        uuid.UUID          `json:"id"`
	MessageES string             `json:"message_es"`
	MessageEN *string            `json:"message_en,omitempty"`
	Category  ValidationCategory `json:"category"`
	CreatedAt time.Time          `json:"created_at"`
}

// CreateValidationCardRequest is the request body for POST /v1/validations.
type CreateValidationCardRequest struct {
	MessageES string             `json:"message_es"`
	MessageEN *string            `json:"message_en,omitempty"`
	Category  ValidationCategory `json:"category"`
}

// DefaultValidationCards returns the seed set used when the store is
// empty.
func DefaultValidationCards() []CreateValidationCardRequest {
	return []CreateValidationCardRequest{
		{MessageES: "No lo estás haciendo mal. 9 de cada 10 mamás se sienten exactamente así ahora mismo.", Category: CategoryGeneral},
		{MessageES: "Tu bebé te eligió como su mamá por una razón. Eres suficiente.", Category: CategoryGeneral},
		{MessageES: "Las noches difíciles no definen tu maternidad. Son solo noches.", Category: CategorySleep},
		{MessageES: "Está bien sentirse abrumada. Esto pasará.", Category: CategoryGeneral},
		{MessageES: "Tu bebé no necesita una mamá perfecta. Solo te necesita a ti.", Category: CategoryGeneral},
		{MessageES: "El llanto de tu bebé no es tu culpa. Los bebés lloran, es su forma de comunicarse.", Category: CategoryCrying},
		{MessageES: "Cada día que sobrevives es un día de éxito. Literalmente.", Category: CategoryGeneral},
		{MessageES: "No estás sola. Hay miles de mamás despiertas contigo ahora mismo.", Category: CategoryGeneral},
		{MessageES: "Pedir ayuda no es debilidad. Es inteligencia.", Category: CategorySelfCare},
		{MessageES: "Tu cuerpo acaba de crear vida. Mereces descanso y compasión.", Category: CategorySelfCare},
		{MessageES: "Algunas noches el único logro es sobrevivir. Y eso está perfecto.", Category: CategorySleep},
		{MessageES: "El amor que sientes por tu bebé, aunque estés agotada, es todo lo que necesita.", Category: CategoryGeneral},
		{MessageES: "Respira. Este momento pasará. Mañana será un nuevo día.", Category: CategoryGeneral},
		{MessageES: "No tienes que disfrutar cada momento para ser buena mamá.", Category: CategoryGeneral},
		{MessageES: "La lactancia es difícil. Sea cual sea tu camino, está bien.", Category: CategoryFeeding},
	}
}
