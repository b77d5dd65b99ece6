package server

import (
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/Inova117/mamapanic/internal/breathing"
	"github.com/Inova117/mamapanic/internal/model"
)

// presenceNames is the pool the simulated presence samples from.
var presenceNames = []string{
	"Marta", "Ana", "Lucía", "Carmen", "María", "Paula", "Laura",
	"Elena", "Sara", "Isabel", "Sofía", "Alba", "Nuria", "Andrea",
	"Cristina", "Patricia", "Rosa", "Claudia", "Diana", "Eva",
}

// HandleCommunityPresence handles GET /v1/community/presence.
// The count is simulated and weighted by time of day: more mothers are
// awake at night than in the afternoon.
func (h *Handlers) HandleCommunityPresence(w http.ResponseWriter, r *http.Request) {
	hour := time.Now().Hour()

	var count int
	switch {
	case hour >= 20 || hour < 6:
		count = 45 + rand.Intn(76)
	case hour < 12:
		count = 25 + rand.Intn(36)
	default:
		count = 15 + rand.Intn(26)
	}

	sample := samplePresenceNames(3)

	writeJSON(w, r, http.StatusOK, model.CommunityPresence{
		OnlineCount: count,
		SampleNames: sample,
		Message:     fmt.Sprintf("%s y %d mamás más están despiertas contigo ahora mismo.", sample[0], count-1),
	})
}

func samplePresenceNames(n int) []string {
	idx := rand.Perm(len(presenceNames))
	if n > len(idx) {
		n = len(idx)
	}
	sample := make([]string, n)
	for i := 0; i < n; i++ {
		sample[i] = presenceNames[idx[i]]
	}
	return sample
}

// breathingConfig mirrors the breathing engine parameters so clients
// animate the same cycle the library runs.
type breathingConfig struct {
	Phases []breathing.PhaseSpec `json:"phases"`
	Cycles int                   `json:"cycles"`
}

// HandleBreathingConfig handles GET /v1/crisis/breathing. Public: crisis
// mode has to work before login.
func (h *Handlers) HandleBreathingConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, breathingConfig{
		Phases: breathing.Phases(),
		Cycles: breathing.DefaultCycles,
	})
}
