package pets

import (
	"slices"
	"time"
)

// Species define las especies soportadas.
// @Enum dog, cat, bird, other
type Species string

const (
	SpeciesDog   Species = "dog"
	SpeciesCat   Species = "cat"
	SpeciesBird  Species = "bird"
	SpeciesOther Species = "other"
)

var allSpecies = [...]Species{SpeciesDog, SpeciesCat, SpeciesBird, SpeciesOther}

var speciesLabels = [...]string{"Cachorro", "Gato", "Pássaro", "Outro"}

var _ = [1]struct{}{}[len(allSpecies)-len(speciesLabels)]

func (s Species) IsValid() bool { return slices.Contains(allSpecies[:], s) }

func (s Species) Label() string {
	if i := slices.Index(allSpecies[:], s); i >= 0 {
		return speciesLabels[i]
	}
	return ""
}

// Size define el porte.
// @Enum small, medium, large, giant
type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
	SizeGiant  Size = "giant"
)

var allSizes = [...]Size{SizeSmall, SizeMedium, SizeLarge, SizeGiant}

var sizeLabels = [...]string{"Pequeno", "Médio", "Grande", "Gigante"}

var _ = [1]struct{}{}[len(allSizes)-len(sizeLabels)]

func (s Size) IsValid() bool { return slices.Contains(allSizes[:], s) }

func (s Size) Label() string {
	if i := slices.Index(allSizes[:], s); i >= 0 {
		return sizeLabels[i]
	}
	return ""
}

// BehaviorType marca alertas de comportamiento para el equipo.
// @Enum bites, fears_dryer, aggressive, anxious, calm, friendly
type BehaviorType string

const (
	BehaviorBites      BehaviorType = "bites"
	BehaviorFearsDryer BehaviorType = "fears_dryer"
	BehaviorAggressive BehaviorType = "aggressive"
	BehaviorAnxious    BehaviorType = "anxious"
	BehaviorCalm       BehaviorType = "calm"
	BehaviorFriendly   BehaviorType = "friendly"
)

var allBehaviors = [...]BehaviorType{
	BehaviorBites, BehaviorFearsDryer, BehaviorAggressive,
	BehaviorAnxious, BehaviorCalm, BehaviorFriendly,
}

var behaviorLabels = [...]string{"Morde", "Medo de secador", "Agressivo", "Ansioso", "Calmo", "Amigável"}

var _ = [1]struct{}{}[len(allBehaviors)-len(behaviorLabels)]

func (b BehaviorType) IsValid() bool { return slices.Contains(allBehaviors[:], b) }

func (b BehaviorType) Label() string {
	if i := slices.Index(allBehaviors[:], b); i >= 0 {
		return behaviorLabels[i]
	}
	return ""
}

// Behavior es una alerta con nota libre (p.ej. "morde ao cortar unhas").
type Behavior struct {
	Type  BehaviorType `json:"type"`
	Notes string       `json:"notes,omitempty"`
}

// Pet representa una mascota. OwnerID no cambia después de creada.
type Pet struct {
	ID      string
	OwnerID string

	Name    string
	Species Species
	Breed   string
	Size    Size // opcional

	BirthDate *time.Time
	PhotoURL  string

	Allergies []string
	Behaviors []Behavior

	Notes string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type SearchFilter struct {
	OwnerID string
	Query   string  // nombre o raza
	Species Species // vacío = todas
}
