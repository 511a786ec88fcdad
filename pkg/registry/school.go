// CLAUDE:SUMMARY School entity, education-stage enumeration and free-text stage classification rules.
package registry

import "strings"

// Stage is an education stage offered by a school.
type Stage string

const (
	StageInfantil     Stage = "Educação Infantil"
	StageFundamental1 Stage = "Fundamental I"
	StageFundamental2 Stage = "Fundamental II"
	StageMedio        Stage = "Ensino Médio"
	StageEJA          Stage = "EJA"
)

// Fallback values applied when an imported school is missing fields. The
// coordinate is the municipal-center fallback so distance computations never
// operate on a null position.
const (
	DefaultImage  = "https://images.unsplash.com/photo-1588072432836-e10032774350?auto=format&fit=crop&q=80"
	DefaultRating = 4.5
	FallbackLat   = -23.550520
	FallbackLng   = -46.633308
)

// School is one municipal school unit.
type School struct {
	ID             string   `json:"id" yaml:"id"`
	INEP           string   `json:"inep,omitempty" yaml:"inep,omitempty"`
	Name           string   `json:"name" yaml:"name"`
	Address        string   `json:"address" yaml:"address"`
	Types          []Stage  `json:"types" yaml:"types"`
	Image          string   `json:"image" yaml:"image"`
	Rating         float64  `json:"rating" yaml:"rating"`
	AvailableSlots int      `json:"availableSlots" yaml:"available_slots"`
	Lat            float64  `json:"lat" yaml:"lat"`
	Lng            float64  `json:"lng" yaml:"lng"`
	// Distance is only meaningful transiently during proximity sorting.
	Distance float64 `json:"distance,omitempty" yaml:"-"`
}

// StagesFromText derives stage tags from a free-text "tipo"/"modalidade"
// field by substring matching. Unclassifiable text defaults to Educação
// Infantil so Types is never empty.
func StagesFromText(raw string) []Stage {
	text := strings.ToLower(raw)
	var stages []Stage

	if strings.Contains(text, "infantil") || strings.Contains(text, "creche") || strings.Contains(text, "pre") || strings.Contains(text, "pré") {
		stages = append(stages, StageInfantil)
	}
	if strings.Contains(text, "fundamental") {
		hasInitial := strings.Contains(text, "1") || strings.Contains(text, "inicial") || containsWord(text, "i")
		hasFinal := strings.Contains(text, "2") || strings.Contains(text, "final") || containsWord(text, "ii")
		if hasInitial || !hasFinal {
			// Bare "fundamental" with neither qualifier defaults to I.
			stages = append(stages, StageFundamental1)
		}
		if hasFinal {
			stages = append(stages, StageFundamental2)
		}
	}
	if strings.Contains(text, "medio") || strings.Contains(text, "médio") {
		stages = append(stages, StageMedio)
	}
	if strings.Contains(text, "eja") {
		stages = append(stages, StageEJA)
	}

	if len(stages) == 0 {
		return []Stage{StageInfantil}
	}
	return stages
}

// containsWord reports whether text contains w as a whole space- or
// punctuation-delimited token ("fundamental i" matches "i", "infantil"
// does not).
func containsWord(text, w string) bool {
	for _, tok := range strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == '-' || r == '/' || r == ';' || r == ','
	}) {
		if tok == w {
			return true
		}
	}
	return false
}
