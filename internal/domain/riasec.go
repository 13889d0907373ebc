package domain

// Trait es un codigo RIASEC.
type Trait string

const (
	TraitRealistic     Trait = "R"
	TraitInvestigative Trait = "I"
	TraitArtistic      Trait = "A"
	TraitSocial        Trait = "S"
	TraitEnterprising  Trait = "E"
	TraitConventional  Trait = "C"

	// TraitMCQ marca entradas del historial que vienen de la ronda de refinamiento.
	TraitMCQ Trait = "MCQ"
)

// AllTraits respeta el orden de la enumeracion; se usa para desempates.
var AllTraits = []Trait{
	TraitRealistic,
	TraitInvestigative,
	TraitArtistic,
	TraitSocial,
	TraitEnterprising,
	TraitConventional,
}

var traitNames = map[Trait]string{
	TraitRealistic:     "Realistic",
	TraitInvestigative: "Investigative",
	TraitArtistic:      "Artistic",
	TraitSocial:        "Social",
	TraitEnterprising:  "Enterprising",
	TraitConventional:  "Conventional",
}

// Valid reports whether t is one of the six RIASEC codes. The MCQ sentinel is not a valid trait.
func (t Trait) Valid() bool {
	_, ok := traitNames[t]
	return ok
}

func (t Trait) Name() string {
	return traitNames[t]
}

// Index devuelve la posicion en AllTraits o -1.
func (t Trait) Index() int {
	for i, candidate := range AllTraits {
		if candidate == t {
			return i
		}
	}
	return -1
}

// Rating es una respuesta Likert 1-5.
type Rating int

const (
	MinRating Rating = 1
	MaxRating Rating = 5
)

var likertContributions = [...]float64{0.0, 0.25, 0.5, 0.75, 1.0}

func (r Rating) Valid() bool {
	return r >= MinRating && r <= MaxRating
}

// Contribution maps a rating to its [0,1] contribution. ok is false for out-of-range ratings.
func (r Rating) Contribution() (float64, bool) {
	if !r.Valid() {
		return 0, false
	}
	return likertContributions[r-MinRating], true
}

// MCQ choices.
const (
	ChoiceA = "A"
	ChoiceB = "B"
	ChoiceC = "C"
	ChoiceD = "D"
)

var AllChoices = []string{ChoiceA, ChoiceB, ChoiceC, ChoiceD}

func ValidChoice(choice string) bool {
	for _, c := range AllChoices {
		if c == choice {
			return true
		}
	}
	return false
}
