package prescription

// AllergenGroup maps a substance to the medication-name substrings that
// trigger it (brand names, salts, class members).
type AllergenGroup struct {
	Substance string
	Triggers  []string
}

// InteractionPair is one known drug-drug interaction. Matching is by
// unordered substring containment against medication names.
type InteractionPair struct {
	DrugA    string
	DrugB    string
	Severity string
	Effect   string
}

// Interaction severities as reported by the reference data.
const (
	InteractionContraindicated = "CONTRAINDICATED"
	InteractionMajor           = "MAJOR"
	InteractionModerate        = "MODERATE"
)

// ReferenceSource supplies the clinical reference tables. Implementations
// must be immutable after construction; the engine reads them concurrently
// without synchronization. A real pharmacological database can be injected
// here without touching engine logic.
type ReferenceSource interface {
	// Version tags the dataset in result metadata.
	Version() string
	AllergenGroups() []AllergenGroup
	Interactions() []InteractionPair
	// MaxDailyDoseMG returns the reference maximum daily dose for a
	// medication name (substring match), or false when unknown.
	MaxDailyDoseMG(medicationName string) (float64, bool)
	ControlledSubstances() []string
}

// staticReference is the built-in dataset. Names follow Brazilian
// commercial and generic spellings since that is what prescribers type.
type staticReference struct {
	version    string
	allergens  []AllergenGroup
	pairs      []InteractionPair
	maxDoses   map[string]float64
	controlled []string
}

// NewStaticReference returns the built-in reference dataset.
func NewStaticReference() ReferenceSource {
	return &staticReference{
		version: "static-2024.1",
		allergens: []AllergenGroup{
			{Substance: "penicilina", Triggers: []string{"penicilina", "amoxicilina", "ampicilina", "benzilpenicilina", "amoxil", "clavulanato"}},
			{Substance: "dipirona", Triggers: []string{"dipirona", "metamizol", "novalgina"}},
			{Substance: "aas", Triggers: []string{"aas", "aspirina", "acido acetilsalicilico", "ácido acetilsalicílico", "salicilato"}},
			{Substance: "sulfa", Triggers: []string{"sulfa", "sulfametoxazol", "sulfadiazina", "bactrim"}},
			{Substance: "ibuprofeno", Triggers: []string{"ibuprofeno", "alivium", "advil"}},
			{Substance: "diclofenaco", Triggers: []string{"diclofenaco", "voltaren", "cataflam"}},
		},
		pairs: []InteractionPair{
			{DrugA: "varfarina", DrugB: "aas", Severity: InteractionMajor, Effect: "risco aumentado de sangramento"},
			{DrugA: "varfarina", DrugB: "fluconazol", Severity: InteractionContraindicated, Effect: "potencializa o efeito anticoagulante"},
			{DrugA: "sildenafila", DrugB: "nitrato", Severity: InteractionContraindicated, Effect: "hipotensão grave"},
			{DrugA: "tramadol", DrugB: "fluoxetina", Severity: InteractionMajor, Effect: "risco de síndrome serotoninérgica"},
			{DrugA: "enalapril", DrugB: "espironolactona", Severity: InteractionModerate, Effect: "risco de hipercalemia"},
			{DrugA: "claritromicina", DrugB: "sinvastatina", Severity: InteractionMajor, Effect: "risco de miopatia"},
		},
		maxDoses: map[string]float64{
			"paracetamol":  4000,
			"dipirona":     4000,
			"ibuprofeno":   3200,
			"amoxicilina":  3000,
			"metformina":   2550,
			"tramadol":     400,
			"enalapril":    40,
			"sinvastatina": 80,
		},
		controlled: []string{
			"morfina", "codeina", "codeína", "tramadol", "fentanil",
			"metilfenidato", "diazepam", "clonazepam", "alprazolam", "zolpidem",
		},
	}
}

func (s *staticReference) Version() string                  { return s.version }
func (s *staticReference) AllergenGroups() []AllergenGroup  { return s.allergens }
func (s *staticReference) Interactions() []InteractionPair  { return s.pairs }
func (s *staticReference) ControlledSubstances() []string   { return s.controlled }

func (s *staticReference) MaxDailyDoseMG(medicationName string) (float64, bool) {
	name := normalize(medicationName)
	for drug, max := range s.maxDoses {
		if containsEither(name, drug) {
			return max, true
		}
	}
	return 0, false
}
