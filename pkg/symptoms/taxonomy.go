// Package symptoms provides the fixed symptom taxonomy and a matcher that
// scans free text for known symptom labels.
package symptoms

// Category is a named, ordered set of canonical symptom labels.
// Labels are upper-case, space-separated, and never mutated at runtime.
type Category struct {
	Name   string
	Labels []string
}

// A label may legitimately appear in more than one category
// (e.g. SHORTNESS OF BREATH under both Cardiovascular and Respiratory);
// a message matching it is reported under every category that declares it.
var taxonomy = []Category{
	{
		Name: "GeneralSymptoms",
		Labels: []string{
			"FATIGUE",
			"FEVER",
			"CHILLS",
			"NIGHT SWEATS",
			"WEIGHT LOSS",
			"WEIGHT GAIN",
			"MALAISE",
			"WEAKNESS",
		},
	},
	{
		Name: "NeurologicalSymptoms",
		Labels: []string{
			"HEADACHE",
			"DIZZINESS",
			"SYNCOPE",
			"SEIZURES",
			"TREMOR",
			"NUMBNESS",
			"TINGLING",
			"MEMORY LOSS",
			"CONFUSION",
			"SLURRED SPEECH",
			"MUSCLE WEAKNESS",
			"LOSS OF COORDINATION",
		},
	},
	{
		Name: "CardiovascularSymptoms",
		Labels: []string{
			"CHEST PAIN",
			"PALPITATIONS",
			"SHORTNESS OF BREATH",
			"EDEMA",
			"CYANOSIS",
			"CLAUDICATION",
		},
	},
	{
		Name: "RespiratorySymptoms",
		Labels: []string{
			"COUGH",
			"WHEEZING",
			"SHORTNESS OF BREATH",
			"HEMOPTYSIS",
			"SPUTUM PRODUCTION",
			"CHEST TIGHTNESS",
		},
	},
	{
		Name: "GastrointestinalSymptoms",
		Labels: []string{
			"NAUSEA",
			"VOMITING",
			"ABDOMINAL PAIN",
			"DIARRHEA",
			"CONSTIPATION",
			"BLOATING",
			"HEARTBURN",
			"DIFFICULTY SWALLOWING",
			"RECTAL BLEEDING",
			"JAUNDICE",
		},
	},
	{
		Name: "GenitourinarySymptoms",
		Labels: []string{
			"DYSURIA",
			"URINARY FREQUENCY",
			"URINARY URGENCY",
			"INCONTINENCE",
			"HEMATURIA",
			"ERECTILE DYSFUNCTION",
			"PELVIC PAIN",
			"MENSTRUAL IRREGULARITIES",
			"VAGINAL DISCHARGE",
			"GENITAL ITCHING",
		},
	},
	{
		Name: "MusculoskeletalSymptoms",
		Labels: []string{
			"JOINT PAIN",
			"MUSCLE PAIN",
			"BACK PAIN",
			"STIFFNESS",
			"SWELLING OF JOINTS",
			"MUSCLE CRAMPS",
			"DECREASED RANGE OF MOTION",
		},
	},
	{
		Name: "DermatologicalSymptoms",
		Labels: []string{
			"RASH",
			"ITCHING",
			"DRY SKIN",
			"REDNESS",
			"BLISTERING",
			"ULCERS",
			"HAIR LOSS",
			"NAIL CHANGES",
		},
	},
	{
		Name: "PsychiatricSymptoms",
		Labels: []string{
			"ANXIETY",
			"DEPRESSION",
			"INSOMNIA",
			"HALLUCINATIONS",
			"DELUSIONS",
			"MOOD SWINGS",
			"IRRITABILITY",
			"SUICIDAL THOUGHTS",
		},
	},
	{
		Name: "EarNoseThroatSymptoms",
		Labels: []string{
			"SORE THROAT",
			"HOARSENESS",
			"NASAL CONGESTION",
			"RUNNY NOSE",
			"EAR PAIN",
			"HEARING LOSS",
			"TINNITUS",
			"LOSS OF SMELL",
		},
	},
	{
		Name: "OcularSymptoms",
		Labels: []string{
			"BLURRED VISION",
			"DOUBLE VISION",
			"EYE PAIN",
			"RED EYE",
			"PHOTOPHOBIA",
			"VISUAL FIELD LOSS",
		},
	},
	{
		Name: "EndocrineSymptoms",
		Labels: []string{
			"HEAT INTOLERANCE",
			"COLD INTOLERANCE",
			"EXCESSIVE THIRST",
			"EXCESSIVE HUNGER",
			"INCREASED URINATION",
		},
	},
}

// Taxonomy returns the fixed category list in declaration order.
// Callers must not mutate the returned slices.
func Taxonomy() []Category {
	return taxonomy
}

// CategoryByName returns the category with the given name, or false when no
// such category exists.
func CategoryByName(name string) (Category, bool) {
	for _, c := range taxonomy {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}
