package petition

import (
	"fmt"
	"strings"
)

// Category is a topical label assigned to a petition
type Category string

const (
	CategoryPublicSafety        Category = "Public Safety"
	CategoryHealthcare          Category = "Healthcare"
	CategoryTransportation      Category = "Transportation"
	CategoryInfrastructure      Category = "Infrastructure"
	CategoryEnvironment         Category = "Environment"
	CategoryHousing             Category = "Housing & Shelter"
	CategoryEducation           Category = "Education"
	CategoryCommunityServices   Category = "Community Services"
	CategoryEconomicDevelopment Category = "Economic Development"
)

// Categories lists every category in sampling order
var Categories = []Category{
	CategoryPublicSafety,
	CategoryHealthcare,
	CategoryTransportation,
	CategoryInfrastructure,
	CategoryEnvironment,
	CategoryHousing,
	CategoryEducation,
	CategoryCommunityServices,
	CategoryEconomicDevelopment,
}

// Urgency is the priority label assigned to a petition
type Urgency string

const (
	UrgencyHigh   Urgency = "High"
	UrgencyMedium Urgency = "Medium"
	UrgencyLow    Urgency = "Low"
)

// Urgencies lists every urgency level in sampling order
var Urgencies = []Urgency{UrgencyHigh, UrgencyMedium, UrgencyLow}

// Rank orders urgencies for review tables, High first
func (u Urgency) Rank() int {
	switch u {
	case UrgencyHigh:
		return 0
	case UrgencyMedium:
		return 1
	case UrgencyLow:
		return 2
	default:
		return 3
	}
}

// ParseCategory matches a label exactly after trimming whitespace
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// ParseUrgency matches a label exactly after trimming whitespace
func ParseUrgency(s string) (Urgency, error) {
	s = strings.TrimSpace(s)
	for _, u := range Urgencies {
		if string(u) == s {
			return u, nil
		}
	}
	return "", fmt.Errorf("unknown urgency level %q", s)
}

// Template is the canned text pair attached to every example of a category
type Template struct {
	Reasoning string
	Petition  string
}

// Templates maps each category to its canned reasoning and petition text
var Templates = map[Category]Template{
	CategoryPublicSafety: {
		Reasoning: "Direct impact on human life & security (crime, fire hazards, accidents).",
		Petition:  "We request increased police patrols and better street lighting to reduce crime.",
	},
	CategoryHealthcare: {
		Reasoning: "Critical for life-saving interventions, emergency care, and hospital facilities.",
		Petition:  "We urge the government to allocate more funds for emergency healthcare services.",
	},
	CategoryTransportation: {
		Reasoning: "Affects daily life, road safety, and emergency access.",
		Petition:  "We demand better road maintenance and improved public transportation.",
	},
	CategoryInfrastructure: {
		Reasoning: "Roads, bridges, public utilities—important but not immediate life threats.",
		Petition:  "We request funding for bridge repairs and water supply improvements.",
	},
	CategoryEnvironment: {
		Reasoning: "Climate concerns, pollution, and waste management impact long-term health.",
		Petition:  "We call for stricter regulations on industrial pollution.",
	},
	CategoryHousing: {
		Reasoning: "Essential for quality of life, homelessness prevention, and affordable housing.",
		Petition:  "We request the construction of more affordable housing units.",
	},
	CategoryEducation: {
		Reasoning: "Long-term impact; crucial but not urgent like health/safety.",
		Petition:  "We demand better school infrastructure and updated learning materials.",
	},
	CategoryCommunityServices: {
		Reasoning: "Recreational spaces, libraries, cultural programs—not immediate needs.",
		Petition:  "We seek funding to build a new community library and cultural center.",
	},
	CategoryEconomicDevelopment: {
		Reasoning: "Business support and employment issues are important but less urgent.",
		Petition:  "We propose tax incentives for small businesses.",
	},
}

// LabeledExample is one row of the training dataset
type LabeledExample struct {
	Category     Category `json:"category"`
	Urgency      Urgency  `json:"urgency"`
	Reasoning    string   `json:"reasoning"`
	PetitionText string   `json:"petition_text"`
}

// NewExample fills reasoning and petition text from the category template
func NewExample(category Category, urgency Urgency) LabeledExample {
	tpl := Templates[category]
	return LabeledExample{
		Category:     category,
		Urgency:      urgency,
		Reasoning:    tpl.Reasoning,
		PetitionText: tpl.Petition,
	}
}

// Dataset file column headers
const (
	ColumnCategory = "Category"
	ColumnUrgency  = "Urgency Level"
	ColumnReason   = "Reasoning"
	ColumnPetition = "Sample Petition"
)

// Headers is the header row of the dataset file
var Headers = []string{ColumnCategory, ColumnUrgency, ColumnReason, ColumnPetition}

// Row renders the example in column order
func (e LabeledExample) Row() []string {
	return []string{string(e.Category), string(e.Urgency), e.Reasoning, e.PetitionText}
}

// Texts returns the petition text column
func Texts(examples []LabeledExample) []string {
	out := make([]string, len(examples))
	for i, e := range examples {
		out[i] = e.PetitionText
	}
	return out
}

// CategoryLabels returns the category column as plain strings
func CategoryLabels(examples []LabeledExample) []string {
	out := make([]string, len(examples))
	for i, e := range examples {
		out[i] = string(e.Category)
	}
	return out
}

// UrgencyLabels returns the urgency column as plain strings
func UrgencyLabels(examples []LabeledExample) []string {
	out := make([]string, len(examples))
	for i, e := range examples {
		out[i] = string(e.Urgency)
	}
	return out
}
