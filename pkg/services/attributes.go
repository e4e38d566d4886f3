package services

import (
	"regexp"
	"strings"
)

// Attributes is the structured facet set pulled from a free-text line
// description. Absent facets stay empty so callers can tell "no signal" apart
// from an explicit value.
type Attributes struct {
	Size     string
	FRR      string
	Service  string
	Subclass string
	Material string

	// Confidence is the fraction of facets that were resolved.
	Confidence float64
}

var sizePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\d+(?:\.\d+)?\s*(?:mm|millimeter|millimetre)`),
	regexp.MustCompile(`(?i)\d+(?:\.\d+)?\s*(?:inch|in|")`),
	regexp.MustCompile(`(?i)\d+(?:\.\d+)?\s*x\s*\d+(?:\.\d+)?\s*(?:mm|millimeter|millimetre|inch|in|")?`),
	regexp.MustCompile(`(?i)\d+(?:\.\d+)?\s*(?:mm|inch|in|")?\s*(?:dia|diameter|ø)`),
	regexp.MustCompile(`(?i)DN\s*\d+`),
	regexp.MustCompile(`(?i)NB\s*\d+`),
}

var frrPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)FRL\s*[-/]?\s*\d+(?:\s*[-/]\s*\d+(?:\s*[-/]\s*\d+)?)?`),
	regexp.MustCompile(`\d+\s*[-/]\s*\d+\s*[-/]\s*\d+`),
	regexp.MustCompile(`(?i)\d+\s*min(?:ute)?s?\s*fire\s*rat(?:ing|ed)`),
	regexp.MustCompile(`(?i)fire\s*rat(?:ing|ed)?\s*(?:of|:)?\s*\d+`),
	regexp.MustCompile(`-/\d+/\d+`),
}

// keywordSet maps a canonical facet value to the phrases implying it. Order
// matters: the first entry whose keywords appear wins.
type keywordSet struct {
	value    string
	keywords []string
}

var serviceKeywords = []keywordSet{
	{"Electrical", []string{"electrical", "electric", "power", "cable", "wiring", "conduit"}},
	{"Mechanical", []string{"mechanical", "hvac", "duct", "ducting", "ventilation", "air conditioning"}},
	{"Fire", []string{"fire", "sprinkler", "fire protection"}},
	{"Plumbing", []string{"plumbing", "pipe", "piping", "water", "drainage", "sewer"}},
	{"Data", []string{"data", "telecom", "communication", "network", "fibre", "fiber"}},
	{"Gas", []string{"gas", "natural gas", "lpg"}},
}

var subclassKeywords = []keywordSet{
	{"Cables", []string{"cable", "cabling", "wire", "wiring"}},
	{"Conduit", []string{"conduit", "trunking"}},
	{"Ducts", []string{"duct", "ducting"}},
	{"Pipes", []string{"pipe", "piping"}},
	{"Tray", []string{"tray", "cable tray", "ladder"}},
	{"Penetration", []string{"penetration", "opening", "hole", "aperture"}},
	{"Seal", []string{"seal", "sealing", "sealant", "firestop"}},
	{"Batt", []string{"batt", "blanket", "wrap"}},
	{"Board", []string{"board", "panel"}},
	{"Collar", []string{"collar", "wrap"}},
	{"Block", []string{"block", "brick"}},
	{"Damper", []string{"damper", "fire damper"}},
}

var materialKeywords = []keywordSet{
	{"Steel", []string{"steel", "galvanised", "galvanized"}},
	{"PVC", []string{"pvc", "polyvinyl"}},
	{"Copper", []string{"copper", "cu"}},
	{"Aluminium", []string{"aluminium", "aluminum"}},
	{"Concrete", []string{"concrete"}},
	{"Plasterboard", []string{"plasterboard", "gypsum", "drywall"}},
	{"Ceramic", []string{"ceramic", "fibre", "fiber"}},
	{"Intumescent", []string{"intumescent"}},
	{"Mineral Wool", []string{"mineral wool", "rockwool", "rock wool"}},
}

// ExtractAttributes parses a free-text description into structured facets.
// Side-effect free; confidence is the resolved fraction of the five facets.
func ExtractAttributes(text string) Attributes {
	if text == "" {
		return Attributes{}
	}

	lower := strings.ToLower(text)
	var attrs Attributes
	resolved := 0

	if attrs.Size = firstPatternMatch(text, sizePatterns); attrs.Size != "" {
		resolved++
	}
	if attrs.FRR = firstPatternMatch(text, frrPatterns); attrs.FRR != "" {
		resolved++
	}
	if attrs.Service = firstKeywordMatch(lower, serviceKeywords); attrs.Service != "" {
		resolved++
	}
	if attrs.Subclass = firstKeywordMatch(lower, subclassKeywords); attrs.Subclass != "" {
		resolved++
	}
	if attrs.Material = firstKeywordMatch(lower, materialKeywords); attrs.Material != "" {
		resolved++
	}

	attrs.Confidence = float64(resolved) / 5
	return attrs
}

func firstPatternMatch(text string, patterns []*regexp.Regexp) string {
	for _, p := range patterns {
		if m := p.FindString(text); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return ""
}

func firstKeywordMatch(lower string, sets []keywordSet) string {
	for _, set := range sets {
		for _, kw := range set.keywords {
			if strings.Contains(lower, kw) {
				return set.value
			}
		}
	}
	return ""
}
