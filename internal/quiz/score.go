package quiz

import "github.com/joyboxhq/funnel/internal/domain"

// primaryDispatch is the legacy five-way classification over the play-type
// answer. Kept for historical results recorded before score vectors existed.
var primaryDispatch = map[string]domain.PersonalityType{
	"builder":  domain.PersonalityCuriousBuilder,
	"creative": domain.PersonalityCreativeArtist,
	"active":   domain.PersonalityActiveExplorer,
	"pretend":  domain.PersonalityImaginativeStoryteller,
}

// ClassifyPrimary maps a completed answer set to a personality using only the
// play-type signal. Unknown or missing values fall back to the balanced
// profile; this is the catch-all, not an error.
func ClassifyPrimary(answers domain.AnswerSet) domain.PersonalityType {
	if t, ok := primaryDispatch[answers[QuestionPlayType]]; ok {
		return t
	}
	return FallbackPersonality
}

type weight struct {
	t domain.PersonalityType
	w int
}

// weights assigns every answer value a positive contribution to one or more
// personality types, keyed by question then value.
var weights = map[string]map[string][]weight{
	QuestionAge: {
		"toddler":      {{domain.PersonalityRhythmMover, 2}, {domain.PersonalityGentleNurturer, 2}},
		"preschool":    {{domain.PersonalityImaginativeStoryteller, 2}, {domain.PersonalityCreativeArtist, 2}},
		"early_school": {{domain.PersonalityPuzzleSolver, 2}, {domain.PersonalityLittleScientist, 2}},
	},
	QuestionPlayType: {
		"builder":  {{domain.PersonalityCuriousBuilder, 10}, {domain.PersonalityPuzzleSolver, 4}},
		"creative": {{domain.PersonalityCreativeArtist, 10}, {domain.PersonalityImaginativeStoryteller, 4}},
		"active":   {{domain.PersonalityActiveExplorer, 10}, {domain.PersonalityRhythmMover, 4}},
		"pretend":  {{domain.PersonalityImaginativeStoryteller, 10}, {domain.PersonalitySocialConnector, 4}},
		"social":   {{domain.PersonalitySocialConnector, 10}, {domain.PersonalityGentleNurturer, 4}},
	},
	QuestionEnergy: {
		"calm":     {{domain.PersonalityFocusedObserver, 6}, {domain.PersonalityGentleNurturer, 3}},
		"balanced": {{domain.PersonalitySocialConnector, 3}, {domain.PersonalityFocusedObserver, 3}},
		"high":     {{domain.PersonalityActiveExplorer, 6}, {domain.PersonalityRhythmMover, 3}},
	},
	QuestionAttention: {
		"short":  {{domain.PersonalityActiveExplorer, 4}, {domain.PersonalityRhythmMover, 2}},
		"medium": {{domain.PersonalitySocialConnector, 3}, {domain.PersonalityCreativeArtist, 2}},
		"long":   {{domain.PersonalityPuzzleSolver, 6}, {domain.PersonalityCuriousBuilder, 3}, {domain.PersonalityLittleScientist, 3}},
	},
	QuestionLearning: {
		"stem":     {{domain.PersonalityLittleScientist, 8}, {domain.PersonalityCuriousBuilder, 4}},
		"arts":     {{domain.PersonalityCreativeArtist, 8}, {domain.PersonalityRhythmMover, 4}},
		"physical": {{domain.PersonalityActiveExplorer, 8}},
		"stories":  {{domain.PersonalityImaginativeStoryteller, 8}, {domain.PersonalityFocusedObserver, 3}},
	},
	QuestionSocial: {
		"solo":   {{domain.PersonalityFocusedObserver, 6}, {domain.PersonalityPuzzleSolver, 3}},
		"peers":  {{domain.PersonalitySocialConnector, 6}},
		"adults": {{domain.PersonalityGentleNurturer, 6}},
		"mixed":  {{domain.PersonalitySocialConnector, 3}, {domain.PersonalityGentleNurturer, 3}},
	},
}

// Score sums the weight table over all answered questions. The returned
// vector always carries an entry for every known personality type, zero
// included. Unrecognized values contribute nothing.
func Score(answers domain.AnswerSet) domain.ScoreVector {
	v := make(domain.ScoreVector, len(domain.PersonalityTypes()))
	for _, t := range domain.PersonalityTypes() {
		v[t] = 0
	}

	for q, value := range answers {
		for _, w := range weights[q][value] {
			v[w.t] += w.w
		}
	}

	return v
}

// Classify is the canonical classification: the personality with the maximum
// aggregate score, ties broken by enumeration order.
func Classify(answers domain.AnswerSet) domain.PersonalityType {
	v := Score(answers)

	best := domain.PersonalityTypes()[0]
	for _, t := range domain.PersonalityTypes() {
		if v[t] > v[best] {
			best = t
		}
	}

	return best
}
