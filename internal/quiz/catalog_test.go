package quiz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joyboxhq/funnel/internal/domain"
	"github.com/joyboxhq/funnel/internal/quiz"
)

func TestProfile_EveryTypeHasAnEntry(t *testing.T) {
	for _, pt := range domain.PersonalityTypes() {
		p := quiz.Profile(pt)
		assert.Equal(t, pt, p.Type)
		assert.NotEmpty(t, p.Title)
		assert.NotEmpty(t, p.Description)
		assert.Len(t, p.Categories, 3)
	}
}

func TestProfile_UnknownTypeFallsBack(t *testing.T) {
	p := quiz.Profile(domain.PersonalityType("not-a-type"))
	assert.Equal(t, quiz.FallbackPersonality, p.Type)
}

func TestNormalizeLabel(t *testing.T) {
	tests := map[string]struct {
		label string
		want  domain.PersonalityType
	}{
		"legacy display title": {
			label: "The Curious Builder",
			want:  domain.PersonalityCuriousBuilder,
		},
		"clean identifier passes through": {
			label: "curious_builder",
			want:  domain.PersonalityCuriousBuilder,
		},
		"title without article": {
			label: "Creative Artist",
			want:  domain.PersonalityCreativeArtist,
		},
		"partial keyword match": {
			label: "little explorer kid",
			want:  domain.PersonalityActiveExplorer,
		},
		"legacy balanced label": {
			label: "Balanced",
			want:  domain.PersonalitySocialConnector,
		},
		"unrecognized label falls back": {
			label: "Quantum Wizard",
			want:  quiz.FallbackPersonality,
		},
		"empty label falls back": {
			label: "",
			want:  quiz.FallbackPersonality,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, quiz.NormalizeLabel(tt.label))
		})
	}
}

func TestQuestions_BankShape(t *testing.T) {
	qs := quiz.Questions()
	require.Len(t, qs, quiz.QuestionCount())

	seen := make(map[string]bool)
	var hasPlayType bool
	for _, q := range qs {
		assert.False(t, seen[q.QuestionID], "duplicate question ID %s", q.QuestionID)
		seen[q.QuestionID] = true
		assert.NotEmpty(t, q.Prompt)
		require.NotEmpty(t, q.Answers)
		for _, a := range q.Answers {
			assert.NotEmpty(t, a.Value, "answer %s must carry a scoring value", a.AnswerID)
		}
		if q.QuestionID == quiz.QuestionPlayType {
			hasPlayType = true
		}
	}
	assert.True(t, hasPlayType, "bank must contain the primary signal question")
}
