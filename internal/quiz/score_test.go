package quiz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joyboxhq/funnel/internal/domain"
	"github.com/joyboxhq/funnel/internal/quiz"
)

func completeAnswers() domain.AnswerSet {
	return domain.AnswerSet{
		"age":       "preschool",
		"play-type": "builder",
		"energy":    "balanced",
		"attention": "medium",
		"learning":  "stem",
		"social":    "peers",
	}
}

func TestClassifyPrimary(t *testing.T) {
	tests := map[string]struct {
		arrange func() domain.AnswerSet
		want    domain.PersonalityType
	}{
		"builder maps to the curious builder": {
			arrange: func() domain.AnswerSet {
				a := completeAnswers()
				a["play-type"] = "builder"
				return a
			},
			want: domain.PersonalityCuriousBuilder,
		},

		"creative maps to the creative artist": {
			arrange: func() domain.AnswerSet {
				a := completeAnswers()
				a["play-type"] = "creative"
				return a
			},
			want: domain.PersonalityCreativeArtist,
		},

		"active maps to the active explorer": {
			arrange: func() domain.AnswerSet {
				a := completeAnswers()
				a["play-type"] = "active"
				return a
			},
			want: domain.PersonalityActiveExplorer,
		},

		"pretend maps to the imaginative storyteller": {
			arrange: func() domain.AnswerSet {
				a := completeAnswers()
				a["play-type"] = "pretend"
				return a
			},
			want: domain.PersonalityImaginativeStoryteller,
		},

		"unknown value falls back to the social connector": {
			arrange: func() domain.AnswerSet {
				a := completeAnswers()
				a["play-type"] = "something-else"
				return a
			},
			want: domain.PersonalitySocialConnector,
		},

		"missing play-type falls back to the social connector": {
			arrange: func() domain.AnswerSet {
				a := completeAnswers()
				delete(a, "play-type")
				return a
			},
			want: domain.PersonalitySocialConnector,
		},

		"empty answer set falls back to the social connector": {
			arrange: func() domain.AnswerSet { return domain.AnswerSet{} },
			want:    domain.PersonalitySocialConnector,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			a := tt.arrange()
			assert.Equal(t, tt.want, quiz.ClassifyPrimary(a))
		})
	}
}

func TestClassifyPrimary_Deterministic(t *testing.T) {
	a := completeAnswers()
	first := quiz.ClassifyPrimary(a)
	second := quiz.ClassifyPrimary(a)
	assert.Equal(t, first, second)

	v1 := quiz.Score(a)
	v2 := quiz.Score(a)
	assert.Equal(t, v1, v2)
}

func TestScore_VectorCoversAllTypes(t *testing.T) {
	tests := map[string]domain.AnswerSet{
		"complete answers": completeAnswers(),
		"empty answers":    {},
		"garbage values":   {"play-type": "???", "energy": "nope"},
	}

	for name, answers := range tests {
		answers := answers
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			v := quiz.Score(answers)
			require.Len(t, v, len(domain.PersonalityTypes()))
			for _, pt := range domain.PersonalityTypes() {
				score, ok := v[pt]
				assert.True(t, ok, "vector should have an entry for %s", pt)
				assert.GreaterOrEqual(t, score, 0)
			}
		})
	}
}

func TestClassify_IsArgmaxOfScore(t *testing.T) {
	a := completeAnswers()

	got := quiz.Classify(a)
	v := quiz.Score(a)

	for _, pt := range domain.PersonalityTypes() {
		assert.LessOrEqual(t, v[pt], v[got], "%s should not outscore the classification result", pt)
	}
}

func TestClassify_TieBrokenByEnumerationOrder(t *testing.T) {
	// An empty answer set scores every type zero, a full tie. The first type
	// in enumeration order must win.
	got := quiz.Classify(domain.AnswerSet{})
	assert.Equal(t, domain.PersonalityTypes()[0], got)
}

func TestClassifyPrimary_BuilderScenario(t *testing.T) {
	a := domain.AnswerSet{
		"age":       "preschool",
		"play-type": "builder",
		"energy":    "balanced",
		"attention": "medium",
		"learning":  "stem",
		"social":    "peers",
	}

	got := quiz.ClassifyPrimary(a)
	require.Equal(t, domain.PersonalityCuriousBuilder, got)

	p := quiz.Profile(got)
	assert.Equal(t, "The Curious Builder", p.Title)

	names := make([]string, 0, len(p.Categories))
	for _, c := range p.Categories {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Building Blocks", "STEM Kits", "Puzzles"}, names)
}
