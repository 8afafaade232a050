package insight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joyboxhq/funnel/internal/domain"
)

func TestMergePersonalityCounts(t *testing.T) {
	tests := map[string]struct {
		pairs  []labelCount
		assert func(t *testing.T, counts []PersonalityCount)
	}{
		"legacy title and identifier merge into one entry": {
			pairs: []labelCount{
				{label: "The Curious Builder", count: 3},
				{label: "curious_builder", count: 2},
			},
			assert: func(t *testing.T, counts []PersonalityCount) {
				require.Len(t, counts, 1)
				assert.Equal(t, domain.PersonalityCuriousBuilder, counts[0].Type)
				assert.Equal(t, 5, counts[0].Count)
			},
		},

		"distinct types stay separate, largest first": {
			pairs: []labelCount{
				{label: "creative_artist", count: 1},
				{label: "active_explorer", count: 4},
			},
			assert: func(t *testing.T, counts []PersonalityCount) {
				require.Len(t, counts, 2)
				assert.Equal(t, domain.PersonalityActiveExplorer, counts[0].Type)
				assert.Equal(t, domain.PersonalityCreativeArtist, counts[1].Type)
			},
		},

		"unrecognized label folds into the fallback type": {
			pairs: []labelCount{
				{label: "???", count: 1},
				{label: "social_connector", count: 1},
			},
			assert: func(t *testing.T, counts []PersonalityCount) {
				require.Len(t, counts, 1)
				assert.Equal(t, domain.PersonalitySocialConnector, counts[0].Type)
				assert.Equal(t, 2, counts[0].Count)
			},
		},

		"ties keep enumeration order": {
			pairs: []labelCount{
				{label: "puzzle_solver", count: 2},
				{label: "creative_artist", count: 2},
			},
			assert: func(t *testing.T, counts []PersonalityCount) {
				require.Len(t, counts, 2)
				assert.Equal(t, domain.PersonalityCreativeArtist, counts[0].Type)
				assert.Equal(t, domain.PersonalityPuzzleSolver, counts[1].Type)
			},
		},

		"no rows yields an empty slice": {
			pairs: nil,
			assert: func(t *testing.T, counts []PersonalityCount) {
				assert.Empty(t, counts)
			},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			tt.assert(t, mergePersonalityCounts(tt.pairs))
		})
	}
}
