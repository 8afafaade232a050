package quiz

import (
	"strings"

	"github.com/joyboxhq/funnel/internal/domain"
)

// FallbackPersonality is returned whenever classification or label
// normalization has nothing better to offer. It doubles as the "balanced"
// profile, so it is a sensible default rather than an error.
const FallbackPersonality = domain.PersonalitySocialConnector

var profiles = map[domain.PersonalityType]domain.PersonalityProfile{
	domain.PersonalityCuriousBuilder: {
		Type:        domain.PersonalityCuriousBuilder,
		Title:       "The Curious Builder",
		Emoji:       "🏗️",
		Description: "Loves figuring out how things fit together and turning loose pieces into towers, tracks and machines.",
		Categories: []domain.CategoryTag{
			{Name: "Building Blocks", Icon: "🧱"},
			{Name: "STEM Kits", Icon: "🔬"},
			{Name: "Puzzles", Icon: "🧩"},
		},
	},
	domain.PersonalityCreativeArtist: {
		Type:        domain.PersonalityCreativeArtist,
		Title:       "The Creative Artist",
		Emoji:       "🎨",
		Description: "Sees colours and shapes everywhere and is happiest with paint on the fingers and a story in the head.",
		Categories: []domain.CategoryTag{
			{Name: "Art & Craft", Icon: "✂️"},
			{Name: "Musical Toys", Icon: "🎶"},
			{Name: "Modelling Clay", Icon: "🏺"},
		},
	},
	domain.PersonalityActiveExplorer: {
		Type:        domain.PersonalityActiveExplorer,
		Title:       "The Active Explorer",
		Emoji:       "⚽",
		Description: "Never sits still for long; learns the world by running through it, climbing over it and throwing things at it.",
		Categories: []domain.CategoryTag{
			{Name: "Outdoor Play", Icon: "🛝"},
			{Name: "Ride-Ons", Icon: "🛴"},
			{Name: "Sports Sets", Icon: "🏏"},
		},
	},
	domain.PersonalityImaginativeStoryteller: {
		Type:        domain.PersonalityImaginativeStoryteller,
		Title:       "The Imaginative Storyteller",
		Emoji:       "🦄",
		Description: "Lives half the day in a made-up kingdom and can turn a cardboard box into a castle, a rocket or a bakery.",
		Categories: []domain.CategoryTag{
			{Name: "Pretend Play", Icon: "👑"},
			{Name: "Dolls & Figures", Icon: "🪆"},
			{Name: "Story Books", Icon: "📖"},
		},
	},
	domain.PersonalitySocialConnector: {
		Type:        domain.PersonalitySocialConnector,
		Title:       "The Social Connector",
		Emoji:       "🤝",
		Description: "A balanced all-rounder who enjoys a bit of everything and most of all enjoys it with other people.",
		Categories: []domain.CategoryTag{
			{Name: "Board Games", Icon: "🎲"},
			{Name: "Group Play Sets", Icon: "🏘️"},
			{Name: "Puppets", Icon: "🎭"},
		},
	},
	domain.PersonalityLittleScientist: {
		Type:        domain.PersonalityLittleScientist,
		Title:       "The Little Scientist",
		Emoji:       "🔬",
		Description: "Asks why about everything and wants to take it apart, mix it, magnetize it or watch it grow.",
		Categories: []domain.CategoryTag{
			{Name: "Science Kits", Icon: "🧪"},
			{Name: "Nature Explorer", Icon: "🔭"},
			{Name: "Logic Games", Icon: "♟️"},
		},
	},
	domain.PersonalityPuzzleSolver: {
		Type:        domain.PersonalityPuzzleSolver,
		Title:       "The Puzzle Solver",
		Emoji:       "🧩",
		Description: "Patient and focused; will happily sit with a tricky puzzle until the last piece clicks into place.",
		Categories: []domain.CategoryTag{
			{Name: "Jigsaw Puzzles", Icon: "🧩"},
			{Name: "Brain Teasers", Icon: "🧠"},
			{Name: "Matching Games", Icon: "🃏"},
		},
	},
	domain.PersonalityRhythmMover: {
		Type:        domain.PersonalityRhythmMover,
		Title:       "The Rhythm Mover",
		Emoji:       "🥁",
		Description: "Dances before walking steadily; anything that makes a sound becomes a drum, a bell or a stage.",
		Categories: []domain.CategoryTag{
			{Name: "Musical Instruments", Icon: "🎹"},
			{Name: "Dance & Movement", Icon: "💃"},
			{Name: "Sound Toys", Icon: "🔔"},
		},
	},
	domain.PersonalityGentleNurturer: {
		Type:        domain.PersonalityGentleNurturer,
		Title:       "The Gentle Nurturer",
		Emoji:       "🧸",
		Description: "Caring and observant; looks after dolls, pets and younger siblings with surprising seriousness.",
		Categories: []domain.CategoryTag{
			{Name: "Soft Toys", Icon: "🧸"},
			{Name: "Doctor & Care Sets", Icon: "🩺"},
			{Name: "Kitchen Play", Icon: "🍳"},
		},
	},
	domain.PersonalityFocusedObserver: {
		Type:        domain.PersonalityFocusedObserver,
		Title:       "The Focused Observer",
		Emoji:       "🔍",
		Description: "Quietly watches before joining in, then concentrates deeply on one thing at a time.",
		Categories: []domain.CategoryTag{
			{Name: "Sorting & Stacking", Icon: "🗂️"},
			{Name: "Quiet Books", Icon: "📕"},
			{Name: "Sensory Toys", Icon: "🫧"},
		},
	},
}

// Profile returns the display metadata of a personality type. Unknown
// identifiers resolve to the fallback profile.
func Profile(t domain.PersonalityType) domain.PersonalityProfile {
	if p, ok := profiles[t]; ok {
		return p
	}
	return profiles[FallbackPersonality]
}

// Profiles returns all catalog entries in enumeration order.
func Profiles() []domain.PersonalityProfile {
	ts := domain.PersonalityTypes()
	ps := make([]domain.PersonalityProfile, 0, len(ts))
	for _, t := range ts {
		ps = append(ps, profiles[t])
	}
	return ps
}

// keyword-per-type used to resolve legacy free-text labels. Checked in
// enumeration order; first hit wins.
var labelKeywords = map[domain.PersonalityType][]string{
	domain.PersonalityCuriousBuilder:         {"builder"},
	domain.PersonalityCreativeArtist:         {"artist", "creative"},
	domain.PersonalityActiveExplorer:         {"explorer", "active"},
	domain.PersonalityImaginativeStoryteller: {"storyteller", "dreamer", "imaginative", "pretend"},
	domain.PersonalitySocialConnector:        {"connector", "social", "balanced"},
	domain.PersonalityLittleScientist:        {"scientist"},
	domain.PersonalityPuzzleSolver:           {"puzzle"},
	domain.PersonalityRhythmMover:            {"rhythm", "music"},
	domain.PersonalityGentleNurturer:         {"nurturer"},
	domain.PersonalityFocusedObserver:        {"observer", "focused"},
}

// NormalizeLabel resolves a historically stored personality label to its
// canonical identifier. Old rows persisted the display title ("The Curious
// Builder") instead of the identifier, so readers of legacy data re-derive it
// here: strip the leading article, lower-case, and token-match against known
// identifiers. Anything unrecognized resolves to the fallback profile.
// New writes never need this; they store the identifier.
func NormalizeLabel(label string) domain.PersonalityType {
	s := strings.ToLower(strings.TrimSpace(label))
	s = strings.TrimPrefix(s, "the ")
	s = strings.ReplaceAll(s, "-", " ")

	if t := domain.PersonalityType(strings.ReplaceAll(s, " ", "_")); t != "" {
		if _, ok := profiles[t]; ok {
			return t
		}
	}

	for _, t := range domain.PersonalityTypes() {
		for _, kw := range labelKeywords[t] {
			if strings.Contains(s, kw) {
				return t
			}
		}
	}

	return FallbackPersonality
}
