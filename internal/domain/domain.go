package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PersonalityType is the canonical identifier of a play-personality.
// It is the only form ever persisted; display titles come from the catalog.
type PersonalityType string

const (
	PersonalityCuriousBuilder         PersonalityType = "curious_builder"
	PersonalityCreativeArtist         PersonalityType = "creative_artist"
	PersonalityActiveExplorer         PersonalityType = "active_explorer"
	PersonalityImaginativeStoryteller PersonalityType = "imaginative_storyteller"
	PersonalitySocialConnector        PersonalityType = "social_connector"
	PersonalityLittleScientist        PersonalityType = "little_scientist"
	PersonalityPuzzleSolver           PersonalityType = "puzzle_solver"
	PersonalityRhythmMover            PersonalityType = "rhythm_mover"
	PersonalityGentleNurturer         PersonalityType = "gentle_nurturer"
	PersonalityFocusedObserver        PersonalityType = "focused_observer"
)

// PersonalityTypes returns all known types in enumeration order.
// The order matters: score ties are broken by it.
func PersonalityTypes() []PersonalityType {
	return []PersonalityType{
		PersonalityCuriousBuilder,
		PersonalityCreativeArtist,
		PersonalityActiveExplorer,
		PersonalityImaginativeStoryteller,
		PersonalitySocialConnector,
		PersonalityLittleScientist,
		PersonalityPuzzleSolver,
		PersonalityRhythmMover,
		PersonalityGentleNurturer,
		PersonalityFocusedObserver,
	}
}

// Question is one step of the quiz. Immutable, defined at build time.
type Question struct {
	QuestionID string
	Prompt     string
	Answers    []Answer
}

// Answer is one choice of a question. Value is the datum used for scoring;
// the rest is presentation.
type Answer struct {
	AnswerID string
	Text     string
	Icon     string
	Value    string
}

// AnswerSet maps question ID to the chosen answer value.
type AnswerSet map[string]string

// ScoreVector holds one score per known personality type, zero included.
type ScoreVector map[PersonalityType]int

// CategoryTag labels a toy category associated with a personality.
type CategoryTag struct {
	Name string
	Icon string
}

// PersonalityProfile is the display metadata of one personality type.
type PersonalityProfile struct {
	Type        PersonalityType
	Title       string
	Emoji       string
	Description string
	Categories  []CategoryTag
}

// QuizResult is a completed, signed-up quiz attempt. Created once on signup,
// immutable afterwards.
type QuizResult struct {
	ResultID       string
	Personality    PersonalityType
	Scores         ScoreVector // nil for legacy rows recorded before vectors were kept
	Answers        AnswerSet
	ParentName     string
	WhatsappNumber string
	Pincode        string
	ChildAge       *int
	UserID         string // empty denotes a guest
	IdempotencyKey string
	CreateTime     time.Time
}

// Toy is a catalog record, owned by the back-office. The funnel only reads it.
type Toy struct {
	ToyID            string
	Name             string
	Description      string
	ImageURL         string
	AgeGroup         string
	Category         string
	Price            decimal.Decimal
	Stock            int
	PersonalityTypes []PersonalityType
	Featured         bool
	CreateTime       time.Time

	AvgRating   decimal.Decimal
	ReviewCount int
}

// Review is one user's rating of a toy. One review per user per toy.
type Review struct {
	ReviewID   string
	ToyID      string
	UserID     string
	Rating     int
	Comment    string
	CreateTime time.Time
}

// WaitlistEntry is a pre-launch lead-capture record with referral bookkeeping.
type WaitlistEntry struct {
	EntryID      string
	Name         string
	Phone        string
	Pincode      string
	ReferralCode string // this entry's own shareable code
	ReferredBy   string // referral code used at signup, if any
	CreateTime   time.Time
}

// FlowStep is a state of the quiz funnel.
type FlowStep string

const (
	StepHero    FlowStep = "hero"
	StepQuiz    FlowStep = "quiz"
	StepResult  FlowStep = "result"
	StepSignup  FlowStep = "signup"
	StepPreview FlowStep = "preview"
)

// ContactInfo is the signup form data captured before recording a result.
type ContactInfo struct {
	ParentName     string `json:"parent_name"`
	WhatsappNumber string `json:"whatsapp_number"`
	Pincode        string `json:"pincode"`
	ChildAge       *int   `json:"child_age,omitempty"`
	UserID         string `json:"user_id,omitempty"`
}

// FlowState is the full in-progress funnel state of one session. It is
// serialized as a single blob so a session resumes exactly where it left off.
type FlowState struct {
	SessionID      string          `json:"session_id"`
	Step           FlowStep        `json:"step"`
	Cursor         int             `json:"cursor"`
	Answers        AnswerSet       `json:"answers"`
	Personality    PersonalityType `json:"personality,omitempty"`
	Scores         ScoreVector     `json:"scores,omitempty"`
	Contact        *ContactInfo    `json:"contact,omitempty"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
	ResultID       string          `json:"result_id,omitempty"`
}
