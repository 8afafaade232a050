package quiz

import "github.com/joyboxhq/funnel/internal/domain"

// Question IDs, in quiz order. "play-type" is the primary classification signal.
const (
	QuestionAge       = "age"
	QuestionPlayType  = "play-type"
	QuestionEnergy    = "energy"
	QuestionAttention = "attention"
	QuestionLearning  = "learning"
	QuestionSocial    = "social"
)

var questions = []domain.Question{
	{
		QuestionID: QuestionAge,
		Prompt:     "How old is your little one?",
		Answers: []domain.Answer{
			{AnswerID: "age-1", Text: "1-3 years", Icon: "🍼", Value: "toddler"},
			{AnswerID: "age-2", Text: "3-5 years", Icon: "🎈", Value: "preschool"},
			{AnswerID: "age-3", Text: "5-8 years", Icon: "🎒", Value: "early_school"},
		},
	},
	{
		QuestionID: QuestionPlayType,
		Prompt:     "What does your child love doing most?",
		Answers: []domain.Answer{
			{AnswerID: "play-1", Text: "Building & stacking things", Icon: "🧱", Value: "builder"},
			{AnswerID: "play-2", Text: "Drawing, colouring & crafts", Icon: "🎨", Value: "creative"},
			{AnswerID: "play-3", Text: "Running, climbing & jumping", Icon: "⚽", Value: "active"},
			{AnswerID: "play-4", Text: "Pretend play & make-believe", Icon: "🦸", Value: "pretend"},
			{AnswerID: "play-5", Text: "Playing with other kids", Icon: "🤝", Value: "social"},
		},
	},
	{
		QuestionID: QuestionEnergy,
		Prompt:     "How would you describe their energy?",
		Answers: []domain.Answer{
			{AnswerID: "energy-1", Text: "Calm and settled", Icon: "😌", Value: "calm"},
			{AnswerID: "energy-2", Text: "A healthy mix", Icon: "⚖️", Value: "balanced"},
			{AnswerID: "energy-3", Text: "Always on the move", Icon: "⚡", Value: "high"},
		},
	},
	{
		QuestionID: QuestionAttention,
		Prompt:     "How long do they stay with one activity?",
		Answers: []domain.Answer{
			{AnswerID: "attention-1", Text: "A few minutes", Icon: "⏱️", Value: "short"},
			{AnswerID: "attention-2", Text: "Ten to twenty minutes", Icon: "⏲️", Value: "medium"},
			{AnswerID: "attention-3", Text: "They get lost in it", Icon: "🔍", Value: "long"},
		},
	},
	{
		QuestionID: QuestionLearning,
		Prompt:     "What kind of learning excites them?",
		Answers: []domain.Answer{
			{AnswerID: "learning-1", Text: "Numbers, shapes & how things work", Icon: "🔬", Value: "stem"},
			{AnswerID: "learning-2", Text: "Colours, music & art", Icon: "🎭", Value: "arts"},
			{AnswerID: "learning-3", Text: "Sports & physical challenges", Icon: "🏃", Value: "physical"},
			{AnswerID: "learning-4", Text: "Stories & characters", Icon: "📚", Value: "stories"},
		},
	},
	{
		QuestionID: QuestionSocial,
		Prompt:     "Who do they prefer playing with?",
		Answers: []domain.Answer{
			{AnswerID: "social-1", Text: "Happily on their own", Icon: "🧸", Value: "solo"},
			{AnswerID: "social-2", Text: "Kids their age", Icon: "👫", Value: "peers"},
			{AnswerID: "social-3", Text: "Parents & older folks", Icon: "👨‍👩‍👧", Value: "adults"},
			{AnswerID: "social-4", Text: "Anyone around", Icon: "🌍", Value: "mixed"},
		},
	},
}

// Questions returns the quiz in presentation order.
func Questions() []domain.Question {
	return questions
}

// QuestionCount is the number of questions a complete AnswerSet must cover.
func QuestionCount() int {
	return len(questions)
}

// QuestionAt returns the question at the given cursor position.
func QuestionAt(i int) (domain.Question, bool) {
	if i < 0 || i >= len(questions) {
		return domain.Question{}, false
	}
	return questions[i], true
}
