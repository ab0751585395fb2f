package submission

import (
	"strings"

	"github.com/haimn/showerparty/internal/domain"
	"github.com/haimn/showerparty/internal/sanitize"
)

// schemas declares the form fields of each activity, by wire name.
var schemas = map[domain.ActivityType]sanitize.Schema{
	domain.ActivityGuestbook: {
		"name":         {Type: sanitize.TypeName, Required: true},
		"relationship": {Type: sanitize.TypeText, Required: true, MaxLength: 50},
		"message":      {Type: sanitize.TypeText, Required: true, MinLength: 10, MaxLength: 500, AllowNewlines: true},
		"photoURL":     {Type: sanitize.TypeURL},
	},

	domain.ActivityPool: {
		"name":        {Type: sanitize.TypeName, Required: true},
		"dateGuess":   {Type: sanitize.TypeText, Required: true, MaxLength: 20},
		"timeGuess":   {Type: sanitize.TypeText, Required: true, MaxLength: 10},
		"weightGuess": {Type: sanitize.TypeNumber, Required: true},
		"lengthGuess": {Type: sanitize.TypeNumber, Required: true},
	},

	domain.ActivityQuiz: {
		"name":    {Type: sanitize.TypeName, Required: true},
		"puzzle1": {Type: sanitize.TypeText, Required: true, MaxLength: 100},
		"puzzle2": {Type: sanitize.TypeText, Required: true, MaxLength: 100},
		"puzzle3": {Type: sanitize.TypeText, Required: true, MaxLength: 100},
		"puzzle4": {Type: sanitize.TypeText, Required: true, MaxLength: 100},
		"puzzle5": {Type: sanitize.TypeText, Required: true, MaxLength: 100},
	},

	domain.ActivityAdvice: {
		"name":       {Type: sanitize.TypeName, Required: true},
		"adviceType": {Type: sanitize.TypeText, Required: true, MaxLength: 20, Enum: []string{"mom", "dad", "both"}},
		"message":    {Type: sanitize.TypeText, Required: true, MinLength: 10, MaxLength: 500, AllowNewlines: true},
	},
}

// answerKey holds the emoji-pictionary quiz answers, in puzzle order.
var answerKey = []string{
	"Baby Shower",
	"Bundle of Joy",
	"Rock a Bye Baby",
	"Baby Bottle",
	"Diaper Change",
}

var puzzleFields = []string{"puzzle1", "puzzle2", "puzzle3", "puzzle4", "puzzle5"}

func quizAnswers(data map[string]string) []string {
	answers := make([]string, 0, len(puzzleFields))
	for _, f := range puzzleFields {
		answers = append(answers, data[f])
	}
	return answers
}

// Score counts case-insensitive exact matches against the answer key.
// The result is naturally bounded to [0, len(answerKey)].
func Score(answers []string) int {
	score := 0
	for i, key := range answerKey {
		if i >= len(answers) {
			break
		}
		if strings.EqualFold(strings.TrimSpace(answers[i]), key) {
			score++
		}
	}
	return score
}
