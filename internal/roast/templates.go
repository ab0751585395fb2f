package roast

import (
	"context"
	"fmt"
	"hash/fnv"
)

// Templates is the deterministic fallback generator. The same request always
// yields the same line, so gameplay never blocks on a third-party API.
type Templates struct{}

func NewTemplates() *Templates {
	return &Templates{}
}

var scenarioTemplates = []Scenario{
	{
		Text:      "The baby starts crying at 3 AM. Who gets up first?",
		MomOption: "Mom, before the first sob ends",
		DadOption: "Dad, pretending he was already awake",
	},
	{
		Text:      "Who is more likely to call the pediatrician over a single sneeze?",
		MomOption: "Mom, with a symptom spreadsheet",
		DadOption: "Dad, mid-panic Google search",
	},
	{
		Text:      "A diaper situation of historic proportions. Who handles it?",
		MomOption: "Mom, calm and surgical",
		DadOption: "Dad, with safety goggles",
	},
	{
		Text:      "Who is more likely to cry at the first day of daycare?",
		MomOption: "Mom, openly",
		DadOption: "Dad, 'it's just allergies'",
	},
	{
		Text:      "Who will cave first and buy the ridiculous tiny shoes?",
		MomOption: "Mom, they were on sale",
		DadOption: "Dad, they match his sneakers",
	},
	{
		Text:      "The stroller has 47 assembly steps. Who reads the manual?",
		MomOption: "Mom, cover to cover",
		DadOption: "Dad, after three leftover screws",
	},
}

var commentaryAgree = []string{
	"The crowd called it — %s didn't stand a chance in that debate.",
	"No surprises here: everyone already knows exactly who wears the baby carrier in this family.",
	"The people have spoken, and for once the people were right about %s.",
}

var commentaryDisagree = []string{
	"Plot twist! %s fooled absolutely everyone — the crowd never saw it coming.",
	"The crowd was confidently, spectacularly wrong. Somebody owes %s an apology.",
	"An upset for the ages: turns out nobody at this party actually knows %s.",
}

func (*Templates) Scenario(_ context.Context, req ScenarioRequest) (Scenario, error) {
	s := scenarioTemplates[pick(len(scenarioTemplates), req.MomName, req.DadName, fmt.Sprint(req.Round))]
	return s, nil
}

func (*Templates) Commentary(_ context.Context, req CommentaryRequest) (string, error) {
	subject := req.MomName
	if req.ActualChoice == "dad" {
		subject = req.DadName
	}

	pool := commentaryAgree
	if req.CrowdChoice != req.ActualChoice {
		pool = commentaryDisagree
	}

	line := pool[pick(len(pool), req.ScenarioText, string(req.ActualChoice))]
	if !hasPlaceholder(line) {
		return line, nil
	}

	return fmt.Sprintf(line, subject), nil
}

func pick(n int, parts ...string) int {
	h := fnv.New32a()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
	}
	return int(h.Sum32() % uint32(n))
}

func hasPlaceholder(line string) bool {
	for i := 0; i+1 < len(line); i++ {
		if line[i] == '%' && line[i+1] == 's' {
			return true
		}
	}
	return false
}
