package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/haimn/showerparty/internal/domain"
	"github.com/haimn/showerparty/internal/submission"
	"github.com/haimn/showerparty/internal/vote"
)

var submitMessages = map[domain.ActivityType]string{
	domain.ActivityGuestbook: "Thanks for signing the guestbook!",
	domain.ActivityPool:      "Your guess is in!",
	domain.ActivityQuiz:      "Quiz submitted!",
	domain.ActivityAdvice:    "Thanks for the advice!",
}

type submissionView struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Activity   string         `json:"activity"`
	Data       map[string]any `json:"data"`
	CreateTime time.Time      `json:"createdAt"`
	Mirrored   bool           `json:"mirrored"`
}

// submit builds the form handler for one activity. Bodies are flat JSON
// objects; values may arrive as strings or numbers depending on the client.
func (a *API) submit(activity domain.ActivityType) gin.HandlerFunc {
	return func(c *gin.Context) {
		var raw map[string]any
		if err := c.ShouldBindJSON(&raw); err != nil {
			badRequest(c, "request body must be a JSON object")
			return
		}

		fields := make(map[string]string, len(raw))
		for k, v := range raw {
			fields[k] = stringify(v)
		}

		resp, err := a.submissions.Create(c.Request.Context(), submission.CreateRequest{
			Activity: activity,
			Fields:   fields,
		})
		if err != nil {
			fail(c, err)
			return
		}

		msg := resp.Message
		if msg == "" {
			msg = submitMessages[activity]
		}

		c.JSON(http.StatusCreated, response{
			Result:  "success",
			Message: msg,
			Score:   resp.Score,
			Data:    gin.H{"submission": newSubmissionView(resp.Submission, resp.Mirrored)},
		})
	}
}

func newSubmissionView(sub domain.Submission, mirrored bool) submissionView {
	return submissionView{
		ID:         sub.SubmissionID,
		Name:       sub.Name,
		Activity:   string(sub.Activity),
		Data:       sub.Data,
		CreateTime: sub.CreateTime,
		Mirrored:   mirrored,
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		// JSON numbers; trim the float noise for whole values.
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case bool:
		return fmt.Sprintf("%t", t)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

type castVoteRequest struct {
	Name          string   `json:"name"`
	SelectedNames []string `json:"selectedNames"`
}

func (a *API) castVote(c *gin.Context) {
	var req castVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "request body must be a JSON object")
		return
	}

	resp, err := a.votes.Cast(c.Request.Context(), vote.CastRequest{
		VoterName:     req.Name,
		SelectedNames: req.SelectedNames,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response{
		Result:  "success",
		Message: "Vote recorded!",
		Data: gin.H{"vote": gin.H{
			"id":            resp.Vote.VoteID,
			"voterName":     resp.Vote.VoterName,
			"selectedNames": resp.Vote.SelectedNames,
			"createdAt":     resp.Vote.CreateTime,
		}},
	})
}

func (a *API) voteLeaderboard(c *gin.Context) {
	standings, err := a.votes.Leaderboard(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	entries := make([]gin.H, 0, len(standings))
	for _, s := range standings {
		entries = append(entries, gin.H{"name": s.Name, "votes": s.Votes})
	}

	success(c, http.StatusOK, "", gin.H{"leaderboard": entries})
}

func (a *API) stats(c *gin.Context) {
	counts, err := a.submissions.Stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	byActivity := make(map[string]int64, len(counts))
	var total int64
	for activity, n := range counts {
		byActivity[string(activity)] = n
		total += n
	}

	success(c, http.StatusOK, "", gin.H{"total": total, "byActivity": byActivity})
}
