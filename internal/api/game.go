package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/haimn/showerparty/internal/domain"
	"github.com/haimn/showerparty/internal/game"
)

type sessionView struct {
	Code         string    `json:"code"`
	MomName      string    `json:"momName"`
	DadName      string    `json:"dadName"`
	Status       string    `json:"status"`
	CurrentRound int       `json:"currentRound"`
	TotalRounds  int       `json:"totalRounds"`
	CreateTime   time.Time `json:"createdAt"`
}

type scenarioView struct {
	Round     int     `json:"round"`
	Text      string  `json:"text"`
	MomOption string  `json:"momOption"`
	DadOption string  `json:"dadOption"`
	Intensity float64 `json:"intensity"`
}

type resultView struct {
	MomVotes      int64  `json:"momVotes"`
	DadVotes      int64  `json:"dadVotes"`
	CrowdChoice   string `json:"crowdChoice"`
	ActualChoice  string `json:"actualChoice"`
	PerceptionGap string `json:"perceptionGap"`
	Roast         string `json:"roast"`
}

func newSessionView(gs domain.GameSession) sessionView {
	return sessionView{
		Code:         gs.SessionCode,
		MomName:      gs.MomName,
		DadName:      gs.DadName,
		Status:       string(gs.Status),
		CurrentRound: gs.CurrentRound,
		TotalRounds:  gs.TotalRounds,
		CreateTime:   gs.CreateTime,
	}
}

func newScenarioView(sc domain.GameScenario) scenarioView {
	return scenarioView{
		Round:     sc.Round,
		Text:      sc.Text,
		MomOption: sc.MomOption,
		DadOption: sc.DadOption,
		Intensity: sc.Intensity,
	}
}

func newResultView(r domain.GameResult) resultView {
	return resultView{
		MomVotes:      r.MomVotes,
		DadVotes:      r.DadVotes,
		CrowdChoice:   string(r.CrowdChoice),
		ActualChoice:  string(r.ActualChoice),
		PerceptionGap: r.PerceptionGap.String(),
		Roast:         r.Roast,
	}
}

type createSessionRequest struct {
	MomName     string `json:"momName" binding:"required"`
	DadName     string `json:"dadName" binding:"required"`
	TotalRounds int    `json:"totalRounds"`
}

func (a *API) createSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "momName and dadName are required")
		return
	}

	gs, err := a.games.CreateSession(c.Request.Context(), game.CreateSessionRequest{
		MomName:     req.MomName,
		DadName:     req.DadName,
		TotalRounds: req.TotalRounds,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response{
		Result:  "success",
		Message: "Session created. Keep the admin code private!",
		Data: gin.H{
			"session":   newSessionView(*gs),
			"adminCode": gs.AdminCode,
		},
	})
}

type joinSessionRequest struct {
	GuestName string `json:"guestName" binding:"required"`
}

func (a *API) joinSession(c *gin.Context) {
	var req joinSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "guestName is required")
		return
	}

	resp, err := a.games.Join(c.Request.Context(), game.JoinRequest{
		SessionCode: c.Param("code"),
		GuestName:   req.GuestName,
	})
	if err != nil {
		fail(c, err)
		return
	}

	data := gin.H{"session": newSessionView(resp.Session)}
	if resp.Scenario != nil {
		data["scenario"] = newScenarioView(*resp.Scenario)
	}

	success(c, http.StatusOK, "You're in!", data)
}

type startRoundRequest struct {
	AdminCode string  `json:"adminCode" binding:"required"`
	Intensity float64 `json:"intensity"`
}

func (a *API) startRound(c *gin.Context) {
	var req startRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "adminCode is required")
		return
	}

	sc, err := a.games.StartRound(c.Request.Context(), game.StartRoundRequest{
		SessionCode: c.Param("code"),
		AdminCode:   req.AdminCode,
		Intensity:   req.Intensity,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response{
		Result:  "success",
		Message: "Round started, voting is open.",
		Data:    gin.H{"scenario": newScenarioView(*sc)},
	})
}

type gameVoteRequest struct {
	GuestName string `json:"guestName" binding:"required"`
	Choice    string `json:"choice" binding:"required,parentchoice"`
}

func (a *API) gameVote(c *gin.Context) {
	var req gameVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "guestName and a choice of mom or dad are required")
		return
	}

	v, err := a.games.SubmitVote(c.Request.Context(), game.VoteRequest{
		SessionCode: c.Param("code"),
		GuestName:   req.GuestName,
		Choice:      domain.ParentChoice(req.Choice),
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response{
		Result:  "success",
		Message: "Vote counted!",
		Data:    gin.H{"choice": string(v.Choice)},
	})
}

type revealRequest struct {
	AdminCode    string `json:"adminCode" binding:"required"`
	ActualChoice string `json:"actualChoice" binding:"required,parentchoice"`
}

func (a *API) reveal(c *gin.Context) {
	var req revealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "adminCode and an actualChoice of mom or dad are required")
		return
	}

	r, err := a.games.Reveal(c.Request.Context(), game.RevealRequest{
		SessionCode:  c.Param("code"),
		AdminCode:    req.AdminCode,
		ActualChoice: domain.ParentChoice(req.ActualChoice),
	})
	if err != nil {
		fail(c, err)
		return
	}

	success(c, http.StatusOK, "The truth is out!", gin.H{"result": newResultView(*r)})
}

type completeRequest struct {
	AdminCode string `json:"adminCode" binding:"required"`
}

func (a *API) complete(c *gin.Context) {
	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "adminCode is required")
		return
	}

	err := a.games.Complete(c.Request.Context(), game.CompleteRequest{
		SessionCode: c.Param("code"),
		AdminCode:   req.AdminCode,
	})
	if err != nil {
		fail(c, err)
		return
	}

	success(c, http.StatusOK, "Game over, thanks for playing!", nil)
}

func (a *API) sessionState(c *gin.Context) {
	st, err := a.games.GetState(c.Request.Context(), c.Param("code"))
	if err != nil {
		fail(c, err)
		return
	}

	data := gin.H{"session": newSessionView(st.Session)}
	if st.Scenario != nil {
		data["scenario"] = newScenarioView(*st.Scenario)
	}
	if st.Result != nil {
		data["result"] = newResultView(*st.Result)
	}

	success(c, http.StatusOK, "", data)
}
