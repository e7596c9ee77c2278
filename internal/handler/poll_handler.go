package handler

import (
	"net/http"
	"time"

	"pollbox/internal/domain/poll"
	"pollbox/internal/services"
	"pollbox/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PollHandler handles poll lifecycle and voting endpoints.
type PollHandler struct {
	service *services.PollService
}

func NewPollHandler(service *services.PollService) *PollHandler {
	return &PollHandler{service: service}
}

// Create handles POST /polls.
func (h *PollHandler) Create(c *gin.Context) {
	var req httpdto.PollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	actorID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	created, err := h.service.Create(c.Request.Context(), actorID, services.PollInput{
		Question: req.Question,
		Options:  req.Options,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(toPollDTO(created)))
}

// List handles GET /polls: the actor's own polls, newest first.
func (h *PollHandler) List(c *gin.Context) {
	actorID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	polls, err := h.service.ListByOwner(c.Request.Context(), actorID)
	if err != nil {
		writeError(c, err)
		return
	}

	dtos := make([]httpdto.PollDTO, len(polls))
	for i, p := range polls {
		dtos[i] = toPollDTO(p)
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.PollsResponse{Polls: dtos}))
}

// Get handles GET /polls/:id, owner-scoped.
func (h *PollHandler) Get(c *gin.Context) {
	pollID, actorID, ok := h.pollAndActor(c)
	if !ok {
		return
	}

	p, err := h.service.Get(c.Request.Context(), pollID, actorID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(toPollDTO(p)))
}

// Update handles PUT /polls/:id.
func (h *PollHandler) Update(c *gin.Context) {
	var req httpdto.PollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	pollID, actorID, ok := h.pollAndActor(c)
	if !ok {
		return
	}

	updated, err := h.service.Update(c.Request.Context(), pollID, actorID, services.PollInput{
		Question: req.Question,
		Options:  req.Options,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(toPollDTO(updated)))
}

// Delete handles DELETE /polls/:id.
func (h *PollHandler) Delete(c *gin.Context) {
	pollID, actorID, ok := h.pollAndActor(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), pollID, actorID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

// Vote handles POST /polls/:id/votes. The actor is optional; policy
// decides whether anonymous votes are accepted.
func (h *PollHandler) Vote(c *gin.Context) {
	var req httpdto.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("not found", "NOT_FOUND"))
		return
	}

	var actorID *uuid.UUID
	if id, ok := services.UserIDFromContext(c.Request.Context()); ok {
		actorID = &id
	}

	v, err := h.service.Vote(c.Request.Context(), services.VoteInput{
		PollID:      pollID,
		OptionIndex: *req.OptionIndex,
		ActorID:     actorID,
		RemoteAddr:  c.ClientIP(),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.VoteResponse{
		PollID:      v.PollID.String(),
		OptionIndex: v.OptionIndex,
	}))
}

// Results handles GET /polls/:id/results.
func (h *PollHandler) Results(c *gin.Context) {
	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("not found", "NOT_FOUND"))
		return
	}

	question, results, err := h.service.Results(c.Request.Context(), pollID)
	if err != nil {
		writeError(c, err)
		return
	}

	rows := make([]httpdto.OptionResultDTO, len(results.Options))
	for i, row := range results.Options {
		rows[i] = httpdto.OptionResultDTO{
			Text:       row.Text,
			Position:   row.Position,
			Votes:      row.Votes,
			Percentage: row.Percentage,
		}
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ResultsResponse{
		Question:   question,
		Options:    rows,
		TotalVotes: results.TotalVotes,
	}))
}

func (h *PollHandler) pollAndActor(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("not found", "NOT_FOUND"))
		return uuid.Nil, uuid.Nil, false
	}

	actorID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return uuid.Nil, uuid.Nil, false
	}
	return pollID, actorID, true
}

func toPollDTO(p poll.Poll) httpdto.PollDTO {
	options := make([]string, len(p.Options))
	for i, opt := range p.Options {
		options[i] = opt.Text
	}
	return httpdto.PollDTO{
		ID:        p.ID.String(),
		Question:  p.Question,
		Options:   options,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}
