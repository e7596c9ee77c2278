package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"pollbox/internal/domain/poll"
	"pollbox/internal/ratelimit"
	"pollbox/internal/services"
	pollbox_errors "pollbox/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memPollRepo struct {
	polls map[uuid.UUID]poll.Poll
}

func (r *memPollRepo) Create(ctx context.Context, p *poll.Poll) error {
	r.polls[p.ID] = *p
	return nil
}

func (r *memPollRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]poll.Poll, error) {
	out := []poll.Poll{}
	for _, p := range r.polls {
		if p.UserID == ownerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memPollRepo) GetByID(ctx context.Context, id uuid.UUID) (poll.Poll, error) {
	p, ok := r.polls[id]
	if !ok {
		return poll.Poll{}, pollbox_errors.ErrNotFound
	}
	return p, nil
}

func (r *memPollRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (poll.Poll, error) {
	p, ok := r.polls[id]
	if !ok || p.UserID != ownerID {
		return poll.Poll{}, pollbox_errors.ErrNotFound
	}
	return p, nil
}

func (r *memPollRepo) Update(ctx context.Context, id, ownerID uuid.UUID, question string, options []string) error {
	p, ok := r.polls[id]
	if !ok || p.UserID != ownerID {
		return pollbox_errors.ErrNotFound
	}
	p.Question = question
	p.Options = nil
	for i, text := range options {
		p.Options = append(p.Options, poll.Option{ID: uuid.New(), PollID: id, Text: text, Position: i})
	}
	r.polls[id] = p
	return nil
}

func (r *memPollRepo) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	p, ok := r.polls[id]
	if !ok || p.UserID != ownerID {
		return pollbox_errors.ErrNotFound
	}
	delete(r.polls, id)
	return nil
}

type memVoteRepo struct {
	votes []poll.Vote
}

func (r *memVoteRepo) Insert(ctx context.Context, v *poll.Vote) error {
	r.votes = append(r.votes, *v)
	return nil
}

func (r *memVoteRepo) TallyByPoll(ctx context.Context, pollID uuid.UUID) (map[int]int, error) {
	tallies := make(map[int]int)
	for _, v := range r.votes {
		if v.PollID == pollID {
			tallies[v.OptionIndex]++
		}
	}
	return tallies, nil
}

func (r *memVoteRepo) HasVoted(ctx context.Context, pollID, userID uuid.UUID) (bool, error) {
	for _, v := range r.votes {
		if v.PollID == pollID && v.UserID != nil && *v.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

// actAs injects an authenticated user the way the auth middleware does.
func actAs(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := services.WithUserContext(c.Request.Context(), userID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

type testEnv struct {
	router *gin.Engine
	repo   *memPollRepo
	votes  *memVoteRepo
	userID uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := &memPollRepo{polls: make(map[uuid.UUID]poll.Poll)}
	votes := &memVoteRepo{}
	limiter := ratelimit.New(ratelimit.Config{
		CreateLimit: 1000, CreateWindow: time.Minute,
		VoteLimit: 1000, VoteWindow: time.Minute,
	})
	svc := services.NewPollService(repo, votes, nil, limiter, services.VotePolicy{}, nil)
	h := NewPollHandler(svc)
	userID := uuid.New()

	router := gin.New()
	authed := router.Group("/v1/polls", actAs(userID))
	{
		authed.POST("", h.Create)
		authed.GET("", h.List)
		authed.GET("/:id", h.Get)
		authed.PUT("/:id", h.Update)
		authed.DELETE("/:id", h.Delete)
	}
	router.POST("/v1/polls/:id/votes", h.Vote)
	router.GET("/v1/polls/:id/results", h.Results)

	return &testEnv{router: router, repo: repo, votes: votes, userID: userID}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) seed(t *testing.T, question string, options ...string) poll.Poll {
	t.Helper()
	p := poll.Poll{ID: uuid.New(), UserID: e.userID, Question: question, CreatedAt: time.Now()}
	for i, text := range options {
		p.Options = append(p.Options, poll.Option{ID: uuid.New(), PollID: p.ID, Text: text, Position: i})
	}
	e.repo.polls[p.ID] = p
	return p
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestCreatePollEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/v1/polls", gin.H{
		"question": "Tabs or spaces?",
		"options":  []string{"tabs", "spaces"},
	})

	require.Equal(t, http.StatusCreated, w.Code)
	resp := decodeEnvelope(t, w)
	assert.True(t, resp.Success)

	var dto struct {
		ID       string   `json:"id"`
		Question string   `json:"question"`
		Options  []string `json:"options"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &dto))
	assert.Equal(t, "Tabs or spaces?", dto.Question)
	assert.Equal(t, []string{"tabs", "spaces"}, dto.Options)
	assert.NotEmpty(t, dto.ID)
}

func TestCreatePollTooFewOptionsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/v1/polls", gin.H{
		"question": "Alone?",
		"options":  []string{"just me"},
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeEnvelope(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "INVALID_REQUEST", resp.Code)
}

func TestGetPollBadID(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/v1/polls/not-a-uuid", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetPollOwnedByAnotherUser(t *testing.T) {
	env := newTestEnv(t)
	p := poll.Poll{ID: uuid.New(), UserID: uuid.New(), Question: "Not yours?", CreatedAt: time.Now()}
	p.Options = []poll.Option{{ID: uuid.New(), PollID: p.ID, Text: "a", Position: 0}}
	env.repo.polls[p.ID] = p

	w := env.do(t, http.MethodGet, "/v1/polls/"+p.ID.String(), nil)

	require.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeEnvelope(t, w)
	assert.Equal(t, "NOT_FOUND", resp.Code)
}

func TestVoteIndexZeroBinds(t *testing.T) {
	env := newTestEnv(t)
	p := env.seed(t, "Pick?", "a", "b")

	w := env.do(t, http.MethodPost, "/v1/polls/"+p.ID.String()+"/votes", gin.H{
		"option_index": 0,
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, env.votes.votes, 1)
	assert.Equal(t, 0, env.votes.votes[0].OptionIndex)
	assert.Nil(t, env.votes.votes[0].UserID, "vote through the open route is anonymous")
}

func TestVoteMissingIndex(t *testing.T) {
	env := newTestEnv(t)
	p := env.seed(t, "Pick?", "a", "b")

	w := env.do(t, http.MethodPost, "/v1/polls/"+p.ID.String()+"/votes", gin.H{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, env.votes.votes)
}

func TestVoteOutOfRangeEndpoint(t *testing.T) {
	env := newTestEnv(t)
	p := env.seed(t, "Pick?", "a", "b")

	w := env.do(t, http.MethodPost, "/v1/polls/"+p.ID.String()+"/votes", gin.H{
		"option_index": 5,
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeEnvelope(t, w)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "option index out of range")
}

func TestResultsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	p := env.seed(t, "Pick?", "a", "b")
	for _, index := range []int{0, 0, 1, 0} {
		env.votes.votes = append(env.votes.votes, poll.Vote{
			ID: uuid.New(), PollID: p.ID, OptionIndex: index, CreatedAt: time.Now(),
		})
	}

	w := env.do(t, http.MethodGet, "/v1/polls/"+p.ID.String()+"/results", nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w)

	var results struct {
		Question   string `json:"question"`
		TotalVotes int    `json:"total_votes"`
		Options    []struct {
			Text       string `json:"text"`
			Votes      int    `json:"votes"`
			Percentage int    `json:"percentage"`
		} `json:"options"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &results))
	assert.Equal(t, "Pick?", results.Question)
	assert.Equal(t, 4, results.TotalVotes)
	require.Len(t, results.Options, 2)
	assert.Equal(t, 75, results.Options[0].Percentage)
	assert.Equal(t, 25, results.Options[1].Percentage)
}

func TestDeletePollEndpoint(t *testing.T) {
	env := newTestEnv(t)
	p := env.seed(t, "Gone?", "a", "b")

	w := env.do(t, http.MethodDelete, "/v1/polls/"+p.ID.String(), nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, env.repo.polls)
}
