package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unipath-ai/unipath/core"
	"github.com/unipath-ai/unipath/counsellor"
	"github.com/unipath-ai/unipath/guard"
	"github.com/unipath-ai/unipath/model"
	"github.com/unipath-ai/unipath/prompt"
	"github.com/unipath-ai/unipath/sop"
	"github.com/unipath-ai/unipath/store/memory"
	"github.com/unipath-ai/unipath/tool"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T, llm model.Model) (*Server, *memory.Store) {
	t.Helper()
	s := memory.New()
	require.NoError(t, s.SaveProfile(context.Background(), &core.Profile{
		ID: "user-1", Email: "student@example.com",
	}))
	s.AddUniversity(core.University{ID: "uni-1", Name: "MIT", Country: "USA", Ranking: 1, TuitionMax: 55000})

	g := guard.New(s)
	engine := counsellor.NewEngine(llm, prompt.NewAssembler(s), tool.NewDispatcher(s, g))
	return New(s, engine, g, testSecret, func(o *Options) {
		o.SOP = sop.NewService(llm, s)
	}), s
}

func bearerToken(t *testing.T, uid string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   uid,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func doRequest(t *testing.T, srv *Server, method, path string, body any, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if authed {
		req.Header.Set("Authorization", bearerToken(t, "user-1"))
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthIsPublic(t *testing.T) {
	srv, _ := newTestServer(t, model.NewScriptedModel("test"))
	rec := doRequest(t, srv, http.MethodGet, "/health", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	srv, _ := newTestServer(t, model.NewScriptedModel("test"))

	rec := doRequest(t, srv, http.MethodGet, "/api/profile", nil, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChatPersistsTurns(t *testing.T) {
	llm := model.NewScriptedModel("test", model.TextResponse("Let's start with your onboarding."))
	srv, s := newTestServer(t, llm)

	rec := doRequest(t, srv, http.MethodPost, "/api/counsellor/chat",
		map[string]string{"message": "hello"}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Let's start with your onboarding.", resp.Response)
	require.NotEmpty(t, resp.ConversationID)

	msgs, err := s.ListMessages(context.Background(), resp.ConversationID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, core.RoleUser, msgs[0].Role)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, core.RoleAssistant, msgs[1].Role)
}

func TestChatProviderErrorMapping(t *testing.T) {
	tests := []struct {
		kind model.ErrorKind
		want int
	}{
		{model.ErrKindConnection, http.StatusServiceUnavailable},
		{model.ErrKindTimeout, http.StatusGatewayTimeout},
		{model.ErrKindRateLimit, http.StatusTooManyRequests},
		{model.ErrKindAuth, http.StatusInternalServerError},
		{model.ErrKindProvider, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			llm := &model.FailingModel{Err: model.NewProviderError(tt.kind, "openai", assert.AnError)}
			srv, _ := newTestServer(t, llm)

			rec := doRequest(t, srv, http.MethodPost, "/api/counsellor/chat",
				map[string]string{"message": "hello"}, true)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestOnboardingUnlocksShortlisting(t *testing.T) {
	srv, s := newTestServer(t, model.NewScriptedModel("test"))

	// Before onboarding, shortlisting is rejected by the guard.
	rec := doRequest(t, srv, http.MethodPost, "/api/universities/shortlist",
		map[string]string{"university_id": "uni-1", "category": "safe"}, true)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), guard.ReasonNotOnboarded)

	rec = doRequest(t, srv, http.MethodPost, "/api/profile/onboarding",
		map[string]any{"education_level": "Bachelors", "gpa": 3.5}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	profile, err := s.GetProfile(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, profile.OnboardingCompleted)
	assert.Equal(t, core.StageDiscovery, profile.CurrentStage)

	rec = doRequest(t, srv, http.MethodPost, "/api/universities/shortlist",
		map[string]string{"university_id": "uni-1", "category": "safe"}, true)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLockedEntryCannotBeRemoved(t *testing.T) {
	srv, s := newTestServer(t, model.NewScriptedModel("test"))
	ctx := context.Background()

	require.NoError(t, s.CompleteOnboarding(ctx, "user-1"))
	require.NoError(t, s.UpsertShortlistEntry(ctx, &core.ShortlistEntry{
		UserID: "user-1", UniversityID: "uni-1", Category: core.CategoryTarget,
	}))
	require.NoError(t, s.SetShortlistLocked(ctx, "user-1", "uni-1", true))

	rec := doRequest(t, srv, http.MethodDelete, "/api/universities/shortlist/uni-1", nil, true)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Unlock, then removal succeeds.
	rec = doRequest(t, srv, http.MethodPost, "/api/universities/unlock/uni-1", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doRequest(t, srv, http.MethodDelete, "/api/universities/shortlist/uni-1", nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLockEndpointDoesNotCreateTasks(t *testing.T) {
	srv, s := newTestServer(t, model.NewScriptedModel("test"))
	ctx := context.Background()

	require.NoError(t, s.CompleteOnboarding(ctx, "user-1"))
	require.NoError(t, s.UpsertShortlistEntry(ctx, &core.ShortlistEntry{
		UserID: "user-1", UniversityID: "uni-1", Category: core.CategoryTarget,
	}))

	rec := doRequest(t, srv, http.MethodPost, "/api/universities/lock/uni-1", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	// Only the counsellor's lock action seeds the task bundle.
	tasks, err := s.ListTasks(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, tasks)

	entry, err := s.GetShortlistEntry(ctx, "user-1", "uni-1")
	require.NoError(t, err)
	assert.True(t, entry.Locked)
}

func TestTaskEndpoints(t *testing.T) {
	srv, s := newTestServer(t, model.NewScriptedModel("test"))
	ctx := context.Background()
	require.NoError(t, s.CompleteOnboarding(ctx, "user-1"))

	// University-scoped task without a lock is rejected.
	rec := doRequest(t, srv, http.MethodPost, "/api/tasks",
		map[string]string{"title": "Visit campus", "university_id": "uni-1"}, true)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), guard.ReasonNotLocked)

	// General tasks are unrestricted.
	rec = doRequest(t, srv, http.MethodPost, "/api/tasks",
		map[string]string{"title": "Book IELTS"}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/tasks", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	var tasks []core.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tasks))
	require.Len(t, tasks, 1)

	completed := true
	rec = doRequest(t, srv, http.MethodPut, "/api/tasks/"+tasks[0].ID,
		map[string]any{"completed": completed}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodDelete, "/api/tasks/"+tasks[0].ID, nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestConversationEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, model.NewScriptedModel("test"))

	rec := doRequest(t, srv, http.MethodPost, "/api/conversations",
		map[string]string{"title": "planning"}, true)
	require.Equal(t, http.StatusCreated, rec.Code)
	var conv core.Conversation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conv))
	require.NotEmpty(t, conv.ID)

	rec = doRequest(t, srv, http.MethodGet, "/api/conversations", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodPut, "/api/conversations/"+conv.ID,
		map[string]string{"title": "renamed"}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/conversations/"+conv.ID+"/messages", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodDelete, "/api/conversations/"+conv.ID, nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/conversations/"+conv.ID, nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListUniversities(t *testing.T) {
	srv, _ := newTestServer(t, model.NewScriptedModel("test"))

	rec := doRequest(t, srv, http.MethodGet, "/api/universities", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	var universities []core.University
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &universities))
	require.Len(t, universities, 1)
	assert.Equal(t, "MIT", universities[0].Name)

	rec = doRequest(t, srv, http.MethodGet, "/api/universities?country=Japan", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	universities = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &universities))
	assert.Empty(t, universities)
}

func TestSOPGenerateRequiresProfile(t *testing.T) {
	srv, _ := newTestServer(t, model.NewScriptedModel("test"))

	rec := doRequest(t, srv, http.MethodPost, "/api/sop/generate",
		map[string]string{"university_id": "uni-1"}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Complete your profile first")
}

func TestSOPEndpoints(t *testing.T) {
	llm := model.NewScriptedModel("test", model.TextResponse("My path to MIT started early..."))
	srv, s := newTestServer(t, llm)
	ctx := context.Background()
	require.NoError(t, s.SaveStudentProfile(ctx, &core.StudentProfile{
		UserID: "user-1", FieldOfStudy: "Computer Science", GPA: 3.7,
	}))

	rec := doRequest(t, srv, http.MethodPost, "/api/sop/generate",
		map[string]string{"university_id": "uni-1", "custom_prompt": "Keep it formal."}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var generated struct {
		Data core.SOPDocument `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &generated))
	assert.Equal(t, "SOP for MIT", generated.Data.Title)
	assert.True(t, generated.Data.IsDraft)
	require.NotEmpty(t, generated.Data.ID)

	rec = doRequest(t, srv, http.MethodGet, "/api/sop", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	var docs []core.SOPDocument
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
	require.Len(t, docs, 1)
	require.NotNil(t, docs[0].University)
	assert.Equal(t, "MIT", docs[0].University.Name)

	rec = doRequest(t, srv, http.MethodGet, "/api/sop/"+generated.Data.ID, nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	finalized := false
	rec = doRequest(t, srv, http.MethodPut, "/api/sop/"+generated.Data.ID,
		map[string]any{"content": "Edited draft.", "is_draft": finalized}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	doc, err := s.GetSOP(ctx, "user-1", generated.Data.ID)
	require.NoError(t, err)
	assert.Equal(t, "Edited draft.", doc.Content)
	assert.False(t, doc.IsDraft)

	rec = doRequest(t, srv, http.MethodDelete, "/api/sop/"+generated.Data.ID, nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/sop/"+generated.Data.ID, nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSOPGenerateProviderErrorMapping(t *testing.T) {
	llm := &model.FailingModel{Err: model.NewProviderError(model.ErrKindRateLimit, "openai", assert.AnError)}
	srv, s := newTestServer(t, llm)
	require.NoError(t, s.SaveStudentProfile(context.Background(), &core.StudentProfile{UserID: "user-1"}))

	rec := doRequest(t, srv, http.MethodPost, "/api/sop/generate", map[string]string{}, true)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
