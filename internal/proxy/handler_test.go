package proxy

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/quiz-admin/internal/audit"
	"github.com/gokatarajesh/quiz-admin/internal/auth"
	"github.com/gokatarajesh/quiz-admin/internal/config"
	"github.com/gokatarajesh/quiz-admin/internal/upstream"
)

type recorder struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *recorder) Record(_ context.Context, e audit.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

type fixture struct {
	proxy    http.Handler
	upstream *mux.Router
	audit    *recorder

	mu    sync.Mutex
	calls []string
}

func (f *fixture) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{upstream: mux.NewRouter(), audit: &recorder{}}

	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.calls = append(f.calls, r.Method+" "+r.URL.Path)
		f.mu.Unlock()
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		f.upstream.ServeHTTP(w, r)
	}))
	t.Cleanup(up.Close)

	client := upstream.NewClient(upstream.Options{BaseURL: up.URL}, zerolog.Nop())
	h := NewHandler(client, Options{Audit: f.audit}, zerolog.Nop())

	r := mux.NewRouter()
	api := r.NewRoute().Subrouter()
	api.Use(auth.RequireBearer(nil, zerolog.Nop()))
	h.Register(api)
	f.proxy = WithRequestID(zerolog.Nop())(r)
	return f
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	f.proxy.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestMissingBearerIs401(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/questions?page_number=0&page_size=10", nil)
	rec := httptest.NewRecorder()
	f.proxy.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["error"])
	assert.Empty(t, f.seen())
}

func TestListQuestionsRequiresPaging(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/questions?page_size=10", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "page_number and page_size are required", body["error"])
	assert.Equal(t, "page_number", body["field"])
	assert.Empty(t, f.seen())
}

func TestListQuestionsForwardsAndNormalizes(t *testing.T) {
	f := newFixture(t)
	f.upstream.HandleFunc("/questions", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "st-1", r.URL.Query().Get("sub_topic_id"))
		_, _ = io.WriteString(w, `{"data":[{"id":"q1","title":"T","content":"C","type":"TRUE_FALSE","isTrue":false,
			"subTopics":[{"id":"st-1","name":"Joins"}]}],"amount":1}`)
	})

	rec := f.do(http.MethodGet, "/questions?page_number=0&page_size=10&sub_topic_id=st-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.EqualValues(t, 1, body["amount"])
	items := body["data"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, false, item["hidden"])
	assert.Equal(t, false, item["isTrue"])
	assert.NotNil(t, item["subTopics"])
	assert.NotContains(t, item, "multipleChoiceOptions")
}

func TestUpstreamFailureIs500WithContext(t *testing.T) {
	f := newFixture(t)
	f.upstream.HandleFunc("/questions/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"question not found"}`)
	})

	rec := f.do(http.MethodGet, "/questions/q404", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to fetch question: question not found", decode(t, rec)["error"])
}

func TestCreateQuestionValidatesAndAudits(t *testing.T) {
	f := newFixture(t)
	f.upstream.HandleFunc("/questions", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotContains(t, body, "trueFalseOptions")
		assert.NotContains(t, body, "id")
		body["id"] = "q-new"
		_ = json.NewEncoder(w).Encode(body)
	}).Methods(http.MethodPost)

	rec := f.do(http.MethodPost, "/questions", `{"title":"","content":"c","type":"SHORT_ANSWER"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "title", decode(t, rec)["field"])

	rec = f.do(http.MethodPost, "/questions",
		`{"title":"Sum","content":"2+2","type":"SHORT_ANSWER","shortAnswers":[{"content":"4","marks":1}],"trueFalseOptions":[]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "q-new", decode(t, rec)["id"])

	require.Len(t, f.audit.entries, 1)
	e := f.audit.entries[0]
	assert.Equal(t, "question.create", e.Action)
	assert.Equal(t, "q-new", e.ResourceID)
	assert.NotEmpty(t, e.RequestID)
}

func TestUpdateQuestionRequiresIDAndDetails(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPut, "/questions", `{"questionDetails":{"title":"t","content":"c","type":"TRUE_FALSE"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "id", decode(t, rec)["field"])

	rec = f.do(http.MethodPut, "/questions", `{"id":"q1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "questionDetails", decode(t, rec)["field"])
	assert.Empty(t, f.seen())
}

func TestUpdateQuestionForwardsOnlySentFields(t *testing.T) {
	f := newFixture(t)
	var got map[string]json.RawMessage
	f.upstream.HandleFunc("/questions", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.NoError(t, json.Unmarshal(body["questionDetails"], &got))
		_, _ = io.WriteString(w, `{"id":"q1","title":"T","content":"C","type":"SHORT_ANSWER","hidden":true,
			"totalPotentialMarks":4,"updatedAt":"2026-03-01T00:00:00Z"}`)
	}).Methods(http.MethodPut)

	rec := f.do(http.MethodPut, "/questions", `{"id":"q1","questionDetails":{"hidden":true}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, map[string]json.RawMessage{"hidden": json.RawMessage(`true`)}, got)

	body := decode(t, rec)
	assert.EqualValues(t, 4, body["totalPotentialMarks"])
	assert.Equal(t, "2026-03-01T00:00:00Z", body["updatedAt"])
}

func TestUpdateQuestionLeavesOmittedNumbersAlone(t *testing.T) {
	f := newFixture(t)
	var got map[string]json.RawMessage
	f.upstream.HandleFunc("/questions", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.NoError(t, json.Unmarshal(body["questionDetails"], &got))
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodPut)

	rec := f.do(http.MethodPut, "/questions",
		`{"id":"q1","questionDetails":{"title":"T","content":"C","type":"SHORT_ANSWER","hidden":true,"subTopics":[{"id":"s"}]}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.NotContains(t, got, "totalPotentialMarks")
	assert.NotContains(t, got, "difficultyLevel")
	assert.NotContains(t, got, "subTopics")
	assert.JSONEq(t, `"T"`, string(got["title"]))
}

func TestUpdateQuestionRejectsMalformedFields(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPut, "/questions", `{"id":"q1","questionDetails":{"title":""}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "questionDetails.title", decode(t, rec)["field"])

	rec = f.do(http.MethodPut, "/questions", `{"id":"q1","questionDetails":{"type":"ESSAY"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "questionDetails.type", decode(t, rec)["field"])

	rec = f.do(http.MethodPut, "/questions", `{"id":"q1","questionDetails":{"id":"q1"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "questionDetails", decode(t, rec)["field"])
	assert.Empty(t, f.seen())
}

func TestLinkAndUnlinkForward(t *testing.T) {
	f := newFixture(t)
	f.upstream.HandleFunc("/sub-topics/{sid}/question/{qid}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusOK, f.do(http.MethodPost, "/sub-topics/st-1/question/q1", "").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodDelete, "/sub-topics/st-1/question/q1", "").Code)
	assert.Equal(t, []string{
		"POST /sub-topics/st-1/question/q1",
		"DELETE /sub-topics/st-1/question/q1",
	}, f.seen())
	require.Len(t, f.audit.entries, 2)
	assert.Equal(t, "subtopic.unlink", f.audit.entries[1].Action)
}

const planJSON = `{"id":"p1","subTopicId":"st-1","prompt":"SQL joins","quota":5,
	"creativityLevel":0.5,"difficultyLevel":0.3,"bannedList":[],"tags":[],
	"created":[
		{"question":{"id":"a","title":"A","content":"x","type":"TRUE_FALSE","hidden":true}},
		{"question":{"id":"b","title":"B","content":"x","type":"TRUE_FALSE"}},
		{"question":{"id":"c","title":"C","content":"x","type":"TRUE_FALSE"}},
		{"question":null}
	]}`

func TestGetPlanEnvelope(t *testing.T) {
	f := newFixture(t)
	f.upstream.HandleFunc("/question-plans/p1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, planJSON)
	})

	rec := f.do(http.MethodGet, "/question-plans/p1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 1, body["total"])
	assert.EqualValues(t, 1, body["hidden"])
	assert.EqualValues(t, 2, body["visible"])
	assert.Len(t, body["data"].(map[string]any)["created"], 4)
}

func TestUpdatePlanSendsReferences(t *testing.T) {
	f := newFixture(t)
	f.upstream.HandleFunc("/question-plans/p1", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []any{
			map[string]any{"question": "a"},
			map[string]any{"question": "b"},
			map[string]any{"question": "c"},
		}, body["created"])
		_, _ = io.WriteString(w, planJSON)
	}).Methods(http.MethodPut)

	rec := f.do(http.MethodPut, "/question-plans/p1", planJSON)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdatePlanPartialKeepsOmittedFlags(t *testing.T) {
	f := newFixture(t)
	var got map[string]json.RawMessage
	f.upstream.HandleFunc("/question-plans/p1", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, planJSON)
	}).Methods(http.MethodPut)

	rec := f.do(http.MethodPut, "/question-plans/p1", `{"id":"p1","active":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, map[string]json.RawMessage{"active": json.RawMessage(`true`)}, got)
	assert.EqualValues(t, 2, decode(t, rec)["visible"])
}

func TestUpdatePlanValidatesSentFields(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPut, "/question-plans/p1", `{"prompt":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "prompt", decode(t, rec)["field"])

	rec = f.do(http.MethodPut, "/question-plans/p1", `{"quota":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_failed", decode(t, rec)["code"])

	rec = f.do(http.MethodPut, "/question-plans/p1", `{"id":"p1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.seen())
}

func TestGetPlanWithUndecodableEntry(t *testing.T) {
	f := newFixture(t)
	f.upstream.HandleFunc("/question-plans/p2", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":"p2","subTopicId":"s","prompt":"p","quota":1,
			"created":[{"question":{"id":"q1","title":"One"}},{"question":42}]}`)
	})

	rec := f.do(http.MethodGet, "/question-plans/p2", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.EqualValues(t, 1, body["visible"])
	assert.Len(t, body["data"].(map[string]any)["created"], 2)
}

func TestCreatePlanValidation(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/question-plans", `{"prompt":"p","quota":3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "subTopicId", decode(t, rec)["field"])

	rec = f.do(http.MethodPost, "/question-plans", `{"subTopicId":"s","prompt":"p","quota":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_failed", decode(t, rec)["code"])
	assert.Empty(t, f.seen())
}

func TestGeneratePlanRequiresLimit(t *testing.T) {
	f := newFixture(t)
	f.upstream.HandleFunc("/question-plans/p1/generate", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"queued":2}`)
	})

	rec := f.do(http.MethodPost, "/question-plans/p1/generate", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "limit", decode(t, rec)["field"])

	rec = f.do(http.MethodPost, "/question-plans/p1/generate", `{"limit":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]any{"queued": 2.0}, body["data"])
}

func TestPruneCorruptedEntry(t *testing.T) {
	f := newFixture(t)
	var put map[string]any
	f.upstream.HandleFunc("/question-plans/p1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, planJSON)
	}).Methods(http.MethodGet)
	f.upstream.HandleFunc("/question-plans/p1", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&put))
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodPut)

	rec := f.do(http.MethodDelete, "/question-plans/p1/created/3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, put["created"], 3)
	assert.Equal(t, []string{"GET /question-plans/p1", "PUT /question-plans/p1"}, f.seen())

	rec = f.do(http.MethodDelete, "/question-plans/p1/created/zzz", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPruneWithBestEffortDelete(t *testing.T) {
	f := newFixture(t)
	f.upstream.HandleFunc("/question-plans/p1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, planJSON)
	}).Methods(http.MethodGet, http.MethodPut)
	f.upstream.HandleFunc("/questions/b", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}).Methods(http.MethodDelete)

	rec := f.do(http.MethodDelete, "/question-plans/p1/created/b?deleteQuestion=true", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, f.seen(), "DELETE /questions/b")
	assert.Contains(t, f.seen(), "PUT /question-plans/p1")
}

func TestRequestIDEchoed(t *testing.T) {
	f := newFixture(t)
	f.upstream.HandleFunc("/sub-topics", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})

	req := httptest.NewRequest(http.MethodGet, "/sub-topics", nil)
	req.Header.Set("Authorization", "Bearer tok")
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	f.proxy.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	h := CORS(config.CORS{
		AllowedOrigins: []string{"http://localhost:3000"},
		AllowedMethods: []string{"GET", "PUT"},
		AllowedHeaders: []string{"Authorization"},
		MaxAge:         60,
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight reached the handler")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/questions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, PUT", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "60", rec.Header().Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodOptions, "/questions", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
