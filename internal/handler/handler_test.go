package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"warcalendar/backend/internal/auth"
	"warcalendar/backend/internal/config"
	"warcalendar/backend/internal/database"
	"warcalendar/backend/internal/handler"
	"warcalendar/backend/internal/hub"
	"warcalendar/backend/internal/metrics"
	"warcalendar/backend/internal/router"
	"warcalendar/backend/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const apiKey = "supersecret"

type testServer struct {
	t       *testing.T
	engine  *gin.Engine
	handler *handler.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(config.DriverSQLite, ":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cfg := &config.Config{AdminAPIKey: apiKey, JWTSecret: "jwt-secret", JWTTTL: time.Hour}
	verifier := auth.NewVerifier(cfg)
	h := handler.New(store.NewTagStore(db), store.NewEventStore(db), hub.NewHub(), verifier, cfg.JWTTTL, zerolog.Nop())
	return &testServer{
		t:       t,
		engine:  router.New(h, verifier, metrics.New(), zerolog.Nop()),
		handler: h,
	}
}

// do sends a request with an optional JSON body and headers.
func (s *testServer) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) admin(method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	return s.do(method, path, body, map[string]string{auth.HeaderAPIKey: apiKey})
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

func (s *testServer) createTag(name string) handler.TagResponse {
	s.t.Helper()
	w := s.admin(http.MethodPost, "/tags/", map[string]any{"name": name})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[handler.TagResponse](s.t, w)
}

func (s *testServer) createEvent(body map[string]any) handler.EventResponse {
	s.t.Helper()
	w := s.admin(http.MethodPost, "/events/", body)
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[handler.EventResponse](s.t, w)
}

func (s *testServer) listEvents(query string) []handler.EventResponse {
	s.t.Helper()
	w := s.do(http.MethodGet, "/events/"+query, nil, nil)
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	return decode[[]handler.EventResponse](s.t, w)
}

func titles(events []handler.EventResponse) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Title)
	}
	return out
}

func event(title, typ, start, end string, tagIDs ...uint) map[string]any {
	if tagIDs == nil {
		tagIDs = []uint{}
	}
	return map[string]any{
		"title":      title,
		"type":       typ,
		"start_date": start,
		"end_date":   end,
		"tag_ids":    tagIDs,
	}
}

func TestTagsEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/tags/", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	created := s.createTag("special")
	assert.Equal(t, "special", created.Name)
	assert.NotZero(t, created.ID)

	w = s.do(http.MethodGet, "/tags/", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	tags := decode[[]handler.TagResponse](t, w)
	require.Len(t, tags, 1)
	assert.Equal(t, "special", tags[0].Name)

	w = s.do(http.MethodPost, "/tags/", map[string]any{"name": "bad"}, map[string]string{auth.HeaderAPIKey: "wrong"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do(http.MethodPost, "/tags/", map[string]any{"name": "bad"}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/tags/", nil, nil)
	assert.Len(t, decode[[]handler.TagResponse](t, w), 1, "rejected requests must not write")
}

func TestTagUpdateAndDelete(t *testing.T) {
	s := newTestServer(t)
	a := s.createTag("a")
	b := s.createTag("b")

	w := s.admin(http.MethodPut, "/tags/"+itoa(a.ID), map[string]any{"name": "renamed"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, handler.TagResponse{ID: a.ID, Name: "renamed"}, decode[handler.TagResponse](t, w))

	w = s.admin(http.MethodPut, "/tags/"+itoa(b.ID), map[string]any{"name": "renamed"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.admin(http.MethodPost, "/tags/", map[string]any{"name": "renamed"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.admin(http.MethodPut, "/tags/999", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"detail":"Tag not found"}`, w.Body.String())

	w = s.do(http.MethodPut, "/tags/"+itoa(a.ID), map[string]any{"name": "hijack"}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	e := s.createEvent(event("e", "t", "2023-01-01T00:00:00", "2023-01-02T00:00:00", a.ID, b.ID))
	require.Len(t, e.Tags, 2)

	w = s.admin(http.MethodDelete, "/tags/"+itoa(a.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"detail":"deleted"}`, w.Body.String())

	w = s.admin(http.MethodDelete, "/tags/"+itoa(a.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/events/"+itoa(e.ID), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []handler.TagResponse{b}, decode[handler.EventResponse](t, w).Tags)
}

func TestEventsEndpoint(t *testing.T) {
	s := newTestServer(t)

	assert.Empty(t, s.listEvents(""))

	tag := s.createTag("tag1")
	payload := event("Event 1", "type1", "2023-01-01T00:00:00", "2023-01-02T00:00:00", tag.ID)
	payload["rewards"] = "Декаль"
	payload["country_tree"] = "Testland"

	w := s.do(http.MethodPost, "/events/", payload, map[string]string{auth.HeaderAPIKey: "wrong"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, s.listEvents(""))

	created := s.createEvent(payload)
	assert.Equal(t, "Event 1", created.Title)
	require.Len(t, created.Tags, 1)
	assert.Equal(t, "tag1", created.Tags[0].Name)

	events := s.listEvents("")
	require.Len(t, events, 1)
	assert.Equal(t, "Event 1", events[0].Title)

	w = s.do(http.MethodGet, "/events/"+itoa(created.ID), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created, decode[handler.EventResponse](t, w))

	// reward and country are not event attributes; the parameters do not filter.
	assert.Len(t, s.listEvents("?reward=%D0%94%D0%B5%D0%BA%D0%B0%D0%BB%D1%8C"), 1)
	assert.Len(t, s.listEvents("?country=Testland"), 1)
}

func TestEventRoundTrip(t *testing.T) {
	s := newTestServer(t)
	before := time.Now().UTC().Add(-time.Second)

	created := s.createEvent(map[string]any{
		"title":       "День ВДВ РФ",
		"type":        "Праздник",
		"start_date":  "2023-08-02T00:00:00",
		"end_date":    "2023-08-02T23:59:59+00:00",
		"description": "Декаль",
		"image_url":   "https://example.com/img.png",
		"source_url":  "https://example.com/news",
	})

	w := s.do(http.MethodGet, "/events/"+itoa(created.ID), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "День ВДВ РФ", got["title"])
	assert.Equal(t, "Праздник", got["type"])
	assert.Equal(t, "2023-08-02T00:00:00Z", got["start_date"])
	assert.Equal(t, "2023-08-02T23:59:59Z", got["end_date"])
	assert.Equal(t, "Декаль", got["description"])
	assert.Equal(t, "https://example.com/img.png", got["image_url"])
	assert.Equal(t, "https://example.com/news", got["source_url"])
	assert.Equal(t, []any{}, got["tags"])
	assert.NotZero(t, got["id"])

	createdAt, err := time.Parse(time.RFC3339Nano, got["created_at"].(string))
	require.NoError(t, err)
	assert.True(t, createdAt.After(before))
}

func TestEventOptionalFieldsDefaultNull(t *testing.T) {
	s := newTestServer(t)
	created := s.createEvent(event("e", "t", "2023-01-01", "2023-01-01"))

	w := s.do(http.MethodGet, "/events/"+itoa(created.ID), nil, nil)
	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	for _, field := range []string{"description", "image_url", "source_url"} {
		v, present := got[field]
		assert.True(t, present, field)
		assert.Nil(t, v, field)
	}
}

func TestEventFilters(t *testing.T) {
	s := newTestServer(t)
	decal := s.createTag("Декаль")
	russia := s.createTag("Россия")
	china := s.createTag("Китай")

	s.createEvent(event("НОАК", "Праздник", "2023-08-01T00:00:00", "2023-08-01T00:00:00", decal.ID, china.ID))
	s.createEvent(event("ВДВ", "Праздник", "2023-08-02T00:00:00", "2023-08-02T00:00:00", decal.ID, russia.ID))
	s.createEvent(event("Lightning", "Годовщина", "2023-08-04T00:00:00", "2023-08-04T00:00:00"))
	s.createEvent(event("Вечное", "Годовщина", "2000-01-01T00:00:00", "2999-01-01T00:00:00", russia.ID))

	tests := []struct {
		query string
		want  []string
	}{
		{"?tag=%D0%94%D0%B5%D0%BA%D0%B0%D0%BB%D1%8C", []string{"НОАК", "ВДВ"}},
		{"?tag=Missing", []string{}},
		{"?type=%D0%93%D0%BE%D0%B4%D0%BE%D0%B2%D1%89%D0%B8%D0%BD%D0%B0", []string{"Lightning", "Вечное"}},
		{"?from_date=2023-08-02T00:00:00", []string{"ВДВ", "Lightning"}},
		{"?to_date=2023-08-02T00:00:00", []string{"НОАК", "ВДВ"}},
		{"?from_date=2023-08-02&to_date=2023-08-03", []string{"ВДВ"}},
		{"?active=true", []string{"Вечное"}},
		{"?active=false", []string{"НОАК", "ВДВ", "Lightning", "Вечное"}},
		{"?active=yes", []string{"Вечное"}},
		{"?active=on", []string{"Вечное"}},
		{"?active=OFF", []string{"НОАК", "ВДВ", "Lightning", "Вечное"}},
		{"?active=true&tag=%D0%A0%D0%BE%D1%81%D1%81%D0%B8%D1%8F", []string{"Вечное"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, titles(s.listEvents(tt.query)))
		})
	}

	tagged := s.listEvents("?tag=%D0%94%D0%B5%D0%BA%D0%B0%D0%BB%D1%8C")
	require.Len(t, tagged, 2)
	assert.Len(t, tagged[0].Tags, 2, "matching events carry all their tags")
}

func TestEventFilterValidation(t *testing.T) {
	s := newTestServer(t)

	for _, query := range []string{"?from_date=yesterday", "?to_date=2023-13-01", "?active=maybe"} {
		w := s.do(http.MethodGet, "/events/"+query, nil, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, query)
	}
}

func TestUpdateEvent(t *testing.T) {
	s := newTestServer(t)
	t1 := s.createTag("t1")
	t2 := s.createTag("t2")
	created := s.createEvent(event("before", "type1", "2023-01-01T00:00:00", "2023-01-02T00:00:00", t1.ID))

	w := s.admin(http.MethodPut, "/events/"+itoa(created.ID), map[string]any{"title": "after", "description": nil})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[handler.EventResponse](t, w)
	assert.Equal(t, "after", updated.Title)
	assert.Equal(t, "type1", updated.Type)
	assert.True(t, updated.StartDate.Equal(created.StartDate.Time))
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt.Time))
	assert.Equal(t, []handler.TagResponse{t1}, updated.Tags)

	w = s.admin(http.MethodPut, "/events/"+itoa(created.ID), map[string]any{"tag_ids": []uint{t2.ID, 777}, "end_date": "2023-01-05"})
	require.Equal(t, http.StatusOK, w.Code)
	updated = decode[handler.EventResponse](t, w)
	assert.Equal(t, []handler.TagResponse{t2}, updated.Tags)
	assert.Equal(t, "2023-01-05T00:00:00Z", mustJSONString(t, updated.EndDate))

	w = s.admin(http.MethodPut, "/events/"+itoa(created.ID), map[string]any{"tag_ids": []uint{}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[handler.EventResponse](t, w).Tags)

	w = s.admin(http.MethodPut, "/events/999", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPut, "/events/"+itoa(created.ID), map[string]any{"title": "x"}, map[string]string{auth.HeaderAPIKey: "nope"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteEvent(t *testing.T) {
	s := newTestServer(t)
	created := s.createEvent(event("e", "t", "2023-01-01T00:00:00", "2023-01-02T00:00:00"))

	w := s.admin(http.MethodDelete, "/events/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"detail":"Event not found"}`, w.Body.String())
	assert.Len(t, s.listEvents(""), 1)

	w = s.do(http.MethodDelete, "/events/"+itoa(created.ID), nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Len(t, s.listEvents(""), 1)

	w = s.admin(http.MethodDelete, "/events/"+itoa(created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"detail":"deleted"}`, w.Body.String())

	w = s.do(http.MethodGet, "/events/"+itoa(created.ID), nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNonexistentObject(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/events/999", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestValidationErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name      string
		method    string
		path      string
		body      any
		wantField string
	}{
		{name: "missing title", method: http.MethodPost, path: "/events/", body: map[string]any{"type": "t", "start_date": "2023-01-01", "end_date": "2023-01-01"}, wantField: "title"},
		{name: "missing dates", method: http.MethodPost, path: "/events/", body: map[string]any{"title": "x", "type": "t"}, wantField: "start_date"},
		{name: "tag ids wrong type", method: http.MethodPost, path: "/events/", body: `{"title":"x","type":"t","start_date":"2023-01-01","end_date":"2023-01-01","tag_ids":["a"]}`},
		{name: "bad date", method: http.MethodPost, path: "/events/", body: `{"title":"x","type":"t","start_date":"soon","end_date":"2023-01-01"}`, wantField: "start_date"},
		{name: "numeric date", method: http.MethodPost, path: "/events/", body: `{"title":"x","type":"t","start_date":"2023-01-01","end_date":20230101}`, wantField: "end_date"},
		{name: "bad date on update", method: http.MethodPut, path: "/events/1", body: `{"start_date":"bogus"}`, wantField: "start_date"},
		{name: "malformed json", method: http.MethodPost, path: "/tags/", body: `{"name":`, wantField: "body"},
		{name: "empty body", method: http.MethodPost, path: "/tags/", body: "", wantField: "body"},
		{name: "missing tag name", method: http.MethodPost, path: "/tags/", body: map[string]any{}, wantField: "name"},
		{name: "bad path id", method: http.MethodGet, path: "/events/abc", wantField: "id"},
		{name: "update wrong type", method: http.MethodPut, path: "/events/1", body: `{"title":5}`, wantField: "title"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.admin(tt.method, tt.path, tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
			resp := decode[handler.ValidationErrorResponse](t, w)
			assert.Equal(t, "validation failed", resp.Detail)
			require.NotEmpty(t, resp.Errors)
			if tt.wantField != "" {
				assert.Equal(t, tt.wantField, resp.Errors[0].Field)
			}
		})
	}

	assert.Empty(t, s.listEvents(""))
}

func TestEmptyStringsAreValid(t *testing.T) {
	s := newTestServer(t)

	tag := s.createTag("")
	assert.Equal(t, "", tag.Name)

	w := s.admin(http.MethodPut, "/tags/"+itoa(tag.ID), map[string]any{"name": ""})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	created := s.createEvent(event("", "", "2023-01-01", "2023-01-01", tag.ID))
	assert.Equal(t, "", created.Title)
	assert.Equal(t, "", created.Type)
	assert.Equal(t, []handler.TagResponse{tag}, created.Tags)

	w = s.admin(http.MethodPost, "/tags/", map[string]any{})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "name", decode[handler.ValidationErrorResponse](t, w).Errors[0].Field)

	w = s.admin(http.MethodPost, "/tags/", map[string]any{"name": nil})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "null is not a value for a required field")
}

func TestAuthCheckedBeforeValidation(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodPost, "/events/", `{"title":`, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBearerToken(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/auth/token", nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.admin(http.MethodPost, "/auth/token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	token := decode[handler.TokenResponse](t, w)
	require.NotEmpty(t, token.Token)
	assert.True(t, token.ExpiresAt.After(time.Now()))

	bearer := map[string]string{"Authorization": "Bearer " + token.Token}
	w = s.do(http.MethodPost, "/tags/", map[string]any{"name": "via-token"}, bearer)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = s.do(http.MethodPost, "/auth/token", nil, bearer)
	assert.Equal(t, http.StatusForbidden, w.Code, "tokens cannot mint tokens")
}

func TestMutationsPublishChanges(t *testing.T) {
	s := newTestServer(t)
	client := s.handler.Hub.Subscribe(8)
	defer s.handler.Hub.Unsubscribe(client)

	tag := s.createTag("t")
	created := s.createEvent(event("e", "t", "2023-01-01", "2023-01-01", tag.ID))
	require.Equal(t, http.StatusOK, s.admin(http.MethodDelete, "/events/"+itoa(created.ID), nil).Code)

	var kinds []string
	for i := 0; i < 3; i++ {
		select {
		case data := <-client:
			var msg hub.Message
			require.NoError(t, json.Unmarshal(data, &msg))
			kinds = append(kinds, msg.Type)
		case <-time.After(time.Second):
			t.Fatal("expected a change notification")
		}
	}
	assert.Equal(t, []string{"tag.created", "event.created", "event.deleted"}, kinds)
}

func TestPingAndMetrics(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/ping", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(router.HeaderRequestID))

	w = s.do(http.MethodGet, "/ping", nil, map[string]string{router.HeaderRequestID: "abc"})
	assert.Equal(t, "abc", w.Header().Get(router.HeaderRequestID))

	w = s.do(http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `warcalendar_http_requests_total{method="GET",path="/ping",status="200"} 2`)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func mustJSONString(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	var s string
	require.NoError(t, json.Unmarshal(raw, &s))
	return s
}
