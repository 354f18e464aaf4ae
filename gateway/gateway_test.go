package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/alexandre-normand/steward/community"
	"github.com/alexandre-normand/steward/config"
	"github.com/alexandre-normand/steward/gateway"
	"github.com/alexandre-normand/steward/session"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	secret = []byte("s3cr3t")
	admin  = session.Identity{MemberID: "U1", Name: "alice", Communities: []session.Community{
		{ID: "T1", Name: "home", Admin: true},
		{ID: "T2", Name: "work", Admin: false},
		{ID: "T3", Name: "abandoned", Admin: true},
	}}
	member = session.Identity{MemberID: "U2", Name: "bob", Communities: []session.Community{
		{ID: "T1", Name: "home", Admin: false},
	}}
)

type fakeStore struct {
	sync.Mutex
	settings map[string]community.Settings
	credits  map[string]int64
	err      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{settings: make(map[string]community.Settings), credits: make(map[string]int64)}
}

func (s *fakeStore) GetSettings(communityID string) (settings community.Settings, err error) {
	s.Lock()
	defer s.Unlock()

	if s.err != nil {
		return settings, s.err
	}

	return s.settings[communityID], nil
}

func (s *fakeStore) PutSettings(communityID string, settings community.Settings) (err error) {
	s.Lock()
	defer s.Unlock()

	if s.err != nil {
		return s.err
	}

	s.settings[communityID] = settings
	return nil
}

func (s *fakeStore) GetCredits(memberID string) (total int64, err error) {
	s.Lock()
	defer s.Unlock()

	if s.err != nil {
		return 0, s.err
	}

	return s.credits[memberID], nil
}

type membership map[string]bool

func (m membership) IsMember(communityID string) bool {
	return m[communityID]
}

func newTestGateway(t *testing.T, store gateway.SettingsStore) *gateway.Gateway {
	verifier, err := session.NewVerifier(secret)
	require.NoError(t, err)

	g, err := gateway.New("steward", config.NewViperWithDefaults(), store, membership{"T1": true, "T2": true}, verifier,
		gateway.OptionMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("eventsSeen_total 1\n"))
		})))
	require.NoError(t, err)

	return g
}

func tokenFor(t *testing.T, id session.Identity) string {
	issuer, err := session.NewIssuer(secret)
	require.NoError(t, err)

	token, err := issuer.Issue(id, time.Hour)
	require.NoError(t, err)

	return token
}

func serve(g *gateway.Gateway, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, req)

	return rec
}

func apiRequest(t *testing.T, method string, path string, body string, id *session.Identity) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if id != nil {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, *id))
	}

	return req
}

func formRequest(t *testing.T, path string, form url.Values, id *session.Identity) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if id != nil {
		req.AddCookie(&http.Cookie{Name: "steward_session", Value: tokenFor(t, *id)})
	}

	return req
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := gateway.New("steward", config.NewViperWithDefaults(), nil, membership{}, nil)

	assert.EqualError(t, err, "gateway requires a settings store, a membership and a session verifier")
}

func TestHealth(t *testing.T) {
	rec := serve(newTestGateway(t, newFakeStore()), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetrics(t *testing.T) {
	rec := serve(newTestGateway(t, newFakeStore()), httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "eventsSeen_total")
}

func TestGetSettings(t *testing.T) {
	store := newFakeStore()
	store.settings["T1"] = community.Settings{AutoReplyEnabled: true, AutoReplyText: "hi"}

	tests := map[string]struct {
		path         string
		id           *session.Identity
		expectedCode int
		expectedBody string
	}{
		"Admin": {
			path:         "/api/communities/T1/settings",
			id:           &admin,
			expectedCode: http.StatusOK,
			expectedBody: `{"autoReplyEnabled":true,"autoReplyText":"hi","moderationEnabled":false}`,
		},
		"AdminOfUnconfiguredCommunity": {
			path:         "/api/communities/T3/settings",
			id:           &admin,
			expectedCode: http.StatusOK,
			expectedBody: `{"autoReplyEnabled":false,"autoReplyText":"","moderationEnabled":false}`,
		},
		"NotAdmin": {
			path:         "/api/communities/T1/settings",
			id:           &member,
			expectedCode: http.StatusForbidden,
			expectedBody: `{"error":"not an administrator of this community"}`,
		},
		"MemberButNotAdmin": {
			path:         "/api/communities/T2/settings",
			id:           &admin,
			expectedCode: http.StatusForbidden,
			expectedBody: `{"error":"not an administrator of this community"}`,
		},
		"Unauthenticated": {
			path:         "/api/communities/T1/settings",
			expectedCode: http.StatusUnauthorized,
			expectedBody: `{"error":"unauthenticated"}`,
		},
		"Page": {
			path:         "/communities/T1/settings",
			id:           &admin,
			expectedCode: http.StatusOK,
			expectedBody: `{"autoReplyEnabled":true,"autoReplyText":"hi","moderationEnabled":false}`,
		},
	}

	g := newTestGateway(t, store)
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			rec := serve(g, apiRequest(t, http.MethodGet, tc.path, "", tc.id))

			assert.Equal(t, tc.expectedCode, rec.Code)
			assert.JSONEq(t, tc.expectedBody, rec.Body.String())
		})
	}
}

func TestGetSettingsWithInvalidToken(t *testing.T) {
	g := newTestGateway(t, newFakeStore())

	req := httptest.NewRequest(http.MethodGet, "/api/communities/T1/settings", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := serve(g, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetSettingsWithCookie(t *testing.T) {
	store := newFakeStore()
	g := newTestGateway(t, store)

	req := httptest.NewRequest(http.MethodGet, "/api/communities/T1/settings", nil)
	req.AddCookie(&http.Cookie{Name: "steward_session", Value: tokenFor(t, admin)})
	rec := serve(g, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnauthenticatedPageRedirectsHome(t *testing.T) {
	rec := serve(newTestGateway(t, newFakeStore()), httptest.NewRequest(http.MethodGet, "/communities/T1/settings", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestPutSettings(t *testing.T) {
	store := newFakeStore()
	store.settings["T1"] = community.Settings{AutoReplyEnabled: true, AutoReplyText: "hi", ModerationEnabled: true}
	g := newTestGateway(t, store)

	rec := serve(g, apiRequest(t, http.MethodPut, "/api/communities/T1/settings", `{"autoReplyEnabled":false,"autoReplyText":"bye"}`, &admin))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, community.Settings{AutoReplyText: "bye"}, store.settings["T1"])

	var saved community.Settings
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.Equal(t, community.Settings{AutoReplyText: "bye"}, saved)
}

func TestPutSettingsRejections(t *testing.T) {
	tests := map[string]struct {
		id           *session.Identity
		body         string
		expectedCode int
	}{
		"NotAdmin": {
			id:           &member,
			body:         `{"autoReplyEnabled":true,"autoReplyText":"pwned"}`,
			expectedCode: http.StatusForbidden,
		},
		"Unauthenticated": {
			body:         `{"autoReplyEnabled":true,"autoReplyText":"pwned"}`,
			expectedCode: http.StatusUnauthorized,
		},
		"InvalidJSON": {
			id:           &admin,
			body:         `{"autoReplyEnabled":"yes"`,
			expectedCode: http.StatusBadRequest,
		},
		"WrongType": {
			id:           &admin,
			body:         `{"autoReplyEnabled":"yes"}`,
			expectedCode: http.StatusBadRequest,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			store := newFakeStore()
			store.settings["T1"] = community.Settings{ModerationEnabled: true}
			g := newTestGateway(t, store)

			rec := serve(g, apiRequest(t, http.MethodPut, "/api/communities/T1/settings", tc.body, tc.id))

			assert.Equal(t, tc.expectedCode, rec.Code)
			assert.Equal(t, community.Settings{ModerationEnabled: true}, store.settings["T1"])
			assert.NotContains(t, rec.Body.String(), "moderationEnabled")
		})
	}
}

func TestPutSettingsStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.err = &community.StorageError{Op: "put settings", Key: "T1", Err: errors.New("disk full")}
	g := newTestGateway(t, store)

	rec := serve(g, apiRequest(t, http.MethodPut, "/api/communities/T1/settings", `{"moderationEnabled":true}`, &admin))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"error":"failed to save"}`, rec.Body.String())
}

func TestPostSettingsForm(t *testing.T) {
	tests := map[string]struct {
		form     url.Values
		expected community.Settings
	}{
		"AllOn": {
			form:     url.Values{"autoReplyEnabled": {"on"}, "autoReplyText": {"hello"}, "moderationEnabled": {"on"}},
			expected: community.Settings{AutoReplyEnabled: true, AutoReplyText: "hello", ModerationEnabled: true},
		},
		"UncheckedBoxesAreOff": {
			form:     url.Values{"autoReplyText": {"hello"}},
			expected: community.Settings{AutoReplyText: "hello"},
		},
		"OnlyOnMeansOn": {
			form:     url.Values{"autoReplyEnabled": {"true"}, "moderationEnabled": {"1"}},
			expected: community.Settings{},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			store := newFakeStore()
			store.settings["T1"] = community.Settings{AutoReplyEnabled: true, AutoReplyText: "previous", ModerationEnabled: true}
			g := newTestGateway(t, store)

			rec := serve(g, formRequest(t, "/communities/T1/settings", tc.form, &admin))

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/communities/T1/settings", rec.Header().Get("Location"))
			assert.Equal(t, tc.expected, store.settings["T1"])
		})
	}
}

func TestPostSettingsFormRejections(t *testing.T) {
	tests := map[string]struct {
		id               *session.Identity
		expectedLocation string
	}{
		"NotAdmin": {
			id:               &member,
			expectedLocation: "/dashboard",
		},
		"Unauthenticated": {
			expectedLocation: "/",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			store := newFakeStore()
			g := newTestGateway(t, store)

			rec := serve(g, formRequest(t, "/communities/T1/settings", url.Values{"moderationEnabled": {"on"}}, tc.id))

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tc.expectedLocation, rec.Header().Get("Location"))
			assert.Empty(t, store.settings)
		})
	}
}

func TestPostSettingsFormStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("disk full")
	g := newTestGateway(t, store)

	rec := serve(g, formRequest(t, "/communities/T1/settings", url.Values{"moderationEnabled": {"on"}}, &admin))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "failed to save", rec.Body.String())
}

func TestCredits(t *testing.T) {
	store := newFakeStore()
	store.credits["U1"] = 42
	store.credits["U2"] = 7
	g := newTestGateway(t, store)

	rec := serve(g, apiRequest(t, http.MethodGet, "/api/members/U2/credits", "", &admin))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"memberID":"U2","credits":7}`, rec.Body.String())

	rec = serve(g, apiRequest(t, http.MethodGet, "/api/me/credits", "", &admin))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"memberID":"U1","credits":42}`, rec.Body.String())

	rec = serve(g, apiRequest(t, http.MethodGet, "/api/members/U9/credits", "", &member))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"memberID":"U9","credits":0}`, rec.Body.String())

	rec = serve(g, apiRequest(t, http.MethodGet, "/api/me/credits", "", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreditsStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("disk on fire")
	g := newTestGateway(t, store)

	rec := serve(g, apiRequest(t, http.MethodGet, "/api/me/credits", "", &admin))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDashboard(t *testing.T) {
	store := newFakeStore()
	store.credits["U1"] = 3
	g := newTestGateway(t, store)

	rec := serve(g, apiRequest(t, http.MethodGet, "/api/dashboard", "", &admin))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"memberID":"U1","name":"alice","communities":[{"id":"T1","name":"home","admin":true}],"credits":3}`, rec.Body.String())
}

func TestDashboardOfNonAdmin(t *testing.T) {
	g := newTestGateway(t, newFakeStore())

	rec := serve(g, apiRequest(t, http.MethodGet, "/api/dashboard", "", &member))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"memberID":"U2","name":"bob","communities":[],"credits":0}`, rec.Body.String())
}

func TestRunStopsOnCancel(t *testing.T) {
	v := config.NewViperWithDefaults()
	v.Set(config.GatewayListenAddressKey, "127.0.0.1:0")

	verifier, err := session.NewVerifier(secret)
	require.NoError(t, err)

	g, err := gateway.New("steward", v, newFakeStore(), membership{}, verifier)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- g.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("gateway didn't stop after cancellation")
	}
}

func TestRunFailsOnInvalidAddress(t *testing.T) {
	v := config.NewViperWithDefaults()
	v.Set(config.GatewayListenAddressKey, "not-an-address")

	verifier, err := session.NewVerifier(secret)
	require.NoError(t, err)

	g, err := gateway.New("steward", v, newFakeStore(), membership{}, verifier)
	require.NoError(t, err)

	err = g.Run(context.Background())
	assert.Error(t, err)
}
