package web

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cyberguild/guildhall/internal/config"
	"github.com/cyberguild/guildhall/internal/store"
	"github.com/cyberguild/guildhall/internal/token"
	"github.com/cyberguild/guildhall/pkg/models"
)

// newTestServer builds a server over a throwaway store. The announcer is nil,
// so nothing leaves the process.
func newTestServer(t *testing.T) (*Server, *store.Store, *token.Issuer) {
	t.Helper()

	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	issuer := token.NewIssuer([]byte("web-test-secret"), 0)
	srv, err := New(Options{
		Config: config.Web{Addr: ":0", BaseURL: "https://guild.example.org"},
		Store:  st,
		Issuer: issuer,
		Log:    zap.NewNop(),
	})
	require.NoError(t, err)
	return srv, st, issuer
}

func seedMember(t *testing.T, st *store.Store, id int64, username string, admin bool) {
	t.Helper()
	require.NoError(t, st.CreateUser(&models.User{
		DiscordID: id,
		Username:  username,
		Email:     username + "@lancaster.ac.uk",
		IsAdmin:   admin,
	}))
}

func get(t *testing.T, srv *Server, path, sessionToken string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if sessionToken != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: sessionToken})
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func postFormReq(t *testing.T, srv *Server, path, sessionToken string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if sessionToken != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: sessionToken})
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestIndexAndSecurityHeaders(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := get(t, srv, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "same-origin", rec.Header().Get("Referrer-Policy"))
	assert.Contains(t, rec.Header().Get("Strict-Transport-Security"), "max-age=")
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'self'")
}

func TestPrivateWriteupVisibility(t *testing.T) {
	srv, st, issuer := newTestServer(t)
	seedMember(t, st, 100, "alice", false)

	require.NoError(t, st.CreateWriteup(&models.Writeup{
		AuthorID: 100, Title: "Public Walkthrough", Content: "open to all",
	}))
	require.NoError(t, st.CreateWriteup(&models.Writeup{
		AuthorID: 100, Title: "Secret Notes", Content: "members only", Private: true,
	}))

	sess, err := issuer.SessionToken(100, "alice", false)
	require.NoError(t, err)

	// Anonymous visitors never learn the private writeup exists.
	rec := get(t, srv, "/writeups/view/secret-notes", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, srv, "/writeups/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Public Walkthrough")
	assert.NotContains(t, rec.Body.String(), "Secret Notes")

	// A signed-in member sees both.
	rec = get(t, srv, "/writeups/view/secret-notes", sess)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "members only")

	rec = get(t, srv, "/writeups/", sess)
	assert.Contains(t, rec.Body.String(), "Secret Notes")
}

func TestTokenQueryParameterSignsIn(t *testing.T) {
	srv, st, issuer := newTestServer(t)
	seedMember(t, st, 100, "alice", false)
	require.NoError(t, st.CreateWriteup(&models.Writeup{
		AuthorID: 100, Title: "Secret Notes", Content: "members only", Private: true,
	}))

	sess, err := issuer.SessionToken(100, "alice", false)
	require.NoError(t, err)

	// Links the bot DMs out carry the session in the query string.
	rec := get(t, srv, "/writeups/view/secret-notes?token="+url.QueryEscape(sess), "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, srv, "/writeups/view/secret-notes?token=garbage", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthGates(t *testing.T) {
	srv, st, issuer := newTestServer(t)
	seedMember(t, st, 100, "alice", false)
	seedMember(t, st, 200, "root", true)

	member, err := issuer.SessionToken(100, "alice", false)
	require.NoError(t, err)
	admin, err := issuer.SessionToken(200, "root", true)
	require.NoError(t, err)

	// Anonymous visitors are sent to sign in.
	rec := get(t, srv, "/writeups/new", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/plzauth", rec.Header().Get("Location"))

	rec = get(t, srv, "/blog/new", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/plzauth", rec.Header().Get("Location"))

	// Members can author writeups but not blog posts.
	rec = get(t, srv, "/writeups/new", member)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, srv, "/blog/new", member)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/baka", rec.Header().Get("Location"))

	rec = get(t, srv, "/blog/new", admin)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWriteupCreateAndDelete(t *testing.T) {
	srv, st, issuer := newTestServer(t)
	seedMember(t, st, 100, "alice", false)
	seedMember(t, st, 300, "bob", false)

	alice, err := issuer.SessionToken(100, "alice", false)
	require.NoError(t, err)
	bob, err := issuer.SessionToken(300, "bob", false)
	require.NoError(t, err)

	rec := postFormReq(t, srv, "/writeups/new", alice, url.Values{
		"title":   {"Bulb Pwning"},
		"tags":    {"iot, hardware"},
		"content": {"# How it fell\nover"},
	})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/writeups/view/bulb-pwning", rec.Header().Get("Location"))

	w, err := st.WriteupBySlug("bulb-pwning")
	require.NoError(t, err)
	assert.Equal(t, []string{"iot", "hardware"}, w.Tags)

	// Only the author (or an admin) may delete.
	id := strconv.FormatInt(w.ID, 10)
	rec = postFormReq(t, srv, "/writeups/delete/"+id, bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = postFormReq(t, srv, "/writeups/delete/"+id, alice, nil)
	assert.Equal(t, http.StatusFound, rec.Code)

	_, err = st.WriteupBySlug("bulb-pwning")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestFlagSubmit(t *testing.T) {
	srv, st, issuer := newTestServer(t)
	seedMember(t, st, 100, "alice", false)
	require.NoError(t, st.CreateChallenge(&models.Challenge{
		Title: "Space Bulb", Content: "find it", Flag: "flag{lumen}", Points: 300,
	}))

	sess, err := issuer.SessionToken(100, "alice", false)
	require.NoError(t, err)

	submit := func(flag string) *httptest.ResponseRecorder {
		return postFormReq(t, srv, "/challenges/submit", sess, url.Values{
			"flag": {flag},
			"slug": {"space-bulb"},
		})
	}

	rec := submit("flag{lumen}")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/challenges/view/space-bulb?result=solved", rec.Header().Get("Location"))

	rec = submit("flag{lumen}")
	assert.Equal(t, "/challenges/view/space-bulb?result=claimed", rec.Header().Get("Location"))

	rec = submit("flag{wrong}")
	assert.Equal(t, "/challenges/view/space-bulb?result=wrong", rec.Header().Get("Location"))

	// Anonymous submissions are bounced to sign in.
	rec = postFormReq(t, srv, "/challenges/submit", "", url.Values{
		"flag": {"flag{lumen}"}, "slug": {"space-bulb"},
	})
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/plzauth", rec.Header().Get("Location"))
}

func TestHiddenChallengeGating(t *testing.T) {
	srv, st, issuer := newTestServer(t)
	seedMember(t, st, 200, "root", true)
	require.NoError(t, st.CreateChallenge(&models.Challenge{
		Title: "Staged", Content: "not yet", Flag: "flag{soon}", Points: 50, Hidden: true,
	}))

	admin, err := issuer.SessionToken(200, "root", true)
	require.NoError(t, err)

	rec := get(t, srv, "/challenges/view/staged", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, srv, "/challenges/", "")
	assert.NotContains(t, rec.Body.String(), "Staged")

	rec = get(t, srv, "/challenges/view/staged", admin)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSignOutClearsCookie(t *testing.T) {
	srv, st, issuer := newTestServer(t)
	seedMember(t, st, 100, "alice", false)
	sess, err := issuer.SessionToken(100, "alice", false)
	require.NoError(t, err)

	rec := get(t, srv, "/sign-out", sess)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	cleared := false
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == sessionCookie && ck.Value == "" && ck.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "session cookie should be expired")
}
