package admin

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"homeschoolhub/testutil"
)

func TestAdminRoot_RedirectsToQueue(t *testing.T) {
	f := setup(t)

	w := testutil.Do(f.router, "GET", "/admin", nil, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin/reviews", w.Header().Get("Location"))
}

func TestRequireAdmin_Anonymous(t *testing.T) {
	f := setup(t)

	for _, path := range []string{"/admin/reviews", "/admin/blog", "/admin/blog/new"} {
		w := testutil.Do(f.router, "GET", path, nil, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, path)
		assert.Contains(t, w.Body.String(), "Please log in with an admin account", path)
		assert.Contains(t, w.Body.String(), "/login?next=", path)
	}
}

func TestRequireAdmin_NonAdmin(t *testing.T) {
	f := setup(t)
	reader := testutil.CreateUser(t, f.db, "reader@example.com", false)
	cookies := testutil.Login(t, f.router, reader)

	w := testutil.Do(f.router, "GET", "/admin/reviews", nil, cookies)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "You must be an admin to access this page.")
}

func TestRequireAdmin_BlocksDecisionPost(t *testing.T) {
	f := setup(t)
	reader := testutil.CreateUser(t, f.db, "reader@example.com", false)

	w := testutil.Do(f.router, "POST", "/admin/reviews/whatever/decision",
		url.Values{"decision": {"approved"}}, testutil.Login(t, f.router, reader))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "You must be an admin")
}
