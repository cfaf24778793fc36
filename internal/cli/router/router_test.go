package router

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftdesk/shiftdesk/internal/cli/session"
)

func echo(name string) View {
	return ViewFunc(func(_ context.Context, w io.Writer, req Request) error {
		_, err := fmt.Fprintf(w, "%s %v from=%s\n", name, req.Params, req.From)
		return err
	})
}

func testRoutes() []Route {
	return []Route{
		{Path: "/", Name: "home", View: echo("home")},
		{Path: "/login", Name: "login", View: echo("login")},
		{Path: "/events", Name: "events", View: echo("events")},
		{Path: "/events/:id", Name: "event", View: echo("event")},
		{Path: "/profile", Name: "profile", View: echo("profile"), Meta: Meta{RequiresAuth: true}},
		{Path: "/admin", Name: "admin", View: echo("admin"), Meta: Meta{RequiresAdmin: true}},
	}
}

func newTestRouter(t *testing.T, s *session.Session) (*Router, *bytes.Buffer) {
	t.Helper()
	store := session.Open(session.NewMemoryBackend(), zerolog.Nop())
	if s != nil {
		require.NoError(t, store.Login(*s))
	}
	var out bytes.Buffer
	r, err := New(testRoutes(), store, &out)
	require.NoError(t, err)
	return r, &out
}

func TestGuard(t *testing.T) {
	student := session.Session{ID: "s1", Phone: "13800000001"}
	admin := session.Session{ID: "a1", Phone: "admin", IsAdmin: true}

	tests := []struct {
		name    string
		meta    Meta
		session session.Session
		ok      bool
		want    Decision
	}{
		{"public signed out", Meta{}, session.Session{}, false, Decision{Action: Proceed}},
		{"public student", Meta{}, student, true, Decision{Action: Proceed}},
		{"auth signed out", Meta{RequiresAuth: true}, session.Session{}, false, Decision{Action: Redirect, To: LoginPath}},
		{"auth student", Meta{RequiresAuth: true}, student, true, Decision{Action: Proceed}},
		{"admin signed out", Meta{RequiresAdmin: true}, session.Session{}, false, Decision{Action: Redirect, To: LoginPath}},
		{"admin student", Meta{RequiresAdmin: true}, student, true, Decision{Action: Redirect, To: HomePath}},
		{"admin admin", Meta{RequiresAdmin: true}, admin, true, Decision{Action: Proceed}},
		{"admin and auth student", Meta{RequiresAuth: true, RequiresAdmin: true}, student, true, Decision{Action: Redirect, To: HomePath}},
		{"admin and auth signed out", Meta{RequiresAuth: true, RequiresAdmin: true}, session.Session{}, false, Decision{Action: Redirect, To: LoginPath}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Guard(Route{Path: "/x", Meta: tt.meta}, tt.session, tt.ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGuard_Property(t *testing.T) {
	// Exhaustive over every meta and session combination
	for _, requiresAuth := range []bool{false, true} {
		for _, requiresAdmin := range []bool{false, true} {
			for _, ok := range []bool{false, true} {
				for _, isAdmin := range []bool{false, true} {
					s := session.Session{IsAdmin: isAdmin}
					d := Guard(Route{Meta: Meta{RequiresAuth: requiresAuth, RequiresAdmin: requiresAdmin}}, s, ok)

					allowed := (!requiresAdmin || (ok && isAdmin)) && (!requiresAuth || ok)
					if allowed {
						assert.Equal(t, Proceed, d.Action)
						continue
					}
					require.Equal(t, Redirect, d.Action)
					if ok {
						assert.Equal(t, HomePath, d.To)
					} else {
						assert.Equal(t, LoginPath, d.To)
					}
				}
			}
		}
	}
}

func TestMatch(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	route, params, err := r.Match("/events/01HABC")
	require.NoError(t, err)
	assert.Equal(t, "event", route.Name)
	assert.Equal(t, map[string]string{"id": "01HABC"}, params)

	route, _, err = r.Match("events/")
	require.NoError(t, err)
	assert.Equal(t, "events", route.Name)

	route, _, err = r.Match("/")
	require.NoError(t, err)
	assert.Equal(t, "home", route.Name)

	_, _, err = r.Match("/events/1/extra")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNavigate(t *testing.T) {
	admin := &session.Session{Phone: "admin", IsAdmin: true}
	student := &session.Session{Phone: "13800000001"}

	tests := []struct {
		name     string
		session  *session.Session
		path     string
		wantTo   string
		wantFrom string
		wantOut  string
	}{
		{"public", nil, "/events", "/events", "", "events map[] from=\n"},
		{"params", nil, "/events/e1?tab=info", "/events/e1", "", "event map[id:e1] from=\n"},
		{"auth redirect", nil, "/profile", "/login", "/profile", "login map[] from=/profile\n"},
		{"admin redirect signed out", nil, "/admin", "/login", "/admin", "login map[] from=/admin\n"},
		{"admin redirect student", student, "/admin", "/", "/admin", "home map[] from=/admin\n"},
		{"admin allowed", admin, "/admin", "/admin", "", "admin map[] from=\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, out := newTestRouter(t, tt.session)

			d, err := r.Navigate(context.Background(), tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTo, d.To)
			assert.Equal(t, tt.wantFrom, d.RedirectFrom)
			assert.Equal(t, tt.wantOut, out.String())
		})
	}
}

func TestNavigate_UnknownPath(t *testing.T) {
	r, out := newTestRouter(t, nil)

	_, err := r.Navigate(context.Background(), "/nowhere")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, out.String())
}

func TestNavigate_LazyViewBuiltOnce(t *testing.T) {
	builds := 0
	routes := []Route{
		{Path: "/", Name: "home", View: echo("home")},
		{Path: "/shifts", Name: "shifts", Lazy: func() View {
			builds++
			return echo("shifts")
		}},
	}
	var out bytes.Buffer
	r, err := New(routes, nil, &out)
	require.NoError(t, err)
	assert.Zero(t, builds)

	for i := 0; i < 3; i++ {
		_, err := r.Navigate(context.Background(), "/shifts")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, builds)
}

func TestAfterEach(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	var seen []string
	r.AfterEach(func(requested Route, d Decision) {
		seen = append(seen, fmt.Sprintf("%s:%s:%s:%s", requested.Name, d.Action, d.To, d.RedirectFrom))
	})

	ctx := context.Background()
	_, err := r.Navigate(ctx, "/events")
	require.NoError(t, err)
	_, err = r.Navigate(ctx, "/admin")
	require.NoError(t, err)

	assert.Equal(t, []string{"events:proceed:/events:", "admin:redirect:/login:/admin"}, seen)
}

func TestNew_RejectsBadTables(t *testing.T) {
	_, err := New([]Route{{Path: "/"}}, nil, io.Discard)
	assert.ErrorIs(t, err, ErrNoView)

	_, err = New([]Route{
		{Path: "/", View: echo("a")},
		{Path: "/", View: echo("b")},
	}, nil, io.Discard)
	assert.Error(t, err)
}

func TestNavigate_Query(t *testing.T) {
	var got Request
	routes := []Route{
		{Path: "/", Name: "home", View: echo("home")},
		{Path: "/events/:id", Name: "event", View: ViewFunc(func(_ context.Context, _ io.Writer, req Request) error {
			got = req
			return nil
		})},
	}
	r, err := New(routes, nil, io.Discard)
	require.NoError(t, err)

	_, err = r.Navigate(context.Background(), "/events/e1?action=join")
	require.NoError(t, err)
	assert.Equal(t, "/events/e1", got.Path)
	assert.Equal(t, "join", got.Query.Get("action"))
	assert.Equal(t, "e1", got.Params["id"])

	_, err = r.Navigate(context.Background(), "/events/e2?status=recruiting&upcoming=true#top")
	require.NoError(t, err)
	assert.Equal(t, "/events/e2", got.Path)
	assert.Equal(t, "recruiting", got.Query.Get("status"))
	assert.Equal(t, "true", got.Query.Get("upcoming"))

	_, err = r.Navigate(context.Background(), "/events/e3#section?x=1")
	require.NoError(t, err)
	assert.Empty(t, got.Query, "a ? inside the fragment is not a query")
}
