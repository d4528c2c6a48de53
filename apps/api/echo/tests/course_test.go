package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/speakwell/academy/apps/api/echo"
	"github.com/speakwell/academy/core/account"
	"github.com/speakwell/academy/core/course"
	testutil "github.com/speakwell/academy/tests"
)

func Test_home(t *testing.T) {
	e := setup(t)
	req, rec := newRequest(http.MethodGet, "/")
	e.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Speakwell API!", rec.Body.String())
}

func Test_courseApi_catalog(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	everyday := testutil.CreateCourse(t, e.courseSvc, "everyday", true)
	testutil.CreateCourse(t, e.courseSvc, "travel", true)
	testutil.CreateCourse(t, e.courseSvc, "draft", false)

	published := true
	list, err := e.courseSvc.Query(ctx, course.QueryFilter{Published: &published})
	require.NoError(t, err)
	summaries := make(map[string]course.Course, len(list))
	for _, c := range list {
		summaries[c.Slug] = c
	}
	tree, err := e.courseSvc.Get(ctx, everyday.ID)
	require.NoError(t, err)

	runHTTPTests(t, e.app, []httpTest{
		{name: "published only", path: "/v1/courses", wantData: marshallObj(t, []course.Course{summaries["everyday"], summaries["travel"]})},
		{name: "ordering", path: "/v1/courses?ordering=-title", wantData: marshallObj(t, []course.Course{summaries["travel"], summaries["everyday"]})},
		{
			name: "unknown ordering", path: "/v1/courses?ordering=title,-password",
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, map[string]string{"ordering": "unknown field: password"}),
		},
		{name: "search", path: "/v1/courses?search=TRAVEL", wantData: marshallObj(t, []course.Course{summaries["travel"]})},
		{name: "no match", path: "/v1/courses?level=C2", wantData: []byte("[]")},
		{name: "by slug", path: "/v1/courses/everyday", wantData: marshallObj(t, tree)},
		{name: "by id", path: "/v1/courses/" + everyday.ID, wantData: marshallObj(t, tree)},
		{name: "unpublished", path: "/v1/courses/draft", wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "course not found"})},
		{name: "unknown", path: "/v1/courses/nope", wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "course not found"})},
	})
}

func Test_courseApi_auth(t *testing.T) {
	e := setup(t)
	ident := account.Identity{ID: "u1", Email: "ada@example.com", Name: "Ada"}

	otherAudience := echoapi.NewClaims(e.conf, ident, time.Hour)
	otherAudience.Audience = "anon"
	otherAudienceToken, err := echoapi.GenerateToken(e.conf, otherAudience)
	require.NoError(t, err)

	expired, err := echoapi.GenerateToken(e.conf, echoapi.NewClaims(e.conf, ident, -time.Minute))
	require.NoError(t, err)

	noSubject, err := echoapi.GenerateToken(e.conf, echoapi.NewClaims(e.conf, account.Identity{}, time.Hour))
	require.NoError(t, err)

	conf := *e.conf
	conf.SecretKey = "not the secret"
	forged := getToken(t, &conf, ident)

	runHTTPTests(t, e.app, []httpTest{
		{name: "auth required", path: "/v1/dashboard", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{name: "forged token", path: "/v1/dashboard", token: forged, wantCode: http.StatusUnauthorized, wantData: marshallObj(t, httpErr{Error: "invalid or expired jwt"})},
		{name: "expired token", path: "/v1/dashboard", token: expired, wantCode: http.StatusUnauthorized, wantData: marshallObj(t, httpErr{Error: "invalid or expired jwt"})},
		{name: "wrong audience", path: "/v1/dashboard", token: otherAudienceToken, wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "permission denied"})},
		{name: "no subject", path: "/v1/dashboard", token: noSubject, wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "permission denied"})},
		{name: "authenticated", path: "/v1/dashboard", token: getToken(t, e.conf, ident), wantData: []byte("[]")},
	})
}

func Test_courseApi_lessons(t *testing.T) {
	e := setup(t)
	c := testutil.CreateCourse(t, e.courseSvc, "everyday", true)
	lessons := c.Lessons()
	token := getToken(t, e.conf, account.Identity{ID: "u1", Email: "ada@example.com", Name: "Ada"})

	// blocks only marshal one way; the rest of the content is decoded
	type lessonView struct {
		Lesson    course.Lesson `json:"lesson"`
		EndMarker string        `json:"end_marker"`
		Completed bool          `json:"completed"`
	}
	open := func(t *testing.T, id string) lessonView {
		req, rec := newAuthRequest(http.MethodGet, "/v1/lessons/"+id, token)
		e.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var view lessonView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
		return view
	}

	content := open(t, lessons[0].ID)
	assert.Equal(t, lessons[0], content.Lesson)
	assert.Equal(t, course.EndMarker(lessons[0].ID), content.EndMarker)
	assert.False(t, content.Completed)

	runHTTPTests(t, e.app, []httpTest{
		{
			name: "ratio out of range", method: http.MethodPost, path: "/v1/lessons/" + lessons[0].ID + "/visibility", token: token,
			body: []byte(`{"intersecting": true, "ratio": 1.5}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "end not visible enough", method: http.MethodPost, path: "/v1/lessons/" + lessons[0].ID + "/visibility", token: token,
			body: []byte(`{"intersecting": true, "ratio": 0.1}`), wantData: marshallObj(t, echoapi.VisibilityResponse{Notified: 1}),
		},
		{
			name: "end visible", method: http.MethodPost, path: "/v1/lessons/" + lessons[0].ID + "/visibility", token: token,
			body: []byte(`{"intersecting": true, "ratio": 0.75}`), wantData: marshallObj(t, echoapi.VisibilityResponse{Notified: 1}),
		},
		{
			name: "gate already fired", method: http.MethodPost, path: "/v1/lessons/" + lessons[0].ID + "/visibility", token: token,
			body: []byte(`{"intersecting": true, "ratio": 1}`), wantData: marshallObj(t, echoapi.VisibilityResponse{Notified: 0}),
		},
		{
			name: "unknown lesson", method: http.MethodPost, path: "/v1/lessons/nope/visibility", token: token,
			body: []byte(`{"intersecting": true, "ratio": 1}`), wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "lesson not found"}),
		},
	})

	assert.True(t, open(t, lessons[0].ID).Completed)

	// explicit completion
	req, rec := newAuthRequest(http.MethodPost, "/v1/lessons/"+lessons[2].ID+"/complete", token)
	e.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var p course.Progress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "u1", p.LearnerID)
	assert.Equal(t, c.ID, p.CourseID)

	req, rec = newAuthRequest(http.MethodPost, "/v1/lessons/nope/complete", token)
	e.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// dashboard
	req, rec = newAuthRequest(http.MethodGet, "/v1/dashboard", token)
	e.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var dash []course.CourseProgress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dash))
	require.Len(t, dash, 1)
	assert.Equal(t, 2, dash[0].Completed)
	assert.Equal(t, 3, dash[0].Total)
	assert.Equal(t, 66, dash[0].Percentage)
	assert.Equal(t, lessons[1].ID, dash[0].NextLessonID)
}

func Test_courseApi_lessonHTML(t *testing.T) {
	e := setup(t)
	c := testutil.CreateCourse(t, e.courseSvc, "everyday", true)
	token := getToken(t, e.conf, account.Identity{ID: "u1"})

	req, rec := newAuthRequest(http.MethodGet, "/v1/lessons/"+c.Lessons()[0].ID+"/html", token)
	e.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, "Hello", doc.Find("h2").Text())
	assert.Equal(t, "hello", doc.Find("p strong").Text())
	assert.Equal(t, "everyone", doc.Find("p em").Text())
	assert.Equal(t, 2, doc.Find("ul li").Length())

	req, rec = newAuthRequest(http.MethodGet, "/v1/lessons/nope/html", token)
	e.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_courseApi_draftLessons(t *testing.T) {
	e := setup(t)
	l := testutil.CreateCourse(t, e.courseSvc, "draft", false).Lessons()[0]
	token := getToken(t, e.conf, account.Identity{ID: "u1"})
	notFound := marshallObj(t, httpErr{Error: "lesson not found"})

	runHTTPTests(t, e.app, []httpTest{
		{name: "open", path: "/v1/lessons/" + l.ID, token: token, wantCode: http.StatusNotFound, wantData: notFound},
		{name: "html", path: "/v1/lessons/" + l.ID + "/html", token: token, wantCode: http.StatusNotFound, wantData: notFound},
		{
			name: "visibility", method: http.MethodPost, path: "/v1/lessons/" + l.ID + "/visibility", token: token,
			body: []byte(`{"intersecting": true, "ratio": 1}`), wantCode: http.StatusNotFound, wantData: notFound,
		},
		{name: "complete", method: http.MethodPost, path: "/v1/lessons/" + l.ID + "/complete", token: token, wantCode: http.StatusNotFound, wantData: notFound},
	})

	req, rec := newAuthRequest(http.MethodGet, "/v1/dashboard", token)
	e.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}
