package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	echoapi "github.com/speakwell/academy/apps/api/echo"
	"github.com/speakwell/academy/core"
	"github.com/speakwell/academy/core/account"
	"github.com/speakwell/academy/core/assessment"
	"github.com/speakwell/academy/core/course"
	emailsvc "github.com/speakwell/academy/services/email"
	inmemdb "github.com/speakwell/academy/storage/database/inmem"
	testutil "github.com/speakwell/academy/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type env struct {
	conf          *core.Config
	app           *echoapi.Server
	courseSvc     course.Service
	assessmentSvc assessment.Service
	profileRepo   account.Repository
}

func setup(t *testing.T) *env {
	conf := core.NewTestConfig()
	logger := testutil.NewLogger(conf)
	validate, translator := testutil.NewValidator()

	// set up DB & repos
	db := inmemdb.NewDB()
	profileRepo := inmemdb.NewProfileRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	emailsvc.ClearSentMessages()
	courseSvc := course.NewService(conf, inmemdb.NewCourseRepository(db), validate, logger)
	assessmentSvc := assessment.NewService(conf, inmemdb.NewAssessmentRepository(db), courseSvc, validate, mailSvc)
	accountSvc := account.NewService(profileRepo, validate)

	// set up server
	app := echoapi.NewServer(echoapi.ServerDeps{
		Conf:          conf,
		Logger:        logger,
		CourseSvc:     courseSvc,
		AssessmentSvc: assessmentSvc,
		AccountSvc:    accountSvc,
		Validate:      validate,
		Translator:    translator,
	})
	t.Cleanup(func() { _ = app.Close() })

	return &env{
		conf:          conf,
		app:           app,
		courseSvc:     courseSvc,
		assessmentSvc: assessmentSvc,
		profileRepo:   profileRepo,
	}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, conf *core.Config, ident account.Identity) string {
	token, err := echoapi.GenerateToken(conf, echoapi.NewClaims(conf, ident, time.Hour))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	assert.Equal(t, tt.wantCode, rec.Code, "body: %s", rec.Body.String())
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app http.Handler, tests []httpTest) {
	for _, tt := range tests {
		if tt.method == "" {
			tt.method = http.MethodGet
		}
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
