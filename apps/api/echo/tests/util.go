package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/mygithubaccountn/EduPacee/apps/api/echo"
	"github.com/mygithubaccountn/EduPacee/core"
	"github.com/mygithubaccountn/EduPacee/core/academic"
	"github.com/mygithubaccountn/EduPacee/core/gradeimport"
	"github.com/mygithubaccountn/EduPacee/core/gradereport"
	"github.com/mygithubaccountn/EduPacee/core/outcome"
	"github.com/mygithubaccountn/EduPacee/core/user"
	emailsvc "github.com/mygithubaccountn/EduPacee/services/email"
	logsvc "github.com/mygithubaccountn/EduPacee/services/logger"
	inmemdb "github.com/mygithubaccountn/EduPacee/storage/database/inmem"
	testutil "github.com/mygithubaccountn/EduPacee/tests"
)

const testPwd = "Pa$$w0rd!"

var (
	bgCtx = context.Background()

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

func newTestConfig() *core.Config {
	return &core.Config{
		AppName:                   "EduPace",
		Env:                       "TEST",
		TestMode:                  true,
		SecretKey:                 "test-secret-key",
		DefaultFromEmail:          mail.Address{Name: "EduPace", Address: "noreply@test.edu"},
		FrontendBaseURL:           "http://localhost:3000",
		PasswordResetTimeoutDelta: 24 * time.Hour,
		Server: core.ServerConfig{
			DisableRequestLogs:        true,
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: time.Hour,
		},
		Import: core.ImportConfig{MaxUploadSize: "1M", MaxMailedErrors: 20},
	}
}

// testEnv is a server backed by a fresh in-memory store.
type testEnv struct {
	app    *Server
	conf   *core.Config
	users  user.Repository
	repo   academic.Repository
	outbox *emailsvc.Outbox
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	conf := newTestConfig()
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "TEST : ", log.LstdFlags), conf)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	academic.InitValidators(validate, translator)

	// set up DB & repos
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	acRepo := inmemdb.NewAcademicRepository(db)

	// set up services
	mailSvc, outbox := emailsvc.NewConsoleServiceMock(conf, logger)
	usrSvc := user.NewService(conf, usrRepo, mailSvc)

	app := NewServer(Deps{
		Conf:        conf,
		Logger:      logger,
		Validate:    validate,
		Translator:  translator,
		UserSvc:     usrSvc,
		AcademicSvc: academic.NewService(acRepo),
		OutcomeSvc:  outcome.NewService(acRepo),
		Importer:    gradeimport.NewImporter(conf, acRepo, mailSvc, logger),
		Reports:     gradereport.NewService(acRepo, usrSvc),
	})
	return &testEnv{app: app, conf: conf, users: usrRepo, repo: acRepo, outbox: outbox}
}

// campus is a board member, a teacher and two students, with one course taught by the teacher
// where only the first student is enrolled.
type campus struct {
	board, teacher, student, outsider                     user.User
	boardRole, teacherRole, studentRole, outsiderRole     academic.Role
	boardToken, teacherToken, studentToken, outsiderToken string
	course                                                academic.Course
}

func newCampus(t *testing.T, env *testEnv) campus {
	t.Helper()
	var c campus

	c.board = testutil.CreateUser(t, env.users, "Board Member", "board", "board@test.edu", testPwd, true)
	c.teacher = testutil.CreateUser(t, env.users, "Jane Teacher", "teacher", "teacher@test.edu", testPwd, true)
	c.student = testutil.CreateUser(t, env.users, "Ali Student", "student", "student@test.edu", testPwd, true)
	c.outsider = testutil.CreateUser(t, env.users, "Other Student", "outsider", "outsider@test.edu", testPwd, true)

	c.boardRole = academic.BoardRole(testutil.CreateBoardMember(t, env.repo, c.board, "B001").ID)
	tc := testutil.CreateTeacher(t, env.repo, c.teacher, "T001")
	c.teacherRole = academic.TeacherRole(tc.ID)
	st := testutil.CreateStudent(t, env.repo, c.student, "S001")
	c.studentRole = academic.StudentRole(st.ID)
	c.outsiderRole = academic.StudentRole(testutil.CreateStudent(t, env.repo, c.outsider, "S002").ID)

	c.course = testutil.CreateCourse(t, env.repo, "CS101", false)
	if err := env.repo.AddCourseTeacher(bgCtx, c.course.ID, tc.ID); err != nil {
		t.Fatalf("newCampus() failed: %v", err)
	}
	if err := env.repo.AddCourseStudent(bgCtx, c.course.ID, st.ID); err != nil {
		t.Fatalf("newCampus() failed: %v", err)
	}

	c.boardToken = getToken(t, env.conf, c.board, c.boardRole)
	c.teacherToken = getToken(t, env.conf, c.teacher, c.teacherRole)
	c.studentToken = getToken(t, env.conf, c.student, c.studentRole)
	c.outsiderToken = getToken(t, env.conf, c.outsider, c.outsiderRole)
	return c
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
	extra    interface{}
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

// newUploadRequest builds a multipart request carrying fields and, unless filename is empty, a `file` part.
func newUploadRequest(t *testing.T, path, token string, fields map[string]string, filename string, content []byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("newUploadRequest() failed: %v", err)
		}
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("newUploadRequest() failed: %v", err)
		}
		_, _ = fw.Write(content)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("newUploadRequest() failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req, httptest.NewRecorder()
}

func getToken(t *testing.T, conf *core.Config, usr user.User, role academic.Role) string {
	token, err := GenerateToken(conf, GetUserClaims(conf, usr, role))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarshal(%s) failed: %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	if _, ok := j1.([]interface{}); !ok {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

// runHTTPTests serves every case of tests and checks its response.
func runHTTPTests(t *testing.T, app http.Handler, tests []httpTest) {
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

// serve sends a single request to app, requires wantCode and decodes the response into out unless out is nil.
func serve(t *testing.T, app http.Handler, method, path, token string, body []byte, wantCode int, out interface{}) {
	t.Helper()
	req, rec := newAuthRequest(method, path, token, body)
	app.ServeHTTP(rec, req)
	if rec.Code != wantCode {
		t.Fatalf("%s %s: code = %v; wantCode %v; body %s", method, path, rec.Code, wantCode, rec.Body.String())
	}
	if out != nil {
		unmarshal(t, rec, out)
	}
}
