package tests

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/mygithubaccountn/EduPacee/apps/api/echo"
	"github.com/mygithubaccountn/EduPacee/core/academic"
	testutil "github.com/mygithubaccountn/EduPacee/tests"
)

func Test_courseApi_query(t *testing.T) {
	env := setup(t)
	c := newCampus(t, env)
	locked := testutil.CreateCourse(t, env.repo, "MA201", true)
	nobodyToken := getToken(t, env.conf, testutil.CreateUser(t, env.users, "Nobody", "nobody", "nobody@test.edu", testPwd, true), academic.NoRole())

	tests := []httpTest{
		{name: "auth required", path: "/v1/courses", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "no role", path: "/v1/courses", token: nobodyToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})},
		{name: "board sees all", path: "/v1/courses", token: c.boardToken, wantCode: http.StatusOK, wantData: marchallList(t, c.course, locked)},
		{name: "teacher sees taught", path: "/v1/courses", token: c.teacherToken, wantCode: http.StatusOK, wantData: marchallList(t, c.course)},
		{name: "student sees enrolled", path: "/v1/courses", token: c.studentToken, wantCode: http.StatusOK, wantData: marchallList(t, c.course)},
		{name: "outsider sees none", path: "/v1/courses", token: c.outsiderToken, wantCode: http.StatusOK, wantData: marchallList(t)},
		{name: "locked filter", path: "/v1/courses?is_locked=true", token: c.boardToken, wantCode: http.StatusOK, wantData: marchallList(t, locked)},
		{name: "search", path: "/v1/courses?search=cs1", token: c.boardToken, wantCode: http.StatusOK, wantData: marchallList(t, c.course)},
		{
			name: "bad locked filter", path: "/v1/courses?is_locked=maybe", token: c.boardToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"is_locked": "must be true or false"}),
		},
	}
	runHTTPTests(t, env.app, tests)
}

func Test_courseApi_retrieve(t *testing.T) {
	env := setup(t)
	c := newCampus(t, env)
	path := fmt.Sprintf("/v1/courses/%d", c.course.ID)

	tests := []httpTest{
		{name: "board", path: path, token: c.boardToken, wantCode: http.StatusOK, wantData: marchallObj(t, c.course)},
		{name: "teacher", path: path, token: c.teacherToken, wantCode: http.StatusOK, wantData: marchallObj(t, c.course)},
		{name: "student", path: path, token: c.studentToken, wantCode: http.StatusOK, wantData: marchallObj(t, c.course)},
		{
			name: "student not enrolled", path: path, token: c.outsiderToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "not enrolled in this course"}),
		},
		{name: "unknown course", path: "/v1/courses/9999", token: c.boardToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})},
		{name: "malformed id", path: "/v1/courses/abc", token: c.boardToken, wantCode: http.StatusNotFound},
	}
	runHTTPTests(t, env.app, tests)
}

func Test_courseApi_create(t *testing.T) {
	env := setup(t)
	c := newCampus(t, env)

	tests := []httpTest{
		{
			name: "teacher forbidden", method: http.MethodPost, path: "/v1/courses", token: c.teacherToken,
			body: marchallObj(t, academic.NewCourse{Code: "PH101", Name: "Physics"}), wantCode: http.StatusForbidden,
		},
		{
			name: "required fields", method: http.MethodPost, path: "/v1/courses", token: c.boardToken, body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"code": "this field is required", "name": "this field is required"}),
		},
		{
			name: "invalid code", method: http.MethodPost, path: "/v1/courses", token: c.boardToken,
			body:     marchallObj(t, academic.NewCourse{Code: "PH 101", Name: "Physics"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"code": "only letters, digits, dots, dashes and underscores are allowed"}),
		},
		{
			name: "duplicate code", method: http.MethodPost, path: "/v1/courses", token: c.boardToken,
			body:     marchallObj(t, academic.NewCourse{Code: "CS101", Name: "Again"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"code": "a course with this code already exists"}),
		},
	}
	runHTTPTests(t, env.app, tests)

	req, rec := newAuthRequest(http.MethodPost, "/v1/courses", c.boardToken, marchallObj(t, academic.NewCourse{Code: " PH101 ", Name: "Physics"}))
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var course academic.Course
	unmarshal(t, rec, &course)
	assert.NotZero(t, course.ID)
	assert.Equal(t, "PH101", course.Code)
	assert.Equal(t, 3, course.Credits)
	assert.False(t, course.IsLocked)
}

func Test_courseApi_updateAndDelete(t *testing.T) {
	env := setup(t)
	c := newCampus(t, env)
	locked := testutil.CreateCourse(t, env.repo, "MA201", true)
	path := fmt.Sprintf("/v1/courses/%d", c.course.ID)
	lockedPath := fmt.Sprintf("/v1/courses/%d", locked.ID)
	conflict := marchallObj(t, httpErr{Error: "this course is locked"})

	tests := []httpTest{
		{
			name: "teacher forbidden", method: http.MethodPut, path: path, token: c.teacherToken,
			body: marchallObj(t, academic.UpdateCourse{Name: "Renamed"}), wantCode: http.StatusForbidden,
		},
		{
			name: "locked update", method: http.MethodPut, path: lockedPath, token: c.boardToken,
			body: marchallObj(t, academic.UpdateCourse{Name: "Renamed"}), wantCode: http.StatusConflict, wantData: conflict,
		},
		{name: "locked delete", method: http.MethodDelete, path: lockedPath, token: c.boardToken, wantCode: http.StatusConflict, wantData: conflict},
		{name: "student delete", method: http.MethodDelete, path: path, token: c.studentToken, wantCode: http.StatusForbidden},
	}
	runHTTPTests(t, env.app, tests)

	req, rec := newAuthRequest(http.MethodPut, path, c.boardToken, []byte(`{"name":"Intro to Computing","credits":4}`))
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var course academic.Course
	unmarshal(t, rec, &course)
	assert.Equal(t, "CS101", course.Code)
	assert.Equal(t, "Intro to Computing", course.Name)
	assert.Equal(t, 4, course.Credits)

	req, rec = newAuthRequest(http.MethodDelete, path, c.boardToken)
	env.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err := env.repo.GetCourse(bgCtx, c.course.ID)
	assert.Equal(t, academic.ErrNotFound, err)
}

func Test_courseApi_lock(t *testing.T) {
	env := setup(t)
	c := newCampus(t, env)
	path := fmt.Sprintf("/v1/courses/%d/lock", c.course.ID)
	lo := fmt.Sprintf("/v1/courses/%d/learning-outcomes", c.course.ID)

	tests := []httpTest{
		{name: "teacher forbidden", method: http.MethodPut, path: path, token: c.teacherToken, body: []byte(`{"is_locked":true}`), wantCode: http.StatusForbidden},
		{
			name: "required", method: http.MethodPut, path: path, token: c.boardToken, body: []byte(`{}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"is_locked": "this field is required"}),
		},
		{name: "lock", method: http.MethodPut, path: path, token: c.boardToken, body: []byte(`{"is_locked":true}`), wantCode: http.StatusOK},
		{
			name: "teacher edits locked course", method: http.MethodPost, path: lo, token: c.teacherToken,
			body:     marchallObj(t, academic.OutcomeData{Code: "LO1", Description: "Reason about programs"}),
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "this course is locked"}),
		},
		{name: "lock again", method: http.MethodPut, path: path, token: c.boardToken, body: []byte(`{"is_locked":true}`), wantCode: http.StatusOK},
		{name: "unlock", method: http.MethodPut, path: path, token: c.boardToken, body: []byte(`{"is_locked":false}`), wantCode: http.StatusOK},
		{
			name: "teacher edits unlocked course", method: http.MethodPost, path: lo, token: c.teacherToken,
			body: marchallObj(t, academic.OutcomeData{Code: "LO1", Description: "Reason about programs"}), wantCode: http.StatusCreated,
		},
	}
	runHTTPTests(t, env.app, tests)

	course, err := env.repo.GetCourse(bgCtx, c.course.ID)
	require.NoError(t, err)
	assert.False(t, course.IsLocked)
}

func Test_courseApi_members(t *testing.T) {
	env := setup(t)
	c := newCampus(t, env)
	john := testutil.CreateUser(t, env.users, "John Teacher", "john", "john@test.edu", testPwd, true)
	other := testutil.CreateTeacher(t, env.repo, john, "T002")
	otherToken := getToken(t, env.conf, john, academic.TeacherRole(other.ID))
	outsider, err := env.repo.GetStudentByUserID(bgCtx, c.outsider.ID)
	require.NoError(t, err)
	student, err := env.repo.GetStudentByUserID(bgCtx, c.student.ID)
	require.NoError(t, err)

	path := fmt.Sprintf("/v1/courses/%d", c.course.ID)
	tests := []httpTest{
		{name: "teacher lists students", path: path + "/students", token: c.teacherToken, wantCode: http.StatusOK, wantData: marchallList(t, student)},
		{name: "student cannot list students", path: path + "/students", token: c.studentToken, wantCode: http.StatusForbidden},
		{name: "other teacher cannot view", path: path, token: otherToken, wantCode: http.StatusForbidden},
		{
			name: "enroll unknown student", method: http.MethodPost, path: path + "/students", token: c.boardToken,
			body:     marchallObj(t, EnrollStudentRequest{StudentID: 9999}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"student_id": "student not found"}),
		},
		{
			name: "enroll", method: http.MethodPost, path: path + "/students", token: c.boardToken,
			body: marchallObj(t, EnrollStudentRequest{StudentID: outsider.ID}), wantCode: http.StatusNoContent,
		},
		{name: "enrolled student views", path: path, token: c.outsiderToken, wantCode: http.StatusOK, wantData: marchallObj(t, c.course)},
		{
			name: "teacher enroll forbidden", method: http.MethodPost, path: path + "/students", token: c.teacherToken,
			body: marchallObj(t, EnrollStudentRequest{StudentID: outsider.ID}), wantCode: http.StatusForbidden,
		},
		{
			name: "assign unknown teacher", method: http.MethodPost, path: path + "/teachers", token: c.boardToken,
			body:     marchallObj(t, AssignTeacherRequest{TeacherID: 9999}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"teacher_id": "teacher not found"}),
		},
		{
			name: "assign", method: http.MethodPost, path: path + "/teachers", token: c.boardToken,
			body: marchallObj(t, AssignTeacherRequest{TeacherID: other.ID}), wantCode: http.StatusNoContent,
		},
		{name: "assigned teacher views", path: path, token: otherToken, wantCode: http.StatusOK, wantData: marchallObj(t, c.course)},
		{name: "both students listed", path: path + "/students", token: otherToken, wantCode: http.StatusOK, wantData: marchallList(t, student, outsider)},
	}
	runHTTPTests(t, env.app, tests)
}
