package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mygithubaccountn/EduPacee/core/academic"
)

const coursePath = "/courses/:id"

type courseApi struct {
	svc      *academic.Service
	validate *validator.Validate
}

func registerCourseAPI(g *echo.Group, srv *Server) {
	api := courseApi{
		svc:      srv.deps.AcademicSvc,
		validate: srv.deps.Validate,
	}
	board := requireRole(academic.RoleBoard)

	cg := g.Group("/courses")
	cg.GET("", api.query)
	cg.POST("", api.create, board)

	g.GET(coursePath, api.retrieve)
	g.PUT(coursePath, api.update, board)
	g.DELETE(coursePath, api.destroy, board)
	g.PUT(coursePath+"/lock", api.lock, board)
	g.POST(coursePath+"/teachers", api.assignTeacher, board)
	g.GET(coursePath+"/students", api.queryStudents)
	g.POST(coursePath+"/students", api.enrollStudent, board)
}

// Handlers

func (api *courseApi) query(ctx echo.Context) error {
	locked, err := queryBool(ctx, "is_locked")
	if err != nil {
		return err
	}
	filter := academic.CourseFilter{
		Search:   ctx.QueryParam("search"),
		IsLocked: locked,
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	courses, err := api.svc.QueryCourses(ctx.Request().Context(), contextRole(ctx), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []academic.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) create(ctx echo.Context) error {
	var data academic.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	course, err := api.svc.CreateCourse(ctx.Request().Context(), contextRole(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, course)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	course, err := api.svc.ViewCourse(ctx.Request().Context(), contextRole(ctx), id)
	if err != nil {
		return errors.Wrap(err, "viewing course")
	}
	return ctx.JSON(http.StatusOK, course)
}

func (api *courseApi) update(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	role := contextRole(ctx)
	course, err := api.svc.GetCourseForUpdate(ctx.Request().Context(), role, id)
	if err != nil {
		return errors.Wrap(err, "finding course")
	}

	var data academic.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(course, api.validate); err != nil {
		return err
	}

	course, err = api.svc.UpdateCourse(ctx.Request().Context(), role, id, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, course)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteCourse(ctx.Request().Context(), contextRole(ctx), id); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) lock(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data LockRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LockRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	course, err := api.svc.SetCourseLock(ctx.Request().Context(), contextRole(ctx), id, *data.IsLocked)
	if err != nil {
		return errors.Wrap(err, "setting course lock")
	}
	return ctx.JSON(http.StatusOK, course)
}

func (api *courseApi) assignTeacher(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data AssignTeacherRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignTeacherRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	if err := api.svc.AssignTeacher(ctx.Request().Context(), contextRole(ctx), id, data.TeacherID); err != nil {
		return errors.Wrap(err, "assigning teacher")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) queryStudents(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	students, err := api.svc.CourseStudents(ctx.Request().Context(), contextRole(ctx), id)
	if err != nil {
		return errors.Wrap(err, "querying course students")
	}
	if students == nil {
		students = []academic.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *courseApi) enrollStudent(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data EnrollStudentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollStudentRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	if err := api.svc.EnrollStudent(ctx.Request().Context(), contextRole(ctx), id, data.StudentID); err != nil {
		return errors.Wrap(err, "enrolling student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type (
	LockRequest struct {
		IsLocked *bool `json:"is_locked" validate:"required"`
	}

	AssignTeacherRequest struct {
		TeacherID int64 `json:"teacher_id" validate:"required"`
	}

	EnrollStudentRequest struct {
		StudentID int64 `json:"student_id" validate:"required"`
	}
)
