package echoapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mygithubaccountn/EduPacee/core"
	"github.com/mygithubaccountn/EduPacee/core/academic"
	"github.com/mygithubaccountn/EduPacee/core/gradeimport"
	"github.com/mygithubaccountn/EduPacee/core/gradereport"
	"github.com/mygithubaccountn/EduPacee/core/user"
)

const (
	reportPDF  = "pdf"
	reportXLSX = "xlsx"

	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimePDF  = "application/pdf"
)

type gradeApi struct {
	svc      *academic.Service
	users    user.Service
	importer *gradeimport.Importer
	reports  *gradereport.Service
	validate *validator.Validate
}

func registerGradeAPI(g *echo.Group, srv *Server) {
	api := gradeApi{
		svc:      srv.deps.AcademicSvc,
		users:    srv.deps.UserSvc,
		importer: srv.deps.Importer,
		reports:  srv.deps.Reports,
		validate: srv.deps.Validate,
	}
	teacher := requireRole(academic.RoleTeacher)

	g.GET(coursePath+"/grades", api.query)
	g.PUT(coursePath+"/grades", api.upsert, teacher)
	g.POST(coursePath+"/grades/import", api.importTable, teacher)
	g.GET(coursePath+"/grades/report", api.report, teacher)
}

func (api *gradeApi) query(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	grades, err := api.svc.QueryGrades(ctx.Request().Context(), contextRole(ctx), id)
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	if grades == nil {
		grades = []academic.Grade{}
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *gradeApi) upsert(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data academic.GradeData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeData")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	grade, created, err := api.svc.UpsertGrade(ctx.Request().Context(), contextRole(ctx), usr.ID, id, data)
	if err != nil {
		return errors.Wrap(err, "saving grade")
	}
	return ctx.JSON(upsertStatus(created), grade)
}

// importTable imports the grade sheet uploaded as the `file` multipart field.
// A structural failure answers 400 with the rejected Result.
func (api *gradeApi) importTable(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	course, err := api.svc.EditCourseContent(ctx.Request().Context(), contextRole(ctx), id)
	if err != nil {
		return errors.Wrap(err, "checking course")
	}
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	req := gradeimport.Request{
		Course:       course,
		Semester:     ctx.FormValue("semester"),
		AcademicYear: ctx.FormValue("academic_year"),
		Actor:        usr,
	}
	if err := req.Validate(api.validate); err != nil {
		return err
	}

	table, err := readUpload(ctx)
	if err != nil {
		if gradeimport.KindOf(err) != 0 {
			return ctx.JSON(http.StatusBadRequest, rejected(err))
		}
		return errors.Wrap(err, "reading upload")
	}

	res, err := api.importer.Import(ctx.Request().Context(), table, req)
	if err != nil {
		if gradeimport.KindOf(err) != 0 {
			return ctx.JSON(http.StatusBadRequest, res)
		}
		return errors.Wrap(err, "importing grades")
	}
	return ctx.JSON(http.StatusOK, res)
}

func readUpload(ctx echo.Context) (gradeimport.Table, error) {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return gradeimport.ReadTable(nil, "")
	}
	f, err := fh.Open()
	if err != nil {
		return gradeimport.Table{}, errors.Wrap(err, "opening uploaded file")
	}
	defer f.Close()
	return gradeimport.ReadTable(f, fh.Filename)
}

func rejected(err error) gradeimport.Result {
	return gradeimport.Result{Summary: err.Error(), RowErrors: []gradeimport.RowError{}}
}

// report exports the course grades; ?format=pdf (default) or xlsx.
func (api *gradeApi) report(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	format := strings.ToLower(strings.TrimSpace(ctx.QueryParam("format")))
	if format == "" {
		format = reportPDF
	}
	if format != reportPDF && format != reportXLSX {
		return core.NewValidationError(nil, core.FieldError{Field: "format", Error: "format must be pdf or xlsx"})
	}

	course, err := api.svc.ViewCourse(ctx.Request().Context(), contextRole(ctx), id)
	if err != nil {
		return errors.Wrap(err, "viewing course")
	}
	rep, err := api.reports.Build(ctx.Request().Context(), course)
	if err != nil {
		return errors.Wrap(err, "building grade report")
	}

	var (
		buf         bytes.Buffer
		contentType string
	)
	switch format {
	case reportXLSX:
		contentType = mimeXLSX
		err = gradereport.WriteXLSX(&buf, rep)
	default:
		contentType = mimePDF
		err = gradereport.WritePDF(&buf, rep)
	}
	if err != nil {
		return errors.Wrap(err, "writing "+format+" report")
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", rep.Filename(format)))
	return ctx.Blob(http.StatusOK, contentType, buf.Bytes())
}
