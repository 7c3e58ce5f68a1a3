package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mygithubaccountn/EduPacee/core"
	"github.com/mygithubaccountn/EduPacee/core/academic"
	"github.com/mygithubaccountn/EduPacee/core/outcome"
	"github.com/mygithubaccountn/EduPacee/core/user"
)

var errStudentRequired = core.NewValidationError(nil, core.FieldError{Field: "student", Error: "this field is required"})

type outcomeApi struct {
	svc      *academic.Service
	outcomes *outcome.Service
	users    user.Service
	validate *validator.Validate
}

func registerOutcomeAPI(g *echo.Group, srv *Server) {
	api := outcomeApi{
		svc:      srv.deps.AcademicSvc,
		outcomes: srv.deps.OutcomeSvc,
		users:    srv.deps.UserSvc,
		validate: srv.deps.Validate,
	}
	teacher := requireRole(academic.RoleTeacher)
	board := requireRole(academic.RoleBoard)

	// no sub-group: it would shadow the course detail routes
	g.GET(coursePath+"/graph", api.graph)
	g.GET(coursePath+"/outcomes", api.scores)
	g.GET(coursePath+"/learning-outcomes", api.queryLearningOutcomes)
	g.POST(coursePath+"/learning-outcomes", api.createLearningOutcome, teacher)
	g.GET(coursePath+"/assessments", api.queryAssessments)
	g.POST(coursePath+"/assessments", api.createAssessment, teacher)
	g.PUT(coursePath+"/assessment-grades", api.upsertAssessmentGrade, teacher)
	g.GET(coursePath+"/assessment-links", api.queryAssessmentLinks)
	g.PUT(coursePath+"/assessment-links", api.upsertAssessmentLink, teacher)
	g.GET(coursePath+"/outcome-links", api.queryOutcomeLinks)
	g.PUT(coursePath+"/outcome-links", api.upsertOutcomeLink, board)

	g.PUT("/learning-outcomes/:id", api.updateLearningOutcome, teacher)
	g.DELETE("/learning-outcomes/:id", api.destroyLearningOutcome, teacher)
	g.PUT("/assessments/:id", api.updateAssessment, teacher)
	g.DELETE("/assessments/:id", api.destroyAssessment, teacher)
	g.DELETE("/assessment-links/:id", api.destroyAssessmentLink, teacher)

	pg := g.Group("/program-outcomes")
	pg.GET("", api.queryProgramOutcomes)
	pg.POST("", api.createProgramOutcome, board)
	pg.PUT("/:id", api.updateProgramOutcome, board)
	pg.DELETE("/:id", api.destroyProgramOutcome, board)
	g.DELETE("/outcome-links/:id", api.destroyOutcomeLink, board)
}

// scoredStudent picks the student whose scores are shown on the course: a student sees their own,
// teachers and the board choose one of the enrolled students with the `student` query param.
func (api *outcomeApi) scoredStudent(ctx echo.Context, courseID int64) (null.Int64, error) {
	role := contextRole(ctx)
	if role.IsStudent() {
		return null.Int64From(role.ProfileID), nil
	}
	sid, err := queryID(ctx, "student")
	if err != nil || !sid.Valid {
		return sid, err
	}
	if _, err := api.svc.CourseStudent(ctx.Request().Context(), courseID, sid.Int64); err != nil {
		if err == academic.ErrNotEnrolled {
			return sid, core.NewValidationError(err, core.FieldError{Field: "student", Error: err.Error()})
		}
		return sid, err
	}
	return sid, nil
}

func (api *outcomeApi) graph(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if _, err := api.svc.ViewCourse(ctx.Request().Context(), contextRole(ctx), id); err != nil {
		return errors.Wrap(err, "viewing course")
	}
	student, err := api.scoredStudent(ctx, id)
	if err != nil {
		return err
	}

	graph, err := api.outcomes.BuildCourseGraph(ctx.Request().Context(), id, student)
	if err != nil {
		return errors.Wrap(err, "building course graph")
	}
	return ctx.JSON(http.StatusOK, graph)
}

func (api *outcomeApi) scores(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if _, err := api.svc.ViewCourse(ctx.Request().Context(), contextRole(ctx), id); err != nil {
		return errors.Wrap(err, "viewing course")
	}
	student, err := api.scoredStudent(ctx, id)
	if err != nil {
		return err
	}
	if !student.Valid {
		return errStudentRequired
	}

	scores, err := api.outcomes.CourseScores(ctx.Request().Context(), id, student.Int64)
	if err != nil {
		return errors.Wrap(err, "scoring outcomes")
	}
	return ctx.JSON(http.StatusOK, scores)
}

// actorID is the id of the context user, recorded as the creator of outcomes.
func (api *outcomeApi) actorID(ctx echo.Context) (string, error) {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return "", errors.Wrap(err, "getting context user")
	}
	return usr.ID, nil
}

// Learning outcomes

func (api *outcomeApi) queryLearningOutcomes(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	los, err := api.svc.QueryLearningOutcomes(ctx.Request().Context(), contextRole(ctx), id)
	if err != nil {
		return errors.Wrap(err, "querying learning outcomes")
	}
	if los == nil {
		los = []academic.LearningOutcome{}
	}
	return ctx.JSON(http.StatusOK, los)
}

func (api *outcomeApi) createLearningOutcome(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data academic.OutcomeData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to OutcomeData")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	actor, err := api.actorID(ctx)
	if err != nil {
		return err
	}

	lo, err := api.svc.CreateLearningOutcome(ctx.Request().Context(), contextRole(ctx), actor, id, data)
	if err != nil {
		return errors.Wrap(err, "creating learning outcome")
	}
	return ctx.JSON(http.StatusCreated, lo)
}

func (api *outcomeApi) updateLearningOutcome(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data academic.OutcomeData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to OutcomeData")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	lo, err := api.svc.UpdateLearningOutcome(ctx.Request().Context(), contextRole(ctx), id, data)
	if err != nil {
		return errors.Wrap(err, "updating learning outcome")
	}
	return ctx.JSON(http.StatusOK, lo)
}

func (api *outcomeApi) destroyLearningOutcome(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteLearningOutcome(ctx.Request().Context(), contextRole(ctx), id); err != nil {
		return errors.Wrap(err, "deleting learning outcome")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Assessments

func (api *outcomeApi) queryAssessments(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	assessments, err := api.svc.QueryAssessments(ctx.Request().Context(), contextRole(ctx), id)
	if err != nil {
		return errors.Wrap(err, "querying assessments")
	}
	if assessments == nil {
		assessments = []academic.Assessment{}
	}
	return ctx.JSON(http.StatusOK, assessments)
}

func (api *outcomeApi) createAssessment(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data academic.AssessmentData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssessmentData")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	a, err := api.svc.CreateAssessment(ctx.Request().Context(), contextRole(ctx), id, data)
	if err != nil {
		return errors.Wrap(err, "creating assessment")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *outcomeApi) updateAssessment(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data academic.AssessmentData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssessmentData")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	a, err := api.svc.UpdateAssessment(ctx.Request().Context(), contextRole(ctx), id, data)
	if err != nil {
		return errors.Wrap(err, "updating assessment")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *outcomeApi) destroyAssessment(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteAssessment(ctx.Request().Context(), contextRole(ctx), id); err != nil {
		return errors.Wrap(err, "deleting assessment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *outcomeApi) upsertAssessmentGrade(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data academic.AssessmentGradeData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssessmentGradeData")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	grade, created, err := api.svc.UpsertAssessmentGrade(ctx.Request().Context(), contextRole(ctx), id, data)
	if err != nil {
		return errors.Wrap(err, "saving assessment grade")
	}
	return ctx.JSON(upsertStatus(created), grade)
}

// Links

func (api *outcomeApi) queryAssessmentLinks(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	links, err := api.svc.QueryAssessmentLinks(ctx.Request().Context(), contextRole(ctx), id)
	if err != nil {
		return errors.Wrap(err, "querying assessment links")
	}
	if links == nil {
		links = []academic.AssessmentToLO{}
	}
	return ctx.JSON(http.StatusOK, links)
}

func (api *outcomeApi) upsertAssessmentLink(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data academic.AssessmentLinkData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssessmentLinkData")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	link, err := api.svc.UpsertAssessmentLink(ctx.Request().Context(), contextRole(ctx), id, data)
	if err != nil {
		return errors.Wrap(err, "saving assessment link")
	}
	return ctx.JSON(http.StatusOK, link)
}

func (api *outcomeApi) destroyAssessmentLink(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteAssessmentLink(ctx.Request().Context(), contextRole(ctx), id); err != nil {
		return errors.Wrap(err, "deleting assessment link")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *outcomeApi) queryOutcomeLinks(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	links, err := api.svc.QueryOutcomeLinks(ctx.Request().Context(), contextRole(ctx), id)
	if err != nil {
		return errors.Wrap(err, "querying outcome links")
	}
	if links == nil {
		links = []academic.LOToPO{}
	}
	return ctx.JSON(http.StatusOK, links)
}

func (api *outcomeApi) upsertOutcomeLink(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data academic.OutcomeLinkData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to OutcomeLinkData")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	link, err := api.svc.UpsertOutcomeLink(ctx.Request().Context(), contextRole(ctx), id, data)
	if err != nil {
		return errors.Wrap(err, "saving outcome link")
	}
	return ctx.JSON(http.StatusOK, link)
}

func (api *outcomeApi) destroyOutcomeLink(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteOutcomeLink(ctx.Request().Context(), contextRole(ctx), id); err != nil {
		return errors.Wrap(err, "deleting outcome link")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Program outcomes

func (api *outcomeApi) queryProgramOutcomes(ctx echo.Context) error {
	pos, err := api.svc.QueryProgramOutcomes(ctx.Request().Context(), contextRole(ctx))
	if err != nil {
		return errors.Wrap(err, "querying program outcomes")
	}
	if pos == nil {
		pos = []academic.ProgramOutcome{}
	}
	return ctx.JSON(http.StatusOK, pos)
}

func (api *outcomeApi) createProgramOutcome(ctx echo.Context) error {
	var data academic.OutcomeData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to OutcomeData")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	actor, err := api.actorID(ctx)
	if err != nil {
		return err
	}

	po, err := api.svc.CreateProgramOutcome(ctx.Request().Context(), contextRole(ctx), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating program outcome")
	}
	return ctx.JSON(http.StatusCreated, po)
}

func (api *outcomeApi) updateProgramOutcome(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data academic.OutcomeData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to OutcomeData")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	po, err := api.svc.UpdateProgramOutcome(ctx.Request().Context(), contextRole(ctx), id, data)
	if err != nil {
		return errors.Wrap(err, "updating program outcome")
	}
	return ctx.JSON(http.StatusOK, po)
}

func (api *outcomeApi) destroyProgramOutcome(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteProgramOutcome(ctx.Request().Context(), contextRole(ctx), id); err != nil {
		return errors.Wrap(err, "deleting program outcome")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func upsertStatus(created bool) int {
	if created {
		return http.StatusCreated
	}
	return http.StatusOK
}
