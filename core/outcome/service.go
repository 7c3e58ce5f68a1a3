// Package outcome rolls assessment grades up through learning outcomes into program outcomes
// and assembles the course traceability graph.
package outcome

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"golang.org/x/sync/errgroup"

	"github.com/mygithubaccountn/EduPacee/core"
	"github.com/mygithubaccountn/EduPacee/core/academic"
)

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// ScoreForLearningOutcome is the weighted average of the student's grades on the assessments
// linked to the learning outcome. Ungraded assessments are skipped; the score is null when
// nothing contributes. An unknown learning outcome is an academic.ErrNotFound error.
func (svc *Service) ScoreForLearningOutcome(ctx context.Context, studentID, loID int64) (null.Float64, error) {
	if _, err := svc.store.GetLearningOutcome(ctx, loID); err != nil {
		return null.Float64{}, errors.Wrap(err, "finding learning outcome")
	}
	snap, err := loadSnapshot(ctx, svc.store, null.Int64From(studentID), []int64{loID}, nil)
	if err != nil {
		return null.Float64{}, err
	}
	return snap.learningOutcomeScore(loID), nil
}

// ScoreForProgramOutcome is the weighted average of the student's scores on every learning
// outcome linked to the program outcome, whatever their course. Learning outcomes without
// a score are skipped; the score is null when nothing contributes.
func (svc *Service) ScoreForProgramOutcome(ctx context.Context, studentID, poID int64) (null.Float64, error) {
	if _, err := svc.store.GetProgramOutcome(ctx, poID); err != nil {
		return null.Float64{}, errors.Wrap(err, "finding program outcome")
	}
	snap, err := loadSnapshot(ctx, svc.store, null.Int64From(studentID), nil, []int64{poID})
	if err != nil {
		return null.Float64{}, err
	}
	return snap.programOutcomeScore(poID), nil
}

type (
	OutcomeScore struct {
		ID          int64        `json:"id"`
		Code        string       `json:"code"`
		Description string       `json:"description"`
		Score       null.Float64 `json:"score"`
	}

	CourseScores struct {
		CourseID         int64          `json:"course_id"`
		StudentID        int64          `json:"student_id"`
		LearningOutcomes []OutcomeScore `json:"learning_outcomes"`
		ProgramOutcomes  []OutcomeScore `json:"program_outcomes"`
	}
)

// CourseScores scores the student on every learning outcome of the course and every program
// outcome they reach, from a single snapshot. Outcomes without a score are left out.
func (svc *Service) CourseScores(ctx context.Context, courseID, studentID int64) (CourseScores, error) {
	res := CourseScores{
		CourseID:         courseID,
		StudentID:        studentID,
		LearningOutcomes: []OutcomeScore{},
		ProgramOutcomes:  []OutcomeScore{},
	}
	c, err := svc.loadCourse(ctx, courseID)
	if err != nil {
		return res, err
	}
	pos, err := svc.reachableProgramOutcomes(ctx, c.links)
	if err != nil {
		return res, err
	}
	snap, err := loadSnapshot(ctx, svc.store, null.Int64From(studentID), learningOutcomeIDs(c.los), programOutcomeIDs(pos))
	if err != nil {
		return res, err
	}

	for _, lo := range c.los {
		if score := snap.learningOutcomeScore(lo.ID); score.Valid {
			res.LearningOutcomes = append(res.LearningOutcomes, OutcomeScore{
				ID: lo.ID, Code: lo.Code, Description: lo.Description, Score: score,
			})
		}
	}
	for _, po := range pos {
		if score := snap.programOutcomeScore(po.ID); score.Valid {
			res.ProgramOutcomes = append(res.ProgramOutcomes, OutcomeScore{
				ID: po.ID, Code: po.Code, Description: po.Description, Score: score,
			})
		}
	}
	return res, nil
}

// courseData holds the course-scoped rows every graph or score request starts from.
type courseData struct {
	course          academic.Course
	assessments     []academic.Assessment
	los             []academic.LearningOutcome
	assessmentLinks []academic.AssessmentToLO
	links           []academic.LOToPO
}

// loadCourse issues the independent course reads concurrently.
func (svc *Service) loadCourse(ctx context.Context, courseID int64) (courseData, error) {
	var c courseData
	course, err := svc.store.GetCourse(ctx, courseID)
	if err != nil {
		return c, errors.Wrap(err, "finding course")
	}
	c.course = course

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		c.assessments, err = svc.store.QueryAssessments(gctx, academic.AssessmentFilter{CourseID: courseID})
		return errors.Wrap(err, "querying assessments")
	})
	g.Go(func() (err error) {
		c.los, err = svc.store.QueryLearningOutcomes(gctx, academic.LearningOutcomeFilter{CourseID: courseID})
		return errors.Wrap(err, "querying learning outcomes")
	})
	g.Go(func() (err error) {
		c.assessmentLinks, err = svc.store.QueryAssessmentLinks(gctx, academic.EdgeFilter{CourseID: courseID})
		return errors.Wrap(err, "querying assessment links")
	})
	g.Go(func() (err error) {
		c.links, err = svc.store.QueryOutcomeLinks(gctx, academic.EdgeFilter{CourseID: courseID})
		return errors.Wrap(err, "querying outcome links")
	})
	if err := g.Wait(); err != nil {
		return c, err
	}

	sort.Slice(c.assessments, func(i, j int) bool { return c.assessments[i].ID < c.assessments[j].ID })
	sort.Slice(c.los, func(i, j int) bool { return c.los[i].ID < c.los[j].ID })
	return c, nil
}

// reachableProgramOutcomes returns the program outcomes targeted by links, deduplicated and sorted by id.
func (svc *Service) reachableProgramOutcomes(ctx context.Context, links []academic.LOToPO) ([]academic.ProgramOutcome, error) {
	poIDs := make([]int64, 0, len(links))
	for _, l := range links {
		poIDs = append(poIDs, l.ProgramOutcomeID)
	}
	poIDs = core.UniqueIDs(poIDs)
	if len(poIDs) == 0 {
		return nil, nil
	}
	pos, err := svc.store.QueryProgramOutcomes(ctx, academic.ProgramOutcomeFilter{IDs: poIDs})
	if err != nil {
		return nil, errors.Wrap(err, "querying program outcomes")
	}
	sort.Slice(pos, func(i, j int) bool { return pos[i].ID < pos[j].ID })
	return pos, nil
}

func assessmentIDs(assessments []academic.Assessment) []int64 {
	out := make([]int64, 0, len(assessments))
	for _, a := range assessments {
		out = append(out, a.ID)
	}
	return out
}

func learningOutcomeIDs(los []academic.LearningOutcome) []int64 {
	out := make([]int64, 0, len(los))
	for _, lo := range los {
		out = append(out, lo.ID)
	}
	return out
}

func programOutcomeIDs(pos []academic.ProgramOutcome) []int64 {
	out := make([]int64, 0, len(pos))
	for _, po := range pos {
		out = append(out, po.ID)
	}
	return out
}
