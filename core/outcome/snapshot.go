package outcome

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mygithubaccountn/EduPacee/core"
	"github.com/mygithubaccountn/EduPacee/core/academic"
)

// Store is the read side of the academic repository the engine works on.
type Store interface {
	GetCourse(ctx context.Context, id int64) (academic.Course, error)
	GetLearningOutcome(ctx context.Context, id int64) (academic.LearningOutcome, error)
	GetProgramOutcome(ctx context.Context, id int64) (academic.ProgramOutcome, error)
	QueryAssessments(ctx context.Context, filter academic.AssessmentFilter) ([]academic.Assessment, error)
	QueryLearningOutcomes(ctx context.Context, filter academic.LearningOutcomeFilter) ([]academic.LearningOutcome, error)
	QueryProgramOutcomes(ctx context.Context, filter academic.ProgramOutcomeFilter) ([]academic.ProgramOutcome, error)
	QueryAssessmentLinks(ctx context.Context, filter academic.EdgeFilter) ([]academic.AssessmentToLO, error)
	QueryOutcomeLinks(ctx context.Context, filter academic.EdgeFilter) ([]academic.LOToPO, error)
	QueryAssessmentGrades(ctx context.Context, filter academic.AssessmentGradeFilter) ([]academic.AssessmentGrade, error)
}

type weightedEdge struct {
	source int64
	weight float64
}

// adjacency maps a target node id to its inbound weighted edges.
type adjacency map[int64][]weightedEdge

func (adj adjacency) add(target, source int64, weight float64) {
	adj[target] = append(adj[target], weightedEdge{source: source, weight: weight})
}

func (adj adjacency) sources() []int64 {
	seen := make(map[int64]struct{})
	ids := make([]int64, 0, len(adj))
	for _, edges := range adj {
		for _, e := range edges {
			if _, ok := seen[e.source]; !ok {
				seen[e.source] = struct{}{}
				ids = append(ids, e.source)
			}
		}
	}
	return ids
}

// snapshot holds everything needed to score one student: the inbound edges of the learning
// and program outcomes of interest and the student's assessment grades.
// LO scores are memoized for the lifetime of the snapshot only.
type snapshot struct {
	loInbound adjacency              // learning outcome -> assessments
	poInbound adjacency              // program outcome -> learning outcomes
	grades    map[int64]float64      // assessment -> grade
	loScores  map[int64]null.Float64 // learning outcome -> score
}

func newSnapshot() *snapshot {
	return &snapshot{
		loInbound: make(adjacency),
		poInbound: make(adjacency),
		grades:    make(map[int64]float64),
		loScores:  make(map[int64]null.Float64),
	}
}

// loadSnapshot bulk-fetches, in order: the LOToPO edges into poIDs, the AssessmentToLO edges into
// loIDs and every learning outcome found on the way, then the student's grades on their source
// assessments and on extraAssessmentIDs. Without a student no grade is fetched.
func loadSnapshot(
	ctx context.Context,
	store Store,
	student null.Int64,
	loIDs, poIDs []int64,
	extraAssessmentIDs ...int64,
) (*snapshot, error) {
	snap := newSnapshot()

	if len(poIDs) > 0 {
		links, err := store.QueryOutcomeLinks(ctx, academic.EdgeFilter{TargetIDs: poIDs})
		if err != nil {
			return nil, errors.Wrap(err, "querying outcome links")
		}
		for _, l := range links {
			snap.poInbound.add(l.ProgramOutcomeID, l.LearningOutcomeID, l.Weight)
		}
	}

	loSet := core.UniqueIDs(loIDs, snap.poInbound.sources())
	if len(loSet) > 0 {
		links, err := store.QueryAssessmentLinks(ctx, academic.EdgeFilter{TargetIDs: loSet})
		if err != nil {
			return nil, errors.Wrap(err, "querying assessment links")
		}
		for _, l := range links {
			snap.loInbound.add(l.LearningOutcomeID, l.AssessmentID, l.Weight)
		}
	}

	assessmentIDs := core.UniqueIDs(snap.loInbound.sources(), extraAssessmentIDs)
	if student.Valid && len(assessmentIDs) > 0 {
		grades, err := store.QueryAssessmentGrades(ctx, academic.AssessmentGradeFilter{
			StudentIDs:    []int64{student.Int64},
			AssessmentIDs: assessmentIDs,
		})
		if err != nil {
			return nil, errors.Wrap(err, "querying assessment grades")
		}
		for _, g := range grades {
			snap.grades[g.AssessmentID] = g.Grade
		}
	}
	return snap, nil
}

func (snap *snapshot) grade(assessmentID int64) (float64, bool) {
	g, ok := snap.grades[assessmentID]
	return g, ok
}

func (snap *snapshot) learningOutcomeScore(loID int64) null.Float64 {
	if score, ok := snap.loScores[loID]; ok {
		return score
	}
	score := weightedAverage(snap.loInbound[loID], snap.grade)
	snap.loScores[loID] = score
	return score
}

func (snap *snapshot) programOutcomeScore(poID int64) null.Float64 {
	return weightedAverage(snap.poInbound[poID], func(loID int64) (float64, bool) {
		score := snap.learningOutcomeScore(loID)
		return score.Float64, score.Valid
	})
}

// weightedAverage is Σ(value·weight)/Σ(weight) over the edges whose source has a value.
// It is null when no edge contributes or the contributing weights sum to 0.
func weightedAverage(edges []weightedEdge, value func(source int64) (float64, bool)) null.Float64 {
	var total, weights float64
	for _, e := range edges {
		v, ok := value(e.source)
		if !ok {
			continue
		}
		total += v * e.weight
		weights += e.weight
	}
	if weights == 0 {
		return null.Float64{}
	}
	return null.Float64From(total / weights)
}
