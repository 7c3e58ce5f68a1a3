package outcome

import (
	"context"
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"golang.org/x/sync/errgroup"

	"github.com/mygithubaccountn/EduPacee/core"
	"github.com/mygithubaccountn/EduPacee/core/academic"
)

// Node types.
const (
	NodeAssessment      = "assessment"
	NodeLearningOutcome = "learning_outcome"
	NodeProgramOutcome  = "program_outcome"
)

// Edge types.
const (
	EdgeAssessmentToLO = "assessment_to_lo"
	EdgeLOToPO         = "lo_to_po"
)

type (
	Graph struct {
		Nodes []Node `json:"nodes"`
		Edges []Edge `json:"edges"`
	}

	Node struct {
		ID    string                 `json:"id"`
		Label string                 `json:"label"`
		Type  string                 `json:"type"`
		Data  map[string]interface{} `json:"data"`
	}

	Edge struct {
		ID     string  `json:"id"`
		Source string  `json:"source"`
		Target string  `json:"target"`
		Type   string  `json:"type"`
		Weight float64 `json:"weight"`
		Label  string  `json:"label"`
	}
)

func assessmentNodeID(id int64) string      { return fmt.Sprintf("assessment_%d", id) }
func learningOutcomeNodeID(id int64) string { return fmt.Sprintf("lo_%d", id) }
func programOutcomeNodeID(id int64) string  { return fmt.Sprintf("po_%d", id) }

func annotate(label string, v null.Float64) string {
	if !v.Valid {
		return label
	}
	return fmt.Sprintf("%s\n%.1f%%", label, v.Float64)
}

func weightLabel(w float64) string {
	return fmt.Sprintf("%.0f%%", w*100)
}

// BuildCourseGraph assembles the traceability graph of a course: its assessments and learning
// outcomes, every program outcome reachable from them, and the edges between these nodes.
// Given a student, assessment nodes carry the student's grade and outcome nodes their score,
// when defined. Nodes are ordered assessments, learning outcomes then program outcomes, each by id.
func (svc *Service) BuildCourseGraph(ctx context.Context, courseID int64, student null.Int64) (Graph, error) {
	graph := Graph{Nodes: []Node{}, Edges: []Edge{}}
	c, err := svc.loadCourse(ctx, courseID)
	if err != nil {
		return graph, err
	}

	var (
		pos  []academic.ProgramOutcome
		snap *snapshot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		pos, err = svc.reachableProgramOutcomes(gctx, c.links)
		return err
	})
	if student.Valid {
		g.Go(func() (err error) {
			poIDs := make([]int64, 0, len(c.links))
			for _, l := range c.links {
				poIDs = append(poIDs, l.ProgramOutcomeID)
			}
			snap, err = loadSnapshot(gctx, svc.store, student,
				learningOutcomeIDs(c.los), core.UniqueIDs(poIDs), assessmentIDs(c.assessments)...)
			return errors.Wrap(err, "loading student grades")
		})
	}
	if err := g.Wait(); err != nil {
		return graph, err
	}

	for _, a := range c.assessments {
		data := map[string]interface{}{
			"assessment_id": a.ID,
			"weight":        a.WeightInCourse,
		}
		label := a.Name
		if snap != nil {
			if grade, ok := snap.grade(a.ID); ok {
				data["grade"] = grade
				label = annotate(label, null.Float64From(grade))
			}
		}
		graph.Nodes = append(graph.Nodes, Node{
			ID:    assessmentNodeID(a.ID),
			Label: label,
			Type:  NodeAssessment,
			Data:  data,
		})
	}
	for _, lo := range c.los {
		data := map[string]interface{}{
			"lo_id":       lo.ID,
			"description": lo.Description,
		}
		label := lo.Code
		if snap != nil {
			if score := snap.learningOutcomeScore(lo.ID); score.Valid {
				data["score"] = score.Float64
				label = annotate(label, score)
			}
		}
		graph.Nodes = append(graph.Nodes, Node{
			ID:    learningOutcomeNodeID(lo.ID),
			Label: label,
			Type:  NodeLearningOutcome,
			Data:  data,
		})
	}
	for _, po := range pos {
		data := map[string]interface{}{
			"po_id":       po.ID,
			"description": po.Description,
		}
		label := po.Code
		if snap != nil {
			if score := snap.programOutcomeScore(po.ID); score.Valid {
				data["score"] = score.Float64
				label = annotate(label, score)
			}
		}
		graph.Nodes = append(graph.Nodes, Node{
			ID:    programOutcomeNodeID(po.ID),
			Label: label,
			Type:  NodeProgramOutcome,
			Data:  data,
		})
	}

	sort.Slice(c.assessmentLinks, func(i, j int) bool {
		li, lj := c.assessmentLinks[i], c.assessmentLinks[j]
		if li.AssessmentID != lj.AssessmentID {
			return li.AssessmentID < lj.AssessmentID
		}
		return li.LearningOutcomeID < lj.LearningOutcomeID
	})
	for _, l := range c.assessmentLinks {
		graph.Edges = append(graph.Edges, Edge{
			ID:     fmt.Sprintf("edge_assessment_%d_lo_%d", l.AssessmentID, l.LearningOutcomeID),
			Source: assessmentNodeID(l.AssessmentID),
			Target: learningOutcomeNodeID(l.LearningOutcomeID),
			Type:   EdgeAssessmentToLO,
			Weight: l.Weight,
			Label:  weightLabel(l.Weight),
		})
	}

	sort.Slice(c.links, func(i, j int) bool {
		li, lj := c.links[i], c.links[j]
		if li.LearningOutcomeID != lj.LearningOutcomeID {
			return li.LearningOutcomeID < lj.LearningOutcomeID
		}
		return li.ProgramOutcomeID < lj.ProgramOutcomeID
	})
	for _, l := range c.links {
		graph.Edges = append(graph.Edges, Edge{
			ID:     fmt.Sprintf("edge_lo_%d_po_%d", l.LearningOutcomeID, l.ProgramOutcomeID),
			Source: learningOutcomeNodeID(l.LearningOutcomeID),
			Target: programOutcomeNodeID(l.ProgramOutcomeID),
			Type:   EdgeLOToPO,
			Weight: l.Weight,
			Label:  weightLabel(l.Weight),
		})
	}
	return graph, nil
}
