package outcome_test

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/mygithubaccountn/EduPacee/core/academic"
	"github.com/mygithubaccountn/EduPacee/core/outcome"
)

func TestService_BuildCourseGraph(t *testing.T) {
	f := newFixture(t)
	board := f.board()
	course := f.course("CS101")
	elsewhere := f.course("CS102")
	s := f.student("S001")

	mid := f.assessment(course, "Midterm", .4)
	final := f.assessment(course, "Final", .6)
	lo1 := f.lo(course, "LO1")
	lo2 := f.lo(course, "LO2")
	f.linkAssessment(mid, lo1, .5)
	f.linkAssessment(final, lo1, .5)
	f.linkAssessment(final, lo2, 1)

	po1 := f.po(board, "PO1")
	po2 := f.po(board, "PO2")
	unreached := f.po(board, "PO3")
	f.linkOutcome(lo1, po1, .6)
	f.linkOutcome(lo2, po1, .4)
	f.linkOutcome(lo2, po2, 1)

	// rows of another course stay out of the graph
	otherLO := f.lo(elsewhere, "LO1")
	otherA := f.assessment(elsewhere, "Exam", 1)
	f.linkAssessment(otherA, otherLO, 1)
	f.linkOutcome(otherLO, unreached, 1)

	f.grade(mid, s, 80)
	f.grade(final, s, 90)

	nodeIDs := func(g outcome.Graph) []string {
		ids := make([]string, 0, len(g.Nodes))
		for _, n := range g.Nodes {
			ids = append(ids, n.ID)
		}
		return ids
	}
	wantNodeIDs := []string{
		idOf("assessment", mid.ID), idOf("assessment", final.ID),
		idOf("lo", lo1.ID), idOf("lo", lo2.ID),
		idOf("po", po1.ID), idOf("po", po2.ID),
	}
	wantEdges := []outcome.Edge{
		{
			ID:     edgeID("assessment", mid.ID, "lo", lo1.ID),
			Source: idOf("assessment", mid.ID),
			Target: idOf("lo", lo1.ID),
			Type:   outcome.EdgeAssessmentToLO,
			Weight: .5,
			Label:  "50%",
		},
		{
			ID:     edgeID("assessment", final.ID, "lo", lo1.ID),
			Source: idOf("assessment", final.ID),
			Target: idOf("lo", lo1.ID),
			Type:   outcome.EdgeAssessmentToLO,
			Weight: .5,
			Label:  "50%",
		},
		{
			ID:     edgeID("assessment", final.ID, "lo", lo2.ID),
			Source: idOf("assessment", final.ID),
			Target: idOf("lo", lo2.ID),
			Type:   outcome.EdgeAssessmentToLO,
			Weight: 1,
			Label:  "100%",
		},
		{
			ID:     edgeID("lo", lo1.ID, "po", po1.ID),
			Source: idOf("lo", lo1.ID),
			Target: idOf("po", po1.ID),
			Type:   outcome.EdgeLOToPO,
			Weight: .6,
			Label:  "60%",
		},
		{
			ID:     edgeID("lo", lo2.ID, "po", po1.ID),
			Source: idOf("lo", lo2.ID),
			Target: idOf("po", po1.ID),
			Type:   outcome.EdgeLOToPO,
			Weight: .4,
			Label:  "40%",
		},
		{
			ID:     edgeID("lo", lo2.ID, "po", po2.ID),
			Source: idOf("lo", lo2.ID),
			Target: idOf("po", po2.ID),
			Type:   outcome.EdgeLOToPO,
			Weight: 1,
			Label:  "100%",
		},
	}

	t.Run("without student", func(t *testing.T) {
		got, err := f.svc.BuildCourseGraph(f.ctx, course.ID, null.Int64{})
		require.NoError(t, err)

		// 2 assessments + 2 learning outcomes + 2 distinct program outcomes
		if diff := cmp.Diff(wantNodeIDs, nodeIDs(got)); diff != "" {
			t.Errorf("node ids mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(wantEdges, got.Edges); diff != "" {
			t.Errorf("edges mismatch (-want +got):\n%s", diff)
		}

		wantNodes := []outcome.Node{
			{
				ID:    idOf("assessment", mid.ID),
				Label: "Midterm",
				Type:  outcome.NodeAssessment,
				Data:  map[string]interface{}{"assessment_id": mid.ID, "weight": .4},
			},
			{
				ID:    idOf("assessment", final.ID),
				Label: "Final",
				Type:  outcome.NodeAssessment,
				Data:  map[string]interface{}{"assessment_id": final.ID, "weight": .6},
			},
			{
				ID:    idOf("lo", lo1.ID),
				Label: "LO1",
				Type:  outcome.NodeLearningOutcome,
				Data:  map[string]interface{}{"lo_id": lo1.ID, "description": "LO1 desc"},
			},
			{
				ID:    idOf("lo", lo2.ID),
				Label: "LO2",
				Type:  outcome.NodeLearningOutcome,
				Data:  map[string]interface{}{"lo_id": lo2.ID, "description": "LO2 desc"},
			},
			{
				ID:    idOf("po", po1.ID),
				Label: "PO1",
				Type:  outcome.NodeProgramOutcome,
				Data:  map[string]interface{}{"po_id": po1.ID, "description": "PO1 desc"},
			},
			{
				ID:    idOf("po", po2.ID),
				Label: "PO2",
				Type:  outcome.NodeProgramOutcome,
				Data:  map[string]interface{}{"po_id": po2.ID, "description": "PO2 desc"},
			},
		}
		if diff := cmp.Diff(wantNodes, got.Nodes); diff != "" {
			t.Errorf("nodes mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("with student", func(t *testing.T) {
		got, err := f.svc.BuildCourseGraph(f.ctx, course.ID, null.Int64From(s.ID))
		require.NoError(t, err)
		require.Len(t, got.Nodes, 6)
		if diff := cmp.Diff(wantEdges, got.Edges); diff != "" {
			t.Errorf("edges mismatch (-want +got):\n%s", diff)
		}

		// lo1 = (80+90)/2 = 85, lo2 = 90, po1 = .6*85 + .4*90 = 87, po2 = 90
		labels := make(map[string]string, len(got.Nodes))
		for _, n := range got.Nodes {
			labels[n.ID] = n.Label
		}
		assert.Equal(t, map[string]string{
			idOf("assessment", mid.ID):   "Midterm\n80.0%",
			idOf("assessment", final.ID): "Final\n90.0%",
			idOf("lo", lo1.ID):           "LO1\n85.0%",
			idOf("lo", lo2.ID):           "LO2\n90.0%",
			idOf("po", po1.ID):           "PO1\n87.0%",
			idOf("po", po2.ID):           "PO2\n90.0%",
		}, labels)

		assert.Equal(t, 80.0, got.Nodes[0].Data["grade"])
		assert.InDelta(t, 85.0, got.Nodes[2].Data["score"], 1e-9)
		assert.InDelta(t, 87.0, got.Nodes[4].Data["score"], 1e-9)
	})

	t.Run("student without grades", func(t *testing.T) {
		newcomer := f.student("S002")
		got, err := f.svc.BuildCourseGraph(f.ctx, course.ID, null.Int64From(newcomer.ID))
		require.NoError(t, err)
		for _, n := range got.Nodes {
			assert.NotContains(t, n.Label, "%", n.ID)
			assert.NotContains(t, n.Data, "grade", n.ID)
			assert.NotContains(t, n.Data, "score", n.ID)
		}
	})

	t.Run("is repeatable", func(t *testing.T) {
		first, err := f.svc.BuildCourseGraph(f.ctx, course.ID, null.Int64From(s.ID))
		require.NoError(t, err)
		second, err := f.svc.BuildCourseGraph(f.ctx, course.ID, null.Int64From(s.ID))
		require.NoError(t, err)
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("graphs differ (-first +second):\n%s", diff)
		}
	})
}

func TestService_BuildCourseGraph_empty(t *testing.T) {
	f := newFixture(t)
	course := f.course("EMPTY1")

	got, err := f.svc.BuildCourseGraph(f.ctx, course.ID, null.Int64{})
	require.NoError(t, err)
	assert.Empty(t, got.Nodes)
	assert.Empty(t, got.Edges)

	_, err = f.svc.BuildCourseGraph(f.ctx, course.ID+100, null.Int64{})
	assert.Equal(t, academic.ErrNotFound, errors.Cause(err))
}

func idOf(kind string, id int64) string {
	return fmt.Sprintf("%s_%d", kind, id)
}

func edgeID(sourceKind string, sourceID int64, targetKind string, targetID int64) string {
	return fmt.Sprintf("edge_%s_%d_%s_%d", sourceKind, sourceID, targetKind, targetID)
}
