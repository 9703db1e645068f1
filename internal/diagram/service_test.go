package diagram

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/c4-hoofy/internal/c4"
	"github.com/HendryAvila/c4-hoofy/internal/metrics"
	"github.com/HendryAvila/c4-hoofy/internal/plantuml"
	"github.com/HendryAvila/c4-hoofy/internal/store"
	"github.com/HendryAvila/c4-hoofy/internal/workflow"
)

var frozen = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func init() {
	timeNow = func() time.Time { return frozen }
}

// --- Helpers ---

type fixture struct {
	svc     *Service
	ctx     context.Context
	project *c4.Project
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	svc := NewService(repo, nil)
	ctx := context.Background()
	p, err := svc.CreateProject(ctx, ProjectInput{Name: "Payments", RootPath: t.TempDir()})
	require.NoError(t, err)
	return &fixture{svc: svc, ctx: ctx, project: p}
}

func (f *fixture) diagram(t *testing.T, dt c4.DiagramType) *c4.Diagram {
	t.Helper()
	d, err := f.svc.CreateDiagram(f.ctx, DiagramInput{ProjectID: f.project.ID, Name: "Landscape", Type: dt})
	require.NoError(t, err)
	return d
}

func (f *fixture) reload(t *testing.T, id string) *c4.Diagram {
	t.Helper()
	d, err := f.svc.GetDiagram(f.ctx, id)
	require.NoError(t, err)
	return d
}

func (f *fixture) add(t *testing.T, diagramID, name string, base c4.BaseType, variant c4.Variant) *c4.Element {
	t.Helper()
	e, err := f.svc.AddElement(f.ctx, diagramID, ElementInput{
		Name:        name,
		Description: "...",
		Descriptor:  c4.Descriptor{BaseType: base, Variant: variant},
	})
	require.NoError(t, err)
	return e
}

func (f *fixture) link(t *testing.T, diagramID, from, to, desc string) *c4.Relationship {
	t.Helper()
	r, err := f.svc.AddRelationship(f.ctx, diagramID, RelationshipInput{SourceID: from, TargetID: to, Description: desc})
	require.NoError(t, err)
	return r
}

// --- Projects and diagrams ---

func TestCreateProject_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateProject(f.ctx, ProjectInput{RootPath: "/tmp"})
	assert.True(t, errors.Is(err, c4.ErrValidation))

	_, err = f.svc.CreateProject(f.ctx, ProjectInput{Name: "x"})
	assert.True(t, errors.Is(err, c4.ErrValidation))
}

func TestCreateProject_AbsoluteRoot(t *testing.T) {
	f := newFixture(t)
	p, err := f.svc.CreateProject(f.ctx, ProjectInput{Name: "Rel", RootPath: "some/dir"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p.RootPath, "/"))
}

func TestCreateDiagram(t *testing.T) {
	f := newFixture(t)
	d := f.diagram(t, c4.DiagramContext)

	assert.Equal(t, f.project.ID, d.ProjectID)
	require.NotNil(t, d.Workflow)
	assert.Equal(t, workflow.StateInitial, d.Workflow.CurrentState)

	p, err := f.svc.GetProject(f.ctx, f.project.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{d.ID}, p.DiagramIDs)

	list, err := f.svc.ListDiagrams(f.ctx, f.project.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, d.ID, list[0].ID)
}

func TestCreateDiagram_Errors(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateDiagram(f.ctx, DiagramInput{ProjectID: "nope", Name: "x", Type: c4.DiagramContext})
	assert.True(t, errors.Is(err, c4.ErrNotFound))

	_, err = f.svc.CreateDiagram(f.ctx, DiagramInput{ProjectID: f.project.ID, Name: "x", Type: "deployment"})
	assert.True(t, errors.Is(err, c4.ErrValidation))

	_, err = f.svc.CreateDiagram(f.ctx, DiagramInput{ProjectID: f.project.ID, Type: c4.DiagramContext})
	assert.True(t, errors.Is(err, c4.ErrValidation))
}

// --- Elements ---

func TestAddElement(t *testing.T) {
	f := newFixture(t)
	d := f.diagram(t, c4.DiagramContext)

	e := f.add(t, d.ID, "Billing", c4.BaseSystem, "")
	assert.True(t, strings.HasPrefix(e.ID, "el_"))
	assert.NotContains(t, e.ID, "-")
	assert.Equal(t, c4.VariantStandard, e.Descriptor.Variant)

	got := f.reload(t, d.ID)
	require.Len(t, got.Elements, 1)
	assert.True(t, got.Updated.After(d.Updated))
	assert.Equal(t, workflow.StateSystemIdentification, got.Workflow.CurrentState)
}

func TestAddElement_UpdatedStrictlyIncreases(t *testing.T) {
	f := newFixture(t)
	d := f.diagram(t, c4.DiagramContext)

	prev := d.Updated
	for i := 0; i < 3; i++ {
		f.add(t, d.ID, "S", c4.BaseSystem, c4.VariantStandard)
		got := f.reload(t, d.ID)
		assert.True(t, got.Updated.After(prev))
		prev = got.Updated
	}
}

func TestAddElement_ValidationLeavesDiagramUnchanged(t *testing.T) {
	f := newFixture(t)
	d := f.diagram(t, c4.DiagramContainer)

	tests := map[string]ElementInput{
		"missing name": {Descriptor: c4.Descriptor{BaseType: c4.BaseSystem}},
		"container without technology": {
			Name: "API", Descriptor: c4.Descriptor{BaseType: c4.BaseContainer},
		},
		"interface type outside interface diagram": {
			Name: "X", Descriptor: c4.Descriptor{BaseType: c4.BaseInterface, InterfaceType: c4.IfaceEnum},
		},
		"dangling parent": {
			Name: "Y", ParentID: "el_missing", Descriptor: c4.Descriptor{BaseType: c4.BaseSystem},
		},
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.AddElement(f.ctx, d.ID, in)
			assert.True(t, errors.Is(err, c4.ErrValidation), "got %v", err)
		})
	}
	assert.Empty(t, f.reload(t, d.ID).Elements)
}

func TestAddElement_ParentMustBeBoundary(t *testing.T) {
	f := newFixture(t)
	d := f.diagram(t, c4.DiagramContainer)
	plain := f.add(t, d.ID, "Plain", c4.BaseSystem, c4.VariantStandard)
	boundary := f.add(t, d.ID, "Zone", c4.BaseSystem, c4.VariantBoundary)

	_, err := f.svc.AddElement(f.ctx, d.ID, ElementInput{
		Name: "API", Technology: "Go", ParentID: plain.ID,
		Descriptor: c4.Descriptor{BaseType: c4.BaseContainer},
	})
	assert.True(t, errors.Is(err, c4.ErrValidation))

	child, err := f.svc.AddElement(f.ctx, d.ID, ElementInput{
		Name: "API", Technology: "Go", ParentID: boundary.ID,
		Descriptor: c4.Descriptor{BaseType: c4.BaseContainer},
	})
	require.NoError(t, err)
	assert.Equal(t, boundary.ID, child.ParentID)
}

func TestUpdateElement(t *testing.T) {
	f := newFixture(t)
	d := f.diagram(t, c4.DiagramContext)
	e := f.add(t, d.ID, "Billing", c4.BaseSystem, c4.VariantStandard)

	name := "Invoicing"
	ext := c4.Descriptor{BaseType: c4.BaseSystem, Variant: c4.VariantExternal}
	got, err := f.svc.UpdateElement(f.ctx, d.ID, e.ID, ElementPatch{Name: &name, Descriptor: &ext})
	require.NoError(t, err)
	assert.Equal(t, "Invoicing", got.Name)
	assert.Equal(t, "...", got.Description, "unset fields are kept")
	assert.Equal(t, c4.VariantExternal, got.Descriptor.Variant)
	assert.Equal(t, workflow.StateRefinement, f.reload(t, d.ID).Workflow.CurrentState)

	_, err = f.svc.UpdateElement(f.ctx, d.ID, "el_missing", ElementPatch{Name: &name})
	var nf *c4.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "el_missing", nf.ID)

	empty := ""
	_, err = f.svc.UpdateElement(f.ctx, d.ID, e.ID, ElementPatch{Name: &empty})
	assert.True(t, errors.Is(err, c4.ErrValidation))
	assert.Equal(t, "Invoicing", f.reload(t, d.ID).Elements[0].Name)
}

func TestUpdateElement_BoundaryLosingVariantReleasesChildren(t *testing.T) {
	f := newFixture(t)
	d := f.diagram(t, c4.DiagramContext)
	b := f.add(t, d.ID, "Zone", c4.BaseSystem, c4.VariantBoundary)
	_, err := f.svc.AddElement(f.ctx, d.ID, ElementInput{
		Name: "Inside", ParentID: b.ID, Descriptor: c4.Descriptor{BaseType: c4.BaseSystem},
	})
	require.NoError(t, err)

	std := c4.Descriptor{BaseType: c4.BaseSystem, Variant: c4.VariantStandard}
	_, err = f.svc.UpdateElement(f.ctx, d.ID, b.ID, ElementPatch{Descriptor: &std})
	require.NoError(t, err)

	for _, e := range f.reload(t, d.ID).Elements {
		assert.Empty(t, e.ParentID)
	}
}

// Scenario B.
func TestDeleteElement_CascadesRelationships(t *testing.T) {
	f := newFixture(t)
	d := f.diagram(t, c4.DiagramContext)
	s := f.add(t, d.ID, "Billing", c4.BaseSystem, c4.VariantStandard)
	p := f.add(t, d.ID, "Auditor", c4.BasePerson, c4.VariantExternal)
	other := f.add(t, d.ID, "Ledger", c4.BaseSystem, c4.VariantStandard)
	audits := f.link(t, d.ID, p.ID, s.ID, "Audits")
	posts := f.link(t, d.ID, s.ID, other.ID, "Posts")
	keep := f.link(t, d.ID, p.ID, other.ID, "Reads")

	removed, err := f.svc.DeleteElement(f.ctx, d.ID, s.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{audits.ID, posts.ID}, removed)

	got := f.reload(t, d.ID)
	assert.Nil(t, got.Element(s.ID))
	require.Len(t, got.Relationships, 1)
	assert.Equal(t, keep.ID, got.Relationships[0].ID)

	src, err := plantuml.Generate(f.project, got)
	require.NoError(t, err)
	for _, line := range strings.Split(src, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "Rel") {
			assert.NotContains(t, line, s.ID)
		}
	}

	_, err = f.svc.DeleteElement(f.ctx, d.ID, s.ID)
	assert.True(t, errors.Is(err, c4.ErrNotFound))
}

func TestDeleteElement_BoundaryReleasesChildren(t *testing.T) {
	f := newFixture(t)
	d := f.diagram(t, c4.DiagramContext)
	b := f.add(t, d.ID, "Zone", c4.BaseSystem, c4.VariantBoundary)
	child, err := f.svc.AddElement(f.ctx, d.ID, ElementInput{
		Name: "Inside", ParentID: b.ID, Descriptor: c4.Descriptor{BaseType: c4.BaseSystem},
	})
	require.NoError(t, err)

	_, err = f.svc.DeleteElement(f.ctx, d.ID, b.ID)
	require.NoError(t, err)
	assert.Empty(t, f.reload(t, d.ID).Element(child.ID).ParentID)
}

// --- Relationships ---

// Scenario C.
func TestAddRelationship_DanglingEndpoint(t *testing.T) {
	f := newFixture(t)
	d := f.diagram(t, c4.DiagramContext)
	s := f.add(t, d.ID, "Billing", c4.BaseSystem, c4.VariantStandard)
	f.link(t, d.ID, s.ID, s.ID, "Self check")

	_, err := f.svc.AddRelationship(f.ctx, d.ID, RelationshipInput{SourceID: s.ID, TargetID: "el_nonexistent", Description: "x"})
	require.Error(t, err)
	var ve *c4.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "source or target element not found", ve.Error())

	assert.Len(t, f.reload(t, d.ID).Relationships, 1)
}

func TestAddRelationship_AdvancesWorkflow(t *testing.T) {
	f := newFixture(t)
	d := f.diagram(t, c4.DiagramContext)
	s := f.add(t, d.ID, "Billing", c4.BaseSystem, c4.VariantStandard)
	p := f.add(t, d.ID, "Clerk", c4.BasePerson, c4.VariantStandard)
	x := f.add(t, d.ID, "Bank", c4.BaseSystem, c4.VariantExternal)
	assert.Equal(t, workflow.StateExternalSystemIdentification, f.reload(t, d.ID).Workflow.CurrentState)

	f.link(t, d.ID, p.ID, s.ID, "Uses")
	f.link(t, d.ID, s.ID, x.ID, "Charges")

	wf := f.reload(t, d.ID).Workflow
	assert.Equal(t, workflow.StateRelationshipDefinition, wf.CurrentState)
	assert.Equal(t, []workflow.State{
		workflow.StateInitial,
		workflow.StateSystemIdentification,
		workflow.StateActorDiscovery,
		workflow.StateExternalSystemIdentification,
	}, wf.CompletedSteps)
}

func TestAddElement_RejectedTransitionKeepsMutation(t *testing.T) {
	f := newFixture(t)
	d := f.diagram(t, c4.DiagramContext)

	// INITIAL only moves to SYSTEM_IDENTIFICATION.
	f.add(t, d.ID, "Clerk", c4.BasePerson, c4.VariantStandard)

	got := f.reload(t, d.ID)
	assert.Len(t, got.Elements, 1)
	assert.Equal(t, workflow.StateInitial, got.Workflow.CurrentState)
}

func TestUpdateRelationship(t *testing.T) {
	f := newFixture(t)
	d := f.diagram(t, c4.DiagramContext)
	a := f.add(t, d.ID, "A", c4.BaseSystem, c4.VariantStandard)
	b := f.add(t, d.ID, "B", c4.BaseSystem, c4.VariantStandard)
	c := f.add(t, d.ID, "C", c4.BaseSystem, c4.VariantStandard)
	r := f.link(t, d.ID, a.ID, b.ID, "Calls")

	ghost := "el_ghost"
	_, err := f.svc.UpdateRelationship(f.ctx, d.ID, r.ID, RelationshipPatch{TargetID: &ghost})
	assert.True(t, errors.Is(err, c4.ErrValidation))
	assert.Equal(t, b.ID, f.reload(t, d.ID).Relationships[0].TargetID)

	desc, dir := "Notifies", "Left"
	got, err := f.svc.UpdateRelationship(f.ctx, d.ID, r.ID, RelationshipPatch{TargetID: &c.ID, Description: &desc, Direction: &dir})
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.TargetID)
	assert.Equal(t, "Notifies", got.Description)
	assert.Equal(t, "left", got.Direction)

	bad := "sideways"
	_, err = f.svc.UpdateRelationship(f.ctx, d.ID, r.ID, RelationshipPatch{Direction: &bad})
	assert.True(t, errors.Is(err, c4.ErrValidation))

	_, err = f.svc.UpdateRelationship(f.ctx, d.ID, "rel_missing", RelationshipPatch{Description: &desc})
	assert.True(t, errors.Is(err, c4.ErrNotFound))
}

func TestDeleteRelationship(t *testing.T) {
	f := newFixture(t)
	d := f.diagram(t, c4.DiagramContext)
	a := f.add(t, d.ID, "A", c4.BaseSystem, c4.VariantStandard)
	r := f.link(t, d.ID, a.ID, a.ID, "Loops")

	require.NoError(t, f.svc.DeleteRelationship(f.ctx, d.ID, r.ID))
	assert.Empty(t, f.reload(t, d.ID).Relationships)

	err := f.svc.DeleteRelationship(f.ctx, d.ID, r.ID)
	assert.True(t, errors.Is(err, c4.ErrNotFound))
}

func TestMutations_UnknownDiagram(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.AddElement(f.ctx, "missing", ElementInput{Name: "x"})
	var nf *c4.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "diagram", nf.Kind)
}

func TestMutations_CountedByOutcome(t *testing.T) {
	f := newFixture(t)
	d := f.diagram(t, c4.DiagramContext)
	ok := metrics.Mutations.WithLabelValues("add_relationship", "ok")
	failed := metrics.Mutations.WithLabelValues("add_relationship", "error")
	okBefore, failedBefore := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	s := f.add(t, d.ID, "Billing", c4.BaseSystem, c4.VariantStandard)
	f.link(t, d.ID, s.ID, s.ID, "Self check")
	_, err := f.svc.AddRelationship(f.ctx, d.ID, RelationshipInput{SourceID: s.ID, TargetID: "el_nonexistent", Description: "x"})
	require.Error(t, err)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(failed))
}

// --- Workflow ---

func TestAdvanceWorkflow(t *testing.T) {
	f := newFixture(t)
	d := f.diagram(t, c4.DiagramContext)

	_, err := f.svc.AdvanceWorkflow(f.ctx, d.ID, workflow.StateComplete)
	require.Error(t, err)
	assert.True(t, errors.Is(err, c4.ErrStateTransition))
	assert.Equal(t, workflow.StateInitial, f.reload(t, d.ID).Workflow.CurrentState)

	wf, err := f.svc.AdvanceWorkflow(f.ctx, d.ID, workflow.StateSystemIdentification)
	require.NoError(t, err)
	assert.Equal(t, workflow.StateSystemIdentification, wf.CurrentState)
	assert.Equal(t, workflow.StateSystemIdentification, f.reload(t, d.ID).Workflow.CurrentState)
}

func TestRecordWorkflowError(t *testing.T) {
	f := newFixture(t)
	d := f.diagram(t, c4.DiagramContext)

	require.NoError(t, f.svc.RecordWorkflowError(f.ctx, d.ID, "render failed"))
	wf := f.reload(t, d.ID).Workflow
	assert.Equal(t, "render failed", wf.Error)
	assert.Equal(t, "Resolve the last error: render failed", wf.PendingActions[0])

	// The next successful mutation supersedes the annotation.
	f.add(t, d.ID, "Billing", c4.BaseSystem, c4.VariantStandard)
	assert.Empty(t, f.reload(t, d.ID).Workflow.Error)
}
