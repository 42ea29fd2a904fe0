package service

import (
	"context"
	"testing"

	"github.com/AgungSukaAFK/ga-web-sub000/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestTemplateCRUD(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.templateSvc.Create(ctx, admin, &SaveTemplateRequest{
		Name:        "  IT standard ",
		Description: "dua tahap",
		Department:  "IT",
		Entries:     twoStepEntries(),
	})
	require.NoError(t, err)
	assert.Equal(t, "IT standard", created.Name)
	require.Len(t, created.Entries, 2)

	entries := []workflow.TemplateEntry{
		{UserID: approverB.ID, Name: approverB.Name, Type: workflow.ApprovalTypeMenyetujui},
	}
	updated, err := env.templateSvc.Update(ctx, admin, created.ID, &SaveTemplateRequest{
		Name:    "IT short",
		Entries: entries,
	})
	require.NoError(t, err)
	assert.Equal(t, "IT short", updated.Name)
	require.Len(t, updated.Entries, 1)

	all, err := env.templateSvc.List()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, env.templateSvc.Delete(ctx, admin, created.ID))
	_, err = env.templateSvc.Get(created.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTemplateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.templateSvc.Create(ctx, admin, &SaveTemplateRequest{Name: "empty"})
	var verr *workflow.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = env.templateSvc.Create(ctx, admin, &SaveTemplateRequest{
		Name: "bad type",
		Entries: []workflow.TemplateEntry{
			{UserID: approverA.ID, Name: approverA.Name, Type: "Mengesahkan"},
		},
	})
	require.ErrorAs(t, err, &verr)

	_, err = env.templateSvc.Create(ctx, admin, &SaveTemplateRequest{
		Name: "no user",
		Entries: []workflow.TemplateEntry{
			{Name: "Siapa", Type: workflow.ApprovalTypeMengetahui},
		},
	})
	require.ErrorAs(t, err, &verr)
}

func TestMaterializeDiscardsStaleStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.templateSvc.Create(ctx, admin, &SaveTemplateRequest{
		Name: "stale",
		Entries: []workflow.TemplateEntry{
			{UserID: approverA.ID, Name: approverA.Name, Type: workflow.ApprovalTypeMengetahui, Status: workflow.ApprovalStatusApproved},
			{UserID: approverB.ID, Name: approverB.Name, Type: workflow.ApprovalTypeMenyetujui, Status: workflow.ApprovalStatusRejected},
		},
	})
	require.NoError(t, err)

	chain, err := env.templateSvc.Materialize(created.ID)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	for _, e := range chain {
		assert.Equal(t, workflow.ApprovalStatusPending, e.Status)
		assert.Nil(t, e.ProcessedAt)
	}
}
