package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/domain/model"
	repo "github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLogList_FiltersAndPages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	catalog := NewCatalogUsecase(s, s.Catalog())

	require.NoError(t, catalog.AdminSetStock(ctx, admin, vehicleRef, 6, "delivery"))
	require.NoError(t, catalog.AdminSetStock(ctx, admin, partRef, 40, "stocktake"))
	require.NoError(t, catalog.AdminSetStock(ctx, admin, partRef, 45, "return"))

	uc := NewAuditLogUsecase(s)

	out, err := uc.List(ctx, repo.AuditLogFilter{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), out.Total)
	require.Len(t, out.Items, 2)
	assert.Equal(t, `{"stock":45}`, out.Items[0].AfterJSON)

	out, err = uc.List(ctx, repo.AuditLogFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, model.AuditResourceVehicle, out.Items[0].ResourceType)

	out, err = uc.List(ctx, repo.AuditLogFilter{Page: 1, Limit: 10, ResourceType: model.AuditResourcePart})
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Total)

	other := int64(999)
	out, err = uc.List(ctx, repo.AuditLogFilter{Page: 1, Limit: 10, ActorUserID: &other})
	require.NoError(t, err)
	assert.Equal(t, int64(0), out.Total)
	assert.NotNil(t, out.Items)
}

func TestAuditLogList_InvalidFilter(t *testing.T) {
	uc := NewAuditLogUsecase(newTestStore(t))
	ctx := context.Background()
	from := time.Date(2026, time.October, 2, 0, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)

	tests := []struct {
		name string
		f    repo.AuditLogFilter
	}{
		{name: "page", f: repo.AuditLogFilter{Page: 0, Limit: 10}},
		{name: "limit", f: repo.AuditLogFilter{Page: 1, Limit: 101}},
		{name: "action", f: repo.AuditLogFilter{Page: 1, Limit: 10, Action: "DROP"}},
		{name: "resource", f: repo.AuditLogFilter{Page: 1, Limit: 10, ResourceType: "user"}},
		{name: "range", f: repo.AuditLogFilter{Page: 1, Limit: 10, From: &from, To: &to}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.List(ctx, tt.f)
			requireKind(t, err, KindValidation)
		})
	}
}
