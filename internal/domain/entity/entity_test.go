package entity_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
)

func TestValidateTenantID(t *testing.T) {
	cases := []struct {
		name string
		id   string
		want error
	}{
		{"valido", "acme_co-01", nil},
		{"vacio", "", domain.ErrTenantRequired},
		{"espacios", "acme co", domain.ErrTenantInvalid},
		{"punto", "acme.co", domain.ErrTenantInvalid},
		{"largo", strings.Repeat("a", 51), domain.ErrTenantInvalid},
		{"limite", strings.Repeat("a", 50), nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := entity.ValidateTenantID(tc.id)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestAccountType_LadoNormal(t *testing.T) {
	assert.True(t, entity.AccountAsset.DebitNormal())
	assert.True(t, entity.AccountExpense.DebitNormal())
	assert.False(t, entity.AccountLiability.DebitNormal())
	assert.False(t, entity.AccountEquity.DebitNormal())
	assert.False(t, entity.AccountRevenue.DebitNormal())
	assert.False(t, entity.AccountType("cash").Valid())
}

func TestUser_IsLocked(t *testing.T) {
	now := time.Now()
	until := now.Add(time.Minute)
	u := &entity.User{LockedUntil: &until}
	assert.True(t, u.IsLocked(now))
	assert.False(t, u.IsLocked(until.Add(time.Second)))
	assert.False(t, (&entity.User{}).IsLocked(now))
}

func TestPageQuery_OffsetYLimit(t *testing.T) {
	q := entity.PageQuery{Page: 3, PageSize: 25}
	assert.Equal(t, 50, q.Offset())
	assert.Equal(t, 25, q.Limit())
	assert.Equal(t, entity.MaxPageSize, entity.PageQuery{PageSize: 500}.Limit())
	assert.Equal(t, entity.DefaultPageSize, entity.PageQuery{}.Limit())
}

func TestPrincipal_HasRole(t *testing.T) {
	p := entity.Principal{Roles: []string{entity.RoleAccountant, entity.RoleAuditor}}
	assert.True(t, p.HasRole(entity.RoleAdmin, entity.RoleAuditor))
	assert.False(t, p.HasRole(entity.RoleCFO))
}
