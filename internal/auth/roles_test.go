package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, s := range []string{"user", "paid_user", "admin"} {
		r, err := ParseRole(s)
		require.NoError(t, err)
		assert.Equal(t, s, r.String())
	}
	_, err := ParseRole("superuser")
	assert.Error(t, err)
	_, err = ParseRole("")
	assert.Error(t, err)
}

func TestRoleCapabilities(t *testing.T) {
	owner := []Capability{CapOwnOutcomes, CapRunPipeline, CapCheckout, CapLaunchCampaign, CapOwnAnalytics}
	adminOnly := []Capability{CapAdminRead, CapAdminWrite, CapAllAnalytics, CapExportAll, CapRunAnyPipeline}

	for _, r := range []Role{RoleUser, RolePaidUser} {
		for _, c := range owner {
			assert.True(t, r.Can(c), "%s should have %s", r, c)
		}
		for _, c := range adminOnly {
			assert.False(t, r.Can(c), "%s should not have %s", r, c)
		}
	}
	for _, c := range append(owner, adminOnly...) {
		assert.True(t, RoleAdmin.Can(c), "admin should have %s", c)
	}
	assert.False(t, Role("root").Can(CapOwnOutcomes))
	assert.False(t, Role("root").Valid())
}

func TestPrincipalCanNil(t *testing.T) {
	var p *Principal
	assert.False(t, p.Can(CapOwnOutcomes))
}
