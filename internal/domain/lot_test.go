package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualityFromScore(t *testing.T) {
	tests := []struct {
		score float64
		want  Quality
	}{
		{3, QualityA},
		{2.6, QualityA},
		{2.4, QualityB},
		{1.5, QualityB},
		{1.2, QualityC},
		{0, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, QualityFromScore(tt.score), "score %v", tt.score)
	}
}

func TestRoleHelpers(t *testing.T) {
	assert.True(t, RoleStock.Valid())
	assert.False(t, Role("root").Valid())
	assert.True(t, RoleSuperAdmin.IsAdmin())
	assert.False(t, RoleAuditor.IsAdmin())
}
