package registry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createRegistry() *ActivityRegistry {
	return &ActivityRegistry{
		Version: "1.0.0",
		Activities: []Activity{
			{ID: "evaluate-membership", DisplayName: "Evaluate Membership", TaskType: "membership.evaluate"},
			{ID: "validate-membership", DisplayName: "Validate Membership", TaskType: "membership.validate"},
		},
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configs", "activity-registry.json")
	require.NoError(t, Save(createRegistry(), path))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Len(t, reg.Activities, 2)

	a, ok := reg.Find("validate-membership")
	require.True(t, ok)
	assert.Equal(t, "membership.validate", a.TaskType)

	_, ok = reg.Find("missing")
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, createRegistry().Validate())
	assert.ErrorContains(t, (&ActivityRegistry{}).Validate(), "no activities")

	dupID := createRegistry()
	dupID.Activities[1].ID = "evaluate-membership"
	assert.ErrorContains(t, dupID.Validate(), "duplicate activity ID")

	dupType := createRegistry()
	dupType.Activities[1].TaskType = "membership.evaluate"
	assert.ErrorContains(t, dupType.Validate(), "share task type")

	badType := createRegistry()
	badType.Activities[0].TaskType = "evaluate-membership"
	assert.ErrorContains(t, badType.Validate(), "domain.action")
}
