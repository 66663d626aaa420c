package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "miecredit/pkg/domain-errors"
)

func writeTestPackage(t *testing.T, root, version string, approved bool) {
	t.Helper()
	err := SavePackage(root, ModelPackage{
		Version:  version,
		Approved: approved,
		Model: LinearModel{
			FeatureNames: []string{"a", "b"},
			Weights:      map[string]float64{"a": 1.0, "b": -0.5},
			Intercept:    0.1,
		},
		Metadata: Metadata{
			Version:     version,
			Approved:    approved,
			CreatedAt:   time.Now().UTC(),
			TrainedRows: 100,
		},
	}, "# Model Card: "+version+"\n")
	require.NoError(t, err)
}

func TestListModelsEmptyRegistry(t *testing.T) {
	models, err := ListModels(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Nil(t, models)
}

func TestListModelsSortedAndSkipsMalformed(t *testing.T) {
	root := t.TempDir()
	writeTestPackage(t, root, "v2", false)
	writeTestPackage(t, root, "v1", true)

	// A malformed directory is skipped, not fatal.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "broken"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "broken", "metadata.json"), []byte("{"), 0o644))
	// Stray files at the root are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("x"), 0o644))

	models, err := ListModels(root)
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "v1", models[0].Version)
	assert.Equal(t, "v2", models[1].Version)
	assert.True(t, models[0].Approved)
	assert.False(t, models[1].Approved)
}

func TestApproveIsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeTestPackage(t, root, "v1", false)

	require.NoError(t, Approve(root, "v1", true))
	require.NoError(t, Approve(root, "v1", true))

	pkg, err := LoadApproved(root, "v1", true)
	require.NoError(t, err)
	assert.True(t, pkg.Approved)

	// Demotion flips the flag back without touching the artifact.
	require.NoError(t, Approve(root, "v1", false))
	_, err = LoadApproved(root, "v1", true)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeGovernance, dErrors.CodeOf(err))
}

func TestApproveMissingVersion(t *testing.T) {
	err := Approve(t.TempDir(), "v-missing", true)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func TestLoadApprovedDistinguishesNotFoundFromGovernance(t *testing.T) {
	root := t.TempDir()
	writeTestPackage(t, root, "v1", false)

	_, err := LoadApproved(root, "v-missing", true)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))

	_, err = LoadApproved(root, "v1", true)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeGovernance, dErrors.CodeOf(err))
}

func TestLoadApprovedWithoutEnforcementKeepsTrueState(t *testing.T) {
	root := t.TempDir()
	writeTestPackage(t, root, "v1", false)

	pkg, err := LoadApproved(root, "v1", false)
	require.NoError(t, err)
	assert.False(t, pkg.Approved)
	assert.Equal(t, []string{"a", "b"}, pkg.Model.FeatureNames)
}

func TestSavePackageRefusesOverwrite(t *testing.T) {
	root := t.TempDir()
	writeTestPackage(t, root, "v1", false)

	err := SavePackage(root, ModelPackage{Version: "v1"}, "")
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))
}

func TestReadModelCard(t *testing.T) {
	root := t.TempDir()
	writeTestPackage(t, root, "v1", false)

	card, err := ReadModelCard(root, "v1")
	require.NoError(t, err)
	assert.Contains(t, card, "v1")

	_, err = ReadModelCard(root, "v-missing")
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func TestLoadApprovedCorruptArtifact(t *testing.T) {
	root := t.TempDir()
	writeTestPackage(t, root, "v1", true)
	require.NoError(t, os.WriteFile(filepath.Join(root, "v1", "model.json"), []byte("{"), 0o644))

	_, err := LoadApproved(root, "v1", true)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeStorage, dErrors.CodeOf(err))
}
