package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/cleango/pkg/errors"
)

func TestConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cleango.yaml")

	c1 := Default()
	c1.CVNFolds = 3
	c1.FilterBy = "low_self_confidence"
	c1.ThresholdRule = "quantile"
	c1.Quantile = 0.1
	require.NoError(t, Save(path, c1))

	c2, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c1, c2)
	assert.Len(t, c2.FilterOptions(), 7)
}

func TestRead_PartialFileKeepsDefaults(t *testing.T) {
	c, err := Read(strings.NewReader("seed: 42\nn_jobs: 4\n"))
	require.NoError(t, err)

	want := Default()
	want.Seed = 42
	want.NJobs = 4
	assert.Equal(t, want, c)

	empty, err := Read(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), empty)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		param string
	}{
		{"folds", "cv_n_folds: 1", "cv_n_folds"},
		{"too many folds", "cv_n_folds: 21", "cv_n_folds"},
		{"batch", "batch_size: 0", "batch_size"},
		{"std", "num_std_devs: -1", "num_std_devs"},
		{"quantile", "quantile: 1.5", "quantile"},
		{"filter", "filter_by: magic", "filter_by"},
		{"rule", "threshold_rule: median", "threshold_rule"},
		{"basis", "threshold_basis: both", "threshold_basis"},
		{"log level", "log_level: loud", "log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.yaml))
			var ve *errors.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.param, ve.ParamName)
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cv_n_folds: [1, 2]\n"), 0600))
	_, err = Load(path)
	assert.Error(t, err)

	assert.Error(t, Save(path, nil))
}
