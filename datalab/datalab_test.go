package datalab

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/cleango/dataset"
	"github.com/YuminosukeSato/cleango/filter"
	"github.com/YuminosukeSato/cleango/pkg/errors"
)

// smallDataset has two examples whose labels disagree with confident
// predictions (indices 2 and 5).
func smallDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	labels := []int{0, 0, 1, 1, 1, 0}
	probs := mat.NewDense(6, 2, []float64{
		0.9, 0.1,
		0.8, 0.2,
		0.88, 0.12,
		0.2, 0.8,
		0.1, 0.9,
		0.35, 0.65,
	})
	ds, err := dataset.New(labels, probs)
	require.NoError(t, err)
	return ds
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterDefaults(r))

	noop := func(context.Context, *dataset.Dataset) (*IssueResult, error) { return &IssueResult{}, nil }
	require.NoError(t, r.Register(IssueManager{Name: "outlier", FindIssues: noop}))
	assert.Equal(t, []string{"label", "outlier"}, r.Names())

	err := r.Register(IssueManager{Name: "label", FindIssues: noop})
	var ve *errors.ValueError
	assert.True(t, errors.As(err, &ve), "duplicate names must fail")

	var vErr *errors.ValidationError
	assert.True(t, errors.As(r.Register(IssueManager{FindIssues: noop}), &vErr))
	assert.True(t, errors.As(r.Register(IssueManager{Name: "x"}), &vErr))

	m, ok := r.Get("label")
	require.True(t, ok)
	assert.Equal(t, LabelIssueName, m.Name)
	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestDatalab_FindIssues(t *testing.T) {
	ds := smallDataset(t)
	lab, err := New(ds, nil)
	require.NoError(t, err)

	report, err := lab.FindIssues(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Summary, 1)

	row := report.Summary[0]
	assert.Equal(t, "label", row.IssueType)
	assert.Equal(t, report.Results["label"].NumIssues(), row.NumIssues)
	assert.GreaterOrEqual(t, row.NumIssues, 1)
	// mean self-confidence of the labels above
	assert.InDelta(t, (0.9+0.8+0.12+0.8+0.9+0.35)/6, row.Score, 1e-12)

	res := report.Results["label"]
	assert.Len(t, res.Mask, 6)
	for i, flagged := range res.Mask {
		if flagged {
			assert.Contains(t, []int{2, 5}, i)
		}
	}
}

func TestDatalab_InfoVerbosity(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterDefaults(r, filter.WithFilterBy(filter.LowSelfConfidence)))
	lab, err := New(smallDataset(t), r)
	require.NoError(t, err)

	report, err := lab.FindIssues(context.Background(), "label")
	require.NoError(t, err)

	quiet := lab.Info(report, "label", 0)
	assert.Equal(t, []string{"num_issues"}, keys(quiet))

	loud := lab.Info(report, "label", 2)
	assert.Contains(t, loud, "cutoff")
	assert.Contains(t, loud, "threshold_rule")
	assert.Contains(t, loud, "predicted_labels")
	assert.NotContains(t, loud, "confident_joint", "low_self_confidence has no joint")
	assert.NotContains(t, loud, "noise_rate")

	cm, ok := loud["confusion_matrix"].(*mat.Dense)
	require.True(t, ok)
	assert.Equal(t, []float64{2, 1, 1, 2}, cm.RawMatrix().Data)

	assert.Nil(t, lab.Info(report, "outlier", 2))
}

func TestDatalab_NoiseEstimates(t *testing.T) {
	lab, err := New(smallDataset(t), nil)
	require.NoError(t, err)
	report, err := lab.FindIssues(context.Background())
	require.NoError(t, err)

	info := lab.Info(report, "label", 2)
	joint, ok := info["confident_joint"].(*mat.Dense)
	require.True(t, ok)
	assert.InDelta(t, 1-mat.Trace(joint), info["noise_rate"], 1e-12)
	assert.Contains(t, lab.Info(report, "label", 1), "noise_rate")
	assert.NotContains(t, lab.Info(report, "label", 1), "noise_matrix")

	noise, ok := info["noise_matrix"].(*mat.Dense)
	require.True(t, ok)
	prior, ok := info["true_label_prior"].([]float64)
	require.True(t, ok)
	for j := 0; j < 2; j++ {
		if prior[j] > 0 {
			assert.InDelta(t, 1.0, noise.At(0, j)+noise.At(1, j), 1e-12, "column %d", j)
		}
	}
	assert.Contains(t, info, "inverse_noise_matrix")
}

func TestDatalab_Errors(t *testing.T) {
	lab, err := New(smallDataset(t), nil)
	require.NoError(t, err)

	_, err = lab.FindIssues(context.Background(), "outlier")
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = lab.FindIssues(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	bad := &dataset.Dataset{Labels: []int{0, 3}, PredProbs: mat.NewDense(2, 2, []float64{0.5, 0.5, 0.5, 0.5})}
	_, err = New(bad, nil)
	var lre *errors.LabelRangeError
	assert.True(t, errors.As(err, &lre))
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
