package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pcaData() ([][]float64, []int) {
	data := [][]float64{
		{1.0, 2.0, 0.5},
		{2.0, 4.1, 0.7},
		{3.0, 5.9, 0.4},
		{4.0, 8.2, 0.6},
	}
	return data, []int{1, 1, 2, 2}
}

func TestPCAShapes(t *testing.T) {
	data, classes := pcaData()
	analyzer := NewPCAAnalyzer(nil)

	result, err := analyzer.Analyze(data, classes, []string{"A", "B", "C"}, PCAOptions{NumPCs: 2})
	require.NoError(t, err)

	require.Len(t, result.Scores, 4)
	assert.Len(t, result.Scores[0], 2)
	require.Len(t, result.Loadings, 3)
	assert.Len(t, result.Loadings[0], 2)
	require.Len(t, result.ExplainedVariance, 2)
	assert.Equal(t, classes, result.Classes)
	assert.Equal(t, 2, result.Summary.NumComponents)
	assert.Equal(t, 4, result.Summary.NumSamples)
	assert.Equal(t, 3, result.Summary.NumVariables)
	assert.Equal(t, ScalingAuto, result.Summary.ScalingMethod)
}

func TestPCAComponentCap(t *testing.T) {
	data, classes := pcaData()
	analyzer := NewPCAAnalyzer(nil)

	result, err := analyzer.Analyze(data, classes, nil, PCAOptions{NumPCs: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Summary.NumComponents, "capped at min(samples, variables)")

	result, err = analyzer.Analyze(data, classes, nil, PCAOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Summary.NumComponents, "default of three fits here")
}

func TestPCAExplainedVarianceOrdering(t *testing.T) {
	data, classes := pcaData()
	analyzer := NewPCAAnalyzer(nil)

	result, err := analyzer.Analyze(data, classes, nil, PCAOptions{NumPCs: 3})
	require.NoError(t, err)

	ev := result.ExplainedVariance
	total := 0.0
	for i, v := range ev {
		assert.GreaterOrEqual(t, v, 0.0)
		if i > 0 {
			assert.LessOrEqual(t, v, ev[i-1], "singular values come sorted")
		}
		total += v
	}
	assert.InDelta(t, 100.0, total, 1e-6, "all components together explain everything")
	assert.InDelta(t, total, result.Summary.VarianceExplained, 1e-9)
}

func TestPCACorrelatedVariables(t *testing.T) {
	// Two perfectly correlated variables collapse onto one component.
	data := [][]float64{{1, 2}, {2, 4}, {3, 6}, {4, 8}}
	analyzer := NewPCAAnalyzer(nil)

	result, err := analyzer.Analyze(data, []int{1, 1, 2, 2}, nil, PCAOptions{NumPCs: 2})
	require.NoError(t, err)
	assert.InDelta(t, 100.0, result.ExplainedVariance[0], 1e-6)
}

func TestPCANaNImputation(t *testing.T) {
	data, classes := pcaData()
	data[1][2] = math.NaN()
	analyzer := NewPCAAnalyzer(nil)

	result, err := analyzer.Analyze(data, classes, nil, PCAOptions{NumPCs: 2})
	require.NoError(t, err)
	for _, row := range result.Scores {
		for _, v := range row {
			assert.False(t, math.IsNaN(v))
		}
	}
}

func TestPCAScalingMethods(t *testing.T) {
	data, classes := pcaData()
	analyzer := NewPCAAnalyzer(nil)

	auto, err := analyzer.Analyze(data, classes, nil, PCAOptions{NumPCs: 2, Scaling: ScalingAuto})
	require.NoError(t, err)
	pareto, err := analyzer.Analyze(data, classes, nil, PCAOptions{NumPCs: 2, Scaling: ScalingPareto})
	require.NoError(t, err)
	centered, err := analyzer.Analyze(data, classes, nil, PCAOptions{NumPCs: 2, Scaling: ScalingMean})
	require.NoError(t, err)

	assert.Greater(t, math.Abs(auto.Scores[0][0]-centered.Scores[0][0]), 1e-9)
	assert.Greater(t, math.Abs(pareto.Scores[0][0]-centered.Scores[0][0]), 1e-9)
	assert.Equal(t, ScalingPareto, pareto.Summary.ScalingMethod)
}

func TestPCAInvalidScaling(t *testing.T) {
	data, classes := pcaData()
	analyzer := NewPCAAnalyzer(nil)

	_, err := analyzer.Analyze(data, classes, nil, PCAOptions{Scaling: "minmax"})
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestPCAEmptyInput(t *testing.T) {
	analyzer := NewPCAAnalyzer(nil)
	_, err := analyzer.Analyze(nil, nil, nil, PCAOptions{})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestScaleColumnsAuto(t *testing.T) {
	scaled := scaleColumns([][]float64{{1}, {2}, {3}}, ScalingAuto)
	assert.InDelta(t, -1.0, scaled[0][0], 1e-12)
	assert.InDelta(t, 0.0, scaled[1][0], 1e-12)
	assert.InDelta(t, 1.0, scaled[2][0], 1e-12)
}

func TestScaleColumnsConstantColumn(t *testing.T) {
	// A zero-variance column scales to all zeros instead of dividing by
	// zero.
	scaled := scaleColumns([][]float64{{5, 1}, {5, 2}, {5, 3}}, ScalingAuto)
	for _, row := range scaled {
		assert.Equal(t, 0.0, row[0])
	}
}
