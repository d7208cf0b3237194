package export

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/chemostats/workbench/internal/domain/analysis"
)

func sampleResult() *analysis.AnovaResult {
	return &analysis.AnovaResult{
		Rows: []analysis.AnovaRow{
			{Variable: "glucose", PValue: 0.001, FDR: 0.002, EffectSize: 41.2, FStat: 18.3, Benjamini: true},
			{Variable: "lactate", PValue: 0.42, FDR: 0.42, EffectSize: 2.1, FStat: 0.7},
		},
		Multicomparison: []analysis.Comparison{
			{VariableIndex: 1, Variable: "glucose", GroupX: 1, GroupY: 2, PValue: 0.001, PValueFDR: 0.002, MeanDiff: 1.4, TStat: 4.3},
		},
		GlobalStats: analysis.VariableStats{
			Variables: []string{"glucose", "lactate"},
			RSD:       []float64{10.0, 20.0},
			STD:       []float64{1.0, 2.0},
			Mean:      []float64{10.0, 10.0},
			Range:     []float64{3.0, 6.0},
			Min:       []float64{8.0, 7.0},
			Max:       []float64{11.0, 13.0},
		},
		GroupStats: map[string]analysis.VariableStats{
			"Group1": {
				Variables: []string{"glucose", "lactate"},
				RSD:       []float64{9.0, 18.0},
				STD:       []float64{0.9, 1.8},
				Mean:      []float64{9.5, 9.5},
				Range:     []float64{2.0, 4.0},
				Min:       []float64{8.5, 7.5},
				Max:       []float64{10.5, 11.5},
			},
			"Group2": {
				Variables: []string{"glucose", "lactate"},
				RSD:       []float64{11.0, 22.0},
				STD:       []float64{1.1, 2.2},
				Mean:      []float64{10.5, 10.5},
				Range:     []float64{2.5, 5.0},
				Min:       []float64{9.0, 8.0},
				Max:       []float64{11.5, 13.0},
			},
		},
		Data: [][]float64{
			{9.1, 8.2},
			{10.4, math.NaN()},
		},
		Classes:       []int{1, 2},
		VariableNames: []string{"glucose", "lactate"},
	}
}

func TestBuildAnovaWorkbook_Sheets(t *testing.T) {
	out, err := BuildAnovaWorkbook(sampleResult())
	require.NoError(t, err)
	require.NotEmpty(t, out)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{
		"ANOVA_TABLE_KKH",
		"MULTICOMPARISON",
		"DATASET",
		"GLOBALSTATDATA",
		"GROUPSTATDATA",
	}, f.GetSheetList())
}

func TestBuildAnovaWorkbook_AnovaTable(t *testing.T) {
	out, err := BuildAnovaWorkbook(sampleResult())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("ANOVA_TABLE_KKH")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, []string{"VariableIndex", "Variable", "P-Nominal", "P_FDR", "Effect size (%)", "F-stat"}, rows[0])
	require.Equal(t, "glucose", rows[1][1])
	require.Equal(t, "lactate", rows[2][1])
}

func TestBuildAnovaWorkbook_DatasetLayout(t *testing.T) {
	out, err := BuildAnovaWorkbook(sampleResult())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("DATASET")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 4)
	require.Equal(t, "Variable#", rows[0][1])
	require.Equal(t, "Sample#", rows[1][0])
	require.Equal(t, "Design", rows[1][1])
	require.Equal(t, "glucose", rows[1][2])

	// First sample row carries its index and class.
	require.Equal(t, "1", rows[2][0])
	require.Equal(t, "1", rows[2][1])
}

func TestBuildAnovaWorkbook_GroupStatsHeader(t *testing.T) {
	out, err := BuildAnovaWorkbook(sampleResult())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("GROUPSTATDATA")
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	require.Equal(t, "Variable", rows[0][0])
	require.Equal(t, "Group1-RSD", rows[0][1])
	require.Equal(t, "Group2-RSD", rows[0][7])
}
