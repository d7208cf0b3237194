// Package export renders analysis results as downloadable Excel
// workbooks.
package export

import (
	"fmt"
	"math"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/chemostats/workbench/internal/domain/analysis"
)

const (
	headerColor    = "4472C4"
	highlightColor = "E2EFDA"
)

// BuildAnovaWorkbook writes a five-sheet workbook with the full ANOVA
// output: the results table, pairwise comparisons, the dataset, and
// global and per-group statistics.
func BuildAnovaWorkbook(res *analysis.AnovaResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerColor}, Pattern: 1},
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("creating header style: %w", err)
	}
	highlightStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{highlightColor}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("creating highlight style: %w", err)
	}

	if err := writeAnovaTable(f, res, headerStyle, highlightStyle); err != nil {
		return nil, err
	}
	if err := writeMulticomparison(f, res, headerStyle); err != nil {
		return nil, err
	}
	if err := writeDataset(f, res, headerStyle); err != nil {
		return nil, err
	}
	if err := writeGlobalStats(f, res, headerStyle); err != nil {
		return nil, err
	}
	if err := writeGroupStats(f, res, headerStyle); err != nil {
		return nil, err
	}

	// The default sheet is replaced by ANOVA_TABLE_KKH.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("removing default sheet: %w", err)
	}
	index, err := f.GetSheetIndex("ANOVA_TABLE_KKH")
	if err != nil {
		return nil, fmt.Errorf("locating results sheet: %w", err)
	}
	f.SetActiveSheet(index)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serializing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeAnovaTable(f *excelize.File, res *analysis.AnovaResult, headerStyle, highlightStyle int) error {
	const sheet = "ANOVA_TABLE_KKH"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating sheet %s: %w", sheet, err)
	}

	header := []interface{}{"VariableIndex", "Variable", "P-Nominal", "P_FDR", "Effect size (%)", "F-stat"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := styleRow(f, sheet, 1, len(header), headerStyle); err != nil {
		return err
	}

	for i, row := range res.Rows {
		values := []interface{}{
			i + 1,
			row.Variable,
			cellValue(row.PValue),
			cellValue(row.FDR),
			cellValue(row.EffectSize),
			cellValue(row.FStat),
		}
		if err := f.SetSheetRow(sheet, cellName(1, i+2), &values); err != nil {
			return err
		}
		if row.Benjamini {
			if err := styleRow(f, sheet, i+2, len(values), highlightStyle); err != nil {
				return err
			}
		}
	}

	return f.SetColWidth(sheet, "A", "F", 16)
}

func writeMulticomparison(f *excelize.File, res *analysis.AnovaResult, headerStyle int) error {
	const sheet = "MULTICOMPARISON"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating sheet %s: %w", sheet, err)
	}

	header := []interface{}{"VariableIndex", "Variable", "GroupX", "GroupY", "P_Nominal", "P_FDR", "MeanDiff", "T-stat"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := styleRow(f, sheet, 1, len(header), headerStyle); err != nil {
		return err
	}

	for i, comp := range res.Multicomparison {
		values := []interface{}{
			comp.VariableIndex,
			comp.Variable,
			comp.GroupX,
			comp.GroupY,
			cellValue(comp.PValue),
			cellValue(comp.PValueFDR),
			cellValue(comp.MeanDiff),
			cellValue(comp.TStat),
		}
		if err := f.SetSheetRow(sheet, cellName(1, i+2), &values); err != nil {
			return err
		}
	}

	return f.SetColWidth(sheet, "A", "H", 14)
}

func writeDataset(f *excelize.File, res *analysis.AnovaResult, headerStyle int) error {
	const sheet = "DATASET"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating sheet %s: %w", sheet, err)
	}

	numbers := []interface{}{"", "Variable#"}
	for i := range res.VariableNames {
		numbers = append(numbers, i+1)
	}
	if err := f.SetSheetRow(sheet, "A1", &numbers); err != nil {
		return err
	}

	names := []interface{}{"Sample#", "Design"}
	for _, name := range res.VariableNames {
		names = append(names, name)
	}
	if err := f.SetSheetRow(sheet, "A2", &names); err != nil {
		return err
	}

	for r := 1; r <= 2; r++ {
		if err := styleRow(f, sheet, r, len(names), headerStyle); err != nil {
			return err
		}
	}

	for i, row := range res.Data {
		values := []interface{}{i + 1}
		if i < len(res.Classes) {
			values = append(values, res.Classes[i])
		} else {
			values = append(values, nil)
		}
		for _, v := range row {
			values = append(values, cellValue(v))
		}
		if err := f.SetSheetRow(sheet, cellName(1, i+3), &values); err != nil {
			return err
		}
	}

	return nil
}

func writeGlobalStats(f *excelize.File, res *analysis.AnovaResult, headerStyle int) error {
	const sheet = "GLOBALSTATDATA"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating sheet %s: %w", sheet, err)
	}

	header := []interface{}{"Variable", "RSD", "STD", "MEAN", "RANGE", "MIN", "MAX"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := styleRow(f, sheet, 1, len(header), headerStyle); err != nil {
		return err
	}

	gs := res.GlobalStats
	for i, name := range gs.Variables {
		values := []interface{}{
			name,
			statValue(gs.RSD, i),
			statValue(gs.STD, i),
			statValue(gs.Mean, i),
			statValue(gs.Range, i),
			statValue(gs.Min, i),
			statValue(gs.Max, i),
		}
		if err := f.SetSheetRow(sheet, cellName(1, i+2), &values); err != nil {
			return err
		}
	}

	return f.SetColWidth(sheet, "A", "G", 14)
}

func writeGroupStats(f *excelize.File, res *analysis.AnovaResult, headerStyle int) error {
	const sheet = "GROUPSTATDATA"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating sheet %s: %w", sheet, err)
	}

	groups := make([]string, 0, len(res.GroupStats))
	for name := range res.GroupStats {
		groups = append(groups, name)
	}
	sort.Strings(groups)

	header := []interface{}{"Variable"}
	for _, group := range groups {
		for _, stat := range []string{"RSD", "STD", "MEAN", "RANGE", "MIN", "MAX"} {
			header = append(header, fmt.Sprintf("%s-%s", group, stat))
		}
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := styleRow(f, sheet, 1, len(header), headerStyle); err != nil {
		return err
	}

	for i, name := range res.VariableNames {
		values := []interface{}{name}
		for _, group := range groups {
			gs := res.GroupStats[group]
			values = append(values,
				statValue(gs.RSD, i),
				statValue(gs.STD, i),
				statValue(gs.Mean, i),
				statValue(gs.Range, i),
				statValue(gs.Min, i),
				statValue(gs.Max, i),
			)
		}
		if err := f.SetSheetRow(sheet, cellName(1, i+2), &values); err != nil {
			return err
		}
	}

	return nil
}

// cellValue maps NaN and infinities to empty cells. Excel has no
// representation for them.
func cellValue(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func statValue(values []float64, i int) interface{} {
	if i >= len(values) {
		return nil
	}
	return cellValue(values[i])
}

func styleRow(f *excelize.File, sheet string, row, width, style int) error {
	last, err := excelize.CoordinatesToCellName(width, row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, cellName(1, row), last, style)
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
