package assistant

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/chemostats/workbench/internal/domain/analysis"
)

// SummarizeAnova renders ANOVA results as the plain-text context the
// model receives: overall counts, then the variables the user sees
// highlighted, then the most interesting ones by raw p-value.
func SummarizeAnova(res *analysis.AnovaResult) string {
	var b strings.Builder
	b.WriteString("=== ANOVA ANALYSIS RESULTS ===\n")
	fmt.Fprintf(&b, "Total variables analyzed: %d\n", res.Summary.TotalVariables)
	fmt.Fprintf(&b, "Number of groups compared: %d\n", res.Summary.NumGroups)
	fmt.Fprintf(&b, "Significant after Benjamini-Hochberg (FDR): %d\n", res.Summary.BenjaminiSignificant)
	fmt.Fprintf(&b, "Significant after Bonferroni correction: %d\n", res.Summary.BonferroniSignificant)
	b.WriteString("\n")

	var significant []analysis.AnovaRow
	for _, row := range res.Rows {
		if row.Benjamini {
			significant = append(significant, row)
		}
	}
	if len(significant) > 0 {
		b.WriteString("=== SIGNIFICANT VARIABLES (highlighted for the user) ===\n")
		for i, row := range significant {
			if i == 10 {
				break
			}
			fmt.Fprintf(&b, "- %s: p=%.4f, FDR=%.4f, effect=%.1f%%\n", row.Variable, row.PValue, row.FDR, row.EffectSize)
		}
		b.WriteString("\n")
	}

	var top []analysis.AnovaRow
	for _, row := range res.Rows {
		if !math.IsNaN(row.PValue) {
			top = append(top, row)
		}
	}
	sort.Slice(top, func(i, j int) bool { return top[i].PValue < top[j].PValue })
	if len(top) > 5 {
		top = top[:5]
	}
	b.WriteString("=== TOP VARIABLES BY P-VALUE ===\n")
	for _, row := range top {
		fmt.Fprintf(&b, "- %s: p=%.4f, F=%.2f\n", row.Variable, row.PValue, row.FStat)
	}
	return b.String()
}

// SummarizePCA renders PCA results as model context.
func SummarizePCA(res *analysis.PCAResult) string {
	var b strings.Builder
	b.WriteString("=== PCA ANALYSIS RESULTS ===\n")
	fmt.Fprintf(&b, "Samples: %d, Variables: %d\n", res.Summary.NumSamples, res.Summary.NumVariables)
	fmt.Fprintf(&b, "Components computed: %d (scaling: %s)\n", res.Summary.NumComponents, res.Summary.ScalingMethod)
	fmt.Fprintf(&b, "Total variance explained: %.1f%%\n", res.Summary.VarianceExplained)
	for i, v := range res.ExplainedVariance {
		fmt.Fprintf(&b, "- PC%d explains %.1f%% of variance\n", i+1, v)
	}
	return b.String()
}
