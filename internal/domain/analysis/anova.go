package analysis

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
)

// AnovaAnalyzer runs one-way ANOVA with Bonferroni and
// Benjamini-Hochberg corrections, post-hoc pairwise comparisons, and
// the descriptive statistics the result panes render.
type AnovaAnalyzer struct {
	fdrThreshold float64
	logger       *slog.Logger
}

// NewAnovaAnalyzer creates an analyzer with the given default FDR
// threshold (0 defaults to 0.05). A non-zero AnovaOptions.FDRThreshold
// overrides it per run.
func NewAnovaAnalyzer(fdrThreshold float64, logger *slog.Logger) *AnovaAnalyzer {
	if fdrThreshold <= 0 {
		fdrThreshold = 0.05
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AnovaAnalyzer{fdrThreshold: fdrThreshold, logger: logger}
}

// Analyze runs the full ANOVA pipeline over a samples x variables
// matrix. NaN cells are excluded per variable. Variables left with
// fewer than two groups score p=1, F=0.
func (a *AnovaAnalyzer) Analyze(data [][]float64, classes []int, varNames []string, opts AnovaOptions) (*AnovaResult, error) {
	nSamples := len(data)
	if nSamples == 0 || len(data[0]) == 0 {
		return nil, ErrInsufficientData
	}
	if len(classes) != nSamples {
		return nil, fmt.Errorf("%w: %d samples but %d class labels", ErrInvalidOptions, nSamples, len(classes))
	}
	nVars := len(data[0])
	groups := uniqueClasses(classes)
	if len(groups) < 2 {
		return nil, ErrInsufficientGroups
	}

	varNames = normalizeVarNames(varNames, nVars)
	threshold := a.fdrThreshold
	if opts.FDRThreshold > 0 {
		threshold = opts.FDRThreshold
	}
	a.logger.Info("running anova",
		"samples", nSamples, "variables", nVars, "groups", len(groups), "fdr_threshold", threshold)

	pValues := make([]float64, nVars)
	fStats := make([]float64, nVars)
	effects := make([]float64, nVars)
	var comparisons []Comparison

	for v := 0; v < nVars; v++ {
		values, labels := cleanColumn(data, classes, v)
		byGroup := splitByClass(values, labels)
		if len(byGroup) < 2 {
			pValues[v], fStats[v], effects[v] = 1, 0, 0
			continue
		}

		ordered := orderedGroups(byGroup)
		fStats[v], pValues[v] = oneWayF(ordered)
		effects[v] = etaSquared(ordered, values)
		comparisons = append(comparisons, multcompare(v, varNames[v], byGroup, threshold)...)
	}

	fdrAdjusted, benjaminiSig := benjaminiHochberg(pValues, threshold)
	bonferroniThreshold := threshold / float64(nVars)

	rows := make([]AnovaRow, nVars)
	for v := 0; v < nVars; v++ {
		rows[v] = AnovaRow{
			Variable:   varNames[v],
			PValue:     pValues[v],
			FDR:        fdrAdjusted[v],
			Bonferroni: pValues[v] * float64(nVars),
			Benjamini:  benjaminiSig[v],
			EffectSize: effects[v],
			FStat:      fStats[v],
		}
	}

	significant := significantVars(rows, opts.PlotOption, benjaminiSig, threshold)
	top := significant
	if len(top) > 4 {
		top = top[:4]
	}

	result := &AnovaResult{
		DesignLabel:     opts.DesignLabel,
		Rows:            rows,
		Multicomparison: comparisons,
		GlobalStats:     globalStats(data, varNames),
		GroupStats:      groupStats(data, classes, varNames),
		Boxplots:        boxplots(data, classes, varNames, top),
		Overview:        overview(pValues, benjaminiSig, bonferroniThreshold, threshold),
		Summary: AnovaSummary{
			TotalVariables:        nVars,
			BenjaminiSignificant:  countTrue(benjaminiSig),
			BonferroniSignificant: countBelow(pValues, bonferroniThreshold),
			NominalSignificant:    countBelow(pValues, 0.05),
			NumGroups:             len(groups),
		},
		Data:          data,
		Classes:       classes,
		VariableNames: varNames,
	}

	a.logger.Info("anova complete",
		"benjamini_significant", result.Summary.BenjaminiSignificant,
		"bonferroni_significant", result.Summary.BonferroniSignificant)
	return result, nil
}

// multcompare runs all pairwise two-sample t tests for one variable and
// BH-corrects the pair p-values within that variable.
func multcompare(varIdx int, varName string, byGroup map[int][]float64, threshold float64) []Comparison {
	classes := sortedKeys(byGroup)
	var comps []Comparison
	for i := 0; i < len(classes); i++ {
		for j := i + 1; j < len(classes); j++ {
			gi, gj := byGroup[classes[i]], byGroup[classes[j]]
			t, p, ok := twoSampleT(gi, gj)
			if !ok {
				continue
			}
			comps = append(comps, Comparison{
				VariableIndex: varIdx + 1,
				Variable:      varName,
				GroupX:        classes[i],
				GroupY:        classes[j],
				PValue:        p,
				MeanDiff:      mean(gi) - mean(gj),
				TStat:         t,
			})
		}
	}
	if len(comps) == 0 {
		return nil
	}

	raw := make([]float64, len(comps))
	for i, c := range comps {
		raw[i] = c.PValue
	}
	adjusted, _ := benjaminiHochberg(raw, threshold)
	for i := range comps {
		comps[i].PValueFDR = adjusted[i]
	}
	return comps
}

func significantVars(rows []AnovaRow, plotOption int, benjaminiSig []bool, threshold float64) []int {
	var out []int
	for i, r := range rows {
		switch plotOption {
		case PlotNone:
			continue
		case PlotNominal:
			if r.PValue <= 0.05 {
				out = append(out, i)
			}
		case PlotBonferroni:
			if r.Bonferroni <= threshold {
				out = append(out, i)
			}
		case PlotBenjamini:
			if benjaminiSig[i] {
				out = append(out, i)
			}
		default:
			out = append(out, i)
		}
	}
	return out
}

func overview(pValues []float64, benjaminiSig []bool, bonferroniThreshold, threshold float64) Overview {
	order := make([]int, len(pValues))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return pValues[order[i]] < pValues[order[j]] })

	sorted := make([]float64, len(order))
	var benjaminiIdx, bonferroniIdx []int
	for pos, idx := range order {
		sorted[pos] = pValues[idx]
		if benjaminiSig[idx] {
			benjaminiIdx = append(benjaminiIdx, pos)
		}
		if pValues[idx] <= bonferroniThreshold {
			bonferroniIdx = append(bonferroniIdx, pos)
		}
	}

	// Display threshold: the largest raw p still accepted by BH, or the
	// configured alpha when nothing was accepted.
	benjaminiThreshold := threshold
	maxAccepted := 0.0
	accepted := false
	for i, sig := range benjaminiSig {
		if sig && pValues[i] > maxAccepted {
			maxAccepted = pValues[i]
			accepted = true
		}
	}
	if accepted {
		benjaminiThreshold = maxAccepted
	}

	return Overview{
		PValuesSorted:       sorted,
		BenjaminiIndices:    benjaminiIdx,
		BonferroniIndices:   bonferroniIdx,
		BonferroniThreshold: bonferroniThreshold,
		BenjaminiThreshold:  benjaminiThreshold,
		NominalThreshold:    0.05,
	}
}

// etaSquared is the between-group share of total variance, in percent.
func etaSquared(groups [][]float64, all []float64) float64 {
	grand := mean(all)
	ssBetween := 0.0
	ssTotal := 0.0
	for _, g := range groups {
		d := mean(g) - grand
		ssBetween += float64(len(g)) * d * d
	}
	for _, x := range all {
		d := x - grand
		ssTotal += d * d
	}
	if ssTotal == 0 {
		return 0
	}
	return ssBetween / ssTotal * 100
}

func globalStats(data [][]float64, varNames []string) VariableStats {
	nVars := len(varNames)
	stats := newVariableStats(varNames)
	for v := 0; v < nVars; v++ {
		appendColumnStats(&stats, columnClean(data, v))
	}
	return stats
}

func groupStats(data [][]float64, classes []int, varNames []string) map[string]VariableStats {
	out := make(map[string]VariableStats)
	for _, cls := range uniqueClasses(classes) {
		stats := newVariableStats(varNames)
		for v := range varNames {
			var clean []float64
			for row := range data {
				if classes[row] != cls {
					continue
				}
				if x := data[row][v]; !math.IsNaN(x) {
					clean = append(clean, x)
				}
			}
			appendColumnStats(&stats, clean)
		}
		out[groupName(cls)] = stats
	}
	return out
}

func newVariableStats(varNames []string) VariableStats {
	return VariableStats{Variables: append([]string(nil), varNames...)}
}

func appendColumnStats(stats *VariableStats, clean []float64) {
	if len(clean) == 0 {
		stats.RSD = append(stats.RSD, 0)
		stats.STD = append(stats.STD, 0)
		stats.Mean = append(stats.Mean, 0)
		stats.Range = append(stats.Range, 0)
		stats.Min = append(stats.Min, 0)
		stats.Max = append(stats.Max, 0)
		return
	}
	m := mean(clean)
	sd := sampleStd(clean)
	rsd := 0.0
	if m != 0 {
		rsd = sd / m * 100
	}
	lo, hi := minMax(clean)
	stats.RSD = append(stats.RSD, rsd)
	stats.STD = append(stats.STD, sd)
	stats.Mean = append(stats.Mean, m)
	stats.Range = append(stats.Range, hi-lo)
	stats.Min = append(stats.Min, lo)
	stats.Max = append(stats.Max, hi)
}

// boxplots computes per-group five-number summaries for the selected
// variables, keyed "variable_<index>".
func boxplots(data [][]float64, classes []int, varNames []string, varIndices []int) map[string]BoxplotVariable {
	out := make(map[string]BoxplotVariable, len(varIndices))
	unique := uniqueClasses(classes)
	for _, v := range varIndices {
		groups := make(map[string]GroupBoxplot)
		var all []float64
		for _, cls := range unique {
			var clean []float64
			for row := range data {
				if classes[row] != cls {
					continue
				}
				if x := data[row][v]; !math.IsNaN(x) {
					clean = append(clean, x)
				}
			}
			if len(clean) == 0 {
				continue
			}
			groups[groupName(cls)] = boxplotOf(clean)
			all = append(all, clean...)
		}

		yMin, yMax := 0.0, 1.0
		if len(all) > 0 {
			lo, hi := minMax(all)
			yMin = scaleLimit(lo, 0.75, 1.25)
			yMax = scaleLimit(hi, 1.25, 0.75)
		}
		out[fmt.Sprintf("variable_%d", v)] = BoxplotVariable{
			VariableName: varNames[v],
			Groups:       groups,
			YMin:         yMin,
			YMax:         yMax,
		}
	}
	return out
}

func boxplotOf(values []float64) GroupBoxplot {
	if len(values) == 1 {
		v := values[0]
		return GroupBoxplot{Min: v, Q1: v, Median: v, Q3: v, Max: v, Values: values, N: 1}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	q1 := percentile(sorted, 25)
	median := percentile(sorted, 50)
	q3 := percentile(sorted, 75)
	iqr := q3 - q1
	lo, hi := sorted[0], sorted[len(sorted)-1]
	lower := math.Max(lo, q1-1.5*iqr)
	upper := math.Min(hi, q3+1.5*iqr)
	return GroupBoxplot{Min: lower, Q1: q1, Median: median, Q3: q3, Max: upper, Values: values, N: len(values)}
}

// scaleLimit pads an axis limit away from zero regardless of sign.
func scaleLimit(v, positiveFactor, negativeFactor float64) float64 {
	if v > 0 {
		return v * positiveFactor
	}
	return v * negativeFactor
}

func groupName(cls int) string {
	return fmt.Sprintf("Group%d", cls)
}

func cleanColumn(data [][]float64, classes []int, v int) (values []float64, labels []int) {
	for row := range data {
		if x := data[row][v]; !math.IsNaN(x) {
			values = append(values, x)
			labels = append(labels, classes[row])
		}
	}
	return values, labels
}

func columnClean(data [][]float64, v int) []float64 {
	var clean []float64
	for row := range data {
		if x := data[row][v]; !math.IsNaN(x) {
			clean = append(clean, x)
		}
	}
	return clean
}

func splitByClass(values []float64, labels []int) map[int][]float64 {
	byGroup := make(map[int][]float64)
	for i, x := range values {
		byGroup[labels[i]] = append(byGroup[labels[i]], x)
	}
	return byGroup
}

func orderedGroups(byGroup map[int][]float64) [][]float64 {
	keys := sortedKeys(byGroup)
	out := make([][]float64, 0, len(keys))
	for _, k := range keys {
		out = append(out, byGroup[k])
	}
	return out
}

func sortedKeys(byGroup map[int][]float64) []int {
	keys := make([]int, 0, len(byGroup))
	for k := range byGroup {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func uniqueClasses(classes []int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, c := range classes {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Ints(out)
	return out
}

// normalizeVarNames pads or truncates the provided names to exactly
// nVars entries, filling gaps with Variable_N placeholders.
func normalizeVarNames(varNames []string, nVars int) []string {
	names := make([]string, nVars)
	for i := range names {
		if i < len(varNames) && varNames[i] != "" {
			names[i] = varNames[i]
		} else {
			names[i] = fmt.Sprintf("Variable_%d", i+1)
		}
	}
	return names
}

func countTrue(mask []bool) int {
	n := 0
	for _, b := range mask {
		if b {
			n++
		}
	}
	return n
}

func countBelow(xs []float64, threshold float64) int {
	n := 0
	for _, x := range xs {
		if x <= threshold {
			n++
		}
	}
	return n
}
