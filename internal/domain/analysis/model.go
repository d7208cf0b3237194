package analysis

// Method identifies an analysis kind.
type Method string

const (
	MethodAnova Method = "anova"
	MethodPCA   Method = "pca"
)

// AnovaOptions configure a one-way ANOVA run.
type AnovaOptions struct {
	ClassColumn  string  `json:"class_column"`
	FDRThreshold float64 `json:"fdr_threshold"`
	DesignLabel  string  `json:"design_label"`
	PlotOption   int     `json:"plot_option"`
}

// Plot options select which variables count as significant for the
// boxplot panel.
const (
	PlotNone       = 0
	PlotNominal    = 1
	PlotBonferroni = 2
	PlotBenjamini  = 3
	PlotAll        = 4
)

// AnovaRow is the per-variable result line.
type AnovaRow struct {
	Variable   string  `json:"variable"`
	PValue     float64 `json:"p_value"`
	FDR        float64 `json:"fdr"`
	Bonferroni float64 `json:"bonferroni"`
	Benjamini  bool    `json:"benjamini"`
	EffectSize float64 `json:"effect_size"`
	FStat      float64 `json:"f_stat"`
}

// Comparison is one pairwise post-hoc test between two groups of a
// single variable.
type Comparison struct {
	VariableIndex int     `json:"variable_index"`
	Variable      string  `json:"variable"`
	GroupX        int     `json:"group_x"`
	GroupY        int     `json:"group_y"`
	PValue        float64 `json:"p_value"`
	PValueFDR     float64 `json:"p_value_fdr"`
	MeanDiff      float64 `json:"mean_diff"`
	TStat         float64 `json:"t_stat"`
}

// VariableStats carries descriptive statistics aligned with Variables.
type VariableStats struct {
	Variables []string  `json:"variables"`
	RSD       []float64 `json:"rsd"`
	STD       []float64 `json:"std"`
	Mean      []float64 `json:"mean"`
	Range     []float64 `json:"range"`
	Min       []float64 `json:"min"`
	Max       []float64 `json:"max"`
}

// GroupBoxplot is the five-number summary for one group of one
// variable. Whiskers follow the 1.5*IQR rule.
type GroupBoxplot struct {
	Min    float64   `json:"min"`
	Q1     float64   `json:"q1"`
	Median float64   `json:"median"`
	Q3     float64   `json:"q3"`
	Max    float64   `json:"max"`
	Values []float64 `json:"values"`
	N      int       `json:"n"`
}

// BoxplotVariable groups boxplots by class for one variable.
type BoxplotVariable struct {
	VariableName string                  `json:"variable_name"`
	Groups       map[string]GroupBoxplot `json:"groups"`
	YMin         float64                 `json:"y_min"`
	YMax         float64                 `json:"y_max"`
}

// Overview is the multiple-comparison summary used by the p-value
// overview plot.
type Overview struct {
	PValuesSorted       []float64 `json:"p_values_sorted"`
	BenjaminiIndices    []int     `json:"benjamini_indices"`
	BonferroniIndices   []int     `json:"bonferroni_indices"`
	BonferroniThreshold float64   `json:"bonferroni_threshold"`
	BenjaminiThreshold  float64   `json:"benjamini_threshold"`
	NominalThreshold    float64   `json:"nominal_threshold"`
}

// AnovaSummary counts significant variables per correction method.
type AnovaSummary struct {
	TotalVariables        int `json:"total_variables"`
	BenjaminiSignificant  int `json:"benjamini_significant"`
	BonferroniSignificant int `json:"bonferroni_significant"`
	NominalSignificant    int `json:"nominal_significant"`
	NumGroups             int `json:"num_groups"`
}

// AnovaResult is the complete payload of one ANOVA run. Data, Classes,
// and VariableNames are carried along for export.
type AnovaResult struct {
	DesignLabel     string                     `json:"design_label"`
	Rows            []AnovaRow                 `json:"rows"`
	Multicomparison []Comparison               `json:"multicomparison"`
	GlobalStats     VariableStats              `json:"global_stats"`
	GroupStats      map[string]VariableStats   `json:"group_stats"`
	Boxplots        map[string]BoxplotVariable `json:"boxplot_data"`
	Overview        Overview                   `json:"overview_data"`
	Summary         AnovaSummary               `json:"summary"`
	Data            [][]float64                `json:"original_data"`
	Classes         []int                      `json:"classes"`
	VariableNames   []string                   `json:"variable_names"`
}

// PCAOptions configure a PCA run.
type PCAOptions struct {
	NumPCs      int    `json:"num_pcs"`
	Scaling     string `json:"scaling_method"`
	DesignLabel string `json:"design_label"`
}

// Scaling methods.
const (
	ScalingAuto   = "auto"
	ScalingMean   = "mean"
	ScalingPareto = "pareto"
)

// PCASummary describes the run.
type PCASummary struct {
	NumComponents     int     `json:"num_components"`
	NumSamples        int     `json:"num_samples"`
	NumVariables      int     `json:"num_variables"`
	ScalingMethod     string  `json:"scaling_method"`
	VarianceExplained float64 `json:"variance_explained"`
}

// PCAResult carries scores (samples x components), loadings
// (variables x components), and the explained-variance ratios.
type PCAResult struct {
	DesignLabel       string      `json:"design_label"`
	Scores            [][]float64 `json:"scores"`
	Loadings          [][]float64 `json:"loadings"`
	ExplainedVariance []float64   `json:"explained_variance"`
	Classes           []int       `json:"classes"`
	VariableNames     []string    `json:"variable_names"`
	Summary           PCASummary  `json:"summary"`
}
