package analysis

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"
)

// PCAAnalyzer computes principal components by singular value
// decomposition of the scaled data matrix.
type PCAAnalyzer struct {
	logger *slog.Logger
}

// NewPCAAnalyzer creates a PCA analyzer.
func NewPCAAnalyzer(logger *slog.Logger) *PCAAnalyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &PCAAnalyzer{logger: logger}
}

// Analyze runs PCA over a samples x variables matrix. NaN cells are
// replaced with the column mean before scaling. The component count is
// capped at min(samples, variables).
func (a *PCAAnalyzer) Analyze(data [][]float64, classes []int, varNames []string, opts PCAOptions) (*PCAResult, error) {
	nSamples := len(data)
	if nSamples == 0 || len(data[0]) == 0 {
		return nil, ErrInsufficientData
	}
	nVars := len(data[0])

	numPCs := opts.NumPCs
	if numPCs <= 0 {
		numPCs = 3
	}
	if maxPCs := min(nSamples, nVars); numPCs > maxPCs {
		numPCs = maxPCs
	}
	scaling := opts.Scaling
	switch scaling {
	case "":
		scaling = ScalingAuto
	case ScalingAuto, ScalingMean, ScalingPareto:
	default:
		return nil, fmt.Errorf("%w: unknown scaling method %q", ErrInvalidOptions, opts.Scaling)
	}

	varNames = normalizeVarNames(varNames, nVars)
	a.logger.Info("running pca", "samples", nSamples, "variables", nVars, "components", numPCs, "scaling", scaling)

	scaled := scaleColumns(data, scaling)
	x := mat.NewDense(nSamples, nVars, nil)
	for i, row := range scaled {
		x.SetRow(i, row)
	}

	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return nil, fmt.Errorf("svd factorization failed")
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	singular := svd.Values(nil)

	// Scores are U*S; loadings are the right singular vectors.
	scores := make([][]float64, nSamples)
	for i := range scores {
		scores[i] = make([]float64, numPCs)
		for c := 0; c < numPCs; c++ {
			scores[i][c] = u.At(i, c) * singular[c]
		}
	}
	loadings := make([][]float64, nVars)
	for j := range loadings {
		loadings[j] = make([]float64, numPCs)
		for c := 0; c < numPCs; c++ {
			loadings[j][c] = v.At(j, c)
		}
	}

	total := 0.0
	for _, s := range singular {
		total += s * s
	}
	explained := make([]float64, numPCs)
	cumulative := 0.0
	for c := 0; c < numPCs; c++ {
		if total > 0 {
			explained[c] = singular[c] * singular[c] / total * 100
		}
		cumulative += explained[c]
	}

	return &PCAResult{
		DesignLabel:       opts.DesignLabel,
		Scores:            scores,
		Loadings:          loadings,
		ExplainedVariance: explained,
		Classes:           classes,
		VariableNames:     varNames,
		Summary: PCASummary{
			NumComponents:     numPCs,
			NumSamples:        nSamples,
			NumVariables:      nVars,
			ScalingMethod:     scaling,
			VarianceExplained: cumulative,
		},
	}, nil
}

// scaleColumns centers every column and applies the requested variance
// scaling: auto divides by the standard deviation, pareto by its square
// root, mean only centers. NaN cells are imputed with the column mean.
func scaleColumns(data [][]float64, scaling string) [][]float64 {
	nSamples := len(data)
	nVars := len(data[0])
	out := make([][]float64, nSamples)
	for i := range out {
		out[i] = make([]float64, nVars)
	}

	for v := 0; v < nVars; v++ {
		clean := columnClean(data, v)
		m := mean(clean)
		sd := sampleStd(clean)

		divisor := 1.0
		switch scaling {
		case ScalingAuto:
			if sd > 0 {
				divisor = sd
			}
		case ScalingPareto:
			if sd > 0 {
				divisor = math.Sqrt(sd)
			}
		}

		for i := 0; i < nSamples; i++ {
			x := data[i][v]
			if math.IsNaN(x) {
				x = m
			}
			out[i][v] = (x - m) / divisor
		}
	}
	return out
}
