package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// Small numeric helpers shared by the ANOVA and PCA analyzers. All of
// them ignore NaN-free input assumptions; callers strip NaNs first.

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// sampleStd is the ddof=1 standard deviation; zero for fewer than two
// values.
func sampleStd(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	ss := 0.0
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

func minMax(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	lo, hi := xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return lo, hi
}

// percentile computes the q-th percentile (0..100) with linear
// interpolation between closest ranks.
func percentile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	rank := q / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// oneWayF computes the one-way ANOVA F statistic and p-value across
// groups. Returns F=0, p=1 when the test is undefined (fewer than two
// groups, or no within-group variance degrees of freedom).
func oneWayF(groups [][]float64) (fStat, pValue float64) {
	k := len(groups)
	total := 0
	var all []float64
	for _, g := range groups {
		total += len(g)
		all = append(all, g...)
	}
	if k < 2 || total <= k {
		return 0, 1
	}

	grand := mean(all)
	ssBetween := 0.0
	ssWithin := 0.0
	for _, g := range groups {
		gm := mean(g)
		d := gm - grand
		ssBetween += float64(len(g)) * d * d
		for _, x := range g {
			e := x - gm
			ssWithin += e * e
		}
	}

	dfBetween := float64(k - 1)
	dfWithin := float64(total - k)
	if ssWithin == 0 {
		if ssBetween == 0 {
			return 0, 1
		}
		return math.Inf(1), 0
	}

	f := (ssBetween / dfBetween) / (ssWithin / dfWithin)
	dist := distuv.F{D1: dfBetween, D2: dfWithin}
	p := dist.Survival(f)
	if math.IsNaN(p) {
		return 0, 1
	}
	return f, p
}

// twoSampleT computes the pooled-variance two-sample t test.
func twoSampleT(a, b []float64) (tStat, pValue float64, ok bool) {
	n1, n2 := len(a), len(b)
	if n1 < 2 || n2 < 2 {
		return 0, 1, false
	}
	m1, m2 := mean(a), mean(b)
	s1, s2 := sampleStd(a), sampleStd(b)
	df := float64(n1 + n2 - 2)
	pooled := (float64(n1-1)*s1*s1 + float64(n2-1)*s2*s2) / df
	se := math.Sqrt(pooled * (1/float64(n1) + 1/float64(n2)))
	if se == 0 {
		if m1 == m2 {
			return 0, 1, true
		}
		return math.Inf(1), 0, true
	}
	t := (m1 - m2) / se
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * dist.Survival(math.Abs(t))
	if p > 1 {
		p = 1
	}
	if math.IsNaN(p) {
		return 0, 1, true
	}
	return t, p, true
}

// benjaminiHochberg returns the BH step-up adjusted p-values and the
// rejection mask at the given alpha.
func benjaminiHochberg(pValues []float64, alpha float64) (adjusted []float64, reject []bool) {
	m := len(pValues)
	adjusted = make([]float64, m)
	reject = make([]bool, m)
	if m == 0 {
		return adjusted, reject
	}

	order := make([]int, m)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return pValues[order[i]] < pValues[order[j]]
	})

	// Adjusted p in sorted order, with the cumulative-minimum pass from
	// the largest rank down to enforce monotonicity.
	sortedAdj := make([]float64, m)
	for rank, idx := range order {
		sortedAdj[rank] = pValues[idx] * float64(m) / float64(rank+1)
	}
	for rank := m - 2; rank >= 0; rank-- {
		if sortedAdj[rank] > sortedAdj[rank+1] {
			sortedAdj[rank] = sortedAdj[rank+1]
		}
	}
	for rank, idx := range order {
		adj := sortedAdj[rank]
		if adj > 1 {
			adj = 1
		}
		adjusted[idx] = adj
	}

	// Step-up rejection: everything up to the largest rank whose raw p
	// clears its BH boundary.
	cutoff := -1
	for rank, idx := range order {
		if pValues[idx] <= float64(rank+1)/float64(m)*alpha {
			cutoff = rank
		}
	}
	for rank := 0; rank <= cutoff; rank++ {
		reject[order[rank]] = true
	}
	return adjusted, reject
}
