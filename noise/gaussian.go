package noise

import (
	"fmt"

	"github.com/milosgajdos/go-geoloc/measure"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// Gaussian is a jointly Gaussian TDOA and FDOA measurement noise.
// Its samples are two dimensional: the first element perturbs TDOA,
// the second one perturbs FDOA.
type Gaussian struct {
	// dist is a multivariate normal distribution
	dist *distmv.Normal
	// mean is Gaussian mean
	mean []float64
	// cov is Gaussian covariance
	cov *mat.SymDense
	// seed seeds the random source
	seed uint64
}

// NewGaussian creates new Gaussian noise with given mean and 2x2 covariance
// whose random source is seeded with seed.
// It returns error if mean or cov have wrong dimensions, if either
// variance is not strictly positive or if cov is not positive definite.
func NewGaussian(mean []float64, cov mat.Symmetric, seed uint64) (*Gaussian, error) {
	if len(mean) != 2 {
		return nil, fmt.Errorf("invalid noise mean dimension: %d", len(mean))
	}

	if cov == nil || cov.SymmetricDim() != 2 {
		return nil, fmt.Errorf("invalid noise covariance")
	}

	if !(cov.At(0, 0) > 0) || !(cov.At(1, 1) > 0) {
		return nil, fmt.Errorf("noise variances must be positive: %g, %g", cov.At(0, 0), cov.At(1, 1))
	}

	m := make([]float64, len(mean))
	copy(m, mean)

	c := mat.NewSymDense(cov.SymmetricDim(), nil)
	c.CopySym(cov)

	dist, ok := newGaussianDist(m, c, seed)
	if !ok {
		return nil, fmt.Errorf("failed to create new Gaussian noise")
	}

	return &Gaussian{
		dist: dist,
		mean: m,
		cov:  c,
		seed: seed,
	}, nil
}

// NewIndependent creates zero-mean Gaussian noise with uncorrelated TDOA and FDOA
// errors with standard deviations tdoaStd (seconds) and fdoaStd (Hz).
func NewIndependent(tdoaStd, fdoaStd float64, seed uint64) (*Gaussian, error) {
	cov := mat.NewSymDense(2, []float64{tdoaStd * tdoaStd, 0, 0, fdoaStd * fdoaStd})
	return NewGaussian([]float64{0, 0}, cov, seed)
}

// Sample generates a sample from Gaussian noise and returns it.
func (g *Gaussian) Sample() mat.Vector {
	r := g.dist.Rand(nil)
	return mat.NewVecDense(len(r), r)
}

// Perturb adds a noise sample to every record and sets record variances
// to the noise variances. The input records are not modified.
func (g *Gaussian) Perturb(records []measure.Record) []measure.Record {
	out := make([]measure.Record, len(records))
	for i, r := range records {
		s := g.dist.Rand(nil)
		r.TDOA += s[0]
		r.FDOA += s[1]
		r.TDOAVar = g.cov.At(0, 0)
		r.FDOAVar = g.cov.At(1, 1)
		out[i] = r
	}

	return out
}

// Cov returns covariance matrix of Gaussian noise.
func (g *Gaussian) Cov() mat.Symmetric {
	cov := mat.NewSymDense(g.cov.SymmetricDim(), nil)
	cov.CopySym(g.cov)

	return cov
}

// Mean returns Gaussian mean.
func (g *Gaussian) Mean() []float64 {
	mean := make([]float64, len(g.mean))
	copy(mean, g.mean)

	return mean
}

// Reset reseeds Gaussian noise with its original seed so it replays the same samples.
// It returns error if it fails to reset the noise.
func (g *Gaussian) Reset() error {
	dist, ok := newGaussianDist(g.mean, g.cov, g.seed)
	if !ok {
		return fmt.Errorf("failed to reset Gaussian noise")
	}
	g.dist = dist

	return nil
}

func newGaussianDist(mean []float64, cov mat.Symmetric, seed uint64) (*distmv.Normal, bool) {
	src := rand.NewSource(seed)
	return distmv.NewNormal(mean, cov, src)
}

// String implements the Stringer interface.
func (g *Gaussian) String() string {
	return fmt.Sprintf("Gaussian{\nMean=%v\nCov=%v\n}", g.mean, mat.Formatted(g.cov, mat.Prefix("    "), mat.Squeeze()))
}
