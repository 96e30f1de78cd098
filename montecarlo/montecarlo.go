// Package montecarlo runs repeated geolocation solves over independently
// perturbed measurement records and compares the empirical spread of the
// estimates with the covariance reported by the solver.
package montecarlo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"runtime"
	"sync"

	geoloc "github.com/milosgajdos/go-geoloc"
	"github.com/milosgajdos/go-geoloc/matrix"
	"github.com/milosgajdos/go-geoloc/measure"
	"github.com/milosgajdos/go-geoloc/noise"
	"github.com/milosgajdos/go-geoloc/solver"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

// Config is Monte Carlo run configuration
type Config struct {
	// Trials is the number of noisy solves
	Trials int
	// Workers is the number of concurrent solves; 0 means GOMAXPROCS
	Workers int
	// Seed seeds the noise of the first trial; trial i uses Seed+i
	Seed uint64
	// TDOAStd is TDOA noise standard deviation in seconds
	TDOAStd float64
	// FDOAStd is FDOA noise standard deviation in Hz
	FDOAStd float64
	// Solver configures every solve
	Solver solver.Config
	// Logger logs run summary; nil discards the logs
	Logger *slog.Logger
}

// Trial is the outcome of a single noisy solve
type Trial struct {
	// Seed is the noise seed of the trial
	Seed uint64
	// Result is the solver result; nil if Err is set
	Result *solver.Result
	// Err is the error returned by the solver
	Err error
}

// Summary aggregates trial outcomes
type Summary struct {
	// Trials stores outcomes of all trials in trial order
	Trials []Trial
	// Status counts trials by terminal solver status
	Status map[solver.Status]int
	// Failed is the number of trials which returned error
	Failed int
	// Mean is the mean of converged position estimates
	Mean r3.Vec
	// Bias is Mean minus the true emitter position
	Bias r3.Vec
	// RMSE is the root mean square position error of converged trials
	RMSE float64
	// Cov is the empirical covariance of converged position estimates
	Cov *mat.SymDense
	// Predicted is the mean position covariance reported by the solver
	Predicted *mat.SymDense
}

// Converged returns number of converged trials.
func (s *Summary) Converged() int {
	return s.Status[solver.Converged]
}

// Runner runs Monte Carlo trials
type Runner struct {
	c   Config
	s   *solver.Solver
	log *slog.Logger
}

// New creates new Monte Carlo runner with configuration c and returns it.
// It returns error wrapping geoloc.ErrConfig if c is invalid.
func New(c Config) (*Runner, error) {
	if c.Trials < 2 {
		return nil, fmt.Errorf("%w: need at least 2 trials, got %d", geoloc.ErrConfig, c.Trials)
	}

	if c.Workers < 0 {
		return nil, fmt.Errorf("%w: invalid worker count: %d", geoloc.ErrConfig, c.Workers)
	}

	if c.Workers == 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}

	if !(c.TDOAStd > 0) || !(c.FDOAStd > 0) || math.IsInf(c.TDOAStd, 0) || math.IsInf(c.FDOAStd, 0) {
		return nil, fmt.Errorf("%w: invalid noise: tdoa=%g fdoa=%g", geoloc.ErrConfig, c.TDOAStd, c.FDOAStd)
	}

	s, err := solver.New(c.Solver)
	if err != nil {
		return nil, err
	}

	log := c.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Runner{
		c:   c,
		s:   s,
		log: log,
	}, nil
}

// Run perturbs noiseless records with independent Gaussian noise in every
// trial and solves for the emitter from init. truth is the true emitter
// position used to compute bias and error statistics.
// It returns error if ctx is cancelled before all trials finish.
func (r *Runner) Run(ctx context.Context, records []measure.Record, receivers []geoloc.Trajectory, init geoloc.State, truth r3.Vec) (*Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("monte carlo run cancelled: %w", err)
	}

	trials := make([]Trial, r.c.Trials)

	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < r.c.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				trials[i] = r.trial(i, records, receivers, init)
			}
		}()
	}

	var err error
feed:
	for i := range trials {
		select {
		case jobs <- i:
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err != nil {
		return nil, fmt.Errorf("monte carlo run cancelled: %w", err)
	}

	sum := summarize(trials, truth)

	r.log.Info("monte carlo run finished",
		"trials", len(trials),
		"converged", sum.Converged(),
		"max_iterations", sum.Status[solver.MaxIterations],
		"singular", sum.Status[solver.Singular],
		"failed", sum.Failed,
		"rmse", sum.RMSE)

	return sum, nil
}

// trial runs a single noisy solve.
func (r *Runner) trial(i int, records []measure.Record, receivers []geoloc.Trajectory, init geoloc.State) Trial {
	seed := r.c.Seed + uint64(i)
	t := Trial{Seed: seed}

	n, err := noise.NewIndependent(r.c.TDOAStd, r.c.FDOAStd, seed)
	if err != nil {
		t.Err = err
		return t
	}

	t.Result, t.Err = r.s.Solve(n.Perturb(records), receivers, init)
	if t.Err != nil {
		r.log.Debug("trial failed", "trial", i, "err", t.Err)
	}

	return t
}

func summarize(trials []Trial, truth r3.Vec) *Summary {
	sum := &Summary{
		Trials: trials,
		Status: make(map[solver.Status]int),
		RMSE:   math.NaN(),
	}

	var conv []*solver.Result
	for _, t := range trials {
		if t.Err != nil {
			sum.Failed++
			continue
		}
		sum.Status[t.Result.Status]++
		if t.Result.Converged() {
			conv = append(conv, t.Result)
		}
	}

	if len(conv) < 2 {
		return sum
	}

	est := mat.NewDense(len(conv), 3, nil)
	predicted := mat.NewSymDense(3, nil)
	sse := 0.0

	for i, res := range conv {
		p := res.Position
		est.SetRow(i, []float64{p.X, p.Y, p.Z})
		predicted.AddSym(predicted, res.PositionCov())
		sse += r3.Norm2(r3.Sub(p, truth))
	}
	predicted.ScaleSym(1/float64(len(conv)), predicted)

	means := matrix.ColMeans(est)
	sum.Mean = r3.Vec{X: means[0], Y: means[1], Z: means[2]}
	sum.Bias = r3.Sub(sum.Mean, truth)
	sum.RMSE = math.Sqrt(sse / float64(len(conv)))

	sum.Cov = mat.NewSymDense(3, nil)
	stat.CovarianceMatrix(sum.Cov, est, nil)
	sum.Predicted = predicted

	return sum
}
