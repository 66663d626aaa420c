package modeling

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	dErrors "miecredit/pkg/domain-errors"
	"miecredit/internal/registry"
)

// TrainConfig parameterizes the demo training run.
type TrainConfig struct {
	Version      string
	RegistryDir  string
	SynthRows    int
	Seed         int64
	Epochs       int
	LearningRate float64
	Notes        string
}

// TrainReport summarizes a completed training run.
type TrainReport struct {
	Version     string  `json:"version"`
	RegistryDir string  `json:"registry_dir"`
	TrainedRows int     `json:"trained_rows"`
	Accuracy    float64 `json:"train_accuracy"`
	Approved    bool    `json:"approved"`
}

// TrainBaseline fits a logistic model on synthetic applicant rows and writes
// an unapproved package to the registry. Approval is a separate, deliberate
// step; training never produces a servable model on its own.
func TrainBaseline(cfg TrainConfig) (TrainReport, error) {
	if cfg.Version == "" || cfg.RegistryDir == "" {
		return TrainReport{}, dErrors.New(dErrors.CodeBadRequest, "training requires a version and registry dir")
	}
	if cfg.SynthRows <= 0 {
		cfg.SynthRows = 8000
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = 300
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = 0.1
	}

	names := FeatureNames()
	rows, labels := synthesizeApplicants(cfg.SynthRows, cfg.Seed)
	weights, intercept := fitLogistic(rows, labels, len(names), cfg.Epochs, cfg.LearningRate)

	weightsByName := make(map[string]float64, len(names))
	for i, name := range names {
		weightsByName[name] = weights[i]
	}
	model := registry.LinearModel{
		FeatureNames: names,
		Weights:      weightsByName,
		Intercept:    intercept,
	}

	accuracy := trainAccuracy(rows, labels, weights, intercept)
	meta := registry.Metadata{
		Version:     cfg.Version,
		Approved:    false,
		CreatedAt:   time.Now().UTC(),
		TrainedRows: cfg.SynthRows,
		Notes:       cfg.Notes,
	}
	card := renderModelCard(cfg, model, accuracy)
	pkg := registry.ModelPackage{Version: cfg.Version, Approved: false, Model: model, Metadata: meta}
	if err := registry.SavePackage(cfg.RegistryDir, pkg, card); err != nil {
		return TrainReport{}, err
	}

	return TrainReport{
		Version:     cfg.Version,
		RegistryDir: cfg.RegistryDir,
		TrainedRows: cfg.SynthRows,
		Accuracy:    accuracy,
		Approved:    false,
	}, nil
}

// synthesizeApplicants generates feature rows in canonical feature order plus
// a binary repayment label. The generator is deterministic for a given seed
// and deliberately encodes the direction each feature should push: on-time
// payment ratios and stable income help, volatility and overdrafts hurt.
func synthesizeApplicants(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	rows := make([][]float64, n)
	labels := make([]int, n)

	for i := 0; i < n; i++ {
		rentOnTime := clamp(rng.NormFloat64()*0.15+0.85, 0, 1)
		utilOnTime := clamp(rng.NormFloat64()*0.18+0.8, 0, 1)
		volatility := clamp(math.Abs(rng.NormFloat64())*0.8, 0, 5)
		stability := clamp(rng.NormFloat64()*0.2+0.7, 0, 1)
		netInflow := clamp(rng.NormFloat64()*1500+2500, -10000, 100000)
		balance := clamp(rng.NormFloat64()*3000+4000, -5000, 100000)
		overdrafts := float64(rng.Intn(8))
		tenure := float64(1 + rng.Intn(240))

		rows[i] = []float64{rentOnTime, utilOnTime, volatility, stability, netInflow, balance, overdrafts, tenure}

		signal := 2.2*rentOnTime + 1.5*utilOnTime - 1.1*volatility + 1.8*stability +
			0.0004*netInflow + 0.0002*balance - 0.45*overdrafts + 0.004*tenure - 3.0
		p := 1.0 / (1.0 + math.Exp(-signal))
		if rng.Float64() < p {
			labels[i] = 1
		}
	}
	return rows, labels
}

// fitLogistic runs full-batch gradient descent on standardized inputs and
// folds the standardization back into raw-feature weights so the artifact
// serves unscaled feature vectors directly.
func fitLogistic(rows [][]float64, labels []int, dim, epochs int, lr float64) ([]float64, float64) {
	n := len(rows)
	means := make([]float64, dim)
	stds := make([]float64, dim)
	for j := 0; j < dim; j++ {
		var sum float64
		for i := 0; i < n; i++ {
			sum += rows[i][j]
		}
		means[j] = sum / float64(n)
		var sq float64
		for i := 0; i < n; i++ {
			d := rows[i][j] - means[j]
			sq += d * d
		}
		stds[j] = math.Sqrt(sq / float64(n))
		if stds[j] == 0 {
			stds[j] = 1
		}
	}

	scaled := make([][]float64, n)
	for i := 0; i < n; i++ {
		scaled[i] = make([]float64, dim)
		for j := 0; j < dim; j++ {
			scaled[i][j] = (rows[i][j] - means[j]) / stds[j]
		}
	}

	weights := make([]float64, dim)
	var bias float64
	grad := make([]float64, dim)
	for epoch := 0; epoch < epochs; epoch++ {
		for j := range grad {
			grad[j] = 0
		}
		var gradBias float64
		for i := 0; i < n; i++ {
			z := bias
			for j := 0; j < dim; j++ {
				z += weights[j] * scaled[i][j]
			}
			residual := sigmoid(z) - float64(labels[i])
			for j := 0; j < dim; j++ {
				grad[j] += residual * scaled[i][j]
			}
			gradBias += residual
		}
		for j := 0; j < dim; j++ {
			weights[j] -= lr * grad[j] / float64(n)
		}
		bias -= lr * gradBias / float64(n)
	}

	// Unfold standardization: w_raw = w/std, b_raw = b - sum(w*mean/std).
	rawWeights := make([]float64, dim)
	rawBias := bias
	for j := 0; j < dim; j++ {
		rawWeights[j] = weights[j] / stds[j]
		rawBias -= weights[j] * means[j] / stds[j]
	}
	return rawWeights, rawBias
}

func trainAccuracy(rows [][]float64, labels []int, weights []float64, intercept float64) float64 {
	if len(rows) == 0 {
		return 0
	}
	correct := 0
	for i, row := range rows {
		z := intercept
		for j, w := range weights {
			z += w * row[j]
		}
		pred := 0
		if sigmoid(z) >= 0.5 {
			pred = 1
		}
		if pred == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(rows))
}

func renderModelCard(cfg TrainConfig, model registry.LinearModel, accuracy float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Model Card: %s\n\n", cfg.Version)
	b.WriteString("Baseline logistic regression over interpretable alternative-data features.\n")
	b.WriteString("Trained on synthetic data for demonstration; not fit for production lending decisions.\n\n")
	fmt.Fprintf(&b, "- Trained rows (synthetic): %d\n", cfg.SynthRows)
	fmt.Fprintf(&b, "- Seed: %d\n", cfg.Seed)
	fmt.Fprintf(&b, "- Train accuracy: %.4f\n", accuracy)
	b.WriteString("- Protected-class attributes: excluded from features by construction\n\n")
	b.WriteString("## Features and weights\n\n")
	for _, name := range model.FeatureNames {
		fmt.Fprintf(&b, "- `%s`: %.6f\n", name, model.Weights[name])
	}
	fmt.Fprintf(&b, "- intercept: %.6f\n", model.Intercept)
	b.WriteString("\n## Governance\n\nThis package is written unapproved. Approve explicitly before serving traffic.\n")
	return b.String()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
