// Package registry manages versioned model packages on disk and enforces
// the approval gate that keeps unapproved models out of production traffic.
//
// Each version lives in its own directory under the registry root:
//
//	<root>/<version>/model.json     — the linear inference artifact
//	<root>/<version>/metadata.json  — version, approval flag, provenance
//	<root>/<version>/model_card.md  — human-readable model card (optional)
//
// The directory is the sole source of truth. Nothing here ever deletes an
// artifact; demotion just flips the approval flag back to false.
package registry

import "time"

// LinearModel is the inference artifact: a logistic model over named
// features.
type LinearModel struct {
	FeatureNames []string           `json:"feature_names"`
	Weights      map[string]float64 `json:"weights"`
	Intercept    float64            `json:"intercept"`
}

// Metadata is the governance state persisted alongside the artifact.
type Metadata struct {
	Version     string    `json:"version"`
	Approved    bool      `json:"approved"`
	CreatedAt   time.Time `json:"created_at"`
	TrainedRows int       `json:"trained_rows,omitempty"`
	Notes       string    `json:"notes,omitempty"`
}

// ModelPackage is a fully resolved model version. Approved always reflects
// the persisted flag, even when the approval requirement was waived at load
// time, so audit records reflect reality.
type ModelPackage struct {
	Version  string
	Approved bool
	Model    LinearModel
	Metadata Metadata
}

// Summary is the listing view of a registered version.
type Summary struct {
	Version     string    `json:"version"`
	Approved    bool      `json:"approved"`
	CreatedAt   time.Time `json:"created_at"`
	TrainedRows int       `json:"trained_rows,omitempty"`
	Notes       string    `json:"notes,omitempty"`
}
