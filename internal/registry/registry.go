package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	dErrors "miecredit/pkg/domain-errors"
)

const (
	modelFile    = "model.json"
	metadataFile = "metadata.json"
	cardFile     = "model_card.md"
)

// ListModels scans the registry root and returns a summary per registered
// version, sorted by version string. Malformed entries are skipped; a
// single bad directory never fails the whole scan. A missing root is an
// empty registry, not an error.
func ListModels(root string) ([]Summary, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, dErrors.Wrap(dErrors.CodeStorage, "read model registry", err)
	}

	var summaries []Summary
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := readMetadata(root, entry.Name())
		if err != nil {
			continue
		}
		summaries = append(summaries, Summary{
			Version:     meta.Version,
			Approved:    meta.Approved,
			CreatedAt:   meta.CreatedAt,
			TrainedRows: meta.TrainedRows,
			Notes:       meta.Notes,
		})
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Version < summaries[j].Version })
	return summaries, nil
}

// Approve persists the approval flag for a version. Idempotent: setting the
// flag to its current value rewrites the same state. The artifact itself is
// never touched.
func Approve(root, version string, approved bool) error {
	meta, err := readMetadata(root, version)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeNotFound, fmt.Sprintf("no model version %q in registry", version), err)
	}

	meta.Approved = approved
	if meta.Version == "" {
		meta.Version = version
	}
	return writeMetadata(root, version, meta)
}

// LoadApproved resolves the artifact for a version. With requireApproval
// set, an existing but unapproved version fails with a governance error —
// distinct from not-found so callers can tell "no such model" from "exists
// but not cleared for use". Without it the package still loads, carrying
// its true approval state.
func LoadApproved(root, version string, requireApproval bool) (*ModelPackage, error) {
	meta, err := readMetadata(root, version)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeNotFound, fmt.Sprintf("no model version %q in registry", version), err)
	}

	if requireApproval && !meta.Approved {
		return nil, dErrors.New(dErrors.CodeGovernance,
			fmt.Sprintf("model version %q is not approved for use", version))
	}

	raw, err := os.ReadFile(filepath.Join(root, version, modelFile))
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeNotFound, fmt.Sprintf("model artifact missing for version %q", version), err)
	}
	var model LinearModel
	if err := json.Unmarshal(raw, &model); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeStorage, fmt.Sprintf("corrupt model artifact for version %q", version), err)
	}

	return &ModelPackage{
		Version:  meta.Version,
		Approved: meta.Approved,
		Model:    model,
		Metadata: meta,
	}, nil
}

// SavePackage writes a new model package into the registry. Existing
// artifacts are never overwritten: a version directory can only be written
// once.
func SavePackage(root string, pkg ModelPackage, card string) error {
	dir := filepath.Join(root, pkg.Version)
	if _, err := os.Stat(filepath.Join(dir, modelFile)); err == nil {
		return dErrors.New(dErrors.CodeBadRequest,
			fmt.Sprintf("model version %q already exists in registry", pkg.Version))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return dErrors.Wrap(dErrors.CodeStorage, "create model version dir", err)
	}

	modelRaw, err := json.MarshalIndent(pkg.Model, "", "  ")
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "serialize model artifact", err)
	}
	if err := os.WriteFile(filepath.Join(dir, modelFile), modelRaw, 0o644); err != nil {
		return dErrors.Wrap(dErrors.CodeStorage, "write model artifact", err)
	}

	if err := writeMetadata(root, pkg.Version, pkg.Metadata); err != nil {
		return err
	}

	if card != "" {
		if err := os.WriteFile(filepath.Join(dir, cardFile), []byte(card), 0o644); err != nil {
			return dErrors.Wrap(dErrors.CodeStorage, "write model card", err)
		}
	}
	return nil
}

// ReadModelCard returns the model card text for a version.
func ReadModelCard(root, version string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(root, version, cardFile))
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeNotFound,
			fmt.Sprintf("no model card for version %q", version), err)
	}
	return string(raw), nil
}

func readMetadata(root, version string) (Metadata, error) {
	raw, err := os.ReadFile(filepath.Join(root, version, metadataFile))
	if err != nil {
		return Metadata{}, err
	}
	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return Metadata{}, err
	}
	return meta, nil
}

func writeMetadata(root, version string, meta Metadata) error {
	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "serialize model metadata", err)
	}
	if err := os.WriteFile(filepath.Join(root, version, metadataFile), raw, 0o644); err != nil {
		return dErrors.Wrap(dErrors.CodeStorage, "write model metadata", err)
	}
	return nil
}
