// Command miecredit is the operations CLI: training, registry listing,
// model governance, ad-hoc scoring, and audit trail queries.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"miecredit/internal/audit"
	"miecredit/internal/decision"
	"miecredit/internal/modeling"
	"miecredit/internal/platform/config"
	"miecredit/internal/platform/logger"
	"miecredit/internal/platform/postgres"
	"miecredit/internal/registry"
	"miecredit/pkg/requestcontext"

	"github.com/google/uuid"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := config.Load()
	var err error
	switch os.Args[1] {
	case "train":
		err = runTrain(cfg, os.Args[2:])
	case "list-models":
		err = runListModels(cfg, os.Args[2:])
	case "approve-model":
		err = runApproveModel(cfg, os.Args[2:])
	case "show-model-card":
		err = runShowModelCard(cfg, os.Args[2:])
	case "score":
		err = runScore(cfg, os.Args[2:], true)
	case "explain":
		err = runScore(cfg, os.Args[2:], false)
	case "audit-events":
		err = runAuditEvents(cfg, os.Args[2:])
	case "audit-export":
		err = runAuditExport(cfg, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: miecredit <command> [flags]

commands:
  train            train a demo baseline model and register it unapproved
  list-models      list registered model versions
  approve-model    set or clear the approval flag on a version
  show-model-card  print a version's model card
  score            score an applicant with the active model
  explain          explain a score with the active model
  audit-events     list audit events from the primary store
  audit-export     export audit events to a JSONL file`)
}

func runTrain(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	out := fs.String("out", cfg.ModelRegistryDir, "model registry output directory")
	version := fs.String("version", "v0.1.0", "model version string")
	n := fs.Int("n", 8000, "number of synthetic rows")
	seed := fs.Int64("seed", 7, "random seed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	report, err := modeling.TrainBaseline(modeling.TrainConfig{
		Version:     *version,
		RegistryDir: *out,
		SynthRows:   *n,
		Seed:        *seed,
	})
	if err != nil {
		return err
	}
	return printJSON(report)
}

func runListModels(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("list-models", flag.ExitOnError)
	dir := fs.String("registry-dir", cfg.ModelRegistryDir, "registry directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	models, err := registry.ListModels(*dir)
	if err != nil {
		return err
	}
	if models == nil {
		models = []registry.Summary{}
	}
	return printJSON(models)
}

func runApproveModel(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("approve-model", flag.ExitOnError)
	dir := fs.String("registry-dir", cfg.ModelRegistryDir, "registry directory")
	approved := fs.Bool("approved", true, "set approved true/false")
	if err := fs.Parse(args); err != nil {
		return err
	}
	version := fs.Arg(0)
	if version == "" {
		return fmt.Errorf("approve-model requires a version argument")
	}

	if err := registry.Approve(*dir, version, *approved); err != nil {
		return err
	}
	return printJSON(map[string]any{
		"version":      version,
		"approved":     *approved,
		"registry_dir": *dir,
	})
}

func runShowModelCard(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("show-model-card", flag.ExitOnError)
	dir := fs.String("registry-dir", cfg.ModelRegistryDir, "registry directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	version := fs.Arg(0)
	if version == "" {
		return fmt.Errorf("show-model-card requires a version argument")
	}

	card, err := registry.ReadModelCard(*dir, version)
	if err != nil {
		return err
	}
	fmt.Println(card)
	return nil
}

// runScore serves both score and explain; they differ only in which half of
// the result is printed.
func runScore(cfg config.Config, args []string, withDecision bool) error {
	name := "explain"
	if withDecision {
		name = "score"
	}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	applicantID := fs.String("applicant-id", "", "applicant identifier")
	featuresJSON := fs.String("features-json", "", "features as a JSON string")
	featuresPath := fs.String("features-path", "", "path to a JSON file of features")
	threshold := fs.Float64("threshold", cfg.ApprovalThreshold, "approval threshold")
	dir := fs.String("registry-dir", cfg.ModelRegistryDir, "registry directory")
	version := fs.String("version", cfg.ModelVersion, "model version")
	requireApproval := fs.Bool("require-approval", cfg.RequireApproval(), "require model approval")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *applicantID == "" {
		return fmt.Errorf("%s requires --applicant-id", name)
	}

	features, err := loadFeatures(*featuresJSON, *featuresPath)
	if err != nil {
		return err
	}

	pkg, err := registry.LoadApproved(*dir, *version, *requireApproval)
	if err != nil {
		return err
	}

	// CLI scoring records audit events the same way the API does; a local
	// request id stands in for the HTTP one.
	recorder, closeStore, err := buildRecorder(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	svc := decision.NewService(pkg, recorder, decision.Config{
		ApprovalThreshold: *threshold,
		LogRequestBodies:  cfg.AuditLogRequestBodies,
	}, logger.New(), nil)

	ctx := requestcontext.WithRequestID(context.Background(), "cli-"+uuid.NewString())
	req := decision.ScoreRequest{ApplicantID: *applicantID, Features: features}

	if withDecision {
		result, err := svc.Score(ctx, req)
		if err != nil {
			return err
		}
		return printJSON(map[string]any{
			"applicant_id":  *applicantID,
			"model_version": result.ModelVersion,
			"score":         result.Score,
			"decision":      result.Decision,
			"reason_codes":  result.ReasonCodes,
			"audit_id":      result.AuditID,
		})
	}

	result, err := svc.Explain(ctx, req)
	if err != nil {
		return err
	}
	return printJSON(map[string]any{
		"applicant_id":  *applicantID,
		"model_version": result.ModelVersion,
		"score":         result.Score,
		"base_value":    result.BaseValue,
		"contributions": result.Contributions,
	})
}

func loadFeatures(featuresJSON, featuresPath string) (map[string]float64, error) {
	if featuresJSON == "" && featuresPath == "" {
		return nil, fmt.Errorf("provide either --features-json or --features-path")
	}
	if featuresJSON != "" && featuresPath != "" {
		return nil, fmt.Errorf("provide only one of --features-json or --features-path")
	}

	raw := []byte(featuresJSON)
	if featuresPath != "" {
		var err error
		raw, err = os.ReadFile(featuresPath)
		if err != nil {
			return nil, fmt.Errorf("read features file: %w", err)
		}
	}

	var features map[string]float64
	if err := json.Unmarshal(raw, &features); err != nil {
		return nil, fmt.Errorf("features must be a JSON object of numbers: %w", err)
	}
	return features, nil
}

func runAuditEvents(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("audit-events", flag.ExitOnError)
	limit := fs.Int("limit", 50, "max events to return (<=1000)")
	offset := fs.Int("offset", 0, "pagination offset")
	parseFilter := filterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	f := parseFilter()
	f.Limit = *limit
	f.Offset = *offset

	recorder, closeStore, err := buildRecorder(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := context.Background()
	total, err := recorder.Count(ctx, f)
	if err != nil {
		return err
	}
	events, err := recorder.Query(ctx, f)
	if err != nil {
		return err
	}
	if events == nil {
		events = []audit.StoredEvent{}
	}
	return printJSON(map[string]any{
		"total":  total,
		"limit":  f.ClampedLimit(),
		"offset": f.ClampedOffset(),
		"events": events,
	})
}

func runAuditExport(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("audit-export", flag.ExitOnError)
	batch := fs.Int("batch-size", audit.DefaultExportBatchSize, "rows fetched per query")
	parseFilter := filterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	outPath := fs.Arg(0)
	if outPath == "" {
		return fmt.Errorf("audit-export requires an output JSONL path argument")
	}

	recorder, closeStore, err := buildRecorder(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer out.Close()

	written, err := recorder.Export(context.Background(), parseFilter(), out, *batch)
	if err != nil {
		return err
	}
	return printJSON(map[string]any{
		"out_path":     outPath,
		"rows_written": written,
	})
}

// filterFlags registers the shared audit filter flags and returns a closure
// that materializes the Filter after parsing.
func filterFlags(fs *flag.FlagSet) func() audit.Filter {
	sinceTS := fs.Float64("since-ts", 0, "filter: ts >= since-ts")
	untilTS := fs.Float64("until-ts", 0, "filter: ts <= until-ts")
	requestID := fs.String("request-id", "", "filter by request id")
	eventType := fs.String("event-type", "", "filter by event type")
	applicantID := fs.String("applicant-id", "", "filter by applicant id")
	modelVersion := fs.String("model-version", "", "filter by model version")

	return func() audit.Filter {
		f := audit.Filter{
			RequestID:    *requestID,
			EventType:    *eventType,
			SubjectID:    *applicantID,
			ModelVersion: *modelVersion,
		}
		fs.Visit(func(fl *flag.Flag) {
			switch fl.Name {
			case "since-ts":
				f.SinceTS = sinceTS
			case "until-ts":
				f.UntilTS = untilTS
			}
		})
		return f
	}
}

// buildRecorder opens the primary audit store for CLI use. Audit queries
// need the shared Postgres store; without one the CLI can still write (e.g.
// dev scoring) to a process-local memory store, but reads would always be
// empty, so a missing database is only rejected lazily by the commands that
// query.
func buildRecorder(cfg config.Config) (*audit.Recorder, func(), error) {
	log := logger.New()
	redactor := audit.NewRedactorFromConfig(cfg)

	if cfg.DatabaseURL == "" {
		return audit.NewRecorder(audit.NewInMemoryStore(), redactor, log, nil), func() {}, nil
	}

	ctx := context.Background()
	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return audit.NewRecorder(audit.NewPostgresStore(db), redactor, log, nil), closer(db), nil
}

func closer(db *sql.DB) func() {
	return func() { _ = db.Close() }
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
