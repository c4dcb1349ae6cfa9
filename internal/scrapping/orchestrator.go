package scrapping

import (
	"context"
	"fmt"
	"strings"

	"github.com/valkhart/grimoire-backend/internal/platform/logger"
)

// Pipeline stages, reported on both success and failure so callers can tell
// how far an import got.
const (
	StageFetch     = "fetch"
	StageConvert   = "convert"
	StageValidate  = "validate"
	StageIntegrate = "integrate"
	StageDone      = "done"
)

type RunOptions struct {
	Validate    bool
	Integrate   bool
	DryRun      bool
	ForceUpdate bool
	WithImages  bool
	Lang        string
	NoCache     bool
}

// RunResult is the outcome of one record's trip through the pipeline.
type RunResult struct {
	Success          bool               `json:"success"`
	Message          string             `json:"message,omitempty"`
	Stage            string             `json:"stage"`
	Converted        *ConvertedEntity   `json:"converted,omitempty"`
	Integration      *IntegrationResult `json:"integration,omitempty"`
	ValidationErrors []string           `json:"validation_errors,omitempty"`
}

// BatchRef identifies one record inside a batch summary.
type BatchRef struct {
	DofusdbID string `json:"dofusdb_id"`
	Name      string `json:"name,omitempty"`
	Action    string `json:"action,omitempty"`
	Error     string `json:"error,omitempty"`
}

type BatchSummary struct {
	Total     int `json:"total"`
	Succeeded int `json:"success"`
	Failed    int `json:"errors"`
	Skipped   int `json:"skipped"`
}

// BatchResult reports one batch run. Success is true only when no item failed;
// skips do not count against it.
type BatchResult struct {
	Success bool         `json:"success"`
	Summary BatchSummary `json:"summary"`
	Results []BatchRef   `json:"results"`
}

// Orchestrator drives fetch, convert, validate and integrate for one source.
type Orchestrator struct {
	log        *logger.Logger
	source     *Source
	collector  *Collector
	converter  *Converter
	integrator *Integrator
}

func NewOrchestrator(log *logger.Logger, source *Source, collector *Collector, converter *Converter, integrator *Integrator) *Orchestrator {
	return &Orchestrator{
		log:        log.With("component", "Orchestrator"),
		source:     source,
		collector:  collector,
		converter:  converter,
		integrator: integrator,
	}
}

func (o *Orchestrator) EntityNames() []string {
	return o.source.EntityNames()
}

// RunOne imports a single record by external id. Stage errors come back in the
// result rather than as a bare error so batch callers can keep going.
func (o *Orchestrator) RunOne(ctx context.Context, entity, externalID string, opts RunOptions) (*RunResult, error) {
	cfg, ok := o.source.Entity(entity)
	if !ok {
		return nil, fmt.Errorf("unknown entity %q", entity)
	}

	raw, err := o.collector.FetchOne(ctx, cfg, externalID, CollectOptions{Lang: opts.Lang, NoCache: opts.NoCache})
	if err != nil {
		return &RunResult{Stage: StageFetch, Message: err.Error()}, err
	}
	return o.runRecord(ctx, cfg, raw, opts)
}

// RunBatch collects matching records and runs each through the pipeline.
// One bad record never aborts the batch; failures are tallied and reported.
func (o *Orchestrator) RunBatch(ctx context.Context, entity string, filters map[string][]string, collectOpts CollectOptions, opts RunOptions) (*BatchResult, error) {
	cfg, ok := o.source.Entity(entity)
	if !ok {
		return nil, fmt.Errorf("unknown entity %q", entity)
	}

	collectOpts.Lang = opts.Lang
	collectOpts.NoCache = opts.NoCache
	collection, err := o.collector.Collect(ctx, cfg, filters, collectOpts)
	if err != nil {
		return nil, err
	}

	out := &BatchResult{Summary: BatchSummary{Total: len(collection.Items)}}
	for _, raw := range collection.Items {
		ref := BatchRef{}
		if id, ok := raw.ID(); ok {
			ref.DofusdbID = fmt.Sprintf("%d", id)
		}

		res, runErr := o.runRecord(ctx, cfg, raw, opts)
		if res != nil && res.Converted != nil {
			ref.Name = res.Converted.Name
			if ref.DofusdbID == "" {
				ref.DofusdbID = res.Converted.DofusdbID
			}
		}
		switch {
		case runErr != nil || (res != nil && !res.Success):
			out.Summary.Failed++
			if runErr != nil {
				ref.Error = runErr.Error()
			} else {
				ref.Error = res.Message
			}
			o.log.Warn("batch record failed", "entity", entity, "dofusdb_id", ref.DofusdbID, "error", ref.Error)
		case res.Integration != nil && (res.Integration.Action == ActionSkipped || res.Integration.Action == ActionWouldSkip):
			out.Summary.Skipped++
			ref.Action = res.Integration.Action
		default:
			out.Summary.Succeeded++
			if res.Integration != nil {
				ref.Action = res.Integration.Action
			}
		}
		out.Results = append(out.Results, ref)
	}
	out.Success = out.Summary.Failed == 0
	return out, nil
}

func (o *Orchestrator) runRecord(ctx context.Context, cfg EntityConfig, raw RawRecord, opts RunOptions) (*RunResult, error) {
	conv, err := o.converter.Convert(ctx, raw, cfg, opts.Lang)
	if err != nil {
		return &RunResult{Stage: StageConvert, Message: err.Error()}, err
	}

	result := &RunResult{Stage: StageConvert, Converted: conv, Success: true}

	if opts.Validate {
		result.Stage = StageValidate
		if errs := validateConverted(conv); len(errs) > 0 {
			result.Success = false
			result.ValidationErrors = errs
			result.Message = "validation failed"
			return result, fmt.Errorf("validation failed for %s/%s", conv.Category, conv.DofusdbID)
		}
	}

	if opts.Integrate {
		result.Stage = StageIntegrate
		integration, err := o.integrator.Integrate(ctx, conv, IntegrateOptions{
			DryRun:      opts.DryRun,
			ForceUpdate: opts.ForceUpdate,
			WithImages:  opts.WithImages,
		})
		if err != nil {
			result.Success = false
			result.Message = err.Error()
			return result, err
		}
		result.Integration = integration
	}

	result.Stage = StageDone
	return result, nil
}

// validateConverted checks the storage-critical fields before any write.
func validateConverted(conv *ConvertedEntity) []string {
	var errs []string
	if strings.TrimSpace(conv.Name) == "" {
		errs = append(errs, "name is required")
	}
	if conv.DofusdbID == "" {
		errs = append(errs, "dofusdb_id is required")
	}
	if conv.Category == "" {
		errs = append(errs, "category is required")
	}
	if conv.Level < 0 {
		errs = append(errs, "level must not be negative")
	}
	if conv.Price < 0 {
		errs = append(errs, "price must not be negative")
	}
	for i, ref := range conv.Recipe {
		if ref.Quantity <= 0 {
			errs = append(errs, fmt.Sprintf("recipe line %d: quantity must be positive", i))
		}
	}
	return errs
}
