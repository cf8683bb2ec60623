package build

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/smithy-lang/smithy-model-core/internal/diag"
	"github.com/smithy-lang/smithy-model-core/internal/loader"
	"github.com/smithy-lang/smithy-model-core/internal/model"
	"github.com/smithy-lang/smithy-model-core/internal/prelude"
	"github.com/smithy-lang/smithy-model-core/internal/transform"
	"github.com/smithy-lang/smithy-model-core/internal/validate"
)

// Plugin writes artifacts for one projection's resulting model into a
// FileManifest.
type Plugin func(m *model.Model, settings json.RawMessage, manifest *FileManifest) error

// PluginRegistry maps plugin names (as used in a projection's "plugins"
// object) to their implementation.
type PluginRegistry struct {
	plugins map[string]Plugin
}

func NewPluginRegistry() *PluginRegistry {
	return &PluginRegistry{plugins: make(map[string]Plugin)}
}

func (r *PluginRegistry) Register(name string, p Plugin) {
	r.plugins[name] = p
}

// ProjectionResult is the outcome of running one projection: its model (nil
// when a transform failed, which aborts the projection before validation
// and plugins), the events produced transforming/validating it, and
// any plugin failures. One projection's plugin failing does not abort
// sibling projections.
type ProjectionResult struct {
	Name          string
	Model         *model.Model
	Events        []diag.Event
	PluginErrors  []error
}

// Result is the aggregate outcome of Run across every projection.
type Result struct {
	Success     bool
	Projections []ProjectionResult
	Events      []diag.Event
}

// Runner executes a Config end to end.
type Runner struct {
	Config   *Config
	Sources  []loader.Source
	Plugins  *PluginRegistry
	Log      *logrus.Logger
	RunID    string
}

// NewRunner builds a Runner tagged with a fresh run ID so every log line it
// emits, across every projection, can be correlated back to one build.Run
// invocation.
func NewRunner(cfg *Config, sources []loader.Source, plugins *PluginRegistry) *Runner {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	runID := uuid.New().String()
	return &Runner{Config: cfg, Sources: sources, Plugins: plugins, Log: log, RunID: runID}
}

// Run assembles the base model once; each projection starts from that
// shared base and builds/executes independently. Projection names
// referenced by a cycle of `apply`-triggered re-entrant projections are
// rejected up front.
func (r *Runner) Run() (*Result, error) {
	if err := detectProjectionCycles(r.Config.Projections); err != nil {
		return nil, err
	}

	asm := loader.New(prelude.NewRegistry())
	for _, src := range r.Sources {
		asm.AddSource(src.File, src.Data)
	}
	base := asm.Assemble()

	res := &Result{Success: true, Events: base.Events}
	if base.Model == nil {
		res.Success = false
		return res, nil
	}

	validators := validate.Default()
	transforms := transform.Default()

	names := sortedProjectionNames(r.Config.Projections)
	var merr *multierror.Error
	for _, name := range names {
		pc := r.Config.Projections[name]
		if pc.Abstract {
			continue
		}
		pr := r.runProjection(name, pc, r.Config.Projections, base.Model, validators, transforms)
		res.Projections = append(res.Projections, pr)
		res.Events = append(res.Events, pr.Events...)
		for _, e := range pr.Events {
			if e.Severity == diag.Error {
				res.Success = false
			}
		}
		for _, pe := range pr.PluginErrors {
			res.Success = false
			merr = multierror.Append(merr, fmt.Errorf("projection %s: %w", name, pe))
		}
	}
	res.Events = diag.Sorted(res.Events)
	if merr != nil {
		return res, merr.ErrorOrNil()
	}
	return res, nil
}

func (r *Runner) runProjection(name string, pc ProjectionConfig, allProjections map[string]ProjectionConfig, base *model.Model, validators *validate.Registry, transforms *transform.Registry) ProjectionResult {
	pr := ProjectionResult{Name: name}
	current := base
	var events []diag.Event

	flattened, err := expandTransforms(name, pc.Transforms, allProjections, nil)
	if err != nil {
		events = append(events, diag.Event{ID: "TRANSFORM_FAILURE", Severity: diag.Error, Message: err.Error()})
		pr.Events = diag.Sorted(events)
		return pr
	}

	for _, tc := range flattened {
		fn, ok := transforms.Get(tc.Name)
		if !ok {
			events = append(events, diag.Event{ID: "TRANSFORM_FAILURE", Severity: diag.Error,
				Message: fmt.Sprintf("projection %s: unknown transform %q", name, tc.Name)})
			pr.Events = diag.Sorted(events)
			return pr
		}
		next, err := fn(current, tc.Args)
		if err != nil {
			events = append(events, diag.Event{ID: "TRANSFORM_FAILURE", Severity: diag.Error,
				Message: fmt.Sprintf("projection %s: transform %q failed: %v", name, tc.Name, err)})
			pr.Events = diag.Sorted(events)
			return pr
		}
		current = next
	}
	validatorEvents := validators.Run(current)
	suppressed := validate.MetadataSuppressions(current)
	events = append(events, validate.ApplySuppressions(validatorEvents, suppressed, current)...)
	pr.Model = current
	pr.Events = diag.Sorted(events)

	outDir := filepath.Join(r.Config.OutputDirectory, name)
	manifest := NewFileManifest(outDir)
	for pluginName, settings := range pc.Plugins {
		plugin, ok := r.Plugins.plugins[pluginName]
		if !ok {
			continue
		}
		if err := plugin(current, settings, manifest); err != nil {
			pr.PluginErrors = append(pr.PluginErrors, fmt.Errorf("plugin %s: %w", pluginName, err))
			r.Log.WithField("run", r.RunID).WithField("projection", name).WithField("plugin", pluginName).Error(err)
		}
	}
	return pr
}

// detectProjectionCycles walks the graph formed by every projection's
// "imports" edges and its "apply" transform edges (an apply transform
// splices an abstract projection's own transforms in place), rejecting
// any cycle regardless of how many projections it passes through. Uses
// the same 3-color DFS as mixin-cycle detection.
func detectProjectionCycles(projections map[string]ProjectionConfig) error {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(projections))
	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("PROJECTION_CYCLE: %s", strings.Join(append(path, name), " -> "))
		}
		state[name] = visiting
		pc, ok := projections[name]
		if ok {
			for _, imp := range pc.Imports {
				if err := visit(imp, append(path, name)); err != nil {
					return err
				}
			}
			for _, applied := range applyProjectionNames(pc.Transforms) {
				if err := visit(applied, append(path, name)); err != nil {
					return err
				}
			}
		}
		state[name] = done
		return nil
	}
	for name := range projections {
		if err := visit(name, nil); err != nil {
			return err
		}
	}
	return nil
}

// applyProjectionNames extracts the projection names named by every
// "apply" transform in a projection's transform list.
func applyProjectionNames(transforms []TransformConfig) []string {
	var out []string
	for _, tc := range transforms {
		if tc.Name != "apply" {
			continue
		}
		out = append(out, stringArgSlice(tc.Args, "projections")...)
	}
	return out
}

func stringArgSlice(args map[string]interface{}, key string) []string {
	v, ok := args[key]
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case []string:
		return t
	case []interface{}:
		var out []string
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// expandTransforms splices any "apply" transform entry in transforms with
// the named abstract projection's own (recursively expanded) transform
// list, producing the flat sequence runProjection actually executes.
// visiting tracks the chain of projection names currently being expanded
// so a cycle missed by detectProjectionCycles still fails loudly here
// instead of recursing forever.
func expandTransforms(name string, transforms []TransformConfig, allProjections map[string]ProjectionConfig, visiting []string) ([]TransformConfig, error) {
	for _, v := range visiting {
		if v == name {
			return nil, fmt.Errorf("PROJECTION_CYCLE: %s -> %s", strings.Join(visiting, " -> "), name)
		}
	}
	visiting = append(visiting, name)

	var out []TransformConfig
	for _, tc := range transforms {
		if tc.Name != "apply" {
			out = append(out, tc)
			continue
		}
		for _, applied := range stringArgSlice(tc.Args, "projections") {
			target, ok := allProjections[applied]
			if !ok {
				return nil, fmt.Errorf("projection %s: apply references unknown projection %q", name, applied)
			}
			expanded, err := expandTransforms(applied, target.Transforms, allProjections, visiting)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)
		}
	}
	return out, nil
}

func sortedProjectionNames(projections map[string]ProjectionConfig) []string {
	names := make([]string, 0, len(projections))
	for n := range projections {
		names = append(names, n)
	}
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j-1] > names[j]; j-- {
			names[j-1], names[j] = names[j], names[j-1]
		}
	}
	return names
}
