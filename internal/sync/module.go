package sync

import (
	"context"

	"github.com/google/uuid"
)

// The five generation modules, in launch order. Execution order is fixed;
// completion order is not.
const (
	ModulePhotoRanking = "photo_ranking"
	ModuleBioGenerator = "bio_generator"
	ModuleCareer       = "career_module"
	ModuleDating       = "dating_module"
	ModuleAesthetic    = "aesthetic_module"
)

var AllModules = []string{
	ModulePhotoRanking,
	ModuleBioGenerator,
	ModuleCareer,
	ModuleDating,
	ModuleAesthetic,
}

type GenerateOptions struct {
	TriggeredBy string
	Retry       bool
}

type GenerateResult struct {
	ItemsProcessed int
	Meta           map[string]any
}

// Module is one generation subsystem (bio, photo ranking, ...). The
// orchestrator treats Generate as atomic: it either resolves with a result
// or fails with an error; internal AI retries/backoff belong to the module.
type Module interface {
	Name() string
	Generate(ctx context.Context, userID uuid.UUID, mc *ModuleContext, opts GenerateOptions) (*GenerateResult, error)
}

// Registry maps module names to implementations.
type Registry map[string]Module

func NewRegistry(modules ...Module) Registry {
	reg := Registry{}
	for _, m := range modules {
		if m != nil {
			reg[m.Name()] = m
		}
	}
	return reg
}

// RequestedModules resolves the run set: the given modules (or AllModules
// when empty) minus skips, preserving the canonical order. Unknown names in
// either list are ignored.
func RequestedModules(modules, skip []string) []string {
	allowed := map[string]bool{}
	for _, name := range AllModules {
		allowed[name] = true
	}
	requested := modules
	if len(requested) == 0 {
		requested = AllModules
	}
	skipSet := map[string]bool{}
	for _, name := range skip {
		skipSet[name] = true
	}
	want := map[string]bool{}
	for _, name := range requested {
		if allowed[name] && !skipSet[name] {
			want[name] = true
		}
	}
	out := make([]string, 0, len(want))
	for _, name := range AllModules {
		if want[name] {
			out = append(out, name)
		}
	}
	return out
}
