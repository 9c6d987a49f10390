// Package ports holds the interfaces the engine consumes from the outside
// world: workflow/credential persistence and driver creation. Adapters
// implementing them live under internal/adapters.
package ports

import (
	"context"

	"github.com/autoqliq/autoqliq/internal/domain/action"
	"github.com/autoqliq/autoqliq/internal/driver"
)

// WorkflowRepository persists and retrieves named workflows (ordered action
// lists). Load returns (nil, nil) when name does not exist; an error return
// means the lookup itself failed.
type WorkflowRepository interface {
	List(ctx context.Context) ([]string, error)
	Load(ctx context.Context, name string) ([]action.Action, error)
	Save(ctx context.Context, name string, actions []action.Action) error
	Create(ctx context.Context, name string) error
	Delete(ctx context.Context, name string) (bool, error)
}

// CredentialRepository persists and retrieves named credential field sets.
// It never logs or returns field values in any error it raises — callers
// needing to display a credential's shape use FieldNames, not Get.
type CredentialRepository interface {
	List(ctx context.Context) ([]string, error)
	Get(ctx context.Context, name string) (map[string]string, bool, error)
	FieldNames(ctx context.Context, name string) ([]string, bool, error)
	Create(ctx context.Context, name string, fields map[string]string) error
	Update(ctx context.Context, name string, fields map[string]string) error
	Delete(ctx context.Context, name string) error
}

// TemplateRepository persists and retrieves named reusable step lists,
// consumed by controlflow.TemplateProvider. Load returns (nil, nil) — no
// error — when name is not registered; an error return means the lookup
// itself failed.
type TemplateRepository interface {
	List(ctx context.Context) ([]string, error)
	Load(ctx context.Context, name string) ([]action.Action, error)
	Save(ctx context.Context, name string, actions []action.Action) error
}

// DriverFactory creates a fresh browser driver handle for a run.
type DriverFactory = driver.Factory
