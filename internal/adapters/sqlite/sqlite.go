// Package sqlite persists workflows, templates, and credentials to a GORM
// database — SQLite by default — following the source's GORM-backed
// repository pattern (WithContext, a dedicated row model per aggregate,
// gorm.ErrRecordNotFound mapped to the ports (nil, nil, nil) "not found"
// convention rather than surfaced as an error).
package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"gorm.io/gorm"

	"github.com/autoqliq/autoqliq/internal/domain/action"
	"github.com/autoqliq/autoqliq/internal/domain/apperr"
)

var errWorkflowNotCreated = errors.New("workflow was never created")

type workflowRow struct {
	Name string `gorm:"primaryKey"`
	Data string // JSON-encoded []map[string]interface{}, one per action.Action.ToMap()
}

type templateRow struct {
	Name string `gorm:"primaryKey"`
	Data string
}

type credentialRow struct {
	Name   string `gorm:"primaryKey"`
	Fields string // JSON-encoded map[string]string
}

// Open runs AutoMigrate for the three row models against db. Call once at
// startup before constructing the repositories below.
func Open(db *gorm.DB) error {
	return db.AutoMigrate(&workflowRow{}, &templateRow{}, &credentialRow{})
}

// WorkflowRepository is a GORM-backed ports.WorkflowRepository.
type WorkflowRepository struct {
	db      *gorm.DB
	factory *action.Factory
}

func NewWorkflowRepository(db *gorm.DB, factory *action.Factory) *WorkflowRepository {
	return &WorkflowRepository{db: db, factory: factory}
}

func (r *WorkflowRepository) List(ctx context.Context) ([]string, error) {
	var rows []workflowRow
	if err := r.db.WithContext(ctx).Select("name").Find(&rows).Error; err != nil {
		return nil, &apperr.RepositoryError{Operation: "list", Resource: "workflow", Cause: err}
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, row.Name)
	}
	sort.Strings(names)
	return names, nil
}

func (r *WorkflowRepository) Load(ctx context.Context, name string) ([]action.Action, error) {
	var row workflowRow
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &apperr.RepositoryError{Operation: "load", Resource: name, Cause: err}
	}
	return decodeSteps(r.factory, row.Data)
}

func (r *WorkflowRepository) Save(ctx context.Context, name string, actions []action.Action) error {
	data, err := encodeSteps(actions)
	if err != nil {
		return &apperr.RepositoryError{Operation: "save", Resource: name, Cause: err}
	}
	result := r.db.WithContext(ctx).Model(&workflowRow{}).Where("name = ?", name).Update("data", data)
	if result.Error != nil {
		return &apperr.RepositoryError{Operation: "save", Resource: name, Cause: result.Error}
	}
	// An UPDATE against a name with no matching row affects zero rows
	// without GORM treating that as an error, so a never-created workflow
	// would otherwise "save" successfully and silently vanish, the same
	// failure mode the memory adapter guards against explicitly.
	if result.RowsAffected == 0 {
		return &apperr.RepositoryError{Operation: "save", Resource: name, Cause: errWorkflowNotCreated}
	}
	return nil
}

func (r *WorkflowRepository) Create(ctx context.Context, name string) error {
	err := r.db.WithContext(ctx).Create(&workflowRow{Name: name, Data: "[]"}).Error
	if err != nil {
		return &apperr.RepositoryError{Operation: "create", Resource: name, Cause: err}
	}
	return nil
}

func (r *WorkflowRepository) Delete(ctx context.Context, name string) (bool, error) {
	result := r.db.WithContext(ctx).Where("name = ?", name).Delete(&workflowRow{})
	if result.Error != nil {
		return false, &apperr.RepositoryError{Operation: "delete", Resource: name, Cause: result.Error}
	}
	return result.RowsAffected > 0, nil
}

// TemplateRepository is a GORM-backed ports.TemplateRepository.
type TemplateRepository struct {
	db      *gorm.DB
	factory *action.Factory
}

func NewTemplateRepository(db *gorm.DB, factory *action.Factory) *TemplateRepository {
	return &TemplateRepository{db: db, factory: factory}
}

func (r *TemplateRepository) List(ctx context.Context) ([]string, error) {
	var rows []templateRow
	if err := r.db.WithContext(ctx).Select("name").Find(&rows).Error; err != nil {
		return nil, &apperr.RepositoryError{Operation: "list", Resource: "template", Cause: err}
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, row.Name)
	}
	sort.Strings(names)
	return names, nil
}

func (r *TemplateRepository) Load(ctx context.Context, name string) ([]action.Action, error) {
	var row templateRow
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &apperr.RepositoryError{Operation: "load", Resource: name, Cause: err}
	}
	return decodeSteps(r.factory, row.Data)
}

func (r *TemplateRepository) Save(ctx context.Context, name string, actions []action.Action) error {
	data, err := encodeSteps(actions)
	if err != nil {
		return &apperr.RepositoryError{Operation: "save", Resource: name, Cause: err}
	}
	row := templateRow{Name: name, Data: data}
	err = r.db.WithContext(ctx).Save(&row).Error
	if err != nil {
		return &apperr.RepositoryError{Operation: "save", Resource: name, Cause: err}
	}
	return nil
}

// CredentialRepository is a GORM-backed ports.CredentialRepository. Field
// values are stored as opaque JSON — this package does no encryption of its
// own; deployments wanting encryption-at-rest point GORM at an encrypted
// volume or swap in a different ports.CredentialRepository implementation.
type CredentialRepository struct {
	db *gorm.DB
}

func NewCredentialRepository(db *gorm.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

func (r *CredentialRepository) List(ctx context.Context) ([]string, error) {
	var rows []credentialRow
	if err := r.db.WithContext(ctx).Select("name").Find(&rows).Error; err != nil {
		return nil, &apperr.RepositoryError{Operation: "list", Resource: "credential", Cause: err}
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, row.Name)
	}
	sort.Strings(names)
	return names, nil
}

func (r *CredentialRepository) Get(ctx context.Context, name string) (map[string]string, bool, error) {
	var row credentialRow
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &apperr.RepositoryError{Operation: "get", Resource: name, Cause: err}
	}
	var fields map[string]string
	if err := json.Unmarshal([]byte(row.Fields), &fields); err != nil {
		return nil, false, &apperr.RepositoryError{Operation: "get", Resource: name, Cause: err}
	}
	return fields, true, nil
}

func (r *CredentialRepository) FieldNames(ctx context.Context, name string) ([]string, bool, error) {
	fields, ok, err := r.Get(ctx, name)
	if err != nil || !ok {
		return nil, ok, err
	}
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names, true, nil
}

func (r *CredentialRepository) Create(ctx context.Context, name string, fields map[string]string) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return &apperr.CredentialError{CredentialName: name, Message: "could not encode fields"}
	}
	err = r.db.WithContext(ctx).Create(&credentialRow{Name: name, Fields: string(data)}).Error
	if err != nil {
		return &apperr.RepositoryError{Operation: "create", Resource: name, Cause: err}
	}
	return nil
}

func (r *CredentialRepository) Update(ctx context.Context, name string, fields map[string]string) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return &apperr.CredentialError{CredentialName: name, Message: "could not encode fields"}
	}
	err = r.db.WithContext(ctx).Model(&credentialRow{}).Where("name = ?", name).Update("fields", string(data)).Error
	if err != nil {
		return &apperr.RepositoryError{Operation: "update", Resource: name, Cause: err}
	}
	return nil
}

func (r *CredentialRepository) Delete(ctx context.Context, name string) error {
	err := r.db.WithContext(ctx).Where("name = ?", name).Delete(&credentialRow{}).Error
	if err != nil {
		return &apperr.RepositoryError{Operation: "delete", Resource: name, Cause: err}
	}
	return nil
}

func encodeSteps(actions []action.Action) (string, error) {
	maps := make([]map[string]interface{}, len(actions))
	for i, a := range actions {
		maps[i] = a.ToMap()
	}
	data, err := json.Marshal(maps)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeSteps(factory *action.Factory, data string) ([]action.Action, error) {
	var maps []map[string]interface{}
	if err := json.Unmarshal([]byte(data), &maps); err != nil {
		return nil, &apperr.RepositoryError{Operation: "decode", Resource: "steps", Cause: err}
	}
	steps := make([]action.Action, len(maps))
	for i, m := range maps {
		a, err := factory.Create(m)
		if err != nil {
			return nil, &apperr.RepositoryError{Operation: "decode", Resource: "steps", Cause: err}
		}
		steps[i] = a
	}
	return steps, nil
}
