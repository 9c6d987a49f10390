package runner

import (
	"context"

	"github.com/autoqliq/autoqliq/internal/domain/action"
	"github.com/autoqliq/autoqliq/internal/ports"
)

// credentialResolver adapts a ports.CredentialRepository to the minimal
// action.CredentialResolver the action package needs, without the action
// package ever importing internal/ports.
type credentialResolver struct {
	ctx   context.Context
	repo  ports.CredentialRepository
}

func (r credentialResolver) Resolve(name string) (map[string]string, bool) {
	fields, found, err := r.repo.Get(r.ctx, name)
	if err != nil || !found {
		return nil, false
	}
	return fields, true
}

// templateProvider adapts a ports.TemplateRepository to
// controlflow.TemplateProvider.
type templateProvider struct {
	ctx  context.Context
	repo ports.TemplateRepository
}

func (p templateProvider) Template(name string) ([]action.Action, bool, error) {
	steps, err := p.repo.Load(p.ctx, name)
	if err != nil {
		return nil, false, err
	}
	if steps == nil {
		return nil, false, nil
	}
	return steps, true, nil
}
