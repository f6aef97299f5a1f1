package storage

import "context"

// Before-save hooks are resolved by interface dispatch on the concrete
// model type, so the hook for each entity is fixed at compile time.
// Models without a hook are written as-is.

type BeforeCreateInterface interface {
	BeforeCreate(context.Context) error
}

type AfterCreateInterface interface {
	AfterCreate(context.Context) error
}

type BeforeUpdateInterface interface {
	BeforeUpdate(context.Context) error
}

func triggerBeforeCreate(ctx context.Context, model any) error {
	if m, ok := model.(BeforeCreateInterface); ok {
		return m.BeforeCreate(ctx)
	}
	return nil
}

func triggerAfterCreate(ctx context.Context, model any) error {
	if m, ok := model.(AfterCreateInterface); ok {
		return m.AfterCreate(ctx)
	}
	return nil
}

func triggerBeforeUpdate(ctx context.Context, model any) error {
	if m, ok := model.(BeforeUpdateInterface); ok {
		return m.BeforeUpdate(ctx)
	}
	return nil
}
