package repository

import "context"

type hooksKey struct{}

// CommitHooks collects callbacks that must only run once a transaction is durable.
type CommitHooks struct {
	fns []func()
}

// WithCommitHooks attaches a fresh hook list to ctx. Transactors call Run after
// a successful commit and drop the list on rollback.
func WithCommitHooks(ctx context.Context) (context.Context, *CommitHooks) {
	h := &CommitHooks{}
	return context.WithValue(ctx, hooksKey{}, h), h
}

func (h *CommitHooks) Run() {
	for _, fn := range h.fns {
		fn()
	}
	h.fns = nil
}

// AfterCommit defers fn until the surrounding transaction commits. Outside a
// transaction fn runs immediately.
func AfterCommit(ctx context.Context, fn func()) {
	if h, ok := ctx.Value(hooksKey{}).(*CommitHooks); ok {
		h.fns = append(h.fns, fn)
		return
	}
	fn()
}

// InTransaction reports whether ctx belongs to an open transaction.
func InTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(hooksKey{}).(*CommitHooks)
	return ok
}
