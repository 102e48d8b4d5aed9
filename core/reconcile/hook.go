package reconcile

import (
	"fmt"

	"dirsync/core/bean"

	"go.uber.org/zap"
)

// DependencyChecker computes side operations on other entries that an
// operation requires, such as group memberships of a renamed user.
type DependencyChecker interface {
	CheckDependencies(source, destination *bean.Bean, op *Operation) ([]*Operation, error)
}

// DependencyCheckerFunc adapts a function to the DependencyChecker interface.
type DependencyCheckerFunc func(source, destination *bean.Bean, op *Operation) ([]*Operation, error)

// CheckDependencies calls f(source, destination, op).
func (f DependencyCheckerFunc) CheckDependencies(source, destination *bean.Bean, op *Operation) ([]*Operation, error) {
	return f(source, destination, op)
}

// RegisterDependencyChecker registers checker for destination beans whose
// Variant is variant. A nil checker removes the registration.
func (r *Reconciler) RegisterDependencyChecker(variant string, checker DependencyChecker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if checker == nil {
		delete(r.checkers, variant)
		return
	}
	r.checkers[variant] = checker
}

// CheckOtherModifications returns the side operations required by op, as
// computed by the checker registered for the destination variant. It never
// fails: lookup misses and checker failures yield no operations.
func (r *Reconciler) CheckOtherModifications(source, destination *bean.Bean, op *Operation) (ops []*Operation) {
	if destination == nil || op == nil {
		return nil
	}
	r.mu.RLock()
	checker, ok := r.checkers[destination.Variant]
	r.mu.RUnlock()
	if !ok {
		r.logger.Debug("No dependency checker registered", zap.String("variant", destination.Variant))
		return nil
	}

	log := r.logger.With(zap.String("variant", destination.Variant), zap.String("dn", op.DN))
	defer func() {
		if p := recover(); p != nil {
			log.Warn("Dependency checker panicked", zap.Error(fmt.Errorf("%v", p)))
			ops = nil
		}
	}()

	ops, err := checker.CheckDependencies(source, destination, op)
	if err != nil {
		log.Warn("Dependency check failed", zap.Error(err))
		return nil
	}
	return ops
}
