package reconcile

import (
	"sync"

	"dirsync/core/bean"
	"dirsync/core/script"
	"dirsync/core/syncoptions"

	"go.uber.org/zap"
)

const (
	// DefaultPeopleContainer is the container new entries are created under
	// when the task has no DN template.
	DefaultPeopleContainer = "ou=People"

	// PlaceholderDN is the DN shown for entries that would be created without
	// a DN while the creation is only being previewed.
	PlaceholderDN = "No DN set! Read it from the source or set the task dn template"

	// namingAttribute is the attribute the DN of a new entry is built from.
	namingAttribute = "uid"
)

// Request is the input of a single-entry reconciliation.
type Request struct {
	// Options is the policy of the task.
	Options syncoptions.Options

	// Source is the source bean; nil means the entry no longer exists in the source.
	Source *bean.Bean

	// Destination is the destination bean; nil means the entry does not exist yet.
	Destination *bean.Bean

	// Custom is exposed to expressions as "custom".
	Custom any

	// Condition is true when an add_entry will really be applied.
	Condition bool
}

// Reconciler computes operations from source and destination beans.
// It is safe for concurrent use.
type Reconciler struct {
	evaluator       script.Evaluator
	logger          *zap.Logger
	peopleContainer string

	mu       sync.RWMutex
	checkers map[string]DependencyChecker
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithPeopleContainer sets the container DN new entries are created under.
func WithPeopleContainer(dn string) Option {
	return func(r *Reconciler) {
		if dn != "" {
			r.peopleContainer = dn
		}
	}
}

// New creates a Reconciler evaluating expressions with evaluator.
func New(evaluator script.Evaluator, logger *zap.Logger, opts ...Option) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Reconciler{
		evaluator:       evaluator,
		logger:          logger,
		peopleContainer: DefaultPeopleContainer,
		checkers:        make(map[string]DependencyChecker),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Classify returns the operation kind needed to converge destination towards
// intermediate. ok is false when both are nil.
func Classify(intermediate, destination *bean.Bean) (kind OperationKind, ok bool) {
	switch {
	case intermediate == nil && destination == nil:
		return "", false
	case intermediate == nil:
		return DeleteEntry, true
	case destination == nil:
		return AddEntry, true
	case intermediate.DN == "" || bean.SameName(intermediate.DN, destination.DN):
		return ModifyEntry, true
	default:
		return RenameEntry, true
	}
}

// DeriveIntermediate deep-copies source and applies the task DN template to
// the copy. It returns nil for a nil source.
func (r *Reconciler) DeriveIntermediate(opts syncoptions.Options, source *bean.Bean, custom any) (*bean.Bean, error) {
	if source == nil {
		return nil, nil
	}
	intermediate, err := source.Clone()
	if err != nil {
		return nil, &Error{Kind: KindClone, Op: "derive", DN: source.DN, Cause: err}
	}

	template := opts.DN()
	if template == "" {
		return intermediate, nil
	}
	dn, err := script.EvaluateOne(r.evaluator, template, baseEnv(source, nil, custom))
	if err != nil {
		return nil, &Error{Kind: KindExpression, Op: "derive", DN: source.DN, Cause: err}
	}
	intermediate.DN = dn
	return intermediate, nil
}

// CalculateModificationType derives the intermediate bean of req and
// classifies it. ok is false when nothing has to be done.
func (r *Reconciler) CalculateModificationType(req Request) (kind OperationKind, ok bool, err error) {
	intermediate, err := r.DeriveIntermediate(req.Options, req.Source, req.Custom)
	if err != nil {
		return "", false, err
	}
	kind, ok = Classify(intermediate, req.Destination)
	return kind, ok, nil
}

// CalculateModifications returns the operation converging req.Destination
// towards req.Source, or nil when the destination is already in sync.
//
// A rename_entry carries no attribute changes: once it is applied the entry
// must be reconciled again to pick up attribute differences.
func (r *Reconciler) CalculateModifications(req Request) (*Operation, error) {
	intermediate, err := r.DeriveIntermediate(req.Options, req.Source, req.Custom)
	if err != nil {
		return nil, err
	}
	kind, ok := Classify(intermediate, req.Destination)
	if !ok {
		return nil, nil
	}

	log := r.logger.With(zap.String("task", req.Options.TaskName()), zap.String("kind", string(kind)))

	var op *Operation
	switch kind {
	case DeleteEntry:
		op = &Operation{Kind: DeleteEntry, DN: req.Destination.DN}
	case RenameEntry:
		op = &Operation{Kind: RenameEntry, DN: req.Destination.DN, NewDN: intermediate.DN}
	case AddEntry:
		op, err = r.buildAdd(req, intermediate, log)
	case ModifyEntry:
		op, err = r.buildModify(req, intermediate, log)
	}
	if err != nil {
		return nil, err
	}

	if op.Kind == ModifyEntry && len(op.Changes) == 0 {
		log.Debug("Entry already in sync", zap.String("dn", op.DN))
		return nil, nil
	}
	log.Debug("Computed operation",
		zap.String("dn", op.DN),
		zap.String("new_dn", op.NewDN),
		zap.Int("changes", len(op.Changes)),
	)
	return op, nil
}

// baseEnv returns the expression context shared by every expression of a call.
func baseEnv(source, destination *bean.Bean, custom any) script.Env {
	env := script.Env{}
	if source != nil {
		env[script.KeySrcBean] = source.Env()
	}
	if destination != nil {
		env[script.KeyDstBean] = destination.Env()
	}
	if custom != nil {
		env[script.KeyCustom] = custom
	}
	return env
}
