package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dirsync/core/bean"
	"dirsync/core/syncoptions"

	"go.uber.org/zap"
)

// ErrMissingPivot is returned when a source bean has no value for any pivot attribute.
var ErrMissingPivot = errors.New("missing pivot attribute")

// ErrDuplicatePivot is returned when two beans on the same side share a pivot key.
var ErrDuplicatePivot = errors.New("duplicate pivot key")

// Applier applies operations to a destination.
type Applier interface {
	Apply(ctx context.Context, op *Operation) error
}

// BatchApplier is implemented by destinations able to apply many operations at once.
type BatchApplier interface {
	ApplyBatch(ctx context.Context, ops []*Operation) error
}

// PivotKey returns the pairing key of b: the first value of each pivot
// attribute, case-folded. ok is false when every pivot attribute is empty.
func PivotKey(b *bean.Bean, pivot []string) (key string, ok bool) {
	parts := make([]string, 0, len(pivot))
	for _, name := range pivot {
		first, found := b.Attribute(name).First()
		if found && first.String() != "" {
			ok = true
			parts = append(parts, bean.FoldName(first.String()))
		} else {
			parts = append(parts, "")
		}
	}
	return strings.Join(parts, "|"), ok
}

// PairEntries pairs sources with destinations sharing the same pivot key.
// Pairs follow source order, then unmatched destinations in their order.
// Destinations without pivot values cannot be paired and are ignored.
func PairEntries(sources, destinations []*bean.Bean, pivot []string) ([]Pair, error) {
	dstByKey := make(map[string]*bean.Bean, len(destinations))
	dstKeys := make([]string, 0, len(destinations))
	for _, dst := range destinations {
		key, ok := PivotKey(dst, pivot)
		if !ok {
			continue
		}
		if _, dup := dstByKey[key]; dup {
			return nil, fmt.Errorf("%w %q in destination %s", ErrDuplicatePivot, key, dst.DN)
		}
		dstByKey[key] = dst
		dstKeys = append(dstKeys, key)
	}

	pairs := make([]Pair, 0, len(sources)+len(destinations))
	seen := make(map[string]struct{}, len(sources))
	for i, src := range sources {
		key, ok := PivotKey(src, pivot)
		if !ok {
			return nil, fmt.Errorf("%w %v in source entry %d", ErrMissingPivot, pivot, i)
		}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w %q in source entry %d", ErrDuplicatePivot, key, i)
		}
		seen[key] = struct{}{}
		pairs = append(pairs, Pair{Key: key, Source: src, Destination: dstByKey[key]})
	}
	for _, key := range dstKeys {
		if _, paired := seen[key]; paired {
			continue
		}
		pairs = append(pairs, Pair{Key: key, Destination: dstByKey[key]})
	}
	return pairs, nil
}

// ReconcileWithPlan reconciles every pair and returns a plan.
// It does NOT apply operations; use ApplyPlan for that.
func (r *Reconciler) ReconcileWithPlan(ctx context.Context, opts syncoptions.Options, pairs []Pair, planOpts PlanOptions) (*Plan, error) {
	plan := &Plan{
		Task:    opts.TaskName(),
		Results: make([]EntryResult, 0, len(pairs)),
	}
	plan.Summary.TotalEntries = len(pairs)

	for _, pair := range pairs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result := EntryResult{Key: pair.Key}
		if pair.Destination != nil {
			result.DN = pair.Destination.DN
		}

		if pair.Source == nil && !planOpts.Clean {
			result.Skipped = true
			plan.Summary.Skipped++
			plan.Results = append(plan.Results, result)
			continue
		}

		op, err := r.CalculateModifications(Request{
			Options:     opts,
			Source:      pair.Source,
			Destination: pair.Destination,
			Custom:      planOpts.Custom,
			Condition:   planOpts.Condition,
		})
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", pair.Key, err)
		}
		if op == nil {
			plan.Summary.Unchanged++
			plan.Results = append(plan.Results, result)
			continue
		}

		result.DN = op.DN
		result.Kind = op.Kind
		result.Changes = len(op.Changes)
		plan.Results = append(plan.Results, result)
		plan.Operations = append(plan.Operations, op)

		switch op.Kind {
		case AddEntry:
			plan.Summary.Adds++
		case DeleteEntry:
			plan.Summary.Deletes++
		case ModifyEntry:
			plan.Summary.Modifies++
		case RenameEntry:
			plan.Summary.Renames++
		}

		deps := r.CheckOtherModifications(pair.Source, pair.Destination, op)
		plan.Summary.Dependencies += len(deps)
		plan.Operations = append(plan.Operations, deps...)
	}

	r.logger.Debug("Plan computed",
		zap.String("task", plan.Task),
		zap.Int("entries", plan.Summary.TotalEntries),
		zap.Int("operations", len(plan.Operations)),
	)
	return plan, nil
}

// ApplyPlan applies the operations of plan in order.
// Returns the number of operations applied and any error encountered.
// Requires opts.Confirmed=true and opts.DryRun=false to actually execute.
func ApplyPlan(ctx context.Context, applier Applier, plan *Plan, opts ApplyOptions) (applied int, err error) {
	if !opts.Confirmed || opts.DryRun || len(plan.Operations) == 0 {
		return 0, nil
	}

	if batch, ok := applier.(BatchApplier); ok {
		if err := batch.ApplyBatch(ctx, plan.Operations); err != nil {
			return 0, fmt.Errorf("failed to batch apply %d operations: %w", len(plan.Operations), err)
		}
		return len(plan.Operations), nil
	}

	for _, op := range plan.Operations {
		if err := ctx.Err(); err != nil {
			return applied, err
		}
		if err := applier.Apply(ctx, op); err != nil {
			return applied, fmt.Errorf("failed to apply %s on %s: %w", op.Kind, op.DN, err)
		}
		applied++
	}
	return applied, nil
}

// ReconcileAndApply is a convenience wrapper that plans and optionally applies operations.
// It returns the plan, number of operations applied, and any error.
func (r *Reconciler) ReconcileAndApply(
	ctx context.Context,
	opts syncoptions.Options,
	pairs []Pair,
	applier Applier,
	planOpts PlanOptions,
	applyOpts ApplyOptions,
) (*Plan, int, error) {
	plan, err := r.ReconcileWithPlan(ctx, opts, pairs, planOpts)
	if err != nil {
		return nil, 0, err
	}

	applied, err := ApplyPlan(ctx, applier, plan, applyOpts)
	return plan, applied, err
}
