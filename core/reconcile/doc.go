// Package reconcile computes the operations needed to converge a destination
// directory entry towards a source entity.
//
// The engine works in three steps:
//
// 1. Derive: the source bean is deep-copied and, when the task declares a DN
//    template, its DN is computed by the expression evaluator. The caller's
//    bean is never mutated.
//
// 2. Classify: the intermediate bean and the destination bean decide the
//    operation kind (add_entry, delete_entry, modify_entry or rename_entry).
//    DNs are compared ignoring case.
//
// 3. Build: for add_entry every writable attribute becomes an ADD change; for
//    modify_entry each writable attribute is compared under its FORCE, MERGE
//    or KEEP policy. A modify_entry without changes is reported as no
//    operation (nil, nil).
//
// On top of the single-entry engine, the plan layer pairs source and
// destination beans by pivot attributes, builds a Plan for a whole task and
// applies it through an Applier, using batch application when available.
//
// # Usage Example
//
//	r := reconcile.New(script.NewCUE(), log)
//	op, err := r.CalculateModifications(reconcile.Request{
//	    Options:     task.Options(),
//	    Source:      src,
//	    Destination: dst,
//	    Condition:   true,
//	})
//	if err != nil {
//	    return err
//	}
//	if op == nil {
//	    return nil // already in sync
//	}
package reconcile
