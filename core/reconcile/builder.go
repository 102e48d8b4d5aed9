package reconcile

import (
	"errors"

	"dirsync/core/bean"
	"dirsync/core/script"
	"dirsync/core/syncoptions"

	"go.uber.org/zap"
)

// evaluate runs exprs and wraps failures as expression errors.
func (r *Reconciler) evaluate(op, dn, attr string, exprs []string, env script.Env) ([]string, error) {
	values, err := script.EvaluateAll(r.evaluator, exprs, env)
	if err != nil {
		return nil, &Error{Kind: KindExpression, Op: op, DN: dn, Attribute: attr, Cause: err}
	}
	return values, nil
}

func nonEmpty(values []string) []bean.Value {
	out := make([]bean.Value, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, bean.Text(v))
		}
	}
	return out
}

// applyForceValues overwrites every writable force-valued attribute of
// intermediate with the non-empty results of its expressions.
func (r *Reconciler) applyForceValues(op string, opts syncoptions.Options, intermediate *bean.Bean, env script.Env) error {
	for _, name := range opts.ForceValuedAttributeNames() {
		if !syncoptions.CanWrite(opts, name) {
			continue
		}
		values, err := r.evaluate(op, intermediate.DN, name, opts.ForceValues(intermediate.DN, name), env)
		if err != nil {
			return err
		}
		intermediate.SetAttribute(bean.NewAttribute(name, nonEmpty(values)...))
	}
	return nil
}

// newEntryDN picks the DN of an entry about to be created.
func (r *Reconciler) newEntryDN(req Request, intermediate *bean.Bean, log *zap.Logger) (string, error) {
	if intermediate.DN != "" {
		return intermediate.DN, nil
	}
	if !req.Condition {
		return PlaceholderDN, nil
	}
	first, ok := intermediate.Attribute(namingAttribute).First()
	if !ok || first.String() == "" {
		log.Warn("Cannot synthesize DN of new entry", zap.String("attribute", namingAttribute))
		return "", &Error{
			Kind:      KindConfiguration,
			Op:        string(AddEntry),
			Attribute: namingAttribute,
			Cause:     errors.New("no DN from the source or the dn template and no naming attribute to build one"),
		}
	}
	return namingAttribute + "=" + first.String() + "," + r.peopleContainer, nil
}

// buildAdd computes an add_entry: every writable attribute is emitted as ADD.
func (r *Reconciler) buildAdd(req Request, intermediate *bean.Bean, log *zap.Logger) (*Operation, error) {
	opts := req.Options
	dn, err := r.newEntryDN(req, intermediate, log)
	if err != nil {
		return nil, err
	}
	intermediate.DN = dn
	op := &Operation{Kind: AddEntry, DN: dn}
	env := baseEnv(req.Source, nil, req.Custom)

	if err := r.applyForceValues(string(AddEntry), opts, intermediate, env); err != nil {
		return nil, err
	}

	emitted := make(map[string]struct{}, len(intermediate.Attributes))
	for _, attr := range intermediate.Attributes {
		if !syncoptions.CanWrite(opts, attr.Name) {
			continue
		}
		createValues := opts.CreateValues(dn, attr.Name)
		if createValues != nil && (attr.IsEmpty() || opts.Status(dn, attr.Name) == syncoptions.Merge) {
			attrEnv := env.With(script.KeySrcAttr, attr.Env())
			values, err := r.evaluate(string(AddEntry), dn, attr.Name, createValues, attrEnv)
			if err != nil {
				return nil, err
			}
			attr.AddMissing(nonEmpty(values)...)
		}
		op.Changes = append(op.Changes, AttributeChange{Type: ChangeAdd, Attribute: attr.Clone()})
		emitted[bean.FoldName(attr.Name)] = struct{}{}
	}

	for _, name := range opts.CreateAttributeNames() {
		if _, done := emitted[bean.FoldName(name)]; done || !syncoptions.CanWrite(opts, name) {
			continue
		}
		createValues := opts.CreateValues(dn, name)
		if createValues == nil || !intermediate.Attribute(name).IsEmpty() {
			continue
		}
		values, err := r.evaluate(string(AddEntry), dn, name, createValues, env.With(script.KeySrcAttr, []any{}))
		if err != nil {
			return nil, err
		}
		attr := bean.NewAttribute(name)
		attr.AddMissing(nonEmpty(values)...)
		op.Changes = append(op.Changes, AttributeChange{Type: ChangeAdd, Attribute: attr})
	}
	return op, nil
}

// buildModify computes a modify_entry from the writable attributes of
// intermediate. The returned operation may have no changes.
func (r *Reconciler) buildModify(req Request, intermediate *bean.Bean, log *zap.Logger) (*Operation, error) {
	opts := req.Options
	dst := req.Destination
	dn := dst.DN
	op := &Operation{Kind: ModifyEntry, DN: dn}
	env := baseEnv(req.Source, dst, req.Custom)
	const opName = string(ModifyEntry)

	if err := r.applyForceValues(opName, opts, intermediate, env); err != nil {
		return nil, err
	}

	for _, name := range opts.DefaultValuedAttributeNames() {
		if !syncoptions.CanWrite(opts, name) || !intermediate.Attribute(name).IsEmpty() {
			continue
		}
		values, err := r.evaluate(opName, dn, name, opts.DefaultValues(dn, name), env)
		if err != nil {
			return nil, err
		}
		intermediate.SetAttribute(bean.NewAttribute(name, bean.Texts(values...)...))
	}

	for _, srcAttr := range intermediate.Attributes {
		name := srcAttr.Name
		if !syncoptions.CanWrite(opts, name) {
			continue
		}
		srcAttr.TrimLeadingEmpty()
		dstAttr := dst.Attribute(name)
		status := opts.Status(dn, name)

		if defaults := opts.DefaultValues(dn, name); defaults != nil {
			attrEnv := env.With(script.KeySrcAttr, srcAttr.Env()).With(script.KeyDstAttr, dstAttr.Env())
			values, err := r.evaluate(opName, dn, name, defaults, attrEnv)
			if err != nil {
				return nil, err
			}
			if status == syncoptions.Merge || srcAttr.IsEmpty() {
				srcAttr.AddMissing(nonEmpty(values)...)
			}
		}

		change, ok := compareAttribute(status, srcAttr, dstAttr)
		if !ok {
			continue
		}
		log.Debug("Attribute change",
			zap.String("dn", dn),
			zap.String("attribute", name),
			zap.String("policy", status.String()),
			zap.String("change", string(change.Type)),
		)
		op.Changes = append(op.Changes, change)
	}
	return op, nil
}

// compareAttribute computes the change of one attribute under status.
// ok is false when no change is needed.
func compareAttribute(status syncoptions.Status, src, dst *bean.Attribute) (change AttributeChange, ok bool) {
	switch status {
	case syncoptions.Force:
		switch {
		case src.IsEmpty() && dst.IsEmpty():
			return change, false
		case src.IsEmpty():
			return AttributeChange{Type: ChangeRemove, Attribute: bean.NewAttribute(src.Name)}, true
		case dst.IsEmpty() || !bean.EqualSets(src.Values, dst.Values):
			return AttributeChange{Type: ChangeReplace, Attribute: src.Clone()}, true
		}
	case syncoptions.Merge:
		switch {
		case src.IsEmpty():
			return change, false
		case dst.IsEmpty():
			return AttributeChange{Type: ChangeAdd, Attribute: src.Clone()}, true
		}
		if missing := bean.MissingFrom(dst.Values, src.Values); len(missing) > 0 {
			return AttributeChange{Type: ChangeAdd, Attribute: bean.NewAttribute(dst.Name, missing...)}, true
		}
	}
	return change, false
}
