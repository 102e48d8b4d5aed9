// Package bean holds the entity model shared by every synchronization component.
//
// A Bean is a directory-like record: a distinguished name plus an ordered list of
// multi-valued attributes. Attribute names are compared case-insensitively (Unicode
// case folding) and each value is either text or an opaque byte sequence.
//
// # Values
//
// Text and binary values compare uniformly: when either side of a comparison is
// binary both sides are compared byte-for-byte, a text value being taken as its
// UTF-8 encoding. EqualSets and MissingFrom build on that equality to give the
// set semantics used by the reconcile engine.
//
// # Copies
//
// Clone returns an independent deep copy and verifies the uniqueness of attribute
// names on the way. Reconciliation always works on such a copy so that the beans
// handed over by connectors are never mutated.
//
// # Usage
//
//	b := bean.New("uid=alice,ou=People,dc=example,dc=com").
//	    Put("uid", bean.Text("alice")).
//	    Put("mail", bean.Text("alice@example.com"))
//
//	itm, err := b.Clone()
package bean
