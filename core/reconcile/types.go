package reconcile

import (
	"dirsync/core/bean"
)

// OperationKind is the kind of operation applied to a destination entry.
type OperationKind string

const (
	// AddEntry creates the destination entry.
	AddEntry OperationKind = "add_entry"
	// DeleteEntry removes the destination entry.
	DeleteEntry OperationKind = "delete_entry"
	// ModifyEntry changes attributes of the destination entry.
	ModifyEntry OperationKind = "modify_entry"
	// RenameEntry moves the destination entry to a new DN.
	RenameEntry OperationKind = "rename_entry"
)

// ChangeType is the kind of attribute-level change.
type ChangeType string

const (
	// ChangeAdd adds values to an attribute.
	ChangeAdd ChangeType = "add"
	// ChangeReplace replaces every value of an attribute.
	ChangeReplace ChangeType = "replace"
	// ChangeRemove removes the attribute.
	ChangeRemove ChangeType = "remove"
)

// AttributeChange is one add, replace or remove instruction.
type AttributeChange struct {
	Type      ChangeType      `json:"type"`
	Attribute *bean.Attribute `json:"attribute"`
}

// Operation describes a change to one destination entry.
type Operation struct {
	// Kind is the operation kind.
	Kind OperationKind `json:"kind"`

	// DN is the entry the operation applies to. For add_entry it is the DN of
	// the new entry.
	DN string `json:"dn"`

	// NewDN is the target DN of a rename_entry.
	NewDN string `json:"new_dn,omitempty"`

	// Changes lists the attribute changes of add_entry and modify_entry.
	Changes []AttributeChange `json:"changes,omitempty"`
}

// Change returns the first change touching attr, if any.
func (o *Operation) Change(attr string) (AttributeChange, bool) {
	for _, c := range o.Changes {
		if c.Attribute != nil && bean.SameName(c.Attribute.Name, attr) {
			return c, true
		}
	}
	return AttributeChange{}, false
}

// Pair couples a source bean and a destination bean sharing the same pivot
// key. Either side may be nil.
type Pair struct {
	Key         string
	Source      *bean.Bean
	Destination *bean.Bean
}

// EntryResult is the reconciliation outcome of one pair.
type EntryResult struct {
	// Key is the pivot key of the pair.
	Key string `json:"key"`

	// DN is the DN of the operation, or of the destination when unchanged.
	DN string `json:"dn,omitempty"`

	// Kind is the planned operation kind, empty when nothing is to be done.
	Kind OperationKind `json:"kind,omitempty"`

	// Changes is the number of attribute changes of the operation.
	Changes int `json:"changes"`

	// Skipped is true for destination-only entries when cleaning is disabled.
	Skipped bool `json:"skipped,omitempty"`
}

// Plan contains the operations computed for a task.
type Plan struct {
	// Task is the name of the reconciled task.
	Task string `json:"task"`

	// Results contains one entry per pair.
	Results []EntryResult `json:"results"`

	// Operations contains the operations to apply, in pair order.
	Operations []*Operation `json:"operations"`

	// Summary provides aggregate counts.
	Summary PlanSummary `json:"summary"`
}

// PlanSummary provides aggregate statistics for a plan.
type PlanSummary struct {
	// TotalEntries is the number of reconciled pairs.
	TotalEntries int `json:"total_entries"`

	// Adds counts planned add_entry operations.
	Adds int `json:"adds"`

	// Deletes counts planned delete_entry operations.
	Deletes int `json:"deletes"`

	// Modifies counts planned modify_entry operations.
	Modifies int `json:"modifies"`

	// Renames counts planned rename_entry operations.
	Renames int `json:"renames"`

	// Unchanged counts entries already in sync.
	Unchanged int `json:"unchanged"`

	// Skipped counts destination-only entries left alone.
	Skipped int `json:"skipped"`

	// Dependencies counts side operations added by dependency checkers.
	// They appear in Operations without an EntryResult of their own.
	Dependencies int `json:"dependencies"`
}

// PlanOptions controls how a plan is computed.
type PlanOptions struct {
	// Custom is exposed to expressions as "custom".
	Custom any

	// Condition is true when add_entry operations will really be applied.
	// When false, entries without a DN receive a placeholder DN.
	Condition bool

	// Clean plans delete_entry operations for destinations without a source.
	Clean bool
}

// ApplyOptions controls plan execution.
type ApplyOptions struct {
	// DryRun prevents execution of any operation if true.
	DryRun bool

	// Confirmed indicates the caller confirmed the changes.
	// If false, operations will not execute regardless of DryRun.
	Confirmed bool
}
