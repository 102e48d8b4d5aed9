// Package source provides the synchronization sources: JSON bean files and
// SQL databases read through GORM.
//
// # SQL Source
//
// Each row of the task query becomes a bean; each non-NULL column becomes a
// single-valued attribute named after the column. Byte columns are text
// unless the column is declared in the task binary_attributes or, when the
// task reads a whole table, detected as binary from the table schema. The
// optional key column provides the bean DN.
//
// # File Source
//
// A file source reads a JSON array of beans, as produced by the audit and
// debugging tools:
//
//	[{"dn": "", "attributes": [{"name": "uid", "values": ["alice"]}]}]
package source
