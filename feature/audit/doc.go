// Package audit records the operations of a synchronization as LDIF.
//
// RenderLDIF produces RFC 2849 change records for a list of operations:
// add, modify, modrdn and delete records in plan order. Values that are not
// safe strings, and every binary value, are base64 encoded. Binary objectSid
// values are preceded by a comment with their S-1-... form.
//
// Writer stores the rendered LDIF in object storage under
//
//	<prefix>/<task>/<timestamp>.ldif
//
// so every applied run leaves a replayable trace.
package audit
