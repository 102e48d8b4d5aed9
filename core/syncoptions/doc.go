// Package syncoptions provides the synchronization policy of a task.
//
// The reconcile engine consumes policies through the read-only Options interface:
// the DN template, the per-attribute status (FORCE, MERGE or KEEP) and the force,
// default and create value expressions. Task files are YAML documents decoded into
// Task; Task.Options returns an immutable view over them.
//
// # Task files
//
//	name: people
//	dn: '"uid=" + srcBean.attr.uid[0] + ",ou=People,dc=example,dc=com"'
//	default_policy: KEEP
//	pivot: [uid]
//	write_attributes: [uid, cn, mail, objectClass]
//	attributes:
//	  mail:
//	    policy: FORCE
//	  objectClass:
//	    policy: MERGE
//	    create_values: ['["top", "inetOrgPerson"]']
//
// # Store
//
// Store loads task files from a local directory or from object storage and keeps
// parsed tasks in a TTL cache protected against stampedes with singleflight.
// Config selects the loader and the cache TTL.
package syncoptions
