// Package sync exposes synchronization tasks over HTTP.
//
// # Routes
//
//	GET    /sync/tasks                  list task names
//	GET    /sync/tasks/:task            resolved task policy
//	POST   /sync/tasks/:task/preview    operation for one source/destination pair
//	POST   /sync/tasks/:task/run        plan, and apply unless dry_run=true
//	GET    /sync/tasks/:task/audit      LDIF audit objects of the task
//	DELETE /sync/tasks/:task/audit      prune audit objects, keeping ?keep=N
//	DELETE /sync/tasks/:task/cache      drop the cached task policy
//
// Run requests only write to the destination when the server runs in apply
// mode. In plan mode they are always dry runs.
package sync
