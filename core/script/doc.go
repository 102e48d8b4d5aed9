// Package script evaluates templated value expressions.
//
// The reconcile engine only depends on the Evaluator contract: an expression
// string is evaluated against a context of named values and yields zero or more
// strings. The default implementation uses CUE expressions, so a DN template
// looks like:
//
//	"uid=" + srcBean.attr.uid[0] + ",ou=People,dc=example,dc=com"
//
// and a multi-valued create value like:
//
//	["top", "person", "inetOrgPerson"]
//
// Builtin packages are inferred, so strings.ToLower(srcBean.attr.cn[0]) works
// without an import clause.
//
// # Context
//
// Beans are exposed as {dn: string, attr: {name: [values]}} (see bean.Bean.Env),
// attributes as plain lists. Missing attributes are null.
package script
