// Package utils provides common helpers shared by connectors and handlers,
// mostly loose type conversion of database and query values.
package utils
