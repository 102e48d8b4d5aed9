// Package database handles source database connections and schema inspection.
//
// It wraps GORM to open MySQL or SQLite connections from the application's
// configuration. The SQL source reads synchronization rows through it.
//
// # Schema Inspection
//
// GetTableColumns lists the columns of a table (SHOW COLUMNS on MySQL,
// PRAGMA table_info on SQLite). BinaryColumns uses it to detect the columns
// whose values must be carried as raw bytes instead of text.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Warn("Database unavailable", zap.Error(err))
//	}
//
//	binary, err := database.BinaryColumns(db, "people")
package database
