// Package all wires all built-in storage dialects into the storage registry.
//
// Importing it (as a blank import) makes these storage kinds available:
//
//   - "mysql"    (catalogetl/internal/storage/mysql)
//   - "postgres" (catalogetl/internal/storage/postgres)
//   - "sqlite"   (catalogetl/internal/storage/sqlite)
//   - "mssql"    (catalogetl/internal/storage/mssql)
package all

import (
	_ "catalogetl/internal/storage/mssql"
	_ "catalogetl/internal/storage/mysql"
	_ "catalogetl/internal/storage/postgres"
	_ "catalogetl/internal/storage/sqlite"
)
