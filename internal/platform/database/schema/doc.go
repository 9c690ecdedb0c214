// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema names every table and column the repositories query.
//
// Queries are assembled with fmt.Sprintf from these definitions so that a
// column rename is a single edit here plus a migration.
package schema
