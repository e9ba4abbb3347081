// Package gen turns validated entity definitions into Go source and
// schema artifacts.
//
// # Architecture
//
// Each schema file goes through the same flow:
//
//	Schema file (*.xml)
//	        ↓
//	   load.Parser (enhanced or legacy)
//	        ↓
//	   schema.Entity (validated)
//	        ↓
//	   Generator (Enhanced or Legacy)
//	        ↓
//	   Artifacts → Writer
//
// # Generators
//
// Enhanced builds the Go artifacts with jennifer and, when configured,
// renders the table DDL through atlas and the GraphQL object type
// through gqlparser. Legacy renders the same Go API from the embedded
// text/template files and is used when the enhanced path rejects a file.
//
// For an entity named Order the generators produce:
//
//   - order.go: the Order wrapper type, its table metadata and the row
//     mapping functions
//   - order_repository.go: OrderRepository, for temporal entities
//   - order_query.go: OrderQuery predicate accessors, for temporal entities
//   - order.sql and order.graphql: optional, enhanced path only
//
// # Writing
//
// Writer persists artifacts through a billy.Filesystem and skips files
// whose content did not change.
package gen
