// Package todo parses, validates, and serializes task documents.
//
// A task document is a constrained Markdown file with two regions:
//
//	- [ ] [#1] Write the parser
//	  - [x] [#2] Classify lines
//	  - [ ] [#3] Build the tree
//	- [ ] [#4] Write the serializer
//
//	# 2
//	## start-time 2024-05-01 09:30
//	## end-time 2024-05-01 11:00
//
//	# 3
//	## comment
//	Recursive descent with an explicit cursor.
//	\# a line starting with a hash is escaped
//
// The list region holds one checkbox item per task. Nesting is expressed by
// indentation in whole multiples of the dialect's indent unit; a child is
// exactly one unit deeper than its parent. The detail region starts at the
// first "# <id>" header and attaches optional fields to the task with the
// same id.
//
// # Dialects
//
// Grammar parameters are grouped in a Dialect: indent unit, id kind (string
// or integer), whether every list item must have a detail header, the
// literal field keys, the timestamp layout and location, and the list
// marker. Three presets are available from LookupDialect:
//
//   - "standard": 2-space indent, string ids, optional details
//   - "indexed": 4-space indent, integer ids, a header for every task, and a
//     "name" field that fills an empty inline name
//   - "legacy": like standard with StartTime/EndTime/Comment keys
//
// # Errors
//
// Every parse failure is a *ParseError wrapping one of the Err* sentinels.
// Parsing is all or nothing: no partial tree is returned.
//
// # Round trip
//
// Serialize emits the list region followed by the detail region, both in
// pre-order. Parse(Serialize(tasks)) reproduces the tree: shape, ids,
// completion flags, names, and optional fields at the dialect's timestamp
// precision.
//
// # Validation
//
// ValidateDocument checks the structural invariants of a tree and validates
// its JSON export against a JSON Schema (draft 2020-12), either the embedded
// schema or a file given in ValidationOptions.
package todo
