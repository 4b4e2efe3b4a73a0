// Package domain contains the core entities and value objects for tracesink.
//
// This package is the innermost layer. It has no dependencies on
// infrastructure concerns (file system, logging, metrics) and contains only
// the data model and the rules for building it.
//
// # Entities
//
//   - [Record]: An opaque formatted payload handed over by the upstream formatter
//   - [TraceEvent]: A record decoded into timestamp, phase, pid and tid
//   - [Batch]: An ordered run of records handed from producers to the writer
//
// # Design Principles
//
// Domain entities are:
//   - Immutable after construction (where practical)
//   - Free of infrastructure dependencies
//   - Testable without mocks or external systems
package domain
