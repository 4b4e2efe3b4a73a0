// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// Ports are the boundaries between the sinks and the outside world. They
// define what the sinks need from external systems without specifying how
// those needs are fulfilled.
//
// # Port Interfaces
//
//   - [Writer]: Durably persists one formatted record at a time
//   - [SnapshotStore]: Persists a drained snapshot window as one artifact
//   - [ErrorHandler]: Receives I/O failures that are otherwise swallowed
//   - [Logger]: Structured logging abstraction
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with concrete
// implementations (file system, zerolog, etc.).
package ports
