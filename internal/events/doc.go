// Package events carries task mutation notifications from writers to the
// components whose derived state depends on the task table.
//
// The primary components are:
// - TaskMutationEvent: a task was created, updated or deleted
// - EventHandler: Interface for components that can handle events
// - EventEmitter: Interface for components that can emit events
package events
