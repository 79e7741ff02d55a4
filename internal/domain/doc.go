// Package domain contains the core entities of the task tracker as seen by
// the read side: the Task row, its enumerated status, priority and label
// values, and the request/result shapes used for paginated listing.
//
// Tasks are owned by storage. Nothing in this package mutates them.
package domain
