// Package mocks provides centralized mock implementations for testing.
//
// Each mock has function fields for the methods of the interface it
// implements and falls back to plain default values when a field is nil:
//
//	svc := &mocks.MockTaskQueryService{
//	    StatusCountsFn: func(ctx context.Context) (map[domain.TaskStatus]int, error) {
//	        return map[domain.TaskStatus]int{domain.TaskStatusDone: 8}, nil
//	    },
//	}
package mocks
