// Package task runs long-lived background services, such as a hosted
// executor, and stops all of them together.
package task

import "context"

// Task is a background service.
type Task interface {
	// Run does the work of the service. It blocks until ctx is
	// cancelled or the service cannot continue.
	Run(ctx context.Context) error

	// Name is used in logs.
	Name() string
}
