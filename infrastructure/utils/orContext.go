package utils

import "context"

// ORContext returns a context that is done as soon as any of the given contexts is done.
// The returned cancel releases the watcher goroutine and must always be called.
func ORContext(contexts ...context.Context) (context.Context, context.CancelFunc) {
	orDone, cancel := context.WithCancel(context.Background())
	if len(contexts) == 0 {
		return orDone, cancel
	}

	go func() {
		defer cancel()
		switch len(contexts) {
		case 1:
			select {
			case <-contexts[0].Done():
			case <-orDone.Done():
			}
		case 2:
			select {
			case <-contexts[0].Done():
			case <-contexts[1].Done():
			case <-orDone.Done():
			}
		default:
			rest, restCancel := ORContext(contexts[2:]...)
			defer restCancel()
			select {
			case <-contexts[0].Done():
			case <-contexts[1].Done():
			case <-rest.Done():
			case <-orDone.Done():
			}
		}
	}()
	return orDone, cancel
}
