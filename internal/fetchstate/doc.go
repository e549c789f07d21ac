// Package fetchstate binds a URL to a {data, loading, error} triple as a
// Bubble Tea sub-model. Observing a new URL starts exactly one request and
// returns the command that performs it; Update folds the response back in.
// Every request is tagged with the model's ID and a generation number, so a
// response for a URL that is no longer current, or one that arrives after
// Close, never touches the state.
package fetchstate
