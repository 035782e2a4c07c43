package agent

import "fmt"

// Result is the discriminated outcome of one Execute call: either a success
// payload or an error, never both, always tagged with the agent's name.
type Result struct {
	Agent   string
	Payload map[string]any
	Err     error
}

func Success(agent string, payload map[string]any) Result {
	return Result{Agent: agent, Payload: payload}
}

func Failure(agent string, err error) Result {
	return Result{Agent: agent, Err: err}
}

func (r Result) OK() bool {
	return r.Err == nil
}

// InputError marks malformed or missing required input. Unlike gateway
// failures, which agents absorb into degraded payloads, an InputError is
// pipeline-fatal.
type InputError struct {
	Agent string
	Msg   string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Agent, e.Msg)
}

func missingField(agent, field string) error {
	return &InputError{Agent: agent, Msg: fmt.Sprintf("missing required field %q", field)}
}
