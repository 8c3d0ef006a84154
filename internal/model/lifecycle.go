package model

// LifecycleState is an entity's employment state as derived from
// termination and rehire events.
type LifecycleState string

const (
	StateActive     LifecycleState = "active"
	StateTerminated LifecycleState = "terminated"
	StateGap        LifecycleState = "gap"
	StateRehired    LifecycleState = "rehired"
)

// String returns the string representation of the state.
func (s LifecycleState) String() string {
	return string(s)
}

// IsValid checks whether the state is a known value.
func (s LifecycleState) IsValid() bool {
	switch s {
	case StateActive, StateTerminated, StateGap, StateRehired:
		return true
	}
	return false
}
