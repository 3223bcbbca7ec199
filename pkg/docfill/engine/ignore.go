package engine

// Marker keys driving the ignore state machine.
const (
	KeyIgnore    = "Ignore"
	KeyEndIgnore = "EndIgnore"
	KeyExit      = "Exit"
)

// IgnoreState is what the ignore machine reports for one placeholder.
type IgnoreState int

const (
	StateNormal IgnoreState = iota
	StateStartIgnore
	StateIgnoring
	StateEndIgnore
	StateExit
)

type ignoreFlags struct {
	exit, process, ignoring, ignoreRelated bool
}

var stateFlags = map[IgnoreState]ignoreFlags{
	StateExit:        {exit: true, process: true, ignoring: true, ignoreRelated: true},
	StateStartIgnore: {exit: false, process: true, ignoring: true, ignoreRelated: true},
	StateIgnoring:    {exit: false, process: false, ignoring: true, ignoreRelated: false},
	StateEndIgnore:   {exit: false, process: true, ignoring: false, ignoreRelated: true},
	StateNormal:      {exit: false, process: true, ignoring: false, ignoreRelated: false},
}

var stateNames = map[IgnoreState]string{
	StateNormal:      "normal",
	StateStartIgnore: "start-ignore",
	StateIgnoring:    "ignoring",
	StateEndIgnore:   "end-ignore",
	StateExit:        "exit",
}

func (s IgnoreState) String() string { return stateNames[s] }

// Exit reports whether the scan stops after this placeholder.
func (s IgnoreState) Exit() bool { return stateFlags[s].exit }

// Process reports whether the placeholder is acted upon at all.
func (s IgnoreState) Process() bool { return stateFlags[s].process }

// Ignoring reports whether the machine is inside an ignored region after
// this placeholder.
func (s IgnoreState) Ignoring() bool { return stateFlags[s].ignoring }

// IgnoreRelated reports whether the placeholder is a marker owned by the
// machine rather than by a handler.
func (s IgnoreState) IgnoreRelated() bool { return stateFlags[s].ignoreRelated }

// IgnoreMachine tracks Ignore/EndIgnore/Exit markers over one scan.
type IgnoreMachine struct {
	ignoring bool
}

// Advance feeds the key of the next placeholder.
func (m *IgnoreMachine) Advance(key string) IgnoreState {
	switch {
	case key == KeyEndIgnore:
		m.ignoring = false
		return StateEndIgnore
	case m.ignoring:
		return StateIgnoring
	case key == KeyIgnore:
		m.ignoring = true
		return StateStartIgnore
	case key == KeyExit:
		m.ignoring = true
		return StateExit
	}
	return StateNormal
}

// Ignoring reports whether the machine is inside an ignored region.
func (m *IgnoreMachine) Ignoring() bool { return m.ignoring }

// Reset returns to the normal state.
func (m *IgnoreMachine) Reset() { m.ignoring = false }
