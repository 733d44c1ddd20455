package claim

import "fmt"

// State is a step of a claim run
type State int

const (
	StateInit State = iota
	StateDiscoverFiles
	StateFetchSetup
	StateSelectProject
	StateCreateClaim
	StateProcessFile
	StateDone
	StateFailed
)

var stateNames = map[State]string{
	StateInit:          "INIT",
	StateDiscoverFiles: "DISCOVER_FILES",
	StateFetchSetup:    "FETCH_SETUP",
	StateSelectProject: "SELECT_PROJECT",
	StateCreateClaim:   "CREATE_CLAIM",
	StateProcessFile:   "PROCESS_FILE",
	StateDone:          "DONE",
	StateFailed:        "FAILED",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// transitions lists the forward moves allowed from each state.
// FAILED is reachable from every non-terminal state and is handled in transition.
var transitions = map[State][]State{
	StateInit:          {StateDiscoverFiles},
	StateDiscoverFiles: {StateFetchSetup},
	StateFetchSetup:    {StateSelectProject},
	StateSelectProject: {StateCreateClaim},
	StateCreateClaim:   {StateProcessFile},
	StateProcessFile:   {StateProcessFile, StateDone},
}

// machine tracks run progress and whether a remote claim exists
type machine struct {
	state        State
	claimCreated bool
}

func (m *machine) terminal() bool {
	return m.state == StateDone || m.state == StateFailed
}

// transition moves to the next state, rejecting moves the run graph does not allow
func (m *machine) transition(to State) error {
	if to == StateFailed && !m.terminal() {
		m.state = to
		return nil
	}
	for _, allowed := range transitions[m.state] {
		if allowed == to {
			m.state = to
			return nil
		}
	}
	return fmt.Errorf("invalid state transition %s -> %s", m.state, to)
}

// markClaimCreated records that a remote claim now exists. Only valid while creating it.
func (m *machine) markClaimCreated() error {
	if m.state != StateCreateClaim {
		return fmt.Errorf("claim created in state %s", m.state)
	}
	m.claimCreated = true
	return nil
}

// needsRollback is the single check deciding whether the claim must be deleted
func (m *machine) needsRollback() bool {
	return m.state == StateFailed && m.claimCreated
}
