package accel

// State tracks an acceleration structure through its build. Each build moves forward through
// the states in order and a failed build leaves the structure destroyed.
type State int32

var stateMapping = make(map[State]string)

func (s State) String() string {
	return stateMapping[s]
}

const (
	StateUnbuilt State = iota
	StateSizeQueried
	StateAllocated
	StateScratchReady
	StateBuilt
	StateDestroyed
)

func init() {
	stateMapping[StateUnbuilt] = "StateUnbuilt"
	stateMapping[StateSizeQueried] = "StateSizeQueried"
	stateMapping[StateAllocated] = "StateAllocated"
	stateMapping[StateScratchReady] = "StateScratchReady"
	stateMapping[StateBuilt] = "StateBuilt"
	stateMapping[StateDestroyed] = "StateDestroyed"
}
