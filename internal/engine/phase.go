package engine

import "fmt"

// Phase orders rule application over a document.
type Phase int

const (
	PhaseLocation Phase = iota
	PhaseInsertion
	PhaseRemoval
	PhaseSetup
	PhaseMain
	PhaseCleanup
	// PhaseCleanupBraces is only used to look up the core brace cleanup
	// provider. Documents never carry it.
	PhaseCleanupBraces
)

// Phases lists the document phases in application order.
var Phases = []Phase{PhaseLocation, PhaseInsertion, PhaseRemoval, PhaseSetup, PhaseMain, PhaseCleanup}

var phaseNames = map[Phase]string{
	PhaseLocation:      "location",
	PhaseInsertion:     "insertion",
	PhaseRemoval:       "removal",
	PhaseSetup:         "setup",
	PhaseMain:          "main",
	PhaseCleanup:       "cleanup",
	PhaseCleanupBraces: "cleanup_braces",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// ParsePhase resolves a phase by name.
func ParsePhase(name string) (Phase, error) {
	for p, n := range phaseNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", name)
}
