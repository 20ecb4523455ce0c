package domain

type ResearchPhase string

const (
	PhaseDiscover  ResearchPhase = "discover"
	PhaseDesign    ResearchPhase = "design"
	PhaseBuild     ResearchPhase = "build"
	PhaseRecruit   ResearchPhase = "recruit"
	PhaseCollect   ResearchPhase = "collect"
	PhaseAnalyze   ResearchPhase = "analyze"
	PhaseVisualize ResearchPhase = "visualize"
	PhaseInterpret ResearchPhase = "interpret"
	PhaseReport    ResearchPhase = "report"
	PhaseArchive   ResearchPhase = "archive"
)

// AllPhases lists every research phase in canonical lifecycle order.
var AllPhases = []ResearchPhase{
	PhaseDiscover,
	PhaseDesign,
	PhaseBuild,
	PhaseRecruit,
	PhaseCollect,
	PhaseAnalyze,
	PhaseVisualize,
	PhaseInterpret,
	PhaseReport,
	PhaseArchive,
}

const (
	// CompleteThreshold is the phase progress at which a phase counts as done
	// for recommendation purposes.
	CompleteThreshold = 80
	// UnlockThreshold is the dependency progress at which a phase becomes available.
	UnlockThreshold = 50
)

var phaseLabels = map[ResearchPhase]string{
	PhaseDiscover:  "Discover",
	PhaseDesign:    "Design",
	PhaseBuild:     "Build",
	PhaseRecruit:   "Recruit",
	PhaseCollect:   "Collect",
	PhaseAnalyze:   "Analyze",
	PhaseVisualize: "Visualize",
	PhaseInterpret: "Interpret",
	PhaseReport:    "Report",
	PhaseArchive:   "Archive",
}

// Valid reports whether p is one of the ten known phases.
func (p ResearchPhase) Valid() bool {
	_, ok := phaseLabels[p]
	return ok
}

// Label returns the display name of the phase.
func (p ResearchPhase) Label() string {
	if l, ok := phaseLabels[p]; ok {
		return l
	}
	return string(p)
}

// Index returns the position of p in AllPhases, or -1.
func (p ResearchPhase) Index() int {
	for i, ph := range AllPhases {
		if ph == p {
			return i
		}
	}
	return -1
}

func (p ResearchPhase) String() string {
	return string(p)
}

// ParsePhase converts a raw string into a ResearchPhase.
func ParsePhase(s string) (ResearchPhase, error) {
	p := ResearchPhase(s)
	if !p.Valid() {
		return "", &PhaseNotFoundError{Phase: s}
	}
	return p, nil
}

// PhaseNames returns the string values of AllPhases, used for flag help and completion.
func PhaseNames() []string {
	names := make([]string, len(AllPhases))
	for i, p := range AllPhases {
		names[i] = string(p)
	}
	return names
}
