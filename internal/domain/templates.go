package domain

import "slices"

// TaskTemplate is the static definition a PhaseTask is instantiated from.
type TaskTemplate struct {
	ID          string  `json:"id" yaml:"id"`
	Label       string  `json:"label" yaml:"label"`
	Description string  `json:"description" yaml:"description"`
	Required    bool    `json:"required" yaml:"required"`
	Weight      float64 `json:"weight" yaml:"weight"`
}

// PhaseTaskTemplates holds the ordered task definitions for every phase.
// Weights are relative; progress normalizes them at computation time.
var PhaseTaskTemplates = map[ResearchPhase][]TaskTemplate{
	PhaseDiscover: {
		{ID: "lit-search", Label: "Literature search", Description: "Search databases for prior work on the topic", Required: true, Weight: 0.3},
		{ID: "refs-import", Label: "Import references", Description: "Import relevant papers into the reference library", Required: true, Weight: 0.2},
		{ID: "gaps-analysis", Label: "Research gaps", Description: "Identify gaps the study will address", Required: true, Weight: 0.25},
		{ID: "knowledge-map", Label: "Knowledge map", Description: "Map themes and authors across the literature", Required: false, Weight: 0.15},
		{ID: "framework", Label: "Theoretical framework", Description: "Draft the theoretical framework", Required: false, Weight: 0.1},
	},
	PhaseDesign: {
		{ID: "research-question", Label: "Research question", Description: "Formulate the research question", Required: true, Weight: 0.25},
		{ID: "concourse", Label: "Define concourse", Description: "Collect the concourse of opinions on the topic", Required: true, Weight: 0.2},
		{ID: "q-set", Label: "Select Q-set", Description: "Select the statements participants will sort", Required: true, Weight: 0.25},
		{ID: "grid-design", Label: "Sorting grid", Description: "Choose the forced distribution shape", Required: true, Weight: 0.2},
		{ID: "pilot-plan", Label: "Pilot plan", Description: "Plan a pilot sort with a small group", Required: false, Weight: 0.1},
	},
	PhaseBuild: {
		{ID: "study-setup", Label: "Study setup", Description: "Create the study and load statements", Required: true, Weight: 0.3},
		{ID: "instructions", Label: "Sorting instructions", Description: "Write condition of instruction and welcome text", Required: true, Weight: 0.2},
		{ID: "consent-form", Label: "Consent form", Description: "Attach the approved consent form", Required: true, Weight: 0.2},
		{ID: "pre-survey", Label: "Pre-sort survey", Description: "Add demographic questions", Required: false, Weight: 0.15},
		{ID: "post-survey", Label: "Post-sort survey", Description: "Add follow-up questions on extreme placements", Required: false, Weight: 0.15},
	},
	PhaseRecruit: {
		{ID: "p-set", Label: "Participant set", Description: "Define the participant set criteria", Required: true, Weight: 0.3},
		{ID: "invitations", Label: "Send invitations", Description: "Send invitations to participants", Required: true, Weight: 0.3},
		{ID: "screening", Label: "Screening", Description: "Screen participants against criteria", Required: false, Weight: 0.2},
		{ID: "reminders", Label: "Reminders", Description: "Schedule reminder messages", Required: false, Weight: 0.2},
	},
	PhaseCollect: {
		{ID: "launch", Label: "Launch study", Description: "Open the study for responses", Required: true, Weight: 0.3},
		{ID: "monitor", Label: "Monitor responses", Description: "Track completion and drop-off", Required: true, Weight: 0.3},
		{ID: "data-quality", Label: "Data quality review", Description: "Check sorts for incomplete or invalid data", Required: true, Weight: 0.25},
		{ID: "close", Label: "Close collection", Description: "Close the study to new participants", Required: false, Weight: 0.15},
	},
	PhaseAnalyze: {
		{ID: "correlation", Label: "Correlation matrix", Description: "Correlate participant sorts", Required: true, Weight: 0.25},
		{ID: "factor-extraction", Label: "Factor extraction", Description: "Extract factors with centroid or PCA", Required: true, Weight: 0.3},
		{ID: "rotation", Label: "Factor rotation", Description: "Rotate factors with varimax or by hand", Required: true, Weight: 0.25},
		{ID: "factor-arrays", Label: "Factor arrays", Description: "Compute idealized factor arrays", Required: false, Weight: 0.2},
	},
	PhaseVisualize: {
		{ID: "factor-charts", Label: "Factor charts", Description: "Render composite sorts per factor", Required: true, Weight: 0.4},
		{ID: "distinguishing", Label: "Distinguishing statements", Description: "Chart statements that separate factors", Required: false, Weight: 0.3},
		{ID: "consensus-chart", Label: "Consensus chart", Description: "Chart statements shared across factors", Required: false, Weight: 0.3},
	},
	PhaseInterpret: {
		{ID: "factor-narratives", Label: "Factor narratives", Description: "Write a narrative for each factor", Required: true, Weight: 0.4},
		{ID: "consensus-statements", Label: "Consensus statements", Description: "Interpret statements shared across factors", Required: true, Weight: 0.3},
		{ID: "theory-link", Label: "Link to theory", Description: "Relate findings to the theoretical framework", Required: false, Weight: 0.3},
	},
	PhaseReport: {
		{ID: "draft", Label: "Draft report", Description: "Write the full report draft", Required: true, Weight: 0.4},
		{ID: "methods-section", Label: "Methods section", Description: "Document Q-set, P-set and analysis choices", Required: true, Weight: 0.3},
		{ID: "export-results", Label: "Export results", Description: "Export tables and figures", Required: false, Weight: 0.3},
	},
	PhaseArchive: {
		{ID: "data-archive", Label: "Archive data", Description: "Deposit anonymized sorts in a repository", Required: true, Weight: 0.5},
		{ID: "materials", Label: "Archive materials", Description: "Archive statements, instructions and surveys", Required: false, Weight: 0.3},
		{ID: "doi", Label: "Register DOI", Description: "Mint a persistent identifier", Required: false, Weight: 0.2},
	},
}

// PhaseDependencies lists the prerequisite phases of each phase.
var PhaseDependencies = map[ResearchPhase][]ResearchPhase{
	PhaseDiscover:  {},
	PhaseDesign:    {PhaseDiscover},
	PhaseBuild:     {PhaseDesign},
	PhaseRecruit:   {PhaseBuild},
	PhaseCollect:   {PhaseRecruit},
	PhaseAnalyze:   {PhaseCollect},
	PhaseVisualize: {PhaseAnalyze},
	PhaseInterpret: {PhaseAnalyze, PhaseVisualize},
	PhaseReport:    {PhaseInterpret},
	PhaseArchive:   {PhaseReport},
}

// NewPhaseProgress instantiates a fresh PhaseProgress from the static
// template and dependency tables, with every task incomplete.
func NewPhaseProgress(ph ResearchPhase) *PhaseProgress {
	tmpl := PhaseTaskTemplates[ph]
	tasks := make([]PhaseTask, len(tmpl))
	for i, t := range tmpl {
		tasks[i] = PhaseTask{
			ID:          t.ID,
			Label:       t.Label,
			Description: t.Description,
			Required:    t.Required,
			Weight:      t.Weight,
		}
	}
	return &PhaseProgress{
		Phase:        ph,
		Tasks:        tasks,
		Blockers:     []string{},
		Dependencies: slices.Clone(PhaseDependencies[ph]),
	}
}
