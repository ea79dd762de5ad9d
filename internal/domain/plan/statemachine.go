package plan

// Event names a state-machine trigger.
type Event string

const (
	EventFirstContextQuestion  Event = "first_context_question_requested"
	EventContextSufficient    Event = "context_sufficient"
	EventScopeQuestionAsked   Event = "scope_question_asked"
	EventScopeDraftApproved   Event = "scope_draft_approved"
	EventIFRGenerated         Event = "ifr_generated"
	EventRequirementsGenerated Event = "requirements_generated"
	EventNetworkPlanGenerated Event = "network_plan_generated"
	EventExecutionStarted     Event = "execution_started"
	EventAllSubtasksComplete  Event = "all_subtasks_complete"
	EventFatalError           Event = "fatal_error"
)

type edge struct {
	from  Status
	event Event
	to    Status
}

// legalEdges encodes the Task lifecycle's transition table. EventFatalError
// is legal from every state and is handled separately below.
var legalEdges = []edge{
	{StatusNew, EventFirstContextQuestion, StatusContextGathering},
	{StatusContextGathering, EventContextSufficient, StatusContextGathered},
	{StatusContextGathered, EventScopeQuestionAsked, StatusTaskFormation},
	{StatusTaskFormation, EventScopeDraftApproved, StatusContextGathered},
	{StatusContextGathered, EventIFRGenerated, StatusIFRGenerated},
	{StatusIFRGenerated, EventRequirementsGenerated, StatusRequirementsDefined},
	{StatusRequirementsDefined, EventNetworkPlanGenerated, StatusNetworkPlanGenerated},
	{StatusNetworkPlanGenerated, EventExecutionStarted, StatusExecuting},
	{StatusExecuting, EventAllSubtasksComplete, StatusCompleted},
}

// forceableEvents lists the events a force=true caller may trigger even
// when the precondition is unmet: context gathering termination and
// network-plan regeneration.
var forceableEvents = map[Event]bool{
	EventContextSufficient:    true,
	EventNetworkPlanGenerated: true,
}

// Transition computes the next Status for (current, event), honoring the
// force override where forceableEvents marks it legal. It is a pure
// function: no side effects, no persistence.
func Transition(current Status, event Event, force bool) (Status, error) {
	if event == EventFatalError {
		return StatusFailed, nil
	}
	for _, e := range legalEdges {
		if e.from == current && e.event == event {
			return e.to, nil
		}
	}
	if force && forceableEvents[event] {
		switch event {
		case EventContextSufficient:
			return StatusContextGathered, nil
		case EventNetworkPlanGenerated:
			return StatusNetworkPlanGenerated, nil
		}
	}
	return current, InvalidStateError(
		"illegal transition: event " + string(event) + " is not valid from state " + string(current))
}

// CanForce reports whether event accepts a force=true override.
func CanForce(event Event) bool {
	return forceableEvents[event]
}

// IsTerminal reports whether status ends the Task lifecycle.
func IsTerminal(status Status) bool {
	return status == StatusCompleted || status == StatusFailed
}
