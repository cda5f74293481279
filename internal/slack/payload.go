package slack

import "encoding/json"

// Inbound payload types for the Events API and interactivity requests.
// https://api.slack.com/reference/interaction-payloads

// EventEnvelope is the body of an Events API request. Challenge is only set
// for url_verification handshakes.
type EventEnvelope struct {
	Type      string       `json:"type"`
	Challenge string       `json:"challenge"`
	Event     InboundEvent `json:"event"`
}

type InboundEvent struct {
	Type string `json:"type"`
	User string `json:"user"`
}

// InteractionPayload is the decoded "payload" form field of an
// interactivity request: a block_actions, view_submission or view_closed
// record.
type InteractionPayload struct {
	Type      string          `json:"type"`
	User      InteractionUser `json:"user"`
	TriggerID string          `json:"trigger_id"`
	View      *ViewPayload    `json:"view"`
	Actions   []ActionPayload `json:"actions"`
}

type InteractionUser struct {
	ID string `json:"id"`
}

type ActionPayload struct {
	ActionID       string          `json:"action_id"`
	SelectedOption *SelectedOption `json:"selected_option"`
}

type SelectedOption struct {
	Value string `json:"value"`
}

// ViewPayload carries the server-side identity and submitted state of the
// view an interaction happened in.
type ViewPayload struct {
	ID         string    `json:"id"`
	CallbackID string    `json:"callback_id"`
	State      ViewState `json:"state"`
}

type ViewState struct {
	// Values is keyed by block id, then action id.
	Values map[string]map[string]InputValue `json:"values"`
}

type InputValue struct {
	Value string `json:"value"`
}

// InputValue returns the submitted value of one input block, or "" when the
// block is missing from the state.
func (v *ViewPayload) InputValue(blockID, actionID string) string {
	if v == nil {
		return ""
	}
	block, ok := v.State.Values[blockID]
	if !ok {
		return ""
	}
	return block[actionID].Value
}

// ParseInteraction decodes the raw payload field of an interactivity
// request.
func ParseInteraction(payload []byte) (*InteractionPayload, error) {
	var p InteractionPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SubmissionResponse is the synchronous answer to a view_submission:
// field-level errors, a replacement view, or nothing (plain ack).
// https://api.slack.com/surfaces/modals/using#handling_submissions
type SubmissionResponse struct {
	ResponseAction string            `json:"response_action"`
	Errors         map[string]string `json:"errors,omitempty"`
	View           *View             `json:"view,omitempty"`
}

// ErrorsResponse builds a view_submission response surfacing field errors
// inline on the submitted form.
func ErrorsResponse(errors map[string]string) *SubmissionResponse {
	return &SubmissionResponse{ResponseAction: "errors", Errors: errors}
}

// UpdateResponse builds a view_submission response replacing the modal.
func UpdateResponse(view *View) *SubmissionResponse {
	return &SubmissionResponse{ResponseAction: "update", View: view}
}
