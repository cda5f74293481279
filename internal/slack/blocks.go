package slack

// Block Kit wire types. Only the block and element kinds this app renders
// are modeled; the JSON tags match Slack's surface payload format.
// https://api.slack.com/reference/block-kit/blocks

// Block is any Block Kit layout block. Blocks are heterogeneous on the
// wire, so views carry them as a plain slice.
type Block any

// TextObject is a plain_text or mrkdwn composition object. Emoji is a
// pointer because Slack distinguishes absent from explicit false.
type TextObject struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji *bool  `json:"emoji,omitempty"`
}

// PlainText builds a plain_text object.
func PlainText(text string) *TextObject {
	return &TextObject{Type: "plain_text", Text: text}
}

// PlainTextNoEmoji builds a plain_text object with emoji rendering off,
// used for modal titles and buttons.
func PlainTextNoEmoji(text string) *TextObject {
	off := false
	return &TextObject{Type: "plain_text", Text: text, Emoji: &off}
}

// Mrkdwn builds a mrkdwn text object.
func Mrkdwn(text string) *TextObject {
	return &TextObject{Type: "mrkdwn", Text: text}
}

type SectionBlock struct {
	Type      string        `json:"type"`
	Text      *TextObject   `json:"text,omitempty"`
	Fields    []*TextObject `json:"fields,omitempty"`
	Accessory any           `json:"accessory,omitempty"`
}

func Section(text *TextObject) *SectionBlock {
	return &SectionBlock{Type: "section", Text: text}
}

type ActionsBlock struct {
	Type     string `json:"type"`
	Elements []any  `json:"elements"`
}

func Actions(elements ...any) *ActionsBlock {
	return &ActionsBlock{Type: "actions", Elements: elements}
}

type DividerBlock struct {
	Type string `json:"type"`
}

func Divider() *DividerBlock {
	return &DividerBlock{Type: "divider"}
}

type InputBlock struct {
	Type     string      `json:"type"`
	BlockID  string      `json:"block_id"`
	Label    *TextObject `json:"label"`
	Element  any         `json:"element"`
	Optional bool        `json:"optional"`
}

type ButtonElement struct {
	Type     string         `json:"type"`
	ActionID string         `json:"action_id,omitempty"`
	Text     *TextObject    `json:"text"`
	Style    string         `json:"style,omitempty"`
	URL      string         `json:"url,omitempty"`
	Confirm  *ConfirmObject `json:"confirm,omitempty"`
}

type ConfirmObject struct {
	Title *TextObject `json:"title"`
	Text  *TextObject `json:"text"`
}

type OverflowElement struct {
	Type     string    `json:"type"`
	ActionID string    `json:"action_id"`
	Options  []*Option `json:"options"`
}

type RadioButtonsElement struct {
	Type     string    `json:"type"`
	ActionID string    `json:"action_id"`
	Options  []*Option `json:"options"`
}

type Option struct {
	Text        *TextObject `json:"text"`
	Description *TextObject `json:"description,omitempty"`
	Value       string      `json:"value"`
}

type PlainTextInputElement struct {
	Type         string      `json:"type"`
	ActionID     string      `json:"action_id"`
	Placeholder  *TextObject `json:"placeholder,omitempty"`
	InitialValue string      `json:"initial_value,omitempty"`
	Multiline    bool        `json:"multiline"`
}

// View is a Slack surface document: a Home tab (type "home") or a modal
// (type "modal"). Title, Submit, Close and CallbackID apply to modals only.
type View struct {
	Type       string      `json:"type"`
	Title      *TextObject `json:"title,omitempty"`
	Submit     *TextObject `json:"submit,omitempty"`
	Close      *TextObject `json:"close,omitempty"`
	Blocks     []Block     `json:"blocks"`
	CallbackID string      `json:"callback_id,omitempty"`
}

// HomeView builds a Home tab document from blocks.
func HomeView(blocks ...Block) *View {
	return &View{Type: "home", Blocks: blocks}
}
