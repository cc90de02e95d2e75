package bot

import "sync"

// CommandEvent is an inbound slash-command invocation, already decoded by
// the presentation layer.
type CommandEvent struct {
	Name       string
	Subcommand string
	Options    map[string]string
	UserID     string
	GuildID    string
}

// ButtonEvent is an inbound button click. CustomID carries the execution id
// and the button id joined by an underscore.
type ButtonEvent struct {
	CustomID string
	UserID   string
}

// ButtonComponent is a rendered button reference for the presentation layer.
type ButtonComponent struct {
	CustomID string      `json:"custom_id"`
	Label    string      `json:"label"`
	Style    ButtonStyle `json:"style"`
}

// Embed is a rich content block attached to a reply.
type Embed struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	Color       int    `json:"color,omitempty"`
}

// Reply is the user-visible result of handling an interaction.
type Reply struct {
	Content   string            `json:"content"`
	Ephemeral bool              `json:"ephemeral,omitempty"`
	Update    bool              `json:"update,omitempty"`
	Embeds    []Embed           `json:"embeds,omitempty"`
	Buttons   []ButtonComponent `json:"buttons,omitempty"`
}

// Execution is one live command execution: the deserialized state plus the
// reply its handler is building. Handlers mutate State freely; the
// dispatcher serializes it back after every interaction.
type Execution struct {
	ID      string
	UserID  string
	GuildID string
	State   map[string]any

	// mu serializes interactions on this execution. The instance cache
	// hands the same pointer to every concurrent click, and State is an
	// ordinary map.
	mu sync.Mutex

	command *Command
	version string
	reply   *Reply
}

// Reply sets the user-visible reply for this interaction.
func (e *Execution) Reply(content string, buttons ...ButtonComponent) {
	e.reply = &Reply{Content: content, Buttons: buttons}
}

// ReplyEphemeral sets a reply only the invoking user sees.
func (e *Execution) ReplyEphemeral(content string) {
	e.reply = &Reply{Content: content, Ephemeral: true}
}

// Update sets a reply that edits the message the clicked button belongs to.
func (e *Execution) Update(content string, buttons ...ButtonComponent) {
	e.reply = &Reply{Content: content, Update: true, Buttons: buttons}
}

// Embed appends a rich embed to the pending reply. It is a no-op when no
// reply has been set yet.
func (e *Execution) Embed(embed Embed) {
	if e.reply != nil {
		e.reply.Embeds = append(e.reply.Embeds, embed)
	}
}

// Button returns the rendered component for one of the command's registered
// buttons, bound to this execution's id. An unregistered label yields a
// component with an empty custom id.
func (e *Execution) Button(label string) ButtonComponent {
	id := NormalizeLabel(label)
	btn := e.command.button(id)
	if btn == nil {
		return ButtonComponent{}
	}
	return ButtonComponent{
		CustomID: e.ID + "_" + id,
		Label:    btn.Label,
		Style:    btn.Style,
	}
}
