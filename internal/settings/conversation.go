package settings

import "github.com/EamonHetherton/PVBeanCounter-sub003/internal/document"

// Conversation is a named script of messages exchanged with a device.
type Conversation struct {
	Node
	messages *Collection[*Message]
}

func newConversation(ctx *Context, el *document.Element) (*Conversation, error) {
	c := &Conversation{Node: newNode(ctx, el)}
	var err error
	c.messages, err = LoadCollection(ctx, el, TagMessage, newMessage)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Conversation) Name() string { return c.GetValue("name") }

func (c *Conversation) Messages() *Collection[*Message] { return c.messages }

// Message is one send or receive step in a conversation.
type Message struct {
	Node
	actions *Collection[*Action]
}

func newMessage(ctx *Context, el *document.Element) (*Message, error) {
	m := &Message{Node: newNode(ctx, el)}
	var err error
	m.actions, err = LoadCollection(ctx, el, TagAction, newAction)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Type is "send", "receive" or "find".
func (m *Message) Type() string { return m.GetValue("type") }

func (m *Message) Name() string { return m.GetValue("name") }

// Data is the message template.
func (m *Message) Data() string { return m.GetValue("data") }

func (m *Message) Actions() *Collection[*Action] { return m.actions }

// Action is a step run after a message.
type Action struct {
	Node
	parameters *Collection[*Parameter]
}

func newAction(ctx *Context, el *document.Element) (*Action, error) {
	a := &Action{Node: newNode(ctx, el)}
	var err error
	a.parameters, err = LoadCollection(ctx, el, TagParameter, newParameter)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Action) Type() string { return a.GetValue("type") }

func (a *Action) ExitOnSuccess() bool { return a.GetBool("exitonsuccess") }

func (a *Action) SetExitOnSuccess(v bool) { a.SetBool("exitonsuccess", v, TagAction) }

// ContinueOnFailure is always true for an action that exits on success.
// Otherwise it reflects the continueonfailure attribute.
func (a *Action) ContinueOnFailure() bool {
	if a.ExitOnSuccess() {
		return true
	}
	return a.GetBool("continueonfailure")
}

func (a *Action) SetContinueOnFailure(v bool) { a.SetBool("continueonfailure", v, TagAction) }

func (a *Action) Parameters() *Collection[*Parameter] { return a.parameters }

// Parameter is a name/value argument to an action.
type Parameter struct {
	Node
}

func newParameter(ctx *Context, el *document.Element) (*Parameter, error) {
	return &Parameter{Node: newNode(ctx, el)}, nil
}

func (p *Parameter) Name() string { return p.GetValue("name") }

func (p *Parameter) Value() string { return p.GetValue("value") }

func (p *Parameter) Set(v string) { p.SetValue("value", v, TagParameter) }
