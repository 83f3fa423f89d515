package bot

import (
	"sync"

	tele "gopkg.in/telebot.v4"
)

// fakeContext implements the parts of tele.Context the handlers touch.
type fakeContext struct {
	tele.Context
	sender   *tele.User
	chat     *tele.Chat
	message  *tele.Message
	callback *tele.Callback
	store    map[string]any

	replies   []string
	markups   []*tele.ReplyMarkup
	responses []*tele.CallbackResponse
}

func newContext(userID int64, msg *tele.Message) *fakeContext {
	chat := &tele.Chat{ID: userID}
	if msg != nil {
		msg.Chat = chat
	}
	return &fakeContext{
		sender:  &tele.User{ID: userID},
		chat:    chat,
		message: msg,
		store:   map[string]any{},
	}
}

func (f *fakeContext) Sender() *tele.User        { return f.sender }
func (f *fakeContext) Chat() *tele.Chat          { return f.chat }
func (f *fakeContext) Message() *tele.Message    { return f.message }
func (f *fakeContext) Callback() *tele.Callback  { return f.callback }
func (f *fakeContext) Update() tele.Update       { return tele.Update{ID: 1, Message: f.message, Callback: f.callback} }
func (f *fakeContext) Get(key string) any        { return f.store[key] }
func (f *fakeContext) Set(key string, value any) { f.store[key] = value }

func (f *fakeContext) Text() string {
	if f.message == nil {
		return ""
	}
	return f.message.Text
}

func (f *fakeContext) Reply(what any, opts ...any) error {
	f.replies = append(f.replies, what.(string))
	for _, o := range opts {
		if so, ok := o.(*tele.SendOptions); ok && so.ReplyMarkup != nil {
			f.markups = append(f.markups, so.ReplyMarkup)
		}
	}
	return nil
}

func (f *fakeContext) Send(what any, opts ...any) error {
	return f.Reply(what, opts...)
}

func (f *fakeContext) Respond(resp ...*tele.CallbackResponse) error {
	f.responses = append(f.responses, resp...)
	return nil
}

// fakeBot records Bot API calls made by the transport and status messages.
type fakeBot struct {
	mu      sync.Mutex
	file    tele.File
	fileErr error
	sendErr error
	sent    []any
	sendTo  []*tele.SendOptions
	edits   []string
	nextID  int
}

func (b *fakeBot) FileByID(string) (tele.File, error) {
	return b.file, b.fileErr
}

func (b *fakeBot) Send(_ tele.Recipient, what any, opts ...any) (*tele.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sendErr != nil {
		return nil, b.sendErr
	}
	b.sent = append(b.sent, what)
	for _, o := range opts {
		if so, ok := o.(*tele.SendOptions); ok {
			b.sendTo = append(b.sendTo, so)
		}
	}
	b.nextID++
	return &tele.Message{ID: b.nextID}, nil
}

func (b *fakeBot) Edit(_ tele.Editable, what any, _ ...any) (*tele.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.edits = append(b.edits, what.(string))
	return &tele.Message{}, nil
}
