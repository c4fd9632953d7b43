package testutil

import (
	"sync"

	tele "gopkg.in/telebot.v3"
)

// FakeContext is a tele.Context for handler tests. It records replies
// instead of calling the Telegram API. Methods it does not override panic.
type FakeContext struct {
	tele.Context

	User     *tele.User
	Msg      *tele.Message
	Cb       *tele.Callback
	mu       sync.Mutex
	replies  []string
	markups  []*tele.ReplyMarkup
	Answered []*tele.CallbackResponse
	// Acks counts Respond calls, including bare acknowledgements
	Acks int
}

// NewTextContext creates a context for a text message from userID
func NewTextContext(userID int64, text string) *FakeContext {
	user := &tele.User{ID: userID, FirstName: "Sarah", LastName: "Johnson", Username: "sarah"}
	return &FakeContext{
		User: user,
		Msg:  &tele.Message{ID: 1, Sender: user, Text: text, Chat: &tele.Chat{ID: userID}},
	}
}

// NewCallbackContext creates a context for an inline button press from userID
func NewCallbackContext(userID int64, unique, data string) *FakeContext {
	c := NewTextContext(userID, "")
	c.Cb = &tele.Callback{ID: "cb", Unique: unique, Data: data, Message: c.Msg, Sender: c.User}
	return c
}

func (f *FakeContext) Sender() *tele.User { return f.User }
func (f *FakeContext) Message() *tele.Message { return f.Msg }
func (f *FakeContext) Callback() *tele.Callback { return f.Cb }
func (f *FakeContext) Chat() *tele.Chat { return f.Msg.Chat }
func (f *FakeContext) Get(string) interface{} { return nil }
func (f *FakeContext) Set(string, interface{}) {}
func (f *FakeContext) Notify(tele.ChatAction) error { return nil }

func (f *FakeContext) Text() string {
	if f.Msg == nil {
		return ""
	}
	return f.Msg.Text
}

func (f *FakeContext) Data() string {
	if f.Cb == nil {
		return ""
	}
	return f.Cb.Data
}

func (f *FakeContext) Send(what interface{}, opts ...interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(what, opts)
	return nil
}

func (f *FakeContext) Edit(what interface{}, opts ...interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(what, opts)
	return nil
}

func (f *FakeContext) Respond(resp ...*tele.CallbackResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Acks++
	f.Answered = append(f.Answered, resp...)
	return nil
}

func (f *FakeContext) record(what interface{}, opts []interface{}) {
	if s, ok := what.(string); ok {
		f.replies = append(f.replies, s)
	}
	for _, opt := range opts {
		if m, ok := opt.(*tele.ReplyMarkup); ok {
			f.markups = append(f.markups, m)
		}
	}
}

// Replies returns every sent or edited text in order
func (f *FakeContext) Replies() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.replies...)
}

// LastReply returns the most recent sent or edited text
func (f *FakeContext) LastReply() string {
	replies := f.Replies()
	if len(replies) == 0 {
		return ""
	}
	return replies[len(replies)-1]
}

// LastMarkup returns the most recent inline keyboard
func (f *FakeContext) LastMarkup() *tele.ReplyMarkup {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.markups) == 0 {
		return nil
	}
	return f.markups[len(f.markups)-1]
}
