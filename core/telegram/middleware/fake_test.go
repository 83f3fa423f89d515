package middleware

import tele "gopkg.in/telebot.v4"

// fakeContext implements the parts of tele.Context the middlewares touch.
type fakeContext struct {
	tele.Context
	sender *tele.User
	update tele.Update
	store  map[string]any
}

func newFake(userID int64) *fakeContext {
	f := &fakeContext{store: map[string]any{}, update: tele.Update{ID: 1, Message: &tele.Message{}}}
	if userID != 0 {
		f.sender = &tele.User{ID: userID}
	}
	return f
}

func (f *fakeContext) Sender() *tele.User      { return f.sender }
func (f *fakeContext) Chat() *tele.Chat        { return nil }
func (f *fakeContext) Update() tele.Update     { return f.update }
func (f *fakeContext) Get(key string) any      { return f.store[key] }
func (f *fakeContext) Set(key string, val any) { f.store[key] = val }
