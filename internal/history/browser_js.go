//go:build js && wasm

package history

import (
	"encoding/json"
	"net/url"
	"syscall/js"
)

// Poster schedules work on the event loop.
type Poster interface {
	Post(fn func()) bool
}

// BrowserHistory is the Backend over window.history. States are stored as
// plain JS objects; popstate notifications are posted to the loop.
type BrowserHistory struct {
	window js.Value
	loop   Poster
}

var _ Backend = (*BrowserHistory)(nil)

// NewBrowserHistory binds the global window.
func NewBrowserHistory(loop Poster) *BrowserHistory {
	return &BrowserHistory{window: js.Global(), loop: loop}
}

// Location implements Backend.
func (b *BrowserHistory) Location() *url.URL {
	u, err := url.Parse(b.window.Get("location").Get("href").String())
	if err != nil {
		return &url.URL{Path: "/"}
	}
	return u
}

// Supported implements Backend.
func (b *BrowserHistory) Supported() bool {
	h := b.window.Get("history")
	return h.Truthy() && h.Get("pushState").Type() == js.TypeFunction
}

// PushState implements Backend.
func (b *BrowserHistory) PushState(state json.RawMessage, rawURL string) error {
	return b.call("pushState", state, rawURL)
}

// ReplaceState implements Backend.
func (b *BrowserHistory) ReplaceState(state json.RawMessage, rawURL string) error {
	return b.call("replaceState", state, rawURL)
}

func (b *BrowserHistory) call(method string, state json.RawMessage, rawURL string) (err error) {
	defer func() {
		// syscall/js panics with a js.Error when the call throws, e.g. a
		// SecurityError for a cross-origin URL.
		if r := recover(); r != nil {
			if jsErr, ok := r.(js.Error); ok {
				err = jsErr
				return
			}
			panic(r)
		}
	}()
	obj := js.Null()
	if len(state) > 0 {
		obj = b.window.Get("JSON").Call("parse", string(state))
	}
	b.window.Get("history").Call(method, obj, "", rawURL)
	return nil
}

// Subscribe implements Backend.
func (b *BrowserHistory) Subscribe(fn func(json.RawMessage)) func() {
	listener := js.FuncOf(func(this js.Value, args []js.Value) any {
		var state json.RawMessage
		if len(args) > 0 {
			if s := args[0].Get("state"); !s.IsNull() && !s.IsUndefined() {
				state = json.RawMessage(b.window.Get("JSON").Call("stringify", s).String())
			}
		}
		b.loop.Post(func() { fn(state) })
		return nil
	})
	b.window.Call("addEventListener", "popstate", listener)

	return func() {
		b.window.Call("removeEventListener", "popstate", listener)
		listener.Release()
	}
}
