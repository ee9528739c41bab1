// Package result holds the latest lookup response and turns the server's
// HTML into something a terminal can show.
package result

import "sync"

// Area is the result container. The last SetHTML call wins.
type Area struct {
	mu        sync.RWMutex
	html      string
	version   uint64
	listeners []func(string)
}

// NewArea creates an empty result container.
func NewArea() *Area {
	return &Area{}
}

// SetHTML replaces the contents with the raw response body.
func (a *Area) SetHTML(html string) {
	a.mu.Lock()
	a.html = html
	a.version++
	listeners := append([]func(string){}, a.listeners...)
	a.mu.Unlock()

	for _, fn := range listeners {
		fn(html)
	}
}

// HTML returns the current contents.
func (a *Area) HTML() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.html
}

// Version increments on every SetHTML and is zero for an empty area.
func (a *Area) Version() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.version
}

// OnChange registers fn to run after each SetHTML.
func (a *Area) OnChange(fn func(string)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}
