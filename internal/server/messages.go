package server

import (
	"sync"

	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/bus"
)

// logCap bounds the per-scope message history served to the polling widget.
const logCap = 256

// scopeLog is one scope's retained message tail. base is the absolute offset
// of the first retained message, so client offsets survive truncation.
type scopeLog struct {
	base int
	msgs []bus.ChatMessage
}

// messageLog records bus messages per scope so HTTP clients can poll them.
type messageLog struct {
	cancel func()

	mu       sync.RWMutex
	byScope  map[string]*scopeLog
	stopOnce sync.Once
}

func newMessageLog(emitter *bus.Emitter) *messageLog {
	l := &messageLog{byScope: make(map[string]*scopeLog)}
	ch, cancel := emitter.Subscribe()
	l.cancel = cancel

	go func() {
		for msg := range ch {
			l.append(msg)
		}
	}()
	return l
}

func (l *messageLog) append(msg bus.ChatMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()

	sl := l.byScope[msg.Scope]
	if sl == nil {
		sl = &scopeLog{}
		l.byScope[msg.Scope] = sl
	}
	sl.msgs = append(sl.msgs, msg)
	if over := len(sl.msgs) - logCap; over > 0 {
		sl.msgs = sl.msgs[over:]
		sl.base += over
	}
}

// since returns messages for the scope at or after the given absolute offset,
// plus the offset to poll from next. Offsets older than the retained tail
// resume from the oldest retained message instead of re-serving from zero.
func (l *messageLog) since(scope string, offset int) ([]bus.ChatMessage, int) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	sl := l.byScope[scope]
	if sl == nil {
		return nil, 0
	}
	idx := offset - sl.base
	if idx < 0 {
		idx = 0
	}
	if idx > len(sl.msgs) {
		idx = len(sl.msgs)
	}
	out := make([]bus.ChatMessage, len(sl.msgs)-idx)
	copy(out, sl.msgs[idx:])
	return out, sl.base + len(sl.msgs)
}

func (l *messageLog) stop() {
	l.stopOnce.Do(l.cancel)
}
