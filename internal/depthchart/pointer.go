package depthchart

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownPointerEvent = errors.New("unknown pointer event")

type PointerEvent string

const (
	PointerEnter PointerEvent = "enter"
	PointerLeave PointerEvent = "leave"
	PointerMove  PointerEvent = "move"
)

func ParsePointerEvent(s string) (PointerEvent, error) {
	switch ev := PointerEvent(strings.ToLower(strings.TrimSpace(s))); ev {
	case PointerEnter, PointerLeave, PointerMove:
		return ev, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPointerEvent, s)
}

// Enter locks page scrolling while the pointer is over the chart.
func (c *Chart) Enter() {
	c.isScrolling = true
	c.locker.LockScroll()
}

// Leave releases the page scroll lock.
func (c *Chart) Leave() {
	c.isScrolling = false
	c.locker.UnlockScroll()
}

// Move clears the scrolling flag; the lock stays until Leave.
func (c *Chart) Move() {
	c.isScrolling = false
}

func (c *Chart) Pointer(ev PointerEvent) error {
	switch ev {
	case PointerEnter:
		c.Enter()
	case PointerLeave:
		c.Leave()
	case PointerMove:
		c.Move()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPointerEvent, string(ev))
	}
	return nil
}
