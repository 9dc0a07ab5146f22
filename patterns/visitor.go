package patterns

import (
	"errors"
	"reflect"
)

var (
	// ErrInvalidVisitor is returned when Accept is given a nil visitor.
	ErrInvalidVisitor = errors.New("patterns: invalid visitor")
	// ErrUnsupportedVisitor is returned when a visitor handles none of the target's types.
	ErrUnsupportedVisitor = errors.New("patterns: unsupported visitor")
)

// AcyclicVisitor is any value offered to an Accept method. Which targets it
// handles is discovered at dispatch time.
type AcyclicVisitor any

// Visitor handles targets seen as T.
type Visitor[T any] interface {
	Visit(T)
}

// VisitorFunc adapts a function to Visitor[T].
type VisitorFunc[T any] func(T)

func (f VisitorFunc[T]) Visit(t T) { f(t) }

// Composite is a visitor assembled from handlers for several target types.
// A handler registered for T only fires when the target is viewed as exactly T.
type Composite struct {
	handlers map[reflect.Type]func(any)
}

// NewComposite returns an empty Composite.
func NewComposite() *Composite {
	return &Composite{handlers: make(map[reflect.Type]func(any))}
}

// On registers fn for targets viewed as T, replacing any previous handler.
func On[T any](c *Composite, fn func(T)) *Composite {
	c.handlers[reflect.TypeOf((*T)(nil)).Elem()] = func(v any) { fn(v.(T)) }
	return c
}

func (c *Composite) visitAs(t reflect.Type, target any) bool {
	h, ok := c.handlers[t]
	if !ok {
		return false
	}
	h(target)
	return true
}

// isNil catches typed nils hidden in the interface, such as a nil
// VisitorFunc or a nil pointer visitor.
func isNil(v AcyclicVisitor) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func, reflect.Pointer, reflect.Map, reflect.Interface, reflect.Slice, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// View is one way of seeing a dispatch target; see As.
type View func(v AcyclicVisitor) bool

// As views target as T. The view succeeds when the visitor is a Visitor[T]
// or a Composite with a handler for T.
func As[T any](target T) View {
	return func(v AcyclicVisitor) bool {
		switch tv := v.(type) {
		case Visitor[T]:
			tv.Visit(target)
			return true
		case *Composite:
			return tv.visitAs(reflect.TypeOf((*T)(nil)).Elem(), target)
		}
		return false
	}
}

// Dispatch offers the target to v through each view in turn, most derived
// first, and stops at the first one that handles it.
func Dispatch(v AcyclicVisitor, views ...View) error {
	if isNil(v) {
		return ErrInvalidVisitor
	}
	for _, view := range views {
		if view(v) {
			return nil
		}
	}
	return ErrUnsupportedVisitor
}
