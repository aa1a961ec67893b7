// Package template evaluates schedule templates in two modes from a
// single function body.
//
// A Template declares its tunable knobs and constructs a Schedule by
// talking to a Context it receives as an explicit parameter. In
// discovery mode the context records knob definitions into a fresh
// space and answers value lookups with the first domain element, so the
// template body runs end to end. In apply mode definitions are no-ops
// and lookups return the values bound by a chosen entity, materializing
// the concrete schedule for that configuration.
//
// The context is always passed explicitly; there is no ambient or
// global configuration lookup.
package template
