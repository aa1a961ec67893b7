// Package space models the tunable configuration space of a schedule
// template.
//
// A ConfigSpace is an ordered registry of knobs. Each knob names one
// tunable dimension (an explicit enumeration, a split factorization, a
// loop reorder, or an annotation choice) with a finite, enumerable
// domain. The space is populated during a single discovery pass over a
// template and frozen afterwards.
//
// A ConfigEntity is one fully-resolved point in a frozen space: an
// ordinal chosen for every knob. Entities are addressable by a single
// integer index in [0, Size()) through a mixed-radix codec, so search
// strategies can treat the space as a flat index range.
package space
