// Package measure builds and executes candidate configurations,
// converting per-candidate failures into failed results instead of
// errors.
//
// The Runner is the only concurrent component of a tuning session:
// builds fan out across a bounded worker pool, while runs execute
// strictly sequentially because the target device is a shared resource
// whose timing must not be disturbed by concurrent work.
package measure
