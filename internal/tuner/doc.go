// Package tuner searches a configuration space for low-latency
// schedules.
//
// A Tuner is a pluggable strategy with a propose/update contract: it
// proposes batches of candidate entities and incorporates measurement
// feedback. Four strategies ship: random sampling without replacement,
// exhaustive grid enumeration, a genetic algorithm over knob-ordinal
// vectors, and a model-based ranker with epsilon-greedy exploration.
//
// Tune drives the loop: strictly sequential batches, measurement
// through a measure.Runner, per-trial persistence, and early stopping.
// The loop itself is single-threaded; only the measurement runner
// parallelizes, and only for builds.
package tuner
