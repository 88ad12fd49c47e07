// Package tape emulates two studio tape machines with a hybrid
// saturation pipeline: a Jiles-Atherton hysteresis core blended
// against an asymmetric tanh/atan waveshaper chain, wrapped in
// bias-shielding filters, measured machine EQ, dispersive phase smear
// and DC removal.
//
// Processor is the per-channel core and expects to run at an
// externally oversampled rate. Deck wraps two Processors into a
// stereo unit with the machine color stages (crosstalk, head-bump
// wow, tolerance EQ, print-through), trim controls and peak metering.
package tape
