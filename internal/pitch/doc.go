// Package pitch estimates the fundamental frequency of a fixed-size window of
// mono samples using the McLeod Pitch Method.
//
// # Algorithm
//
// For a window x of WindowSize samples the normalized square difference
// function is evaluated over lags 0..WindowSize-PaddingSize:
//
//	n(τ) = 2·Σ x[j]·x[j+τ] / Σ (x[j]² + x[j+τ]²)
//
// Key maxima are the highest points between each positive-going zero
// crossing and the following negative-going one. The first key maximum
// reaching PeakCutoff times the highest key maximum is refined with
// parabolic interpolation; the refined lag gives the frequency and the
// interpolated height gives the clarity.
//
// # Gating
//
// A window is rejected before any analysis when its power (the sum of
// squared samples) is zero or below PowerThreshold, and after analysis when
// the clarity is below ClarityThreshold. Rejections are reported through
// Result.Verdict; Estimate collapses them into a missing value.
//
// # Resource Use
//
// An Estimator owns its scratch buffers and performs no allocation per
// window. It is not safe for concurrent use; create one per stream.
package pitch
