// Package gesture detects the shake distress gesture from raw accelerometer
// samples.
//
// Each sample is compared with the immediately preceding one:
//
//	delta     = |Δx| + |Δy| + |Δz|
//	threshold = 2.6 - clamp(sensitivity, 0.5, 3.0) * 0.55
//
// A delta above the threshold emits one shake event and starts a one-second
// cooldown during which samples are dropped without being recorded.
//
// The Detector holds a sensor subscription only while enabled. Changing the
// sensitivity re-subscribes with the new threshold baked in; swapping the
// handler with OnShake never does. A missing sensor is logged and otherwise
// ignored so the rest of the app keeps working.
package gesture
