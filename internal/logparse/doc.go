// Package logparse recovers per-image detection records from the text log
// printed by the on-device YOLO demo.
//
// The device prints one section per test image. A section starts with a
// header line and contains, among timing and banner noise, one line per
// detection:
//
//	=== Testing: bus.jpg ===
//	Timings:
//	  Inference:    1780 ms
//	--- Top Detections ---
//	Det 1: person (88.08%) | Box: [32.0, 176.0, 144.0, 432.0]
//	Det 2: bus (73.11%) | Box: [16.0, 112.0, 512.0, 368.0]
//
// # Grammar
//
// Two fixed-format rules are applied to every trimmed line, header first:
//
//   - Header: "=== Testing: <name> ===". The name runs up to the last
//     closing "===" on the line and must not be empty.
//   - Detection: "Det <n>: <class> (<score>%) | Box: [<x1>, <y1>, <x2>, <y2>]".
//     The class runs up to the first "(" and so cannot contain one. The
//     score is an unsigned decimal, box coordinates may carry a sign.
//
// Both rules search the line, so a logging prefix such as "I (1234) app: " in
// front of a header or detection does not prevent a match. Whitespace between
// tokens is optional.
//
// # Permissive Parsing
//
// Parse never fails. Lines matching neither rule are skipped, and detection
// lines seen before the first header are dropped because there is no image to
// attribute them to. Seeing the same header twice resets that image's list:
// only detections after the last occurrence are kept.
package logparse
