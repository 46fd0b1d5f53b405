// Package fressian encodes and decodes values in the Fressian binary
// format and defines Error, the failure type that travels across the
// boundary as an ordinary value.
//
// # Wire Format
//
// Every value starts with a one byte code. Small integers, short strings,
// short byte strings and short lists carry their length or value in the
// code itself:
//
//	Code       Meaning
//	─────────────────────────────────────────────
//	0x00-0x3F  int 0..63            0xFF  int -1
//	0x40-0x7F  int, 1-6 trailing bytes
//	0x80-0x9F  priority cache reference
//	0xA0-0xAF  struct cache reference
//	0xB0-0xB5  typed arrays
//	0xC0-0xCA  map, set, uuid, regex, uri, bigint, bigdec, inst, sym, key
//	0xD0-0xD9  bytes                0xDA-0xE3  string
//	0xE4-0xEE  lists                0xEF-0xF1  struct type, struct, meta
//	0xF5-0xFE  true false null int float double 0.0 1.0 end reset
//
// # Decoding Policy
//
//   - The input must hold exactly one value, optionally followed by a
//     footer. Anything else left over fails with SyntaxTrailingBytes.
//   - Truncated input fails with SyntaxEOF at the offset of the failed read.
//     Counts are checked against the remaining input before allocating.
//   - Unassigned codes fail with UnmatchedCode{expected: CodeAny}.
//   - Nesting deeper than DecoderConfig.MaxDepth fails with SyntaxTooDeep.
//   - NaN and infinities are ordinary values and keep their bit patterns.
//
// # Errors
//
// Error.ToValue renders a keyword keyed map, so a guest can deliver an
// error like any result and the host can recover it with ErrorFromValue:
//
//	{:type :unmatched-code, :expected 42, :actual 43}
package fressian
