// Package audiocore provides the audio input side of pitchtrack.
//
// Architecture overview:
//
//	Source -> Converter -> ChunkHandler (pipeline.Process)
//
// A Source negotiates its Format in Open and then pushes chunks of mono,
// normalized float32 samples to a ChunkHandler from its own goroutine.
// Integer PCM decoding, downmixing and channel selection happen in the
// Converter so downstream code only ever sees mono float32.
package audiocore
