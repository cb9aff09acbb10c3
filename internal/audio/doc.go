// Package audio decodes downloaded media into mono sample buffers, cuts them
// at subtitle boundaries and writes clips as 16-bit PCM WAV.
//
// Two decoders exist: FFmpegDecoder handles any container ffmpeg understands
// (the default m4a path) and MP3Decoder decodes in-process through go-mp3.
// AutoDecoder dispatches on file extension.
package audio
