// Package dataset owns the on-disk layout of harvested clips:
//
//	<root>/<lang>/<creator>/metric.json
//	<root>/<lang>/<creator>/log.txt
//	<root>/<lang>/<creator>/<video_id>/subtitles.srt   (transient)
//	<root>/<lang>/<creator>/<video_id>/audio.mp4       (transient)
//	<root>/<lang>/<creator>/<video_id>/<start>-<end>/subtitles.txt
//	<root>/<lang>/<creator>/<video_id>/<start>-<end>/audio.wav
package dataset
