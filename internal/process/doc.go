// Package process provides subprocess lifecycle management.
//
// Runner wraps os/exec for single subprocess execution:
//   - Graceful shutdown with SIGINT and configurable timeout
//   - Force kill with SIGKILL if graceful shutdown times out
//   - Output streaming with pluggable log parsing
//   - Context-driven cancellation
//
// Example usage:
//
//	runner := process.NewRunner("convert", ffmpeg.BuildRetimeCommand(&params), logger)
//	runner.SetLogParser(ffmpegLogger, ffmpeg.ParseLogLevel)
//	if code := runner.Run(ctx); code != 0 {
//	    return fmt.Errorf("ffmpeg exited with code %d", code)
//	}
package process
