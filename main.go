// SPDX-License-Identifier: MIT
package main

import (
	"os"
	"runtime"

	"chords/cmd"
	"chords/internal/log"
	"chords/pkg/build"
)

// main is the entry point for the note detector.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Configure runtime settings
//   - Parse command line arguments and load the configuration
//
// 2. Concurrent Phase (Hot Path):
//   - Start the input stream; every full window runs the detector
//   - Publish note sets to the UI and transports
//
// 3. Shutdown Phase (Cold Path):
//   - Stop recording if active
//   - Stop the stream and release PortAudio
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	// Development builds run without ldflags.
	if err := build.Initialize(); err != nil {
		log.Debugf("Build: %v", err)
	}

	// Limit OS threads to optimize for real-time audio processing:
	// - One thread dedicated to audio engine (time-critical)
	// - One thread for UI and I/O operations
	runtime.GOMAXPROCS(2)

	opts, err := cmd.ParseArgs(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}
	if opts.Config != nil {
		log.SetLevel(opts.Config.EffectiveLogLevel())
	}

	// ============ CONCURRENT PHASE / SHUTDOWN PHASE ============
	if err := cmd.Execute(opts, os.Stdout); err != nil {
		log.Fatalf("%v", err)
	}
}
