// Package sidecar runs the ica CLI as a subprocess.
//
// The Executor interface is the only contract the rest of icabridge
// depends on: it takes the final argument list and reports exit code,
// terminating signal and captured output. A non-zero exit is data, not an
// error; errors mean the process could not be run to completion.
package sidecar
