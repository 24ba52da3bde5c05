// Package transform invokes the native image-transform programs
// (canvas extension, cropping, matting) as external processes: file
// path in, file path out, bounded execution timeout.
//
// The binaries are probed once at startup. A missing binary disables
// that operation for the session; it is reported, never a crash.
package transform
