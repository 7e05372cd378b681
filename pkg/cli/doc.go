// Package cli implements the vst3host command line: run, render, serve,
// info and version.
package cli
