// Package native opens VST3 plugin binaries with the dynamic loader and
// adapts their COM interfaces to the vst3 package.
package native

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// BundleExt is the extension of a VST3 bundle directory.
const BundleExt = ".vst3"

// ErrNoBinary is returned when a bundle has no binary for this platform.
var ErrNoBinary = errors.New("bundle has no binary for this platform")

// Architecture is the bundle subdirectory name for goos and goarch, as in
// "x86_64-linux".
func Architecture(goos, goarch string) string {
	arch := goarch
	switch goarch {
	case "amd64":
		arch = "x86_64"
	case "arm64":
		arch = "aarch64"
	case "386":
		arch = "i386"
	}
	if goos == "windows" {
		if goarch == "amd64" {
			return "x86_64-win"
		}
		return arch + "-win"
	}
	return arch + "-" + goos
}

// BinaryPath returns the shared object inside bundle for the running
// platform. A path to a plain shared object is returned unchanged.
func BinaryPath(bundle string) (string, error) {
	return binaryPath(bundle, runtime.GOOS, runtime.GOARCH)
}

func binaryPath(bundle, goos, goarch string) (string, error) {
	fi, err := os.Stat(bundle)
	if err != nil {
		return "", err
	}
	if !fi.IsDir() {
		return bundle, nil
	}

	name := strings.TrimSuffix(filepath.Base(filepath.Clean(bundle)), BundleExt)
	var candidates []string
	switch goos {
	case "darwin":
		candidates = []string{filepath.Join(bundle, "Contents", "MacOS", name)}
	case "windows":
		candidates = []string{filepath.Join(bundle, "Contents", Architecture(goos, goarch), name+BundleExt)}
	default:
		candidates = []string{filepath.Join(bundle, "Contents", Architecture(goos, goarch), name+".so")}
	}
	for _, c := range candidates {
		if fi, err := os.Stat(c); err == nil && !fi.IsDir() {
			return c, nil
		}
	}
	return "", fmt.Errorf("%s: %w (looked for %s)", bundle, ErrNoBinary, strings.Join(candidates, ", "))
}
