// Package version holds the build version, overridden at link time with
// -ldflags "-X glidecomp/pkg/version.Version=...".
package version

// Version is the semantic version of the build.
var Version = "v0.4.0"
