//go:build mage
// +build mage

package main

import (
	"github.com/grafana/grafana-plugin-sdk-go/build"
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default builds the plugin
func Default() error {
	return build.BuildAll()
}

// Console builds the standalone console binary
func Console() error {
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil {
		version = "dev"
	}
	return sh.RunV("go", "build",
		"-ldflags", "-X main.Version="+version,
		"-o", "dist/console",
		"./cmd/console")
}

// All builds the plugin and the console binary
func All() {
	mg.Deps(Default, Console)
}
