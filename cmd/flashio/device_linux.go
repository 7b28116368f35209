//go:build linux

package main

import "github.com/vela-embedded/flashio/internal/linuxspi"

func openDevice(path string, speedHz uint32) (device, error) {
	return linuxspi.Open(path, 0, 8, speedHz)
}
