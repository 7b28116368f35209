//go:build !linux

package main

import "fmt"

func openDevice(path string, speedHz uint32) (device, error) {
	return nil, fmt.Errorf("flashio: no SPI transport available on this platform, only linux/spidev is supported")
}
