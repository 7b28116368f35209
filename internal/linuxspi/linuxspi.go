//go:build linux

// Package linuxspi is a reference implementation of spiflash.Host over a
// Linux spidev character device. It is peripheral/transport scaffolding
// layered on top of the cooperative driver core, not part of it: register-
// level peripheral setup and the concrete transport are deliberately kept
// out of the driver itself, and this adapter exists so the driver can be
// exercised against a real chip (or a loopback-wired test rig) without the
// driver knowing anything about ioctls. Command-byte choices mirror a
// typical SPI NOR command table; the ioctl plumbing follows the familiar
// Linux sysfs-spi host pattern, implemented directly over
// golang.org/x/sys/unix.
package linuxspi

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/vela-embedded/flashio/pkg/spiflash"
)

// Linux spidev ioctl constants (linux/spi/spidev.h). spiIOCMagic 'k' and
// the SPI_IOC_MESSAGE(N) request number are derived with the kernel's
// standard _IOC encoding rather than vendored from a generated header.
const (
	iocMagic  = 'k'
	iocWrite  = 1
	iocSizeBits = 14
	iocDirBits  = 2
	iocTypeBits = 8
)

func iocRequest(dir, typ, nr, size uintptr) uintptr {
	return (dir << (iocTypeBits + 8 + iocSizeBits)) |
		(size << (iocTypeBits + 8)) |
		(typ << 8) |
		nr
}

// spiIOCTransfer mirrors struct spi_ioc_transfer from linux/spi/spidev.h.
type spiIOCTransfer struct {
	txBuf uint64
	rxBuf uint64

	length      uint32
	speedHz     uint32
	delayUsecs  uint16
	bitsPerWord uint8
	csChange    uint8
	txNbits     uint8
	rxNbits     uint8
	pad         uint16
}

func messageRequest(n int) uintptr {
	size := uintptr(n) * unsafe.Sizeof(spiIOCTransfer{})
	return iocRequest(iocWrite, iocMagic, 0, size)
}

// Device is an spiflash.Host backed by a /dev/spidevB.C character device.
// ChipSelect is a no-op: spidev toggles the hardware CS line automatically
// around each transfer, addressed instead by csChange on the last message
// of a sequence; this adapter issues one spidev message per
// Transmit/TransmitReceive call and always releases CS afterward, matching
// the driver's one-call-per-phase usage.
type Device struct {
	mu      sync.Mutex
	fd      int
	speedHz uint32
	bits    uint8

	driver *spiflash.Driver
}

// Open opens path (e.g. "/dev/spidev0.0") and configures mode/bits/speed.
func Open(path string, mode uint8, bitsPerWord uint8, speedHz uint32) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("linuxspi: open %s: %w", path, err)
	}
	d := &Device{fd: fd, speedHz: speedHz, bits: bitsPerWord}

	if err := unix.IoctlSetInt(fd, iocRequestByte(1), int(mode)); err != nil {
		d.Close()
		return nil, fmt.Errorf("linuxspi: set mode: %w", err)
	}
	if err := unix.IoctlSetInt(fd, iocRequestByte(3), int(bitsPerWord)); err != nil {
		d.Close()
		return nil, fmt.Errorf("linuxspi: set bits-per-word: %w", err)
	}
	if err := unix.IoctlSetInt(fd, iocRequestU32(4), int(speedHz)); err != nil {
		d.Close()
		return nil, fmt.Errorf("linuxspi: set max-speed-hz: %w", err)
	}
	return d, nil
}

func iocRequestByte(nr uintptr) int { return int(iocRequest(iocWrite, iocMagic, nr, 1)) }
func iocRequestU32(nr uintptr) int  { return int(iocRequest(iocWrite, iocMagic, nr, 4)) }

// Bind attaches the spiflash.Driver that will receive TxDone/TxRxDone
// callbacks. Required before Transmit/TransmitReceive are used.
func (d *Device) Bind(driver *spiflash.Driver) { d.driver = driver }

// Close releases the underlying file descriptor.
func (d *Device) Close() error {
	return unix.Close(d.fd)
}

// ChipSelect is a no-op; see the Device doc comment.
func (d *Device) ChipSelect(spiflash.Level) error { return nil }

// Transmit performs a write-only spidev transfer, then immediately signals
// completion to the bound driver. A real interrupt-driven host would defer
// that signal to its ISR; this adapter completes synchronously since the
// underlying ioctl already blocks until the transfer finishes.
func (d *Device) Transmit(tx []byte) error {
	if err := d.transfer(tx, nil); err != nil {
		return err
	}
	d.driver.TxDone()
	return nil
}

// TransmitReceive performs a full-duplex spidev transfer.
func (d *Device) TransmitReceive(tx, rx []byte) error {
	if err := d.transfer(tx, rx); err != nil {
		return err
	}
	d.driver.TxRxDone()
	return nil
}

// Status always reports ready: spidev transfers are synchronous from this
// process's point of view, so the driver never needs to poll for room.
func (d *Device) Status() spiflash.HostStatus { return spiflash.StatusReady }

func (d *Device) transfer(tx, rx []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := len(tx)
	if rx != nil && len(rx) != n {
		return fmt.Errorf("linuxspi: tx/rx length mismatch: %d vs %d", n, len(rx))
	}

	var rxPtr uint64
	if rx != nil {
		rxPtr = uint64(uintptr(unsafe.Pointer(&rx[0])))
	}

	xfer := spiIOCTransfer{
		txBuf:       uint64(uintptr(unsafe.Pointer(&tx[0]))),
		rxBuf:       rxPtr,
		length:      uint32(n),
		speedHz:     d.speedHz,
		bitsPerWord: d.bits,
	}

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), messageRequest(1), uintptr(unsafe.Pointer(&xfer)))
	if errno != 0 {
		return fmt.Errorf("linuxspi: spi transfer ioctl: %w", errno)
	}
	return nil
}

var _ spiflash.Host = (*Device)(nil)
