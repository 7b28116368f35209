// Command flashio runs the SPIFLASH driver and file index against a real
// spidev-backed NOR flash part, printing the resulting directory once the
// boot-time scan completes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vela-embedded/flashio/pkg/fileindex"
	"github.com/vela-embedded/flashio/pkg/flashprofile"
	"github.com/vela-embedded/flashio/pkg/spiflash"
)

// device is satisfied by the platform-specific SPI transport opened by
// openDevice; spiflash only ever sees it through the narrower Host
// interface.
type device interface {
	spiflash.Host
	Bind(*spiflash.Driver)
	Close() error
}

func main() {
	log.SetLevel(log.InfoLevel)

	devPath := flag.String("d", "/dev/spidev0.0", "spidev device path")
	speedHz := flag.Int("speed", 20_000_000, "SPI clock speed in Hz")
	profilesPath := flag.String("profiles", "", "optional override flash-profile ini path")
	flag.Parse()

	table, err := flashprofile.Load(*profilesPath)
	if err != nil {
		fmt.Printf("failed to load flash profiles: %v\n", err)
		os.Exit(1)
	}
	table.Apply()

	dev, err := openDevice(*devPath, uint32(*speedHz))
	if err != nil {
		fmt.Printf("could not open %v: %v\n", *devPath, err)
		os.Exit(1)
	}
	defer dev.Close()

	driver := spiflash.New(dev, nil)
	dev.Bind(driver)

	var idReq spiflash.Request
	idDone := make(chan struct{})
	idReq.OnComplete = func(r *spiflash.Request) { close(idDone) }
	if res := driver.Submit("main", &idReq); res != spiflash.ResultOK {
		fmt.Printf("could not submit GetID request: %v\n", res)
		os.Exit(1)
	}

	stop := runTicks(driver, nil)
	<-idDone
	stop()

	if idReq.Result != spiflash.ResultOK {
		fmt.Printf("GetID failed: %v\n", idReq.Result)
		os.Exit(1)
	}
	info, res := driver.Configure(idReq.ID)
	if res != spiflash.ResultOK {
		fmt.Printf("unrecognized flash part %x\n", idReq.ID)
		os.Exit(1)
	}
	log.WithFields(log.Fields{
		"jedec_id":    idReq.ID,
		"flash_size":  info.FlashSize,
		"sector_size": info.SectorSize,
	}).Info("flash configured")

	idx := fileindex.New(driver, fileindex.Config{MaxFiles: 64, MaxSegmentsPerFile: 256}, nil)
	stop = runTicks(driver, idx)
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := idx.Wait(ctx); err != nil {
		fmt.Printf("indexing did not complete: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("indexed %d files\n", idx.FileCount())
	for f := idx.Files(); f != nil; f = f.Next {
		fmt.Printf("  file %#x: %d segments\n", f.UniqueID, f.SegmentCount())
	}
}

// runTicks starts a goroutine driving the fast and slow ticks at roughly
// the cadence a bare-metal main loop would, and returns a function that
// stops it.
func runTicks(driver *spiflash.Driver, idx *fileindex.Index) func() {
	quit := make(chan struct{})
	go func() {
		fast := time.NewTicker(time.Millisecond)
		slow := time.NewTicker(10 * time.Millisecond)
		defer fast.Stop()
		defer slow.Stop()
		for {
			select {
			case <-quit:
				return
			case <-fast.C:
				driver.Service()
				if idx != nil {
					idx.Service()
				}
			case <-slow.C:
				driver.Tick()
			}
		}
	}()
	return func() { close(quit) }
}
