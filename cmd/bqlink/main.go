package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"bqlink/internal/adapter"
	"bqlink/internal/bq40z50"
	"bqlink/internal/direct"
	"bqlink/internal/ev2400"
	"bqlink/internal/server"
)

func main() {
	port := flag.Int("port", 3000, "HTTP port for the status endpoint")
	transport := flag.String("transport", "", "only use this transport (ev2400 or direct)")
	bitrate := flag.Int("bitrate", adapter.Bitrate100KHz, "bus clock in kHz")
	addr := flag.Uint("addr", bq40z50.Addr, "8-bit SMBus address of the gauge")
	settle := flag.Duration("settle", 0, "pause between register reads")
	timeout := flag.Duration("timeout", ev2400.DefaultTimeout, "EV2400 response timeout")
	verbose := flag.Bool("v", false, "debug logging")
	trace := flag.Bool("trace", false, "log every EV2400 packet (implies -v)")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose || *trace {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	log.Println("Starting bqlink...")

	drivers := []adapter.Driver{
		ev2400.Driver(ev2400.WithLogger(logger), ev2400.WithTimeout(*timeout), ev2400.WithTrace(*trace)),
		direct.Driver(direct.WithLogger(logger)),
	}
	reg, err := adapter.NewRegistry()
	if err != nil {
		log.Fatal(err)
	}
	for _, d := range drivers {
		if *transport != "" && d.Name != *transport {
			continue
		}
		if err := reg.Register(d); err != nil {
			log.Fatal(err)
		}
	}
	defer ev2400.Exit()

	var gauge server.GaugeClient
	bus, err := reg.OpenFirst()
	if err != nil {
		// Keep serving; the endpoint reports connected=false.
		log.Printf("No adapter opened: %v", err)
	} else {
		defer bus.Close()

		if bus.Supports(adapter.CapBitrate) {
			if khz, err := bus.SetBitrate(*bitrate); err != nil {
				log.Printf("Failed to set bitrate: %v", err)
			} else {
				log.Printf("Bus clock %d kHz", khz)
			}
		}

		bq := bq40z50.NewBQ40Z50(bus, *settle).WithAddr(byte(*addr))
		if err := bq.Init(); err != nil {
			log.Printf("Gauge not answering at 0x%02X: %v", *addr, err)
		}
		gauge = bq

		log.Printf("Adapter %s (%v), gauge at 0x%02X", bus.Device().Name(), bus.Capabilities(), *addr)
		if ev, ok := bus.Device().(*ev2400.EV2400); ok {
			logBoard(ev)
		}
	}

	if err := server.Run(*port, server.New(gauge, logger)); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func logBoard(ev *ev2400.EV2400) {
	version, err := ev.Version()
	if err != nil {
		log.Printf("Failed to read EV2400 version: %v", err)
		return
	}
	serial, err := ev.SerialNumber()
	if err != nil {
		serial = "?"
	}
	log.Printf("EV2400 firmware %s, serial %s", version, serial)
}
