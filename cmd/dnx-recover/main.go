package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	dnx "github.com/Tinnci/dnx-go"
	"github.com/Tinnci/dnx-go/events"
	"github.com/Tinnci/dnx-go/internal/logging"
)

func main() {
	var (
		fwDnx    = flag.String("fw-dnx", "", "Path to FW DnX binary (dnx_fwr.bin)")
		fwImage  = flag.String("fw-image", "", "Path to IFWI firmware image (ifwi.bin)")
		osDnx    = flag.String("os-dnx", "", "Path to OS DnX binary")
		osImage  = flag.String("os-image", "", "Path to OS recovery image")
		miscDnx  = flag.String("misc-dnx", "", "Path to Misc DnX binary")
		gpFlags  = flag.String("gp-flags", "0", "GP flag word (hex accepted, e.g. 0x80000807)")
		wipeIfwi = flag.Bool("wipe-ifwi", false, "Enable IFWI wipe mode")
		timeout  = flag.Duration("timeout", dnx.DefaultWaitTimeout, "Device wait timeout")
		verbose  = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	if *fwDnx == "" && *osDnx == "" {
		fmt.Fprintln(os.Stderr, "at least one of -fw-dnx or -os-dnx is required")
		flag.Usage()
		os.Exit(2)
	}

	flags, err := parseFlagWord(*gpFlags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -gp-flags %q: %v\n", *gpFlags, err)
		os.Exit(2)
	}

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	config := dnx.SessionConfig{
		FwDnxPath:   *fwDnx,
		FwImagePath: *fwImage,
		OsDnxPath:   *osDnx,
		OsImagePath: *osImage,
		MiscDnxPath: *miscDnx,
		GPFlags:     flags,
		IfwiWipe:    *wipeIfwi,
		WaitTimeout: *timeout,
	}

	session := dnx.NewSession(config, &dnx.Options{
		Observer: events.NewLogObserver(logger),
		Logger:   logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println("Waiting for a device in recovery mode (hold the combo and plug in)...")
	err = session.Run(ctx)

	snap := session.Metrics().Snapshot()
	fmt.Printf("\nSession summary: %d ACKs, %d packets (%d bytes) sent, %d chunks, %s elapsed\n",
		snap.AcksReceived, snap.PacketsTx, snap.BytesTx, snap.ChunksSent, snap.Uptime.Round(10*time.Millisecond))

	if err != nil {
		logger.Error("recovery failed", "error", err)
		os.Exit(1)
	}
	fmt.Println("Recovery complete.")
}

// parseFlagWord parses a decimal or 0x-prefixed hex flag word.
func parseFlagWord(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	v, err := strconv.ParseUint(s, base, 32)
	return uint32(v), err
}
