// Command gameserver runs one game server instance: it binds the TCP and
// UDP listeners, announces itself to central, and serves connections until
// terminated.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/GlobedGD/globed2-sub001/internal/gameserver"
)

func main() {
	tcpAddr := flag.String("tcp-addr", ":41001", "address to listen for TCP connections on")
	udpAddr := flag.String("udp-addr", ":41001", "address to listen for UDP datagrams on")
	centralURL := flag.String("central-url", "http://127.0.0.1:41000", "base URL of the central server")
	centralPassword := flag.String("central-password", "", "shared password authenticating this game server to central")
	devMode := flag.Bool("dev", false, "use a human-readable development logger instead of JSON")
	flag.Parse()

	logger, err := buildLogger(*devMode)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if *centralPassword == "" {
		logger.Fatal("central-password is required")
	}

	srv := gameserver.New(gameserver.Config{
		TCPAddr:         *tcpAddr,
		UDPAddr:         *udpAddr,
		CentralURL:      *centralURL,
		CentralPassword: *centralPassword,
		Logger:          logger,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting game server", zap.String("tcp_addr", *tcpAddr), zap.String("udp_addr", *udpAddr))
	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Fatal("game server exited", zap.Error(err))
	}
}

func buildLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
