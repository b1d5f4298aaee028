package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"remotetouch/internal/network"
	"remotetouch/internal/protocol"
)

var monitorOpts struct {
	listen string
	token  string
	resize string
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Act as a host and log the input events clients send",
	RunE: func(cmd *cobra.Command, args []string) error {
		var width, height int
		if monitorOpts.resize != "" {
			if _, err := fmt.Sscanf(monitorOpts.resize, "%dx%d", &width, &height); err != nil || width <= 0 || height <= 0 {
				return fmt.Errorf("invalid --resize %q, want WIDTHxHEIGHT", monitorOpts.resize)
			}
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runMonitor(ctx, logger, monitorOpts.listen, monitorOpts.token, width, height)
	},
}

func init() {
	monitorCmd.Flags().StringVarP(&monitorOpts.listen, "listen", "l", ":18080", "address for the websocket (TCP) and UDP listeners")
	monitorCmd.Flags().StringVar(&monitorOpts.token, "token", "", "token clients must present; empty accepts everyone")
	monitorCmd.Flags().StringVar(&monitorOpts.resize, "resize", "", "desktop size announced to clients, e.g. 2560x1440")
}

func runMonitor(ctx context.Context, log *zap.SugaredLogger, listen, token string, width, height int) error {
	udp := network.NewUDPReceiver(log, listen)
	udp.OnEvent = func(from *net.UDPAddr, pkt *protocol.UDPPacket) {
		logEvent(log, "udp", from.String(), pkt.Event)
	}
	if err := udp.Start(); err != nil {
		return err
	}
	defer udp.Close()

	ws := network.NewWSServer(log, token)
	defer ws.Close()
	ws.OnEvent = func(from string, ev protocol.Event) {
		logEvent(log, "ws", from, ev)
	}
	if width > 0 {
		ws.OnAuth = func(from, name string) {
			if err := ws.BroadcastResize(width, height); err != nil {
				log.Warnw("Monitor: failed to announce size", "error", err)
			}
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", ws)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      "ok",
			"version":     version,
			"ws_clients":  ws.Clients(),
			"udp_clients": udp.Clients(),
		})
	})
	srv := &http.Server{Addr: listen, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Infow("Monitor: waiting for clients", "listen", listen, "auth", token != "")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("monitor: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func logEvent(log *zap.SugaredLogger, transport, from string, ev protocol.Event) {
	fields := []interface{}{"transport", transport, "from", from, "kind", ev.Kind}
	switch ev.Kind {
	case protocol.KindMouse:
		fields = append(fields, "x", ev.X, "y", ev.Y, "button", ev.Button, "down", ev.Down, "relative", ev.Relative)
	case protocol.KindWheel:
		fields = append(fields, "dx", ev.DeltaX, "dy", ev.DeltaY)
	case protocol.KindKey:
		fields = append(fields, "scan", ev.ScanCode, "key", ev.KeyCode, "down", ev.Down)
	case protocol.KindText:
		fields = append(fields, "text", ev.Text)
	case protocol.KindTouch:
		fields = append(fields, "action", ev.TouchAction, "pointer", ev.PointerID, "x", ev.X, "y", ev.Y)
	case protocol.KindStylus:
		fields = append(fields, "x", ev.X, "y", ev.Y, "pressure", ev.Pressure, "tilt_x", ev.TiltX, "tilt_y", ev.TiltY,
			"orientation", ev.Orientation, "buttons", ev.Buttons, "eraser", ev.Eraser, "mouse_mode", ev.MouseMode)
	}
	log.Infow("Monitor: event", fields...)
}
