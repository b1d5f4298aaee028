package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"remotetouch/internal/action"
	"remotetouch/internal/config"
	"remotetouch/internal/evdev"
	"remotetouch/internal/input"
	"remotetouch/internal/network"
	"remotetouch/internal/sched"
	"remotetouch/internal/strategy"
	"remotetouch/internal/touch"
	"remotetouch/internal/tray"
)

var noTray bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Read local input devices and forward them to the host",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgMgr, err := config.NewManager(logger, configPath)
		if err != nil {
			return err
		}
		if err := cfgMgr.Load(); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runClient(ctx, logger, cfgMgr, !noTray)
	},
}

func init() {
	runCmd.Flags().BoolVar(&noTray, "no-tray", false, "do not show the system tray menu")
}

// udpProbeTimeout bounds the wait for the host to acknowledge the UDP path
// at startup.
const udpProbeTimeout = 2 * time.Second

// client wires the device readers, the touch handler and the transports.
// Handler state is only touched from inside loop.Do.
type client struct {
	log     *zap.SugaredLogger
	cfgMgr  *config.Manager
	cancel  context.CancelFunc
	loop    *sched.Loop
	sink    *network.Sink
	sender  *input.EventSender
	handler *touch.Handler
	actions *action.Manager
	view    *deviceView

	width, height int
}

func newClient(log *zap.SugaredLogger, cfgMgr *config.Manager, cancel context.CancelFunc, transports ...network.Transport) *client {
	cfg := cfgMgr.Get()
	c := &client{
		log:    log,
		cfgMgr: cfgMgr,
		cancel: cancel,
		loop:   sched.NewLoop(),
		sink:   network.NewSink(log, transports...),
		view:   &deviceView{log: log, devices: &evdev.Set{}},
	}
	c.sender = input.NewEventSender(c.sink, c.loop.Now, log)
	c.handler = touch.New(log, c.sender, c.loop, touch.Options{
		Density:    cfg.Display.Density,
		NoTouchpad: cfg.Input.NoTouchpad,
	})
	c.actions = action.NewManager(c, log)
	c.handler.SetActions(c.actions)
	return c
}

func runClient(ctx context.Context, log *zap.SugaredLogger, cfgMgr *config.Manager, withTray bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg := cfgMgr.Get()
	ws, transports := dial(log, cfg.Remote)
	c := newClient(log, cfgMgr, cancel, transports...)
	defer c.close()

	devices, err := evdev.OpenSet(log, cfg.Devices.Paths, float32(cfg.Display.Width), float32(cfg.Display.Height), cfg.Devices.Grab)
	if err != nil {
		return err
	}
	defer devices.Close()
	c.view = &deviceView{log: log, devices: devices, keepGrab: cfg.Devices.Grab}
	for _, d := range devices.Devices() {
		c.attach(d.Decoder())
	}

	c.apply(&cfg)

	var t *tray.Tray
	if withTray {
		t = tray.New(log, cfgMgr, cancel)
	}
	cfgMgr.RegisterChangeCallback(func(cfg *config.Config) {
		c.apply(cfg)
		if t != nil {
			t.Refresh(cfg)
		}
		if err := cfgMgr.Save(); err != nil {
			log.Warnw("Client: failed to save config", "error", err)
		}
	})

	ws.OnResize = func(width, height int) {
		c.loop.Do(func() { c.handler.HandleHostSizeChanged(width, height) })
	}
	ws.OnConnect = func(connected bool) {
		if t != nil {
			t.SetConnected(connected)
		}
	}
	ws.Start()

	log.Infow("Client: forwarding input", "host", cfg.Remote.Address, "transport", cfg.Remote.Transport, "devices", len(devices.Devices()), "mode", cfg.Input.Mode)

	errCh := make(chan error, 1)
	go func() {
		errCh <- devices.Run(ctx)
		cancel()
	}()

	if t != nil {
		go func() {
			<-ctx.Done()
			t.Stop()
		}()
		t.Run()
		cancel()
	}

	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// dial builds the transports in preference order. The websocket is always
// present since it also carries host resize notifications.
func dial(log *zap.SugaredLogger, remote config.RemoteConfig) (*network.WSClient, []network.Transport) {
	name := remote.Name
	if name == "" {
		name, _ = os.Hostname()
	}
	ws := network.NewWSClient(log, remote.Address, remote.Token, name)
	if remote.Transport != config.TransportUDP {
		return ws, []network.Transport{ws}
	}

	udp := network.NewUDPSender(log, remote.Address)
	if err := udp.Start(); err != nil {
		log.Warnw("Client: UDP unavailable, using websocket", "error", err)
		return ws, []network.Transport{ws}
	}
	if !udp.Probe(udpProbeTimeout) {
		log.Warnw("Client: host has not acknowledged UDP, websocket carries input until it does", "host", remote.Address)
	}
	return ws, []network.Transport{udp, ws}
}

func (c *client) attach(dec *evdev.Decoder) {
	dec.OnMotion = func(e *input.MotionEvent) {
		c.loop.Do(func() { c.handler.HandleTouchEvent(c.view, c.view, e) })
	}
	dec.OnKey = func(e input.KeyEvent) {
		c.loop.Do(func() { c.handler.SendKeyEvent(c.view, e) })
	}
}

// apply pushes cfg into the action bindings and the handler.
func (c *client) apply(cfg *config.Config) {
	for t, name := range cfg.Actions.Bindings() {
		n, err := action.ParseName(name)
		if err == nil {
			err = c.actions.Register(t, n)
		}
		if err != nil {
			c.log.Warnw("Client: cannot bind action", "trigger", t, "action", name, "error", err)
		}
	}

	mode, _ := strategy.ParseKind(cfg.Input.Mode)
	transform, _ := touch.ParsePointerTransform(cfg.Input.CapturedPointerTransform)
	in := cfg.Input
	disp := cfg.Display

	c.loop.Do(func() {
		h := c.handler
		h.SetInputMode(mode)
		h.SetTapToMove(in.TapToMove)
		h.SetPreferScancodes(in.PreferScancodes)
		h.SetPointerCaptureEnabled(in.PointerCapture)
		h.SetApplyDisplayScaleFactorToTouchpad(in.ScaleTouchpad)
		h.SetLongPressedDelay(in.LongPressDelay)
		h.SetCapturedPointerTransform(transform)
		h.SetCapturedPointerSpeedFactor(in.CapturedPointerSpeed)
		h.SetDisplayRotation(disp.Rotation)
		h.SetStylusHelperMode(in.StylusHelperMode)
		c.sender.StylusIsMouse = in.StylusIsMouse
		c.sender.StylusButtonContactModifierMode = in.StylusButtonContactModifier

		if disp.Width != c.width || disp.Height != c.height {
			c.width, c.height = disp.Width, disp.Height
			h.HandleClientSizeChanged(disp.Width, disp.Height)
		}
	})
}

func (c *client) close() {
	c.loop.Close()
	sent, dropped := c.sink.Stats()
	c.log.Infow("Client: stopped", "sent", sent, "dropped", dropped)
	if err := c.sink.Close(); err != nil {
		c.log.Warnw("Client: failed to close transports", "error", err)
	}
}

// The methods below implement action.Env. They run inside loop.Do.

func (c *client) ReleasePointerCapture() {
	c.handler.ReleasePointerCapture()
}

func (c *client) Exit() {
	c.log.Infow("Client: exit requested")
	c.cancel()
}

func (c *client) SendKey(keyCode int, down bool) {
	c.sink.SendKeyEvent(0, keyCode, down)
}

// ToggleTapToMove goes through the config manager, whose change callback
// re-enters the loop, so it must not block the caller.
func (c *client) ToggleTapToMove() {
	go c.cfgMgr.Update(func(cfg *config.Config) {
		cfg.Input.TapToMove = !cfg.Input.TapToMove
	})
}

// pointerKinds are the devices grabbed while the pointer is captured.
var pointerKinds = []evdev.Kind{evdev.KindMouse, evdev.KindTouchpad}

// deviceView is the touch.View of a headless client. Pointer capture grabs
// the local mice and touchpads so the local desktop stops moving.
type deviceView struct {
	log      *zap.SugaredLogger
	devices  *evdev.Set
	keepGrab bool
	captured bool
}

func (v *deviceView) LocationInWindow() (int, int) { return 0, 0 }

func (v *deviceView) HasPointerCapture() bool { return v.captured }

func (v *deviceView) RequestPointerCapture() {
	if !v.keepGrab {
		if err := v.devices.Grab(true, pointerKinds...); err != nil {
			v.log.Warnw("Client: pointer capture failed", "error", err)
			return
		}
	}
	v.captured = true
	v.log.Debugw("Client: pointer captured")
}

func (v *deviceView) ReleasePointerCapture() {
	if !v.keepGrab {
		if err := v.devices.Grab(false, pointerKinds...); err != nil {
			v.log.Warnw("Client: pointer release failed", "error", err)
		}
	}
	v.captured = false
	v.log.Debugw("Client: pointer released")
}
