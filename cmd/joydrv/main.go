package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/awesome-gocui/gocui"
	"github.com/gethiox/joydrv/internal/pkg/adc"
	"github.com/gethiox/joydrv/internal/pkg/config"
	"github.com/gethiox/joydrv/internal/pkg/display"
	"github.com/gethiox/joydrv/internal/pkg/joystick"
	"github.com/gethiox/joydrv/internal/pkg/logger"
	"github.com/gethiox/joydrv/internal/pkg/spi"
	"github.com/gethiox/joydrv/internal/pkg/utils"
	"github.com/logrusorgru/aurora"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

const logBufferSize = 256

var (
	configPath = flag.String("config", "", "config file path, default config tree is generated in ./"+configDir+" when not given")
	ui         = flag.Bool("ui", false, "engage ui with position grid")
	force256   = flag.Bool("256", false, "force 256 color mode")
	nocolor    = flag.Bool("nocolor", false, "disable color")
	logLevel   = flag.Int("loglevel", 0,
		"logging level, each level enables additional information class (0-2, default: 0)\n"+
			"\navailable options:\n"+
			"0: general info (calibration, config changes, failures)\n"+
			"1: every joystick sample with raw conversion results\n"+
			"2: debug",
	)
	silent = flag.Bool("silent", false, "no output logging")
	rotate = flag.Bool("rotate", false, "force rotated orientation (joystick on the left of display) regardless of config")
)

// withFlags applies command line overrides on settings coming from config.
func withFlags(s joystick.Settings, rotate bool) joystick.Settings {
	if rotate {
		s.Orientation = joystick.Rotated
	}
	return s
}

func requestRecalibration(recalibrate chan<- struct{}) {
	select {
	case recalibrate <- struct{}{}:
	default:
	}
}

// forwardSettings turns config changes and recalibration requests into driver settings.
func forwardSettings(
	ctx context.Context, wg *sync.WaitGroup, current config.Config, rotate bool,
	changes <-chan config.Config, recalibrate <-chan struct{}, settings chan<- joystick.Settings,
) {
	defer wg.Done()
	defer close(settings)

	for {
		var s joystick.Settings
		select {
		case <-ctx.Done():
			return
		case c, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			if c.Joystick.SPI != current.Joystick.SPI || c.Joystick.Profile != current.Joystick.Profile ||
				c.Joystick.PollRate != current.Joystick.PollRate || c.Screen != current.Screen {
				log.Info("bus, profile, poll rate and screen changes take effect after restart", logger.Warning)
			}
			current = c
			s = withFlags(c.Joystick.Settings(), rotate)
		case <-recalibrate:
			s = withFlags(current.Joystick.Settings(), rotate)
			s.Recalibrate = true
		}

		select {
		case <-ctx.Done():
			return
		case settings <- s:
		}
	}
}

func handleSigs(wg *sync.WaitGroup, done <-chan struct{}, sigs <-chan os.Signal, cancel func(), stopUI func(), recalibrate chan<- struct{}) {
	defer wg.Done()
	var counter int
	for {
		select {
		case <-done:
			return
		case sig := <-sigs:
			if sig == syscall.SIGUSR1 {
				requestRecalibration(recalibrate)
				continue
			}
			if counter > 0 {
				fmt.Println("Dirty exit")
				os.Exit(1)
			}
			log.Info(fmt.Sprintf("signal received: %v", sig), logger.Debug)
			cancel()
			stopUI()
			counter++
		}
	}
}

// runUI starts gui main loop, returned channel is closed once gui is closed and terminal restored.
func runUI(sigs chan<- os.Signal, recalibrate chan<- struct{}) (*gocui.Gui, <-chan struct{}, error) {
	g, err := GetCli(recalibrate)
	if err != nil {
		return nil, nil, err
	}

	uiDone := make(chan struct{})
	go func() {
		err := g.MainLoop()
		g.Close()
		if err != nil && err != gocui.ErrQuit {
			fmt.Printf("ui failed: %v\n", err)
		}
		close(uiDone)
		// pretend that we received signal when exited from gui
		select {
		case sigs <- syscall.SIGINT:
		default:
		}
	}()

	go func() {
		ticker := time.NewTicker(time.Millisecond * 100)
		defer ticker.Stop()
		for {
			select {
			case <-uiDone:
				return
			case <-ticker.C:
				g.Update(Layout)
			}
		}
	}()

	time.Sleep(time.Millisecond * 500) // waiting for view init
	return g, uiDone, nil
}

func printLogs(stop <-chan struct{}, silent, colors bool, logLevel int) {
	au := aurora.NewAurora(colors)
	write := func(data []byte) {
		if silent {
			return
		}
		msg, err := unpack(data)
		if err != nil {
			fmt.Printf("%s\n", string(data))
			return
		}
		m := prepareString(msg, au, -1, logLevel)
		if m != "" {
			fmt.Printf("%s\n", m)
		}
	}

	for {
		select {
		case data := <-logger.Messages:
			write(data)
		case <-stop:
			for {
				select {
				case data := <-logger.Messages:
					write(data)
				default:
					return
				}
			}
		}
	}
}

func printSnapshots(colors bool, snapshots <-chan joystick.Snapshot) {
	au := aurora.NewAurora(colors)
	var last joystick.Snapshot
	var first = true
	for s := range snapshots {
		if s == last && !first {
			continue
		}
		first = false
		last = s
		fmt.Printf("%s, switch: %s\n", au.Index(directionColor(s.Coordinate), s.Coordinate.String()), s.Switch)
	}
}

func configLocation(path string) (dir, file string) {
	if path == "" {
		return configDir, filepath.Join(configDir, configFile)
	}
	return filepath.Dir(path), path
}

func newDriver(dir string, cfg config.Config) (*joystick.Driver, error) {
	profile, err := loadProfile(dir, cfg.Joystick.Profile)
	if err != nil {
		return nil, fmt.Errorf("cannot load adc profile: %w", err)
	}
	log.Info(fmt.Sprintf("using %s adc profile", profile.Name), logger.Info)

	sampler := adc.NewSampler(spi.Devfs{}, cfg.Joystick.SPI, profile)
	sampler.ReuseEndpoint = cfg.Joystick.ReuseEndpoint

	d := joystick.New(sampler, joystick.WithLogger(log))
	s := withFlags(cfg.Joystick.Settings(), *rotate)
	d.SetOrientation(s.Orientation)
	d.SetInversion(s.Inversion.X, s.Inversion.Y)
	d.Init()
	return d, nil
}

func main() {
	flag.Parse()
	if *force256 {
		os.Setenv("TERM", "xterm-256color")
	}
	level := logLevelFromFlag(*logLevel)
	colors := !*nocolor
	useUI := *ui && !*silent

	var sigs = make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var recalibrate = make(chan struct{}, 1)

	var g *gocui.Gui
	var uiDone <-chan struct{}
	var stopLogs = make(chan struct{})
	var logsDone = make(chan struct{})
	if useUI {
		var err error
		g, uiDone, err = runUI(sigs, recalibrate)
		if err != nil {
			fmt.Printf("cannot start ui: %v\n", err)
			os.Exit(1)
		}
		go logView(g, colors, level, logBufferSize)
		close(logsDone)
	} else {
		go func() {
			printLogs(stopLogs, *silent, colors, level)
			close(logsDone)
		}()
	}

	var stopUIOnce sync.Once
	stopUI := func() {
		if g == nil {
			return
		}
		stopUIOnce.Do(func() {
			g.Update(func(*gocui.Gui) error { return gocui.ErrQuit })
		})
	}

	// this wait-group has to be propagated everywhere where usual logging appear
	wg := sync.WaitGroup{}
	done := make(chan struct{})

	wg.Add(1)
	go handleSigs(&wg, done, sigs, cancel, stopUI, recalibrate)

	var exitCode int
	err := run(ctx, &wg, g, colors, useUI, recalibrate)
	if err != nil {
		log.Info(err.Error(), logger.Error)
		exitCode = 1
	}

	cancel()
	stopUI()
	if uiDone != nil {
		<-uiDone
		if err != nil {
			fmt.Printf("%v\n", err)
		}
	}
	close(done)
	signal.Stop(sigs)

	log.Info("waiting...", logger.Debug)
	wg.Wait()
	close(stopLogs)
	<-logsDone

	os.Exit(exitCode)
}

func run(ctx context.Context, wg *sync.WaitGroup, g *gocui.Gui, colors, useUI bool, recalibrate <-chan struct{}) error {
	dir, path := configLocation(*configPath)
	if *configPath == "" {
		err := createConfigDirectoryIfNeeded(configDir)
		if err != nil {
			return fmt.Errorf("cannot create config directory: %w", err)
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	log.Info(fmt.Sprintf("config: %+v", cfg), zap.String("path", path), logger.Debug)

	d, err := newDriver(dir, cfg)
	if err != nil {
		return err
	}

	changes, err := config.Watch(ctx, path)
	if err != nil {
		log.Info(fmt.Sprintf("config changes will not be applied: %v", err), logger.Warning)
	}

	settings := make(chan joystick.Settings)
	wg.Add(1)
	go forwardSettings(ctx, wg, cfg, *rotate, changes, recalibrate, settings)

	snapshots, errs := joystick.Poll(ctx, d, cfg.Joystick.PollRate, settings)
	fan := utils.NewDynamicFanOut(snapshots)

	if cfg.Screen.Enabled || useUI {
		_, out, err := fan.SpawnOutput()
		if err != nil {
			return fmt.Errorf("cannot attach display: %w", err)
		}
		wg.Add(1)
		dd := GenerateDisplayData(ctx, wg, cfg.Screen, out)
		ddFan := utils.NewDynamicFanOut(dd)

		if cfg.Screen.Enabled {
			_, lcd, _ := ddFan.SpawnOutput()
			wg.Add(1)
			go display.HandleDisplay(wg, cfg.Screen, lcd)
		}
		if useUI {
			_, lcd, _ := ddFan.SpawnOutput()
			go lcdView(g, lcd)
		}
	}

	if !*silent {
		_, out, err := fan.SpawnOutput()
		if err != nil {
			return fmt.Errorf("cannot attach output: %w", err)
		}
		if useUI {
			go positionView(g, colors, out)
		} else {
			fmt.Printf("for nicer output use -ui flag\n")
			go printSnapshots(colors, out)
		}
	}

	<-fan.Done()

	if err := <-errs; err != nil {
		return fmt.Errorf("joystick driver faulted: %w", err)
	}
	return nil
}
