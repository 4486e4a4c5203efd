// Command facepoint announces the face region an index fingertip points at.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/ayusman/facepoint/internal/announcer"
	"github.com/ayusman/facepoint/internal/app"
	"github.com/ayusman/facepoint/internal/capture"
	"github.com/ayusman/facepoint/internal/config"
	"github.com/ayusman/facepoint/internal/detector"
	"github.com/ayusman/facepoint/internal/landmark"
	"github.com/ayusman/facepoint/internal/logging"
	"github.com/ayusman/facepoint/internal/overlay"
	"github.com/ayusman/facepoint/internal/proximity"
	"github.com/ayusman/facepoint/internal/region"
	"github.com/ayusman/facepoint/internal/server"
	"github.com/ayusman/facepoint/internal/speech"
	"github.com/ayusman/facepoint/internal/store"
	"github.com/ayusman/facepoint/internal/tray"
)

// historyRetention is how long announcements are kept in the database.
const historyRetention = 30 * 24 * time.Hour

func init() {
	// OpenCV windows and the tray must run on the main thread.
	runtime.LockOSThread()
}

func main() {
	cfg, err := config.Load(".env", os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "facepoint: %v\n", err)
		os.Exit(2)
	}

	logging.Init(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	defer logging.Sync()

	if err := run(cfg); err != nil {
		logging.Errorw("facepoint stopped", "err", err)
		logging.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	table := region.Default()
	if err := table.Validate(landmark.NumFaceLandmarks); err != nil {
		return fmt.Errorf("region table: %w", err)
	}

	st := openStore(cfg)
	if st != nil {
		defer st.Close()
	}

	ann := announcer.New(announcer.Config{
		Engine:   newEngine(cfg),
		Cooldown: cfg.Cooldown,
	})
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := ann.Close(closeCtx); err != nil {
			logging.Warnw("announcer close", "err", err)
		}
	}()
	if st != nil {
		ann.SetMuted(st.Settings().GetBool(store.SettingMuted, false))
		app.RecordHistory(ann, st.Announcements())
	}

	det := newDetector(cfg)
	defer det.Close()

	var display overlay.Display
	if cfg.Headless {
		display = overlay.NewHeadless()
	} else {
		display = overlay.NewWindow()
	}

	camCfg := capture.DefaultConfig()
	camCfg.DeviceID = cfg.CameraID

	application := app.New(app.Config{
		Camera:        capture.NewCamera(camCfg),
		Detector:      det,
		Announcer:     ann,
		Classifier:    proximity.NewClassifier(table, cfg.Threshold),
		Display:       display,
		PublishFrames: cfg.Addr != "",
	})

	if cfg.Addr != "" {
		srv := server.New(server.Config{
			StaticDir: webDir(cfg.WebDir),
			Store:     st,
			Status:    application,
			Frames:    application,
			Announcer: ann,
			Table:     table,
			Threshold: cfg.Threshold,
		})
		go func() {
			if err := srv.Serve(ctx, cfg.Addr); err != nil {
				logging.Errorw("http server failed", "addr", cfg.Addr, "err", err)
			}
		}()
	}

	logging.Infow("facepoint started",
		"camera", cfg.CameraID,
		"threshold", cfg.Threshold,
		"cooldown", cfg.Cooldown.String(),
		"tray", cfg.Tray,
	)

	if cfg.Tray {
		return runWithTray(ctx, cfg, application, st)
	}
	return application.Run(ctx)
}

// runWithTray runs the tray on the main thread and the detection loop in the
// background. Either one stopping stops the other.
func runWithTray(ctx context.Context, cfg config.Config, application *app.App, st *store.Store) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ann := application.Announcer()
	t := tray.New()
	t.SetMuted(ann.Muted())
	ann.OnMuteChange(t.SetMuted)

	ann.Subscribe(func(u announcer.Utterance) {
		t.SetLastRegion(u.Region)
	})

	t.OnMute(func(muted bool) {
		ann.SetMuted(muted)
		logging.Infow("mute toggled", "muted", muted)
		if st != nil {
			if err := st.Settings().SetBool(store.SettingMuted, muted); err != nil {
				logging.Warnw("failed to save mute setting", "err", err)
			}
		}
	})
	if cfg.Addr != "" {
		t.OnOpen(func() {
			if err := openBrowser("http://" + cfg.Addr + "/api/status"); err != nil {
				logging.Warnw("failed to open browser", "err", err)
			}
		})
	}
	t.OnQuit(cancel)

	errCh := make(chan error, 1)
	t.OnReady(func() {
		go func() {
			errCh <- application.Run(ctx)
			t.Quit()
		}()
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
	})

	t.Run()
	cancel()

	select {
	case err := <-errCh:
		return err
	case <-time.After(5 * time.Second):
		return errors.New("detection loop did not stop")
	}
}

func openStore(cfg config.Config) *store.Store {
	if cfg.NoHistory {
		return nil
	}

	path := cfg.DBPath
	if path == "" {
		p, err := store.DefaultPath()
		if err != nil {
			logging.Warnw("history disabled", "err", err)
			return nil
		}
		path = p
	}

	st, err := store.New(path)
	if err != nil {
		logging.Warnw("history disabled", "path", path, "err", err)
		return nil
	}

	if n, err := st.Announcements().Prune(time.Now().Add(-historyRetention)); err != nil {
		logging.Warnw("failed to prune history", "err", err)
	} else if n > 0 {
		logging.Infow("pruned history", "removed", n)
	}

	logging.Infow("history enabled", "path", path)
	return st
}

func newEngine(cfg config.Config) speech.Engine {
	engine, err := speech.NewEngine(cfg.SpeechConfig())
	if err != nil {
		logging.Warnw("speech disabled", "err", err)
		return nil
	}
	logging.Infow("speech ready", "program", engine.Program(), "rate", cfg.SpeechRate, "volume", cfg.SpeechVolume)
	return engine
}

func newDetector(cfg config.Config) detector.Detector {
	detCfg := detector.DefaultConfig()
	detCfg.ScriptPath = cfg.ScriptPath
	detCfg.Python = cfg.Python

	mp, err := detector.NewMediaPipeDetector(detCfg)
	if err != nil {
		logging.Warnw("MediaPipe not available, using mock detector", "err", err)
		return detector.NewMockDetector()
	}
	logging.Infow("using MediaPipe landmark detection")
	return mp
}

// webDir returns dir if set, otherwise the first "web" directory found next to
// the working directory or in ~/.facepoint.
func webDir(dir string) string {
	if dir != "" {
		return dir
	}

	candidates := []string{"web", "../web", "../../web"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".facepoint", "web"))
	}

	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
