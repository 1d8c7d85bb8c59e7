package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/setanarut/duotoneanim"
	"github.com/setanarut/duotoneanim/config"
	"github.com/setanarut/duotoneanim/utils"
)

var (
	inPath     = flag.String("in", "", "Input image (png, jpeg, gif, bmp, tiff, webp)")
	outDir     = flag.String("out", "out", "Output directory")
	configPath = flag.String("config", "", "Tuning config JSON (defaults when empty)")
	seed       = flag.Uint64("seed", 0, "Random seed, 0 picks one")
	maxHeight  = flag.Int("max-height", 0, "Scale taller images down to this height (0 uses config)")
	resumePath = flag.String("continue", "", "session.json from an earlier run to continue")
	writeGIF   = flag.Bool("gif", false, "Write duotone.gif and clone.gif")
	writePlot  = flag.Bool("plot", false, "Write activity.png with changed pixels per batch")
	verbosity  = flag.Int("v", 1, "Log level: 0 quiet, 1 ops, 2 diagnostics, 3 per-batch trace")
)

// session is what -continue reads back.
type session struct {
	Colors   duotoneanim.Duotone  `json:"colors"`
	Continue duotoneanim.Continue `json:"continue"`
}

func main() {
	flag.Parse()
	setupLogging(*verbosity)

	if *inPath == "" && *resumePath == "" {
		log.Fatal("one of -in or -continue is required")
	}

	cfg := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadTuningConfig(*configPath); err != nil {
			log.Fatalf("load config: %v", err)
		}
	}
	opts, err := cfg.Options()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *seed != 0 {
		opts.Seed = *seed
	}
	height := cfg.GetMaxPixelHeight()
	if *maxHeight > 0 {
		height = *maxHeight
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("create output dir: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, height); err != nil {
		log.Fatal(err)
	}
}

func setupLogging(level int) {
	var ops, diag, trace io.Writer
	if level >= 1 {
		ops = os.Stderr
	}
	if level >= 2 {
		diag = os.Stderr
	}
	if level >= 3 {
		trace = os.Stderr
	}
	duotoneanim.SetLogWriters(ops, diag, trace)
}

func run(ctx context.Context, opts duotoneanim.Options, maxHeight int) error {
	var (
		msg    duotoneanim.Inbound
		width  int
		height int
		first  []uint8
		total  int
		player *duotoneanim.Player
	)

	if *resumePath != "" {
		s, err := readSession(*resumePath)
		if err != nil {
			return err
		}
		msg = s.Continue
		width, height = s.Continue.Width, s.Continue.Height
		first = s.Continue.Schedule.FirstFrameRGBA
		player = duotoneanim.NewPlayer(width, height, s.Continue.State.RGBA, duotoneanim.DuotoneReady{
			Duotone:               s.Colors,
			FirstFrameBinaryState: s.Continue.State.BinaryState,
		})
		total = s.Continue.Schedule.FrameBatchCount - 1
		log.Printf("continuing %dx%d for %d batches", width, height, total)
	} else {
		rgba, w, h, err := utils.ReadImage(*inPath, maxHeight)
		if err != nil {
			return err
		}
		width, height, first = w, h, rgba
		msg = duotoneanim.StartFresh{Width: w, Height: h, RGBA: rgba}
		log.Printf("loaded %s at %dx%d", *inPath, w, h)
	}

	var (
		ready   duotoneanim.DuotoneReady
		done    duotoneanim.Done
		batches int
		changed []int
		tones   []*image.NRGBA
		clones  []*image.NRGBA
	)
	if player != nil {
		tones = append(tones, player.DuotoneImage())
		clones = append(clones, player.Image())
	}

	out, errc := duotoneanim.Start(ctx, msg, opts)
	for o := range out {
		switch m := o.(type) {
		case duotoneanim.DuotoneReady:
			ready = m
			total = m.FrameBatchCount - 1
			if m.FrameBatchCount < 2 {
				log.Printf("cannot animate %s: no large contrasting regions", *inPath)
			}
			player = duotoneanim.NewPlayer(width, height, first, m)
			if err := utils.SaveImage(player.DuotoneImage(), filepath.Join(*outDir, "first.png")); err != nil {
				return err
			}
			if err := utils.SaveDuotoneSwatch(m.Duotone, 64, filepath.Join(*outDir, "swatch.png")); err != nil {
				return err
			}
			tones = append(tones, player.DuotoneImage())
			clones = append(clones, player.Image())
		case duotoneanim.FrameBatch:
			player.Forward(m)
			batches++
			changed = append(changed, len(m.Deltas))
			if *verbosity >= 3 {
				log.Printf("batch %s: %d pixels", utils.BatchLabel(m.Index-1, total), len(m.Deltas))
			}
			if *writeGIF {
				tones = append(tones, player.DuotoneImage())
				clones = append(clones, player.Image())
			}
		case duotoneanim.Done:
			done = m
		}
	}
	if err := <-errc; err != nil {
		return err
	}
	log.Printf("run %s emitted %d batches", done.RunID, batches)

	if err := utils.SaveImage(player.DuotoneImage(), filepath.Join(*outDir, "last.png")); err != nil {
		return err
	}
	if err := utils.SaveImage(player.Image(), filepath.Join(*outDir, "last_clone.png")); err != nil {
		return err
	}
	if *writeGIF {
		if err := utils.SaveGIF(tones, 4, filepath.Join(*outDir, "duotone.gif")); err != nil {
			return err
		}
		if err := utils.SaveGIF(clones, 4, filepath.Join(*outDir, "clone.gif")); err != nil {
			return err
		}
	}
	if *writePlot && len(changed) > 0 {
		if err := utils.PlotBatchActivity(changed, fmt.Sprintf("run %s", done.RunID), filepath.Join(*outDir, "activity.png")); err != nil {
			return err
		}
	}

	s := session{}
	if *resumePath != "" {
		prev, err := readSession(*resumePath)
		if err != nil {
			return err
		}
		s.Colors = prev.Colors
		s.Continue = prev.Continue
		s.Continue.State = done.State
	} else {
		s.Colors = ready.Duotone
		s.Continue = duotoneanim.NewContinue(width, height, first, ready, done)
	}
	return writeSession(filepath.Join(*outDir, "session.json"), s)
}

func readSession(path string) (session, error) {
	var s session
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read session: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse session %s: %w", path, err)
	}
	return s, nil
}

func writeSession(path string, s session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}
