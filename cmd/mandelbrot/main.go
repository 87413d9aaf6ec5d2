// Command mandelbrot renders an escape-time image of the Mandelbrot set to a
// PNG, BMP or TIFF file, or serves renders over HTTP with -serve.
//
// Usage:
//
//	mandelbrot [flags]
//
// With no flags it renders a 15360x8640 crop of the seahorse valley to
// mandelbrot.png.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/gops/agent"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/mandelbrot"
	"github.com/gogpu/mandelbrot/internal/server"
)

// Exit codes.
const (
	exitOK      = 0
	exitUnknown = 1
	exitConfig  = 2
	exitRender  = 3
	exitEmit    = 4
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// options holds the parsed command line.
type options struct {
	req    mandelbrot.Request
	output string
	serve  string
	gops   bool
	debug  bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	d := mandelbrot.DefaultRequest()
	var o options

	fs := flag.NewFlagSet("mandelbrot", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.IntVar(&o.req.Width, "width", d.Width, "image width in pixels")
	fs.IntVar(&o.req.Height, "height", d.Height, "image height in pixels")
	fs.StringVar(&o.req.UpperLeft, "ul", d.UpperLeft, "upper-left corner, e.g. -1.20+0.35i")
	fs.StringVar(&o.req.LowerRight, "lr", d.LowerRight, "lower-right corner, e.g. -1+0.20i")
	limit := fs.Uint("limit", uint(d.Limit), "iteration limit")
	fs.Float64Var(&o.req.EscapeRadiusSq, "radius", d.EscapeRadiusSq, "squared escape radius")
	fs.StringVar(&o.req.Color, "color", d.Color, "color mode: gray or rgb")
	fs.StringVar(&o.req.Intensity, "intensity", d.Intensity, "intensity transform: linear or log")
	fs.StringVar(&o.req.Schedule, "schedule", d.Schedule, "row scheduling: rows or bands")
	fs.IntVar(&o.req.Workers, "workers", 0, "concurrent rows (0 = GOMAXPROCS)")
	fs.StringVar(&o.output, "o", "mandelbrot.png", "output file; the extension selects png, bmp or tiff")
	fs.StringVar(&o.serve, "serve", "", "serve renders on this address instead of writing a file, e.g. :8080")
	fs.BoolVar(&o.gops, "gops", false, "start the gops diagnostics agent")
	fs.BoolVar(&o.debug, "v", false, "verbose (debug) logging")

	if err := fs.Parse(args); err != nil {
		return o, fmt.Errorf("%w: %w", mandelbrot.ErrConfig, err)
	}
	if fs.NArg() > 0 {
		return o, fmt.Errorf("%w: unexpected arguments %q", mandelbrot.ErrConfig, fs.Args())
	}
	if uint64(*limit) > math.MaxUint32 {
		return o, fmt.Errorf("%w: limit %d out of range", mandelbrot.ErrConfig, *limit)
	}
	o.req.Limit = uint32(*limit)
	return o, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, err)
		return exitConfig
	}

	level := slog.LevelInfo
	if o.debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	mandelbrot.SetLogger(log)
	defer mandelbrot.SetLogger(nil)

	if o.gops {
		if err := agent.Listen(agent.Options{}); err != nil {
			log.Warn("gops agent not started", "error", err)
		} else {
			defer agent.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if o.serve != "" {
		if err := server.ListenAndServe(ctx, o.serve, server.New(server.WithLogger(log))); err != nil {
			log.Error("server stopped", "error", err)
			return exitUnknown
		}
		return exitOK
	}

	if err := render(ctx, o, stdout); err != nil {
		log.Error("render failed", "kind", mandelbrot.KindOf(err).String(), "error", err)
		return exitCode(err)
	}
	return exitOK
}

func render(ctx context.Context, o options, stdout io.Writer) error {
	// Reject an unknown extension before spending time on the render.
	if _, err := mandelbrot.FormatFromPath(o.output); err != nil {
		return err
	}

	r, err := o.req.Renderer()
	if err != nil {
		return err
	}

	start := time.Now()
	buf, err := r.RenderImage(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if err := mandelbrot.SaveFile(o.output, buf, r.Bounds(), r.Config().ColorMode); err != nil {
		return err
	}

	b := r.Bounds()
	p := message.NewPrinter(language.English)
	p.Fprintf(stdout, "%s: %d x %d (%d pixels), limit %d, %s in %v\n",
		o.output, b.Width, b.Height, b.Pixels(), r.Config().IterationLimit,
		r.Viewport(), elapsed.Round(time.Millisecond))
	return nil
}

func exitCode(err error) int {
	switch mandelbrot.KindOf(err) {
	case mandelbrot.KindNone:
		return exitOK
	case mandelbrot.KindConfig:
		return exitConfig
	case mandelbrot.KindRender:
		return exitRender
	case mandelbrot.KindEmit:
		return exitEmit
	default:
		return exitUnknown
	}
}
