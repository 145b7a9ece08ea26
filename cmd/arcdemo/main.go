package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/henderiw/arcring/pkg/editor"
	"github.com/henderiw/arcring/pkg/ring"
	"github.com/pkg/errors"
)

const usage = `arcdemo - replay edits on a circular range editor

USAGE:
  arcdemo [flags] [step ...]

STEPS:
  split=V              long press at value V
  drag=FROM:TO[,TO]    grab the thumb nearest FROM and drag it through each TO
  remove=START:END     remove the intervals lying within START..END

Without steps the demo splits the initial range at its middle and drags the
end of the first half into the second one.

EXAMPLES:
  arcdemo
  arcdemo -config day.yaml split=16200 drag=18000:13000
  arcdemo -v 2 split=16200 remove=3600:14400

FLAGS:
`

var defaultSteps = []string{"split=16200", "drag=14400:16000,17500"}

func main() {
	var (
		help       bool
		configPath string
		verbosity  int
	)
	flag.BoolVar(&help, "h", false, "show help")
	flag.BoolVar(&help, "help", false, "show help")
	flag.StringVar(&configPath, "config", "", "YAML editor config, defaults apply when empty")
	flag.IntVar(&verbosity, "v", 0, "log verbosity")
	flag.Usage = func() {
		fmt.Print(usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if help {
		flag.Usage()
		return
	}

	log := funcr.New(func(prefix, args string) {
		fmt.Fprintln(os.Stderr, prefix, args)
	}, funcr.Options{Verbosity: verbosity})

	if err := run(log, configPath, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "arcdemo: %v\n", err)
		os.Exit(1)
	}
}

func run(log logr.Logger, configPath string, steps []string) error {
	cfg, err := editor.LoadConfig(configPath)
	if err != nil {
		return err
	}
	e, err := editor.New(cfg, editor.WithLogger(log), editor.WithObserver(func(ev editor.Event) {
		log.V(1).Info("event", "event", ev.String())
	}))
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		steps = defaultSteps
	}

	printRanges("initial", e)
	for _, step := range steps {
		if err := apply(e, step); err != nil {
			return err
		}
		printRanges(step, e)
	}
	return nil
}

func apply(e *editor.Editor, step string) error {
	kind, arg, ok := strings.Cut(step, "=")
	if !ok {
		return errors.Errorf("step %q: expected kind=args", step)
	}
	switch kind {
	case "split":
		v, err := parseValue(arg)
		if err != nil {
			return errors.Wrapf(err, "step %q", step)
		}
		if !e.TrySplit(v) {
			fmt.Printf("%s: nothing to split\n", step)
		}
	case "drag":
		from, to, ok := strings.Cut(arg, ":")
		if !ok {
			return errors.Errorf("step %q: expected FROM:TO", step)
		}
		v, err := parseValue(from)
		if err != nil {
			return errors.Wrapf(err, "step %q", step)
		}
		if _, ok := e.BeginDragAt(v); !ok {
			e.EndDrag()
			fmt.Printf("%s: no thumb near %g\n", step, v)
			return nil
		}
		for _, s := range strings.Split(to, ",") {
			v, err := parseValue(s)
			if err != nil {
				e.EndDrag()
				return errors.Wrapf(err, "step %q", step)
			}
			e.ContinueDrag(v)
		}
		e.EndDrag()
	case "remove":
		start, end, ok := strings.Cut(arg, ":")
		if !ok {
			return errors.Errorf("step %q: expected START:END", step)
		}
		s, err := parseValue(start)
		if err != nil {
			return errors.Wrapf(err, "step %q", step)
		}
		en, err := parseValue(end)
		if err != nil {
			return errors.Wrapf(err, "step %q", step)
		}
		if err := e.RemoveRange(ring.Range{Start: s, End: en}); err != nil {
			fmt.Printf("%s: %v\n", step, err)
		}
	default:
		return errors.Errorf("step %q: unknown kind %q", step, kind)
	}
	return nil
}

func parseValue(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid value %q", s)
	}
	return v, nil
}

func printRanges(title string, e *editor.Editor) {
	parts := []string{}
	for _, r := range e.CurrentRanges() {
		parts = append(parts, r.String())
	}
	fmt.Printf("%-24s %-8s %s\n", title, e.Mode(), strings.Join(parts, " "))
}
