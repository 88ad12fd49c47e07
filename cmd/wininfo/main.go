// Command wininfo prints spectral properties of the analysis windows
// used by the THD measurement chain.
//
// Usage:
//
//	wininfo [flags] [window-name ...]
//
// Without arguments it prints info for all known window types.
//
// Examples:
//
//	wininfo hann
//	wininfo -size 4096 flat-top
//	wininfo -list
package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/cwbudde/algo-tape/dsp/window"
)

type windowEntry struct {
	name string
	typ  window.Type
}

var registry = []windowEntry{
	{"rectangular", window.TypeRectangular},
	{"hann", window.TypeHann},
	{"hamming", window.TypeHamming},
	{"blackman-harris-4t", window.TypeBlackmanHarris4Term},
	{"flat-top", window.TypeFlatTop},
}

func main() {
	size := flag.Int("size", 1024, "window length in samples")
	list := flag.Bool("list", false, "list available window names")
	periodic := flag.Bool("periodic", false, "use periodic (FFT) form instead of symmetric")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: wininfo [flags] [window-name ...]\n\n")
		fmt.Fprintf(os.Stderr, "Prints spectral properties of THD analysis windows.\n")
		fmt.Fprintf(os.Stderr, "Without arguments, prints info for all windows.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *list {
		for _, e := range registry {
			fmt.Println(e.name)
		}
		return
	}

	entries := resolveEntries(flag.Args())
	if len(entries) == 0 {
		fmt.Fprintf(os.Stderr, "error: no matching window types\n")
		os.Exit(1)
	}

	var opts []window.Option
	if *periodic {
		opts = append(opts, window.WithPeriodic())
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "Window\tENBW (bins)\tCoherent gain\tMain-lobe null (bins)")

	for _, e := range entries {
		samples := window.Generate(e.typ, *size, opts...)

		enbw, err := window.EquivalentNoiseBandwidth(samples)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %s: %v\n", e.name, err)
			os.Exit(1)
		}

		var sum float64
		for _, s := range samples {
			sum += s
		}

		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.0f\n",
			e.name, enbw, sum/float64(len(samples)), window.FirstMinimumBins(e.typ))
	}

	w.Flush()
}

func resolveEntries(names []string) []windowEntry {
	if len(names) == 0 {
		return registry
	}

	var out []windowEntry
	for _, name := range names {
		found := false
		for _, e := range registry {
			if e.name == name {
				out = append(out, e)
				found = true
				break
			}
		}
		if !found {
			fmt.Fprintf(os.Stderr, "warning: unknown window %q\n", name)
		}
	}

	return out
}
