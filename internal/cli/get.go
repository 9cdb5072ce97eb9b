package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/alapierre/secret-helper/internal/support"
	"github.com/alapierre/secret-helper/pkg/fingerprint"
	"github.com/alapierre/secret-helper/pkg/jcs"
	"github.com/alapierre/secret-helper/pkg/metrics"
	"github.com/alapierre/secret-helper/pkg/secrets"
)

type GetCmd struct {
	Name        string `arg:"" help:"Secret name."`
	ParseJSON   bool   `help:"Decode the secret as JSON and print it in canonical form."`
	NoCache     bool   `help:"Always fetch from the store."`
	NoElevate   bool   `help:"Fetch without elevated access."`
	Repeat      int    `default:"1" help:"Resolve the secret this many times in one process."`
	Fingerprint bool   `help:"Print a SHA-256 fingerprint instead of the value."`
	Stats       bool   `help:"Print cache and fetch counters to stderr."`
}

func (c *GetCmd) Run(g *Globals) error {
	return handleGet(context.Background(), g, c)
}

func handleGet(ctx context.Context, g *Globals, c *GetCmd) error {
	cfg := g.loadConfig()

	reg := prometheus.NewRegistry()
	coord, src, err := support.NewCoordinator(ctx, cfg, secrets.WithMetrics(metrics.New(reg)))
	if err != nil {
		return err
	}
	defer coord.Flush()

	var opts []secrets.RequestOption
	if c.NoCache {
		opts = append(opts, secrets.WithCache(false))
	}
	if c.NoElevate {
		opts = append(opts, secrets.WithElevation(false))
	}
	req := secrets.NewRequest(c.Name, c.ParseJSON, opts...)

	repeat := c.Repeat
	if repeat < 1 {
		repeat = 1
	}

	logger.Infof("Resolving %s from %s backend", c.Name, src.Backend)
	var v *secrets.Value
	for i := 0; i < repeat; i++ {
		start := time.Now()
		v, err = coord.Resolve(ctx, req)
		if err != nil {
			return err
		}
		logger.Debugf("Resolved %s in %s (cached: %t)", c.Name, time.Since(start), v.FromCache)
	}

	out, err := render(v)
	if err != nil {
		return err
	}
	if c.Fingerprint {
		fmt.Println(fingerprint.Short(out))
	} else {
		fmt.Println(string(out))
	}

	if c.Stats {
		return printStats(os.Stderr, reg)
	}
	return nil
}

func render(v *secrets.Value) ([]byte, error) {
	if !v.IsJSON {
		return []byte(v.Raw), nil
	}
	out, err := jcs.Marshal(v.Parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", v.Name, err)
	}
	return out, nil
}

func printStats(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather stats: %w", err)
	}

	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}

			switch {
			case m.GetCounter() != nil:
				lines = append(lines, fmt.Sprintf("%s %g", name, m.GetCounter().GetValue()))
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				lines = append(lines, fmt.Sprintf("%s count=%d sum=%gs", name, h.GetSampleCount(), h.GetSampleSum()))
			}
		}
	}
	sort.Strings(lines)

	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
	return nil
}
