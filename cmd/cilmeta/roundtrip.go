package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/wippyai/cilmeta/assembly"
	"github.com/wippyai/cilmeta/writer"
)

func (a *app) roundtripCmd() *cobra.Command {
	var output string
	var metrics bool
	cmd := &cobra.Command{
		Use:   "roundtrip <file>",
		Short: "Rewrite the metadata root without edits and compare",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read file: %w", err)
			}
			md, err := metadataRoot(data)
			if err != nil {
				return err
			}
			asm, err := assembly.Load(md)
			if err != nil {
				return err
			}
			reg := prometheus.NewRegistry()
			out, err := a.write(cmd, asm, reg, output)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if bytes.HasPrefix(md, out.Bytes) {
				fmt.Fprintf(w, "identical: %d bytes\n", len(out.Bytes))
			} else {
				fmt.Fprintf(w, "differs: wrote %d bytes\n", len(out.Bytes))
			}
			if metrics {
				return printMetrics(w, reg)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the metadata root to this file")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "print writer metrics")
	return cmd
}

// write serializes asm with the configured options and saves the root to
// path when it is set.
func (a *app) write(cmd *cobra.Command, asm *assembly.Assembly, reg prometheus.Registerer, path string) (*writer.Output, error) {
	opts := a.cfg.WriterOptions()
	opts.Registerer = reg
	out, err := writer.Write(cmd.Context(), asm, opts)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := os.WriteFile(path, out.Bytes, 0o644); err != nil {
			return nil, fmt.Errorf("write output: %w", err)
		}
	}
	return out, nil
}

func printMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	var lines []string
	for _, f := range families {
		for _, m := range f.GetMetric() {
			labels := ""
			for _, l := range m.GetLabel() {
				labels += fmt.Sprintf("%s=%s ", l.GetName(), l.GetValue())
			}
			var v float64
			switch {
			case m.GetCounter() != nil:
				v = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				v = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				v = m.GetHistogram().GetSampleSum()
			}
			lines = append(lines, fmt.Sprintf("%s %s%g", f.GetName(), labels, v))
		}
	}
	sort.Strings(lines)
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
	return nil
}
