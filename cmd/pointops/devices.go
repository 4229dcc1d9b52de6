package main

import (
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/viterin/vek/vek32"

	"github.com/born-ml/pointops/backend/cpu"
	"github.com/born-ml/pointops/backend/webgpu"
)

func newDevicesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List compute backends and whether they can be used",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.runDevices(cmd.OutOrStdout())
			return nil
		},
	}
}

func (a *app) runDevices(w io.Writer) {
	host := cpu.NewWithConfig(a.cfg.ToParallel())
	simd := vek32.Info()

	features := strings.Join(host.Features(), ",")
	if features == "" {
		features = "-"
	}
	rows := [][]string{
		{
			"cpu", "yes",
			"workers=" + strconv.Itoa(host.Parallel().NumWorkers) +
				" parallel=" + strconv.FormatBool(host.Parallel().Enabled) +
				" simd=" + features +
				" vek=" + strconv.FormatBool(simd.Acceleration),
		},
	}

	gpu := []string{"webgpu", "no", "-"}
	if b, err := webgpu.New(); err == nil {
		info := b.Info()
		gpu = []string{"webgpu", "yes", strings.TrimSpace(info.Vendor + " " + info.Device + " (" + info.Backend + ")")}
		b.Release()
	}
	rows = append(rows, gpu)

	renderTable(w, []string{"BACKEND", "AVAILABLE", "DETAILS"}, rows)
}
