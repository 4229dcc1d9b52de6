package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/born-ml/pointops"
	"github.com/born-ml/pointops/internal/pointcloud"
	"github.com/born-ml/pointops/internal/serialization"
	"github.com/born-ml/pointops/tensor"
)

func newSampleCmd(a *app) *cobra.Command {
	var (
		m      int
		output string
	)
	cmd := &cobra.Command{
		Use:   "sample <file>",
		Short: "Pick well-spread points with furthest-point sampling",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSample(cmd.OutOrStdout(), args[0], m, output)
		},
	}
	cmd.Flags().IntVarP(&m, "samples", "m", 16, "Number of points to sample per batch")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write idx and xyz to this .safetensors or .xyz file")
	return cmd
}

func (a *app) runSample(w io.Writer, path string, m int, output string) error {
	xyz, err := pointcloud.Load(path)
	if err != nil {
		return err
	}
	ops, err := a.open()
	if err != nil {
		return err
	}
	defer func() { _ = ops.Close() }()

	idx, err := ops.FurthestPointSample(xyz, m)
	if err != nil {
		return err
	}
	sampled, err := gatherXYZ(ops, xyz, idx)
	if err != nil {
		return err
	}
	slog.Info("sampled points", "file", path, "n", xyz.Shape()[1], "m", m, "backend", ops.Name())

	if output != "" {
		return writeResult(output, sampled, map[string]*tensor.RawTensor{"idx": idx, "xyz": sampled},
			map[string]string{"op": "furthest_point_sample", "source": path})
	}

	ix, pts := idx.AsInt32(), sampled.AsFloat32()
	rows := make([][]string, 0, m)
	for j := 0; j < m; j++ {
		rows = append(rows, []string{
			strconv.Itoa(j), strconv.Itoa(int(ix[j])),
			formatFloat(pts[j*3]), formatFloat(pts[j*3+1]), formatFloat(pts[j*3+2]),
		})
	}
	renderTable(w, []string{"#", "INDEX", "X", "Y", "Z"}, rows)
	return nil
}

func newQueryCmd(a *app) *cobra.Command {
	var (
		radius  float32
		nsample int
		m       int
		output  string
	)
	cmd := &cobra.Command{
		Use:   "query <file>",
		Short: "Sample centres and find their neighbours within a radius",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runQuery(cmd.OutOrStdout(), args[0], m, radius, nsample, output)
		},
	}
	cmd.Flags().Float32Var(&radius, "radius", 0.2, "Neighbourhood radius")
	cmd.Flags().IntVar(&nsample, "nsample", 32, "Neighbours per centre")
	cmd.Flags().IntVarP(&m, "samples", "m", 16, "Number of centres per batch")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write centres and neighbour indices to this .safetensors file")
	return cmd
}

func (a *app) runQuery(w io.Writer, path string, m int, radius float32, nsample int, output string) error {
	xyz, err := pointcloud.Load(path)
	if err != nil {
		return err
	}
	ops, err := a.open()
	if err != nil {
		return err
	}
	defer func() { _ = ops.Close() }()

	n := xyz.Shape()[1]
	m = min(m, n)
	centres, err := ops.FurthestPointSample(xyz, m)
	if err != nil {
		return err
	}
	newXYZ, err := gatherXYZ(ops, xyz, centres)
	if err != nil {
		return err
	}
	idx, err := ops.BallQuery(newXYZ, xyz, radius, nsample)
	if err != nil {
		return err
	}
	slog.Info("ball query", "file", path, "centres", m, "radius", radius, "nsample", nsample)

	if output != "" {
		return writeResult(output, nil, map[string]*tensor.RawTensor{
			"centres": centres, "new_xyz": newXYZ, "idx": idx,
		}, map[string]string{
			"op":      "ball_query",
			"source":  path,
			"radius":  formatFloat(radius),
			"nsample": strconv.Itoa(nsample),
		})
	}

	c, pts, q := centres.AsInt32(), xyz.AsFloat32(), newXYZ.AsFloat32()
	rows := make([][]string, 0, m)
	for j := 0; j < m; j++ {
		row := idx.AsInt32()[j*nsample : (j+1)*nsample]
		hits := countWithin(pts, q[j*3:j*3+3], row, radius*radius)
		rows = append(rows, []string{
			strconv.Itoa(int(c[j])),
			formatFloat(q[j*3]), formatFloat(q[j*3+1]), formatFloat(q[j*3+2]),
			strconv.Itoa(hits),
		})
	}
	renderTable(w, []string{"CENTRE", "X", "Y", "Z", "NEIGHBOURS"}, rows)
	return nil
}

func newKNNCmd(a *app) *cobra.Command {
	var (
		known  string
		output string
	)
	cmd := &cobra.Command{
		Use:   "knn <file>",
		Short: "Find the three nearest known points and interpolation weights",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runKNN(cmd.OutOrStdout(), args[0], known, output)
		},
	}
	cmd.Flags().StringVar(&known, "known", "", "Point file to search (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write dist2, idx and weight to this .safetensors file")
	_ = cmd.MarkFlagRequired("known")
	return cmd
}

func (a *app) runKNN(w io.Writer, path, knownPath, output string) error {
	unknown, err := pointcloud.Load(path)
	if err != nil {
		return err
	}
	known, err := pointcloud.Load(knownPath)
	if err != nil {
		return err
	}
	ops, err := a.open()
	if err != nil {
		return err
	}
	defer func() { _ = ops.Close() }()

	dist2, idx, err := ops.ThreeNN(unknown, known)
	if err != nil {
		return err
	}
	weight, err := pointops.InverseDistanceWeights(dist2)
	if err != nil {
		return err
	}
	slog.Info("three nearest neighbours", "unknown", unknown.Shape()[1], "known", known.Shape()[1])

	if output != "" {
		return writeResult(output, nil, map[string]*tensor.RawTensor{
			"dist2": dist2, "idx": idx, "weight": weight,
		}, map[string]string{"op": "three_nn", "unknown": path, "known": knownPath})
	}

	d, ix, wt := dist2.AsFloat32(), idx.AsInt32(), weight.AsFloat32()
	n := unknown.Shape()[0] * unknown.Shape()[1]
	rows := make([][]string, 0, n)
	for j := 0; j < n; j++ {
		o := j * 3
		rows = append(rows, []string{
			strconv.Itoa(j),
			fmt.Sprintf("%d %d %d", ix[o], ix[o+1], ix[o+2]),
			fmt.Sprintf("%s %s %s", formatFloat(d[o]), formatFloat(d[o+1]), formatFloat(d[o+2])),
			fmt.Sprintf("%s %s %s", formatFloat(wt[o]), formatFloat(wt[o+1]), formatFloat(wt[o+2])),
		})
	}
	renderTable(w, []string{"POINT", "NEIGHBOURS", "DIST2", "WEIGHT"}, rows)
	return nil
}

// gatherXYZ returns the (b, m, 3) coordinates of the points selected by idx.
// The gather kernel works on channel-major features, so xyz is transposed
// to (b, 3, n) and back.
func gatherXYZ(ops *pointops.Ops, xyz, idx *tensor.RawTensor) (*tensor.RawTensor, error) {
	s := xyz.Shape()
	b, n := s[0], s[1]
	src := xyz.AsFloat32()
	features := make([]float32, len(src))
	for i := 0; i < b; i++ {
		for k := 0; k < n; k++ {
			for l := 0; l < 3; l++ {
				features[(i*3+l)*n+k] = src[(i*n+k)*3+l]
			}
		}
	}
	ft, err := tensor.FromFloat32(features, tensor.Shape{b, 3, n})
	if err != nil {
		return nil, err
	}

	gathered, err := ops.GatherPoints(ft, idx)
	if err != nil {
		return nil, err
	}
	m := idx.Shape()[1]
	g := gathered.AsFloat32()
	out := make([]float32, b*m*3)
	for i := 0; i < b; i++ {
		for j := 0; j < m; j++ {
			for l := 0; l < 3; l++ {
				out[(i*m+j)*3+l] = g[(i*3+l)*m+j]
			}
		}
	}
	return tensor.FromFloat32(out, tensor.Shape{b, m, 3})
}

// countWithin counts the distinct indices of row that lie strictly within
// sqrt(radius2) of q. Rows of queries without neighbours hold zeros, which
// count only when point 0 is itself in range.
func countWithin(pts, q []float32, row []int32, radius2 float32) int {
	seen := make(map[int32]bool, len(row))
	for _, k := range row {
		if seen[k] {
			continue
		}
		dx := pts[k*3] - q[0]
		dy := pts[k*3+1] - q[1]
		dz := pts[k*3+2] - q[2]
		if dx*dx+dy*dy+dz*dz < radius2 {
			seen[k] = true
		}
	}
	return len(seen)
}

// writeResult saves a command's tensors. .xyz outputs take only the points
// tensor; anything else is written as safetensors.
func writeResult(path string, points *tensor.RawTensor, tensors map[string]*tensor.RawTensor, metadata map[string]string) error {
	if pointcloud.DetectFormat(path) == pointcloud.FormatXYZ {
		if points == nil {
			return fmt.Errorf("%s: this command writes .safetensors only", path)
		}
		return writeXYZFile(path, points)
	}
	if err := serialization.WriteSafeTensors(path, tensors, metadata); err != nil {
		return err
	}
	slog.Info("wrote result", "file", path, "tensors", len(tensors))
	return nil
}

// writeXYZFile writes pts to path in the whitespace-separated text format.
func writeXYZFile(path string, pts *tensor.RawTensor) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return pointcloud.WriteXYZ(f, pts)
}

func renderTable(w io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(rows)
	table.Render()
}

func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', 6, 32)
}
