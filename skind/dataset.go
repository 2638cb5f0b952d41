package skind

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// RotationFields names the quaternion components of a sample transform, in
// column order.
var RotationFields = []string{"rx", "ry", "rz", "rw"}

// TranslationFields names the translation components of a sample transform.
var TranslationFields = []string{"tx", "ty", "tz"}

// NormBounds records the per-column min and max used for normalization, so
// a consumer can map predictions back to the original scale.
type NormBounds struct {
	Min []float64
	Max []float64
}

// A Dataset is one joint's training pair: equal-length input and output
// matrices with one row per sample.
type Dataset struct {
	// Vertices is the stable vertex order behind the output columns:
	// three consecutive columns (x, y, z) per vertex.
	Vertices []int

	Inputs  *mat.Dense
	Outputs *mat.Dense

	// InputBounds and OutputBounds are set when the builder normalized
	// the matrices, and nil otherwise.
	InputBounds  *NormBounds
	OutputBounds *NormBounds
}

// A DatasetBuilder converts a SampleSet into the per-joint (inputs,
// outputs) pairs handed to an external model-fitting stage.
type DatasetBuilder struct {
	// RotationOnly drops the translation columns from the inputs.
	RotationOnly bool

	// Normalize rescales each column to [0, 1] using min-max bounds,
	// recording the bounds on the Dataset. Rotation components are
	// already bounded and are left untouched. Off by default: the raw
	// scale matches what the persisted corpus and existing consumers use.
	Normalize bool

	Log *zap.Logger
}

// Build derives a Dataset per joint. Joints with zero recorded samples are
// excluded from the result and reported in the Report; they never fail the
// whole build.
func (b *DatasetBuilder) Build(set SampleSet) (map[string]*Dataset, *Report, error) {
	if set == nil {
		return nil, nil, errors.New("dataset: no sample set")
	}
	log := logOrNop(b.Log)

	inputCols := len(RotationFields)
	if !b.RotationOnly {
		inputCols += len(TranslationFields)
	}

	report := &Report{}
	res := map[string]*Dataset{}
	for _, joint := range set.JointNames() {
		js := set[joint]
		if len(js.Samples) == 0 {
			report.add(Diagnostic{
				Vertex: -1,
				Joint:  joint,
				Err:    &EmptyJointSampleError{Joint: joint},
			})
			log.Warn("excluding joint with no samples", zap.String("joint", joint))
			continue
		}

		rows := len(js.Samples)
		inputs := mat.NewDense(rows, inputCols, nil)
		outputs := mat.NewDense(rows, 3*len(js.Vertices), nil)
		for i, sample := range js.Samples {
			for c := 0; c < inputCols; c++ {
				inputs.Set(i, c, sample.Transform[c])
			}
			for vi, v := range js.Vertices {
				off := sample.Offsets[v]
				outputs.Set(i, vi*3, off[0])
				outputs.Set(i, vi*3+1, off[1])
				outputs.Set(i, vi*3+2, off[2])
			}
		}

		ds := &Dataset{
			Vertices: append([]int{}, js.Vertices...),
			Inputs:   inputs,
			Outputs:  outputs,
		}
		if b.Normalize {
			ds.InputBounds = normalizeColumns(inputs, len(RotationFields))
			ds.OutputBounds = normalizeColumns(outputs, 0)
		}
		res[joint] = ds
	}
	return res, report, nil
}

// normalizeColumns rescales columns from startCol onward to [0, 1] in
// place. Columns with no spread collapse to zero, matching the reference
// trainer's NaN handling. The returned bounds cover every column; skipped
// columns get the identity bounds (0, 1).
func normalizeColumns(m *mat.Dense, startCol int) *NormBounds {
	rows, cols := m.Dims()
	bounds := &NormBounds{
		Min: make([]float64, cols),
		Max: make([]float64, cols),
	}
	for c := 0; c < cols; c++ {
		if c < startCol {
			bounds.Min[c] = 0
			bounds.Max[c] = 1
			continue
		}
		lo, hi := m.At(0, c), m.At(0, c)
		for r := 1; r < rows; r++ {
			x := m.At(r, c)
			if x < lo {
				lo = x
			}
			if x > hi {
				hi = x
			}
		}
		bounds.Min[c] = lo
		bounds.Max[c] = hi
		for r := 0; r < rows; r++ {
			if hi == lo {
				m.Set(r, c, 0)
			} else {
				m.Set(r, c, (m.At(r, c)-lo)/(hi-lo))
			}
		}
	}
	return bounds
}

// ExportCSV writes one CSV per joint with the raw (unnormalized) sample
// rows, for external trainers that read tabular data. The heading is the
// transform fields followed by vtx{i}{x,y,z} triples in stable vertex
// order. Returns the written file paths.
func ExportCSV(dir string, set SampleSet) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "export csv")
	}
	var paths []string
	for _, joint := range set.JointNames() {
		js := set[joint]
		path := filepath.Join(dir, csvFileName(joint))
		if err := writeJointCSV(path, js); err != nil {
			return nil, errors.Wrapf(err, "export csv for joint %q", joint)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func csvFileName(joint string) string {
	name := strings.NewReplacer("|", "_", "/", "_", ":", "_").Replace(joint)
	name = strings.TrimLeft(name, "_")
	if name == "" {
		name = "joint"
	}
	return name + ".csv"
}

func writeJointCSV(path string, js *JointSamples) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	heading := append(append([]string{}, RotationFields...), TranslationFields...)
	for _, v := range js.Vertices {
		heading = append(heading,
			fmt.Sprintf("vtx%dx", v),
			fmt.Sprintf("vtx%dy", v),
			fmt.Sprintf("vtx%dz", v))
	}
	if err := w.Write(heading); err != nil {
		return err
	}
	row := make([]string, 0, len(heading))
	for _, sample := range js.Samples {
		row = row[:0]
		for _, x := range sample.Transform {
			row = append(row, strconv.FormatFloat(x, 'g', -1, 64))
		}
		for _, v := range js.Vertices {
			off := sample.Offsets[v]
			for _, x := range off {
				row = append(row, strconv.FormatFloat(x, 'g', -1, 64))
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
