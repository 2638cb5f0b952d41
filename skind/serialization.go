package skind

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
)

// WriteSampleSet serializes s as a JSON document keyed by joint name.
func WriteSampleSet(w io.Writer, s SampleSet) error {
	if err := json.NewEncoder(w).Encode(s); err != nil {
		return errors.Wrap(err, "write sample set")
	}
	return nil
}

// ReadSampleSet reads the output written by WriteSampleSet and validates
// its structure.
func ReadSampleSet(r io.Reader) (SampleSet, error) {
	var s SampleSet
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, errors.Wrap(err, "read sample set")
	}
	for joint, js := range s {
		if js == nil {
			return nil, errors.Errorf("read sample set: joint %q: missing record", joint)
		}
		driven := map[int]bool{}
		for _, v := range js.Vertices {
			driven[v] = true
		}
		for _, sample := range js.Samples {
			for v := range sample.Offsets {
				if !driven[v] {
					return nil, errors.Errorf(
						"read sample set: joint %q: frame %d: offset for vertex %d which the joint does not drive",
						joint, sample.Frame, v)
				}
			}
		}
	}
	return s, nil
}

// SaveSampleSet writes a SampleSet to a file.
func SaveSampleSet(path string, s SampleSet) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "save sample set")
	}
	defer f.Close()
	return errors.Wrapf(WriteSampleSet(f, s), "save sample set %q", path)
}

// LoadSampleSet reads a SampleSet from a file.
func LoadSampleSet(path string) (SampleSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "load sample set")
	}
	defer f.Close()
	res, err := ReadSampleSet(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load sample set %q", path)
	}
	return res, nil
}

type weightsDocument struct {
	NumVertices int           `json:"num_vertices"`
	NumJoints   int           `json:"num_joints"`
	Influences  [][]Influence `json:"influences"`
}

// WriteWeights serializes a weight table. The runtime deformer reads this
// to learn which joint's transform predicts which vertex's offset.
func WriteWeights(w io.Writer, m *SkinWeightModel) error {
	doc := weightsDocument{
		NumVertices: m.NumVertices(),
		NumJoints:   m.NumJoints(),
		Influences:  m.weights,
	}
	if err := json.NewEncoder(w).Encode(&doc); err != nil {
		return errors.Wrap(err, "write weights")
	}
	return nil
}

// ReadWeights reads the output written by WriteWeights.
func ReadWeights(r io.Reader) (*SkinWeightModel, error) {
	var doc weightsDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "read weights")
	}
	if len(doc.Influences) != doc.NumVertices {
		return nil, errors.Errorf("read weights: %d influence lists for %d vertices",
			len(doc.Influences), doc.NumVertices)
	}
	m := NewSkinWeightModel(doc.NumVertices, doc.NumJoints)
	for v, influences := range doc.Influences {
		if len(influences) == 0 {
			continue
		}
		if err := m.SetWeights(v, influences); err != nil {
			return nil, errors.Wrap(err, "read weights")
		}
	}
	return m, nil
}

// SaveWeights writes a weight table to a file.
func SaveWeights(path string, m *SkinWeightModel) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "save weights")
	}
	defer f.Close()
	return errors.Wrapf(WriteWeights(f, m), "save weights %q", path)
}

// LoadWeights reads a weight table from a file.
func LoadWeights(path string) (*SkinWeightModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "load weights")
	}
	defer f.Close()
	res, err := ReadWeights(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load weights %q", path)
	}
	return res, nil
}

// WriteScene serializes a baked scene.
func WriteScene(w io.Writer, s *StaticScene) error {
	if err := json.NewEncoder(w).Encode(s); err != nil {
		return errors.Wrap(err, "write scene")
	}
	return nil
}

// ReadScene reads the output written by WriteScene and validates it.
func ReadScene(r io.Reader) (*StaticScene, error) {
	var s StaticScene
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, errors.Wrap(err, "read scene")
	}
	if err := s.Validate(); err != nil {
		return nil, errors.Wrap(err, "read scene")
	}
	return &s, nil
}

// LoadScene reads a baked scene from a file.
func LoadScene(path string) (*StaticScene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "load scene")
	}
	defer f.Close()
	res, err := ReadScene(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load scene %q", path)
	}
	return res, nil
}

// SaveScene writes a baked scene to a file.
func SaveScene(path string, s *StaticScene) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "save scene")
	}
	defer f.Close()
	return errors.Wrapf(WriteScene(f, s), "save scene %q", path)
}
