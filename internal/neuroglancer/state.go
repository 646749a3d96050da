// Package neuroglancer builds viewer states for a single image layer and
// encodes them as shareable links.
package neuroglancer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// N5Scheme prefixes data sources served over the N5 HTTP protocol.
const N5Scheme = "n5://"

// Dimension is one named axis of a coordinate space. It is encoded as the
// two-element array [scale, unit].
type Dimension struct {
	Name  string
	Scale float64
	Unit  string
}

// Dimensions is an ordered coordinate space. Axis order is significant to
// the viewer, so it is encoded as an object whose keys keep slice order.
type Dimensions []Dimension

// XYZ returns the x, y, z coordinate space with the given per-axis scales.
func XYZ(scale [3]float64, unit string) Dimensions {
	return Dimensions{
		{Name: "x", Scale: scale[0], Unit: unit},
		{Name: "y", Scale: scale[1], Unit: unit},
		{Name: "z", Scale: scale[2], Unit: unit},
	}
}

// MarshalJSON implements json.Marshaler.
func (d Dimensions) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, dim := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(dim.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal([]any{dim.Scale, dim.Unit})
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// State is the viewer configuration: a coordinate space and one image layer.
type State struct {
	Dimensions Dimensions `json:"dimensions"`
	Layers     []Layer    `json:"layers"`
}

// Layer is an image layer.
type Layer struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Source Source `json:"source"`
}

// Source locates the layer data and optionally maps it into the state's
// coordinate space.
type Source struct {
	URL       string     `json:"url"`
	Transform *Transform `json:"transform,omitempty"`
}

// Transform is an affine 3x4 matrix: a rotation part and a translation column.
type Transform struct {
	Matrix           [][]float64 `json:"matrix"`
	OutputDimensions Dimensions  `json:"outputDimensions"`
}

// Translation returns the transform with an identity rotation and offset as
// its last column.
func Translation(offset [3]float64, output Dimensions) *Transform {
	matrix := [][]float64{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
	}
	for row := range matrix {
		matrix[row][3] = offset[row]
	}
	return &Transform{Matrix: matrix, OutputDimensions: output}
}

// NewImageState returns a state holding one image layer reading from sourceURL.
func NewImageState(name, sourceURL string, dims Dimensions) State {
	return State{
		Dimensions: dims,
		Layers: []Layer{{
			Name:   name,
			Type:   "image",
			Source: Source{URL: sourceURL},
		}},
	}
}

// WithLayerName returns a copy of s whose first layer is named name.
func (s State) WithLayerName(name string) State {
	out := s.clone()
	if len(out.Layers) == 0 {
		return out
	}
	out.Layers[0].Name = name
	return out
}

// WithTransform returns a copy of s whose first layer source carries t.
// A nil t removes any transform.
func (s State) WithTransform(t *Transform) State {
	out := s.clone()
	if len(out.Layers) == 0 {
		return out
	}
	out.Layers[0].Source.Transform = t
	return out
}

func (s State) clone() State {
	out := s
	out.Layers = append([]Layer(nil), s.Layers...)
	return out
}

// Encode serializes the state as compact JSON.
func (s State) Encode() ([]byte, error) {
	if len(s.Layers) == 0 {
		return nil, fmt.Errorf("viewer state has no layers")
	}
	return json.Marshal(s)
}

// Link returns host + "/#!" + the percent-encoded state.
func (s State) Link(host string) (string, error) {
	doc, err := s.Encode()
	if err != nil {
		return "", err
	}
	return strings.TrimRight(host, "/") + "/#!" + url.PathEscape(string(doc)), nil
}

// N5Source returns the data source URL for dir served by the N5 file server.
func N5Source(server, dir string) string {
	return N5Scheme + strings.TrimRight(server, "/") + "/" + strings.TrimLeft(dir, "/")
}
