package neuroglancer

import (
	"encoding/json"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nm8 = XYZ([3]float64{8e-9, 8e-9, 8e-9}, "m")

func TestDimensionsKeepAxisOrder(t *testing.T) {
	dims := Dimensions{
		{Name: "z", Scale: 1, Unit: "nm"},
		{Name: "x", Scale: 2, Unit: "nm"},
	}
	doc, err := json.Marshal(dims)
	require.NoError(t, err)
	assert.Equal(t, `{"z":[1,"nm"],"x":[2,"nm"]}`, string(doc))
}

func TestStateEncode(t *testing.T) {
	state := NewImageState("grayscale", N5Source("http://n5:9999", "a/b/c"), nm8)

	doc, err := state.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"dimensions": {"x": [8e-9, "m"], "y": [8e-9, "m"], "z": [8e-9, "m"]},
		"layers": [{"name": "grayscale", "type": "image", "source": {"url": "n5://http://n5:9999/a/b/c"}}]
	}`, string(doc))
}

func TestWithTransformDoesNotMutateBase(t *testing.T) {
	base := NewImageState("vol", "n5://x/y", nm8)
	withT := base.WithTransform(Translation([3]float64{1, 2.5, -3}, nm8)).WithLayerName("vol-bdv-offset")

	assert.Nil(t, base.Layers[0].Source.Transform)
	assert.Equal(t, "vol", base.Layers[0].Name)

	require.NotNil(t, withT.Layers[0].Source.Transform)
	assert.Equal(t, [][]float64{
		{1, 0, 0, 1},
		{0, 1, 0, 2.5},
		{0, 0, 1, -3},
	}, withT.Layers[0].Source.Transform.Matrix)
	assert.Equal(t, "vol-bdv-offset", withT.Layers[0].Name)
}

func TestLinkRoundTrip(t *testing.T) {
	state := NewImageState("S1-Sec27-v1", N5Source("http://n5:9999/", "/Z0720/render/Sec27/v1_x"), nm8).
		WithTransform(Translation([3]float64{10, 20, 30}, nm8))

	link, err := state.Link("http://viewer.example.org/")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "http://viewer.example.org/#!"))
	assert.NotContains(t, link[len("http://viewer.example.org/#!"):], " ")
	assert.NotContains(t, link[len("http://viewer.example.org/#!"):], `"`)

	doc := decodeLink(t, link)

	var decoded struct {
		Layers []struct {
			Source struct {
				URL       string `json:"url"`
				Transform struct {
					Matrix [][]float64 `json:"matrix"`
				} `json:"transform"`
			} `json:"source"`
		} `json:"layers"`
	}
	require.NoError(t, json.Unmarshal(doc, &decoded))
	require.Len(t, decoded.Layers, 1)
	assert.Equal(t, "n5://http://n5:9999/Z0720/render/Sec27/v1_x", decoded.Layers[0].Source.URL)
	assert.Equal(t, []float64{10, 20, 30}, []float64{
		decoded.Layers[0].Source.Transform.Matrix[0][3],
		decoded.Layers[0].Source.Transform.Matrix[1][3],
		decoded.Layers[0].Source.Transform.Matrix[2][3],
	})
}

func TestEncodeRejectsEmptyState(t *testing.T) {
	_, err := State{Dimensions: nm8}.Encode()
	require.Error(t, err)
}

// decodeLink reverses Link, returning the raw state document.
func decodeLink(t *testing.T, link string) []byte {
	t.Helper()
	_, fragment, ok := strings.Cut(link, "#!")
	require.True(t, ok, "link %q has no state fragment", link)
	doc, err := url.PathUnescape(fragment)
	require.NoError(t, err)
	return []byte(doc)
}
