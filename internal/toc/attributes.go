package toc

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	// ErrInvalidJSON is returned for documents that are not well-formed JSON.
	ErrInvalidJSON = errors.New("invalid JSON")
	// ErrNotObject is returned for well-formed documents whose top level is not an object.
	ErrNotObject = errors.New("attributes are not a JSON object")
	// ErrBadOffset is returned when "translate" exists but is not three finite numbers.
	ErrBadOffset = errors.New("translate is not a 3-vector of numbers")
)

const (
	scalesKey    = "scales"
	translateKey = "translate"
)

// VolumeAttributes is the parsed content of one attributes.json file.
type VolumeAttributes struct {
	doc gjson.Result
}

// ParseAttributes parses data as a JSON object.
func ParseAttributes(data []byte) (VolumeAttributes, error) {
	if !gjson.ValidBytes(data) {
		return VolumeAttributes{}, describeInvalid(data)
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return VolumeAttributes{}, ErrNotObject
	}
	return VolumeAttributes{doc: doc}, nil
}

// describeInvalid decodes data with encoding/json only to obtain a
// positioned error message for the log.
func describeInvalid(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	return ErrInvalidJSON
}

// IsVolume reports whether the attributes describe a multiscale volume.
func (a VolumeAttributes) IsVolume() bool {
	return a.doc.Get(scalesKey).Exists()
}

// Offset is a volume's translation. Text keeps each number as written in
// the file.
type Offset struct {
	Values [3]float64
	Text   [3]string
}

// String joins the components with ", ".
func (o Offset) String() string {
	return strings.Join(o.Text[:], ", ")
}

// Offset returns the "translate" vector. ok is false when the key is absent;
// err is set when it is present but malformed.
func (a VolumeAttributes) Offset() (offset Offset, ok bool, err error) {
	v := a.doc.Get(translateKey)
	if !v.Exists() {
		return Offset{}, false, nil
	}
	if !v.IsArray() {
		return Offset{}, false, ErrBadOffset
	}
	items := v.Array()
	if len(items) != 3 {
		return Offset{}, false, fmt.Errorf("%w: %d components", ErrBadOffset, len(items))
	}
	for i, item := range items {
		if item.Type != gjson.Number {
			return Offset{}, false, fmt.Errorf("%w: component %d is %s", ErrBadOffset, i, item.Type)
		}
		v := item.Float()
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return Offset{}, false, fmt.Errorf("%w: component %d (%s) is out of range", ErrBadOffset, i, item.Raw)
		}
		offset.Values[i] = v
		offset.Text[i] = item.Raw
	}
	return offset, true, nil
}
