package gltfutils

import (
	"encoding/base64"
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

func NewDocument() *gltf.Document {
	return gltf.NewDocument()
}

func ExportBinary(w io.Writer, doc *gltf.Document) error {
	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = true
	return encoder.Encode(doc)
}

// ExportJson embeds buffers as base64 data uris
func ExportJson(w io.Writer, doc *gltf.Document) error {
	for _, b := range doc.Buffers {
		b.URI = "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(b.Data)
	}
	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = false
	return encoder.Encode(doc)
}

func Import(r io.Reader) (*gltf.Document, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, errors.Wrapf(err, "Failed to decode gltf")
	}
	return doc, nil
}

func componentsOf(t gltf.AccessorType) int {
	switch t {
	case gltf.AccessorScalar:
		return 1
	case gltf.AccessorVec2:
		return 2
	case gltf.AccessorVec3:
		return 3
	case gltf.AccessorVec4, gltf.AccessorMat2:
		return 4
	case gltf.AccessorMat3:
		return 9
	case gltf.AccessorMat4:
		return 16
	}
	return 0
}

// ReadFloats returns accessor elements flattened, plus amount of components per element.
// Only tightly or stride packed float accessors are supported, no sparse data.
func ReadFloats(doc *gltf.Document, accessorIndex uint32) ([]float32, int, error) {
	if int(accessorIndex) >= len(doc.Accessors) {
		return nil, 0, errors.Errorf("Accessor %d out of range", accessorIndex)
	}
	accessor := doc.Accessors[accessorIndex]
	if accessor.ComponentType != gltf.ComponentFloat {
		return nil, 0, errors.Errorf("Accessor %d is not float", accessorIndex)
	}
	if accessor.Sparse != nil {
		return nil, 0, errors.Errorf("Accessor %d is sparse", accessorIndex)
	}
	comps := componentsOf(accessor.Type)
	if comps == 0 {
		return nil, 0, errors.Errorf("Accessor %d has unknown type", accessorIndex)
	}

	out := make([]float32, int(accessor.Count)*comps)
	if accessor.BufferView == nil {
		// all zeros by gltf rules
		return out, comps, nil
	}

	view := doc.BufferViews[*accessor.BufferView]
	data := doc.Buffers[view.Buffer].Data
	stride := int(view.ByteStride)
	if stride == 0 {
		stride = comps * 4
	}

	start := int(view.ByteOffset + accessor.ByteOffset)
	for i := 0; i < int(accessor.Count); i++ {
		base := start + i*stride
		for c := 0; c < comps; c++ {
			off := base + c*4
			if off+4 > len(data) {
				return nil, 0, errors.Errorf("Accessor %d reads past buffer end", accessorIndex)
			}
			out[i*comps+c] = math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4]))
		}
	}
	return out, comps, nil
}

// WriteFloats appends data to the first buffer and returns the new accessor index
func WriteFloats(doc *gltf.Document, data []float32, t gltf.AccessorType) uint32 {
	if len(doc.Buffers) == 0 {
		doc.Buffers = append(doc.Buffers, &gltf.Buffer{})
	}
	buffer := doc.Buffers[0]
	for len(buffer.Data)%4 != 0 {
		buffer.Data = append(buffer.Data, 0)
	}

	offset := len(buffer.Data)
	raw := make([]byte, len(data)*4)
	for i, v := range data {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}
	buffer.Data = append(buffer.Data, raw...)
	buffer.ByteLength = uint32(len(buffer.Data))

	doc.BufferViews = append(doc.BufferViews, &gltf.BufferView{
		Buffer:     0,
		ByteOffset: uint32(offset),
		ByteLength: uint32(len(raw)),
	})

	doc.Accessors = append(doc.Accessors, &gltf.Accessor{
		BufferView:    gltf.Index(uint32(len(doc.BufferViews) - 1)),
		ComponentType: gltf.ComponentFloat,
		Count:         uint32(len(data) / componentsOf(t)),
		Type:          t,
	})
	return uint32(len(doc.Accessors) - 1)
}
