package classifier

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ByteOrder is the byte order of serialized tensors.
var ByteOrder = binary.LittleEndian

// Tensor is a single image laid out as (1, H, W, 1) float32 values.
type Tensor struct {
	Shape []int64
	Data  []float32
}

func NewTensor(height, width int) Tensor {
	return Tensor{
		Shape: []int64{1, int64(height), int64(width), 1},
		Data:  make([]float32, height*width),
	}
}

// Elements returns the element count the shape describes.
func (t Tensor) Elements() int {
	return elements(t.Shape)
}

// MarshalBinary encodes the values as consecutive little-endian float32s.
func (t Tensor) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 4*len(t.Data))
	for i, v := range t.Data {
		ByteOrder.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf, nil
}

// DecodeTensor reads little-endian float32 values into a tensor of the given shape.
func DecodeTensor(data []byte, shape []int64) (Tensor, error) {
	n := elements(shape)
	if n <= 0 {
		return Tensor{}, fmt.Errorf("%w: tensor shape %v", ErrInvalidInput, shape)
	}
	if len(data) != 4*n {
		return Tensor{}, fmt.Errorf("%w: expected %d bytes for shape %v, got %d",
			ErrInvalidInput, 4*n, shape, len(data))
	}
	t := Tensor{Shape: append([]int64(nil), shape...), Data: make([]float32, n)}
	for i := range t.Data {
		t.Data[i] = math.Float32frombits(ByteOrder.Uint32(data[i*4:]))
	}
	return t, nil
}

func elements(shape []int64) int {
	if len(shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range shape {
		if d <= 0 {
			return 0
		}
		n *= int(d)
	}
	return n
}
