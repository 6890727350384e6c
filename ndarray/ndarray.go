/*Package ndarray holds a minimal dense float64 array of one to three
dimensions, the shapes IRIS level 2 products come in: a spectrum, an image,
or a (time, y, x) cube.

It exists so the calibration engine can own its buffers; it is not a general
tensor library.  Axis 0 is always the time-like axis for rank 2 and 3 data.
*/
package ndarray

import "fmt"

// DimensionalityError is returned when an operation receives an array whose
// rank is outside the supported 1 to 3 range, or a frame vector whose length
// does not match axis 0.
type DimensionalityError struct {
	Op   string
	Rank int
}

func (e *DimensionalityError) Error() string {
	return fmt.Sprintf("%s: data must have 1, 2 or 3 dimensions, got %d", e.Op, e.Rank)
}

// Array is a dense row-major float64 array.
type Array struct {
	// Shape holds the axis lengths, slowest-varying first.
	Shape []int

	// Data is the flat backing store, len = product of Shape.
	Data []float64
}

// New returns a zero-filled array of the given shape.
func New(shape ...int) (*Array, error) {
	if len(shape) < 1 || len(shape) > 3 {
		return nil, &DimensionalityError{Op: "ndarray.New", Rank: len(shape)}
	}
	n := 1
	for _, s := range shape {
		n *= s
	}
	cp := make([]int, len(shape))
	copy(cp, shape)
	return &Array{Shape: cp, Data: make([]float64, n)}, nil
}

// FromSlice wraps flat data in an array of the given shape.  The data is not
// copied; the returned array owns it.
func FromSlice(data []float64, shape ...int) (*Array, error) {
	a, err := New(shape...)
	if err != nil {
		return nil, err
	}
	if len(data) != len(a.Data) {
		return nil, fmt.Errorf("ndarray.FromSlice: %d elements do not fill shape %v", len(data), shape)
	}
	a.Data = data
	return a, nil
}

// NDim returns the rank of the array.
func (a *Array) NDim() int { return len(a.Shape) }

// Len returns the number of elements.
func (a *Array) Len() int { return len(a.Data) }

// Clone returns a deep copy.
func (a *Array) Clone() *Array {
	if a == nil {
		return nil
	}
	shape := make([]int, len(a.Shape))
	copy(shape, a.Shape)
	data := make([]float64, len(a.Data))
	copy(data, a.Data)
	return &Array{Shape: shape, Data: data}
}

// SameShape returns true if b has identical shape to a.
func (a *Array) SameShape(b *Array) bool {
	if len(a.Shape) != len(b.Shape) {
		return false
	}
	for i := range a.Shape {
		if a.Shape[i] != b.Shape[i] {
			return false
		}
	}
	return true
}

// Scale returns a copy with every element multiplied by f.  A nil receiver
// (absent uncertainty) stays nil.
func (a *Array) Scale(f float64) *Array {
	if a == nil {
		return nil
	}
	out := a.Clone()
	for i := range out.Data {
		out.Data[i] *= f
	}
	return out
}

// frameSize returns the number of elements per axis 0 step.
func (a *Array) frameSize() int {
	n := 1
	for _, s := range a.Shape[1:] {
		n *= s
	}
	return n
}

// ScaleFrames returns a copy with every element in frame t (along axis 0)
// multiplied by factors[t].  This is the broadcast rule for per-exposure
// scalars: a rank 1 array is scaled elementwise, rank 2 and 3 arrays are
// scaled per leading slice.
func (a *Array) ScaleFrames(factors []float64) (*Array, error) {
	if a.NDim() < 1 || a.NDim() > 3 {
		return nil, &DimensionalityError{Op: "ndarray.ScaleFrames", Rank: a.NDim()}
	}
	if len(factors) != a.Shape[0] {
		return nil, fmt.Errorf("ndarray.ScaleFrames: %d factors for %d frames", len(factors), a.Shape[0])
	}
	out := a.Clone()
	fs := a.frameSize()
	for t := 0; t < a.Shape[0]; t++ {
		f := factors[t]
		base := t * fs
		for i := 0; i < fs; i++ {
			out.Data[base+i] *= f
		}
	}
	return out, nil
}

// ScaleLastAxis returns a copy with element [..., i] multiplied by
// factors[i].  This is the broadcast rule for per-wavelength-bin scalars on
// spectrograph data, where the fastest axis is the spectral one.
func (a *Array) ScaleLastAxis(factors []float64) (*Array, error) {
	if a.NDim() < 1 || a.NDim() > 3 {
		return nil, &DimensionalityError{Op: "ndarray.ScaleLastAxis", Rank: a.NDim()}
	}
	last := a.Shape[a.NDim()-1]
	if len(factors) != last {
		return nil, fmt.Errorf("ndarray.ScaleLastAxis: %d factors for axis of length %d", len(factors), last)
	}
	out := a.Clone()
	for i := range out.Data {
		out.Data[i] *= factors[i%last]
	}
	return out, nil
}

// Mask is a boolean array aligned with an Array of the same shape.
type Mask struct {
	Shape []int
	Data  []bool
}

// NewMask returns an all-false mask shaped like a.
func NewMask(a *Array) *Mask {
	shape := make([]int, len(a.Shape))
	copy(shape, a.Shape)
	return &Mask{Shape: shape, Data: make([]bool, len(a.Data))}
}

// Clone returns a deep copy of the mask.
func (m *Mask) Clone() *Mask {
	if m == nil {
		return nil
	}
	shape := make([]int, len(m.Shape))
	copy(shape, m.Shape)
	data := make([]bool, len(m.Data))
	copy(data, m.Data)
	return &Mask{Shape: shape, Data: data}
}

// CountTrue returns the number of set positions.
func (m *Mask) CountTrue() int {
	n := 0
	for _, b := range m.Data {
		if b {
			n++
		}
	}
	return n
}
