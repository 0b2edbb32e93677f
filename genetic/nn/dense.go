package nn

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/baldhumanity/genetic-go/genetic/random"
)

var (
	// ErrInvalidTopology is returned when layer sizes cannot describe a network.
	ErrInvalidTopology = errors.New("invalid topology")
	// ErrShapeMismatch is returned when an input does not match the input layer.
	ErrShapeMismatch = errors.New("shape mismatch")
)

// Network is a fully-connected feedforward network.
//
// Layer i (for i in [0, len(sizes)-1)) maps the activation of layer i to
// layer i+1 through Weights[i], a (sizes[i+1] x sizes[i]) matrix, and
// Biases[i], a column vector of length sizes[i+1]. The input layer has no
// parameters of its own.
type Network struct {
	sizes   []int
	weights []*mat.Dense
	biases  []*mat.VecDense
}

// ValidateSizes checks that sizes has at least two layers and every layer is
// non-empty.
func ValidateSizes(sizes []int) error {
	if len(sizes) < 2 {
		return fmt.Errorf("%w: need at least 2 layer sizes, got %d", ErrInvalidTopology, len(sizes))
	}
	for i, n := range sizes {
		if n <= 0 {
			return fmt.Errorf("%w: layer %d has size %d", ErrInvalidTopology, i, n)
		}
	}
	return nil
}

// New builds a network with Normalized-Xavier weights and standard normal
// biases.
func New(sizes []int, rng *random.Source) (*Network, error) {
	if err := ValidateSizes(sizes); err != nil {
		return nil, err
	}

	net := newZero(sizes)
	for i, w := range net.weights {
		n := sizes[i]   // neurons in the current layer
		m := sizes[i+1] // neurons in the next layer
		w.Apply(func(_, _ int, _ float64) float64 {
			return rng.XavierUniform(n, m)
		}, w)

		b := net.biases[i]
		for j := 0; j < b.Len(); j++ {
			b.SetVec(j, rng.Normal())
		}
	}
	return net, nil
}

// newZero allocates a network of the given (already validated) shape with all
// parameters set to zero.
func newZero(sizes []int) *Network {
	net := &Network{
		sizes:   append([]int(nil), sizes...),
		weights: make([]*mat.Dense, len(sizes)-1),
		biases:  make([]*mat.VecDense, len(sizes)-1),
	}
	for i := 0; i < len(sizes)-1; i++ {
		net.weights[i] = mat.NewDense(sizes[i+1], sizes[i], nil)
		net.biases[i] = mat.NewVecDense(sizes[i+1], nil)
	}
	return net
}

// Feedforward propagates a column vector through every layer and returns the
// activation of the output layer. Each layer computes sigmoid(W·a + b).
func (net *Network) Feedforward(input mat.Vector) (*mat.VecDense, error) {
	if input.Len() != net.sizes[0] {
		return nil, fmt.Errorf("%w: input has %d values, network expects %d", ErrShapeMismatch, input.Len(), net.sizes[0])
	}

	a := input
	for i, w := range net.weights {
		z := mat.NewVecDense(net.sizes[i+1], nil)
		z.MulVec(w, a)
		z.AddVec(z, net.biases[i])
		for j := 0; j < z.Len(); j++ {
			z.SetVec(j, Sigmoid(z.AtVec(j)))
		}
		a = z
	}

	out := mat.NewVecDense(a.Len(), nil)
	out.CopyVec(a)
	return out, nil
}

// Activate is Feedforward over plain slices.
func (net *Network) Activate(inputs []float64) ([]float64, error) {
	if len(inputs) != net.sizes[0] {
		return nil, fmt.Errorf("%w: input has %d values, network expects %d", ErrShapeMismatch, len(inputs), net.sizes[0])
	}
	out, err := net.Feedforward(mat.NewVecDense(len(inputs), append([]float64(nil), inputs...)))
	if err != nil {
		return nil, err
	}
	return append([]float64(nil), out.RawVector().Data...), nil
}

// Sizes returns a copy of the layer sizes.
func (net *Network) Sizes() []int {
	return append([]int(nil), net.sizes...)
}

// Weights exposes the per-layer weight matrices for in-place recombination.
// Callers other than the trainer should treat them as read-only.
func (net *Network) Weights() []*mat.Dense {
	return net.weights
}

// Biases exposes the per-layer bias vectors for in-place recombination.
func (net *Network) Biases() []*mat.VecDense {
	return net.biases
}

// NumParams returns the total number of weights and biases.
func (net *Network) NumParams() int {
	total := 0
	for i := 0; i < len(net.sizes)-1; i++ {
		total += net.sizes[i+1]*net.sizes[i] + net.sizes[i+1]
	}
	return total
}

// SameShape reports whether other has identical layer sizes.
func (net *Network) SameShape(other *Network) bool {
	if len(net.sizes) != len(other.sizes) {
		return false
	}
	for i := range net.sizes {
		if net.sizes[i] != other.sizes[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the network.
func (net *Network) Clone() *Network {
	c := newZero(net.sizes)
	for i := range net.weights {
		c.weights[i].Copy(net.weights[i])
		c.biases[i].CopyVec(net.biases[i])
	}
	return c
}

// Derive returns a network shaped like net whose every weight and bias is
// fn applied to the parameter at the same position in net and other.
// Both networks must have the same shape.
func (net *Network) Derive(other *Network, fn func(a, b float64) float64) (*Network, error) {
	if !net.SameShape(other) {
		return nil, fmt.Errorf("%w: cannot combine %v with %v", ErrShapeMismatch, net.sizes, other.sizes)
	}
	child := newZero(net.sizes)
	for l, w := range child.weights {
		w1, w2 := net.weights[l], other.weights[l]
		w.Apply(func(r, c int, _ float64) float64 {
			return fn(w1.At(r, c), w2.At(r, c))
		}, w)

		b := child.biases[l]
		b1, b2 := net.biases[l], other.biases[l]
		for j := 0; j < b.Len(); j++ {
			b.SetVec(j, fn(b1.AtVec(j), b2.AtVec(j)))
		}
	}
	return child, nil
}
