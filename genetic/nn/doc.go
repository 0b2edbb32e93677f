// Package nn holds the phenotype evaluated during training: a dense
// feedforward network with sigmoid activations, backed by gonum matrices.
package nn
