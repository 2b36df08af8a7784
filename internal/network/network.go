// Package network defines the convolutional emotion classifier shared by
// training and in-process inference.
package network

import (
	"github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/layers"
	"github.com/gomlx/gomlx/pkg/ml/layers/activations"

	"github.com/Brownie44l1/moodlens/internal/emotion"
)

// Scope holds every trainable variable of the network.
const Scope = "model"

const (
	convDropout  = 0.1
	denseDropout = 0.2
	denseUnits   = 512
)

// Graph implements train.ModelFn. It takes a batch of [B, size, size, 1]
// images scaled to [0,1] and returns one node of [B, 7] logits.
// Dropout only applies while the context is training.
func Graph(ctx *context.Context, _ any, inputs []*graph.Node) []*graph.Node {
	ctx = ctx.In(Scope)
	x := inputs[0]
	batchSize := x.Shape().Dimensions[0]

	layerIdx := 0
	nextCtx := func(name string) *context.Context {
		newCtx := ctx.Inf("%03d_%s", layerIdx, name)
		layerIdx++
		return newCtx
	}

	conv := func(x *graph.Node, channels int) *graph.Node {
		x = layers.Convolution(nextCtx("conv"), x).Channels(channels).KernelSize(3).Done()
		return activations.Relu(x)
	}
	block := func(x *graph.Node, channels int) *graph.Node {
		x = conv(x, channels)
		x = graph.MaxPool(x).Window(2).Done()
		return layers.DropoutStatic(nextCtx("dropout"), x, convDropout)
	}

	x = conv(x, 32)
	x = block(x, 64)
	x = block(x, 128)
	x = block(x, 256)

	x = graph.Reshape(x, batchSize, -1)
	x = layers.Dense(nextCtx("dense"), x, true, denseUnits)
	x = activations.Relu(x)
	x = layers.DropoutStatic(nextCtx("dropout"), x, denseDropout)
	logits := layers.Dense(nextCtx("dense"), x, true, emotion.Count)
	return []*graph.Node{logits}
}

// Probabilities runs the network on a single image and returns class probabilities.
func Probabilities(ctx *context.Context, image *graph.Node) *graph.Node {
	logits := Graph(ctx, nil, []*graph.Node{image})[0]
	return graph.Softmax(logits, -1)
}
