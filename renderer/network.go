package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/mat"
)

// NetworkColors for activation visualization.
var (
	ColorNodeInactive = rl.Color{R: 60, G: 60, B: 60, A: 255}
	ColorNodeOutline  = rl.Color{R: 100, G: 100, B: 100, A: 255}
	ColorEdgePositive = rl.Color{R: 200, G: 80, B: 80, A: 100}
	ColorEdgeNegative = rl.Color{R: 80, G: 80, B: 200, A: 100}
	ColorLabelDim     = rl.Color{R: 120, G: 120, B: 120, A: 255}
)

// MinEdgeWeight hides connections whose magnitude is below this value.
const MinEdgeWeight = 0.1

// DrawNetworkDiagram renders a feed-forward network with its last activations.
// activations[0] is the input layer. weights[l] maps layer l to l+1 with
// shape out x (in+1), the last column holding the bias.
func DrawNetworkDiagram(x, y, width, height int32, activations [][]float64, weights []*mat.Dense, inputLabels, outputLabels []string) {
	if len(activations) < 2 {
		rl.DrawText("No network data", x+10, y+10, 14, ColorLabelDim)
		return
	}

	nodes := layoutNodes(x, y, width, height, activations)
	nodeRadius := float32(6)

	for l, w := range weights {
		if l+1 >= len(nodes) || w == nil {
			break
		}
		rows, cols := w.Dims()
		for o := 0; o < rows && o < len(nodes[l+1]); o++ {
			for i := 0; i < cols && i < len(nodes[l]); i++ {
				weight := w.At(o, i)
				if math.Abs(weight) < MinEdgeWeight {
					continue
				}
				drawEdge(nodes[l][i], nodes[l+1][o], float32(weight))
			}
		}
	}

	last := len(activations) - 1
	for l, layer := range activations {
		for i, a := range layer {
			pos := nodes[l][i]
			switch l {
			case 0:
				drawNode(pos, nodeRadius, float32(a))
				if i < len(inputLabels) {
					labelWidth := rl.MeasureText(inputLabels[i], 10)
					rl.DrawText(inputLabels[i], int32(pos.X-nodeRadius)-labelWidth-4, int32(pos.Y)-5, 10, ColorLabelDim)
				}
			case last:
				drawNode(pos, nodeRadius+2, float32(a))
				if i < len(outputLabels) {
					rl.DrawText(outputLabels[i], int32(pos.X+nodeRadius+6), int32(pos.Y)-5, 10, ColorLabelDim)
				}
			default:
				drawNode(pos, nodeRadius, float32(a))
			}
		}
	}
}

// layoutNodes places each layer in its own column, vertically centred.
func layoutNodes(x, y, width, height int32, activations [][]float64) [][]rl.Vector2 {
	colWidth := float32(width) / float32(len(activations))
	usable := float32(height - 20)

	nodes := make([][]rl.Vector2, len(activations))
	for l, layer := range activations {
		n := len(layer)
		if n == 0 {
			continue
		}
		spacing := usable / float32(n)
		offset := (usable - float32(n-1)*spacing) / 2
		colX := float32(x) + float32(l)*colWidth + colWidth/2

		nodes[l] = make([]rl.Vector2, n)
		for i := range n {
			nodes[l][i] = rl.Vector2{
				X: colX,
				Y: float32(y) + 10 + offset + float32(i)*spacing,
			}
		}
	}
	return nodes
}

func drawNode(pos rl.Vector2, radius, activation float32) {
	rl.DrawCircleV(pos, radius, activationColor(activation))
	rl.DrawCircleLinesV(pos, radius, ColorNodeOutline)
}

func drawEdge(from, to rl.Vector2, weight float32) {
	mag := absFloat(weight)
	thickness := min(max(mag*1.5, 0.5), 3)

	color := ColorEdgePositive
	if weight < 0 {
		color = ColorEdgeNegative
	}
	color.A = uint8(min(40+int(mag*40), 150))

	rl.DrawLineEx(from, to, thickness, color)
}

// activationColor maps negative activations to blue, positive to red.
func activationColor(activation float32) rl.Color {
	if activation == 0 {
		return ColorNodeInactive
	}
	t := min(absFloat(activation), 1)
	if activation > 0 {
		return rl.Color{R: uint8(60 + t*195), G: uint8(60 - t*30), B: uint8(60 - t*30), A: 255}
	}
	return rl.Color{R: uint8(60 - t*30), G: uint8(60 - t*30), B: uint8(60 + t*195), A: 255}
}

func absFloat(x float32) float32 {
	return float32(math.Abs(float64(x)))
}
