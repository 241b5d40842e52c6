package provider

import (
	"context"
	"strings"
)

// Simulated is a deterministic provider used when no LLM is configured. It
// picks a canned scene from keyword patterns in the query, and echoes the
// previous version's source unchanged when one is supplied, which keeps
// refinement round-trips exact.
type Simulated struct{}

// NewSimulated constructs the simulated provider.
func NewSimulated() *Simulated {
	return &Simulated{}
}

// GenerateSource implements CodeProvider.
func (*Simulated) GenerateSource(_ context.Context, query, previousSource string) (string, error) {
	if previousSource != "" {
		return previousSource, nil
	}

	lowered := strings.ToLower(query)
	if strings.Contains(lowered, "triangle") && strings.Contains(lowered, "square") {
		return triangleToSquareScene, nil
	}
	return defaultCircleScene, nil
}

var _ CodeProvider = (*Simulated)(nil)

const triangleToSquareScene = `from manim import *

class GeneratedScene(Scene):
    def construct(self):
        triangle = Triangle().scale(2)
        self.play(Create(triangle))
        self.wait(1)

        square = Square().scale(2)
        self.play(Transform(triangle, square))
        self.wait(1)

        text = Text("Triangle to Square Transformation")
        text.to_edge(UP)
        self.play(Write(text))
        self.wait(1)
`

const defaultCircleScene = `from manim import *

class GeneratedScene(Scene):
    def construct(self):
        circle = Circle().scale(2)
        circle.set_fill(BLUE, opacity=0.5)
        self.play(Create(circle))

        text = Text("Generated Animation")
        text.to_edge(UP)
        self.play(Write(text))

        self.play(circle.animate.shift(LEFT * 2))
        self.play(circle.animate.shift(RIGHT * 4))
        self.play(circle.animate.shift(LEFT * 2))

        self.play(FadeOut(circle), FadeOut(text))
`
