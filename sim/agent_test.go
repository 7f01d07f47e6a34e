package sim

import (
	"errors"
	"reflect"
	"testing"

	"github.com/pthm-cable/flap/config"
)

func TestMovementClampsAtCeiling(t *testing.T) {
	c := newTestCoordinator(t, testConfig(t, nil), &stubFactory{})
	p := c.Populations()[0]
	setBird(p, 0, 2, -10)

	if err := c.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}

	got := p.Agents()[0]
	if got.Top != 0 {
		t.Errorf("top = %v, want 0", got.Top)
	}
	if !got.Alive {
		t.Error("bird at the ceiling should be alive")
	}
}

func TestFloorCollision(t *testing.T) {
	tests := []struct {
		top       float64
		wantAlive bool
	}{
		{top: 545, wantAlive: false}, // 545+20 = 565 reaches the floor
		{top: 544, wantAlive: true},
		{top: 560, wantAlive: false},
	}

	for _, tt := range tests {
		c := newTestCoordinator(t, testConfig(t, nil), &stubFactory{})
		p := c.Populations()[0]
		setBird(p, 0, tt.top, 0)

		if err := c.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}

		got := p.Agents()[0]
		if got.Alive != tt.wantAlive {
			t.Errorf("top=%v: alive = %v, want %v", tt.top, got.Alive, tt.wantAlive)
		}
		wantFitness := 0
		if tt.wantAlive {
			wantFitness = 1
		}
		if got.Fitness != wantFitness {
			t.Errorf("top=%v: fitness = %d, want %d", tt.top, got.Fitness, wantFitness)
		}
	}
}

func TestFitnessFrozenAtDeath(t *testing.T) {
	c := newTestCoordinator(t, testConfig(t, nil), &stubFactory{})
	p := c.Populations()[0]

	for i := 0; i < 5; i++ {
		if err := c.Step(); err != nil {
			t.Fatal(err)
		}
	}
	// Kill bird 1 on the next tick
	setBird(p, 1, 550, 0)
	for i := 0; i < 5; i++ {
		if err := c.Step(); err != nil {
			t.Fatal(err)
		}
	}

	agents := p.Agents()
	want := []int{10, 5, 10}
	for i, a := range agents {
		if a.Fitness != want[i] {
			t.Errorf("bird %d fitness = %d, want %d", i, a.Fitness, want[i])
		}
	}
	if agents[1].Alive {
		t.Error("bird 1 should be dead")
	}
	// Dead birds stay in the population
	if len(agents) != 3 {
		t.Errorf("agents = %d, want 3", len(agents))
	}
}

func TestSensorVector(t *testing.T) {
	cfg := testConfig(t, func(c *config.Config) {
		c.Neural.Sensors = []string{"y_unit_pos", "y_gap_pos", "velocity", "gap_distance"}
	})
	f := &stubFactory{}
	c := newTestCoordinator(t, cfg, f)
	p := c.Populations()[0]
	setBird(p, 0, 300, 1.5)

	if err := c.Step(); err != nil {
		t.Fatal(err)
	}

	// Fixed gap: range [50, 395], gap top 222.5, center 282.5.
	// The pair spawned at 900 has advanced 2; its right edge is 958.
	want := []float64{300 - 10, 282.5, 1.5, 958 - 150}
	got := p.Agents()[0].Inputs
	if !reflect.DeepEqual(got, want) {
		t.Errorf("inputs = %v, want %v", got, want)
	}
}

func TestGravityAppliedBeforeSensing(t *testing.T) {
	cfg := testConfig(t, func(c *config.Config) { c.Bird.Gravity = 0.5 })
	c := newTestCoordinator(t, cfg, &stubFactory{})
	p := c.Populations()[0]

	if err := c.Step(); err != nil {
		t.Fatal(err)
	}
	a := p.Agents()[0]
	if a.Inputs[2] != 0.5 {
		t.Errorf("sensed velocity = %v, want 0.5", a.Inputs[2])
	}
	if a.Top != cfg.Bird.StartTop+0.5 {
		t.Errorf("top = %v, want %v", a.Top, cfg.Bird.StartTop+0.5)
	}
}

func TestFlap(t *testing.T) {
	c := newTestCoordinator(t, testConfig(t, nil), &stubFactory{outputs: []float64{0.3}})
	p := c.Populations()[0]

	if err := c.Step(); err != nil {
		t.Fatal(err)
	}

	cfg := p.ctx.Cfg
	a := p.Agents()[0]
	if a.Velocity != cfg.Bird.JumpVelocity {
		t.Errorf("velocity = %v, want %v", a.Velocity, cfg.Bird.JumpVelocity)
	}
	if a.Top != cfg.Bird.StartTop+cfg.Bird.JumpVelocity {
		t.Errorf("top = %v, want %v", a.Top, cfg.Bird.StartTop+cfg.Bird.JumpVelocity)
	}
	if a.Frame.String() != "birdUp" {
		t.Errorf("frame = %v, want birdUp", a.Frame)
	}
}

func TestZeroOutputDoesNotFlap(t *testing.T) {
	c := newTestCoordinator(t, testConfig(t, nil), &stubFactory{outputs: []float64{0}})
	p := c.Populations()[0]

	if err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if v := p.Agents()[0].Velocity; v != 0 {
		t.Errorf("velocity = %v, want 0", v)
	}
}

func TestShapeErrors(t *testing.T) {
	tests := []struct {
		name    string
		factory *stubFactory
		want    error
	}{
		{"too many outputs", &stubFactory{outputs: []float64{1, 1}}, ErrInvalidActuatorShape},
		{"no outputs", &stubFactory{outputs: []float64{}}, ErrInvalidActuatorShape},
		{"wrong input width", &stubFactory{outputs: []float64{1}, inWidth: 5}, ErrInvalidSensorShape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCoordinator(t, testConfig(t, nil), tt.factory)
			err := c.Step()
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			// No selection happens on a failed tick
			if _, ok := c.Fittest(); ok {
				t.Error("fittest selected on a failed tick")
			}
		})
	}
}

func TestActuatorPolicies(t *testing.T) {
	tests := []struct {
		name    string
		policy  ActuatorPolicy
		outputs []float64
		want    []bool
	}{
		{"threshold positive", ThresholdPolicy{}, []float64{0.1}, []bool{true}},
		{"threshold zero", ThresholdPolicy{}, []float64{0}, []bool{false}},
		{"threshold independent", ThresholdPolicy{}, []float64{1, -1, 2}, []bool{true, false, true}},
		{"argmax single", ArgmaxPolicy{}, []float64{1, -1, 2}, []bool{false, false, true}},
		{"argmax tie lowest index", ArgmaxPolicy{}, []float64{2, 2}, []bool{true, false}},
		{"argmax all negative", ArgmaxPolicy{}, []float64{-1, -2}, []bool{false, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fire := make([]bool, len(tt.outputs))
			tt.policy.Decide(tt.outputs, fire)
			if !reflect.DeepEqual(fire, tt.want) {
				t.Errorf("fire = %v, want %v", fire, tt.want)
			}
		})
	}
}

func TestParseSensors(t *testing.T) {
	kinds, err := ParseSensors([]string{"velocity", "y_unit_pos"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(kinds, []SensorKind{SensorVelocity, SensorYUnitPos}) {
		t.Errorf("kinds = %v", kinds)
	}
	if _, err := ParseSensors([]string{"altitude"}); !errors.Is(err, ErrUnknownSensor) {
		t.Errorf("err = %v, want ErrUnknownSensor", err)
	}
	if _, err := ParseActuators([]string{"dive"}); !errors.Is(err, ErrUnknownActuator) {
		t.Errorf("err = %v, want ErrUnknownActuator", err)
	}
}

func TestPipeCollision(t *testing.T) {
	cfg := testConfig(t, func(c *config.Config) {
		c.Bird.PipeCollision = true
		c.Bird.Left = 880 // inside the first pair once it arrives
	})
	c := newTestCoordinator(t, cfg, &stubFactory{})
	p := c.Populations()[0]
	setBird(p, 0, 10, 0)  // overlaps the top pipe
	setBird(p, 1, 280, 0) // inside the gap

	if err := c.Step(); err != nil {
		t.Fatal(err)
	}
	agents := p.Agents()
	if agents[0].Alive {
		t.Error("bird overlapping a pipe should die")
	}
	if !agents[1].Alive {
		t.Error("bird inside the gap should survive")
	}
}
