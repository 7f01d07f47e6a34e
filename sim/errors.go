package sim

import "errors"

// Invariant violations. None of these are retried; Step reports them to the driver.
var (
	// ErrEmptyPopulation is returned when selection runs with no agents at all.
	ErrEmptyPopulation = errors.New("no agents in any population")
	// ErrNoObstacleAvailable is returned when a population has no pipe of a kind to sense.
	ErrNoObstacleAvailable = errors.New("no obstacle available")
	// ErrInvalidSensorShape is returned when a network's input layer width differs from the sensor count.
	ErrInvalidSensorShape = errors.New("invalid sensor shape")
	// ErrInvalidActuatorShape is returned when a network's output layer width differs from the actuator count.
	ErrInvalidActuatorShape = errors.New("invalid actuator shape")
	// ErrUnknownSensor is returned for a sensor name with no binding.
	ErrUnknownSensor = errors.New("unknown sensor")
	// ErrUnknownActuator is returned for an actuator name with no binding.
	ErrUnknownActuator = errors.New("unknown actuator")
	// ErrNotInitialized is returned when a context or coordinator is used before Init.
	ErrNotInitialized = errors.New("not initialized")
)
