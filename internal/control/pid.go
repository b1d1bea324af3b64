// Package control hosts the feedback controllers used by stability assist.
package control

// PID accumulates proportional, integral and derivative corrections for a scalar error.
type PID struct {
	Kp float64 `json:"kp" mapstructure:"kp"`
	Ki float64 `json:"ki" mapstructure:"ki"`
	Kd float64 `json:"kd" mapstructure:"kd"`

	integral  float64
	lastError float64
}

// NewPID creates a controller with the provided gains.
func NewPID(kp, ki, kd float64) *PID {
	return &PID{Kp: kp, Ki: ki, Kd: kd}
}

// Update folds the error observed over dt seconds into the controller and returns the correction.
func (p *PID) Update(err, dt float64) float64 {
	if p == nil {
		return 0
	}
	//1.- Without elapsed time only the proportional and stored integral terms apply.
	if !(dt > 0) {
		p.lastError = err
		return err*p.Kp + p.integral*p.Ki
	}
	//2.- Integrate the error and differentiate against the previous sample.
	p.integral += err * dt
	derivative := (err - p.lastError) / dt
	p.lastError = err
	return err*p.Kp + p.integral*p.Ki + derivative*p.Kd
}

// Integral exposes the accumulated error.
func (p *PID) Integral() float64 {
	if p == nil {
		return 0
	}
	return p.integral
}

// Reset clears the accumulated state while keeping the gains.
func (p *PID) Reset() {
	if p == nil {
		return
	}
	p.integral = 0
	p.lastError = 0
}
