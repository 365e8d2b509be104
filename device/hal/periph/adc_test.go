package periph

import (
	"errors"
	"testing"

	"periph.io/x/conn/v3/analog"

	"github.com/ardnew/fsrpad/pkg"
)

// fakePin is a hand-written analog.PinADC.
type fakePin struct {
	name   string
	raw    int32
	err    error
	halted bool
}

func (p *fakePin) String() string   { return p.name }
func (p *fakePin) Name() string     { return p.name }
func (p *fakePin) Number() int      { return 0 }
func (p *fakePin) Function() string { return "ADC" }
func (p *fakePin) Halt() error      { p.halted = true; return nil }

func (p *fakePin) Range() (analog.Sample, analog.Sample) {
	return analog.Sample{}, analog.Sample{Raw: 1<<15 - 1}
}

func (p *fakePin) Read() (analog.Sample, error) {
	return analog.Sample{Raw: p.raw}, p.err
}

func pins() []*fakePin {
	return []*fakePin{{name: "A0"}, {name: "A1"}, {name: "A2"}, {name: "A3"}}
}

func asPins(ps []*fakePin) []analog.PinADC {
	out := make([]analog.PinADC, len(ps))
	for i, p := range ps {
		out[i] = p
	}
	return out
}

func TestNewADC(t *testing.T) {
	ps := asPins(pins())
	if _, err := NewADC(15, ps[:3]...); !errors.Is(err, pkg.ErrInvalidChannel) {
		t.Errorf("3 pins error = %v, want ErrInvalidChannel", err)
	}
	if _, err := NewADC(4, ps...); !errors.Is(err, pkg.ErrOutOfRange) {
		t.Errorf("resolution 4 error = %v, want ErrOutOfRange", err)
	}
	a, err := NewADC(15, ps...)
	if err != nil {
		t.Fatal(err)
	}
	if a.Resolution() != 15 {
		t.Errorf("Resolution() = %d", a.Resolution())
	}
}

func TestRead(t *testing.T) {
	ps := pins()
	a, err := NewADC(15, asPins(ps)...)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		raw  int32
		want uint16
	}{
		{"zero", 0, 0},
		{"mid", 12345, 12345},
		{"negative clamps", -40, 0},
		{"full scale", 1<<15 - 1, 1<<15 - 1},
		{"over range clamps", 1 << 16, 1<<15 - 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps[2].raw = tt.raw
			got, err := a.Read(2)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Read(2) = %d, want %d", got, tt.want)
			}
		})
	}

	boom := errors.New("i2c nack")
	ps[1].err = boom
	if _, err := a.Read(1); !errors.Is(err, boom) {
		t.Errorf("Read(1) error = %v, want pin error", err)
	}
	if _, err := a.Read(4); !errors.Is(err, pkg.ErrInvalidChannel) {
		t.Errorf("Read(4) error = %v, want ErrInvalidChannel", err)
	}

	if err := a.Halt(); err != nil {
		t.Fatal(err)
	}
	for _, p := range ps {
		if !p.halted {
			t.Errorf("%s not halted", p.name)
		}
	}
}
