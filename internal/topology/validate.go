package topology

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ErrInvalidDevice is returned when a new device fails validation.
var ErrInvalidDevice = errors.New("invalid device")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// NewDevice is the input of the add-device form.
type NewDevice struct {
	Name          string     `json:"name" validate:"required,max=64"`
	IP            string     `json:"ip" validate:"required,ip"`
	Type          DeviceType `json:"type" validate:"required,oneof=router switch server"`
	SNMPCommunity string     `json:"snmp_community" validate:"max=64"`
}

// Normalize trims whitespace and fills defaults.
func (n *NewDevice) Normalize() {
	n.Name = strings.TrimSpace(n.Name)
	n.IP = strings.TrimSpace(n.IP)
	n.SNMPCommunity = strings.TrimSpace(n.SNMPCommunity)
	if n.SNMPCommunity == "" {
		n.SNMPCommunity = DefaultCommunity
	}
	if n.Type == "" {
		n.Type = TypeRouter
	}
}

// Validate checks the input and returns an error wrapping ErrInvalidDevice.
func (n NewDevice) Validate() error {
	err := validate.Struct(n)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidDevice, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "ip":
			msgs = append(msgs, fmt.Sprintf("%s %q is not an IP address", fe.Field(), fe.Value()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of %s", fe.Field(), fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s is longer than %s characters", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fe.Error())
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidDevice, strings.Join(msgs, "; "))
}

// Build normalizes and validates the input and returns a Device with a fresh
// ID and a random placement drawn from rng.
func (n NewDevice) Build(rng *rand.Rand) (Device, error) {
	n.Normalize()
	if err := n.Validate(); err != nil {
		return Device{}, err
	}
	x, y := RandomPlacement(rng)
	return Device{
		ID:            uuid.NewString(),
		Name:          n.Name,
		IP:            n.IP,
		Type:          n.Type,
		SNMPCommunity: n.SNMPCommunity,
		X:             x,
		Y:             y,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// RandomPlacement picks a position in the middle region of the canvas.
func RandomPlacement(rng *rand.Rand) (x, y float64) {
	return 300 + rng.Float64()*400, 200 + rng.Float64()*300
}

// ErrInvalidLink is returned when a new link fails validation.
var ErrInvalidLink = errors.New("invalid link")

// NewLink is the input for connecting two devices.
type NewLink struct {
	SourceDeviceID string  `json:"source_device_id" validate:"required"`
	TargetDeviceID string  `json:"target_device_id" validate:"required,nefield=SourceDeviceID"`
	MaxBandwidth   float64 `json:"max_bandwidth" validate:"gte=0"`
}

// Build validates the input and returns a Link with a fresh ID. A zero
// capacity becomes DefaultMaxBandwidth.
func (n NewLink) Build() (Link, error) {
	if n.MaxBandwidth == 0 {
		n.MaxBandwidth = DefaultMaxBandwidth
	}
	if err := validate.Struct(n); err != nil {
		return Link{}, fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}
	return Link{
		ID:             uuid.NewString(),
		SourceDeviceID: n.SourceDeviceID,
		TargetDeviceID: n.TargetDeviceID,
		MaxBandwidth:   n.MaxBandwidth,
		Status:         HealthHealthy,
	}, nil
}
