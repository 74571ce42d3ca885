package scene

import (
	"errors"
	"fmt"
	"os"

	"github.com/Faultbox/voxsmoke/pkg/math"
	"gopkg.in/yaml.v3"
)

// ErrUnknownShape is returned when a scene object names a shape that has no primitive.
var ErrUnknownShape = errors.New("unknown shape")

// File is the YAML description of a scene.
type File struct {
	Camera  CameraDef   `yaml:"camera"`
	Light   LightDef    `yaml:"light"`
	Trigger *[3]float32 `yaml:"trigger,omitempty"` // default detonation point
	Objects []ObjectDef `yaml:"objects"`
}

// CameraDef holds the initial viewer placement.
type CameraDef struct {
	Position [3]float32 `yaml:"position"`
	Target   [3]float32 `yaml:"target"`
}

// LightDef holds the sun.
type LightDef struct {
	Longitude float32    `yaml:"longitude"`
	Latitude  float32    `yaml:"latitude"`
	Color     [3]float32 `yaml:"color"`
	Intensity float32    `yaml:"intensity"`
	Ambient   [3]float32 `yaml:"ambient"`
}

// ObjectDef is one static obstacle.
type ObjectDef struct {
	Name     string     `yaml:"name"`
	Shape    string     `yaml:"shape"` // box | plane
	Size     [3]float32 `yaml:"size"`
	Position [3]float32 `yaml:"position"`
	Rotation [3]float32 `yaml:"rotation"` // pitch, yaw, roll in degrees
	Scale    [3]float32 `yaml:"scale"`
	Color    [3]float32 `yaml:"color"`
}

// DefaultFile returns a courtyard: a floor, two walls and a crate for the smoke to flow around.
func DefaultFile() *File {
	return &File{
		Camera: CameraDef{
			Position: [3]float32{0, 2.5, 9},
			Target:   [3]float32{0, 1.5, 0},
		},
		Light: LightDef{
			Longitude: 45,
			Latitude:  50,
			Color:     [3]float32{1.0, 0.95, 0.85},
			Intensity: 3.0,
			Ambient:   [3]float32{0.25, 0.28, 0.32},
		},
		Objects: []ObjectDef{
			{Name: "floor", Shape: "plane", Size: [3]float32{30, 0, 30}, Color: [3]float32{0.45, 0.43, 0.4}},
			{Name: "wall-back", Shape: "box", Size: [3]float32{10, 4, 0.5}, Position: [3]float32{0, 2, -3.5}, Color: [3]float32{0.6, 0.55, 0.5}},
			{Name: "wall-left", Shape: "box", Size: [3]float32{0.5, 4, 7}, Position: [3]float32{-4, 2, 0}, Color: [3]float32{0.6, 0.55, 0.5}},
			{Name: "crate", Shape: "box", Size: [3]float32{1.2, 1.2, 1.2}, Position: [3]float32{1.5, 0.6, 0.5}, Rotation: [3]float32{0, 30, 0}, Color: [3]float32{0.55, 0.4, 0.25}},
		},
	}
}

// LoadFile reads and parses a YAML scene.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML scene.
func Parse(data []byte) (*File, error) {
	f := &File{}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("parsing scene: %w", err)
	}
	return f, nil
}

// Build turns the description into meshes.
func (f *File) Build() (*Scene, error) {
	s := New()
	s.CameraPosition = math.FromArray(f.Camera.Position)
	s.CameraTarget = math.FromArray(f.Camera.Target)
	if f.Trigger != nil {
		p := math.FromArray(*f.Trigger)
		s.Trigger = &p
	}

	if f.Light.Intensity > 0 {
		s.Sun.Longitude = f.Light.Longitude
		s.Sun.Latitude = f.Light.Latitude
		s.Sun.Intensity = f.Light.Intensity
		if c := math.FromArray(f.Light.Color); c != (math.Vec3{}) {
			s.Sun.Color = c
		}
		s.Sun.Ambient = math.FromArray(f.Light.Ambient)
	}

	for i, obj := range f.Objects {
		m, err := obj.mesh()
		if err != nil {
			return nil, fmt.Errorf("object %d (%s): %w", i, obj.Name, err)
		}
		s.Add(m)
	}
	return s, nil
}

func (o ObjectDef) mesh() (*Mesh, error) {
	scale := math.FromArray(o.Scale)
	if scale == (math.Vec3{}) {
		scale = math.Splat(1)
	}
	rot := math.QuatFromEuler(o.Rotation[0], o.Rotation[1], o.Rotation[2])
	m := math.Compose(math.FromArray(o.Position), rot, scale)

	var mesh *Mesh
	switch o.Shape {
	case "box":
		mesh = Box(o.Name, math.FromArray(o.Size), m)
	case "plane":
		mesh = Plane(o.Name, o.Size[0], o.Size[2], m)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownShape, o.Shape)
	}
	if c := math.FromArray(o.Color); c != (math.Vec3{}) {
		mesh.Color = c
	}
	return mesh, nil
}
