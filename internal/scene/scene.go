// Package scene models the animated scene an export reads from: a timeline
// (frame rate and frame range), named objects whose transforms are evaluated
// from keyframes, and the playback cursor the host keeps for "current frame".
package scene

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

var ErrObjectNotFound = errors.New("object not found")

// Scene is a loaded, validated scene. Objects are immutable after New; only
// the playback cursor changes.
type Scene struct {
	Name       string
	FPS        float64
	FrameStart int
	FrameEnd   int

	mu      sync.Mutex
	current int
	objects map[string]*Object
	order   []string
}

// New validates doc and builds the scene it describes.
func New(doc *Document) (*Scene, error) {
	if doc.FPS <= 0 || math.IsNaN(doc.FPS) || math.IsInf(doc.FPS, 0) {
		return nil, fmt.Errorf("scene fps must be positive, got %v", doc.FPS)
	}
	if doc.FrameStart > doc.FrameEnd {
		return nil, fmt.Errorf("scene frame_start %d is after frame_end %d", doc.FrameStart, doc.FrameEnd)
	}

	s := &Scene{
		Name:       doc.Name,
		FPS:        doc.FPS,
		FrameStart: doc.FrameStart,
		FrameEnd:   doc.FrameEnd,
		current:    doc.FrameStart,
		objects:    make(map[string]*Object, len(doc.Objects)),
	}
	if doc.FrameCurrent != nil {
		s.current = *doc.FrameCurrent
	}

	for i := range doc.Objects {
		obj, err := newObject(&doc.Objects[i])
		if err != nil {
			return nil, err
		}
		if _, dup := s.objects[obj.Name]; dup {
			return nil, fmt.Errorf("duplicate object name %q", obj.Name)
		}
		s.objects[obj.Name] = obj
		s.order = append(s.order, obj.Name)
	}
	return s, nil
}

// Object resolves a handle by name.
func (s *Scene) Object(name string) (*Object, error) {
	obj, ok := s.objects[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrObjectNotFound, name)
	}
	return obj, nil
}

// Objects returns the scene objects in document order.
func (s *Scene) Objects() []*Object {
	out := make([]*Object, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.objects[name])
	}
	return out
}

func (s *Scene) CurrentFrame() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Scene) SetFrame(frame int) {
	s.mu.Lock()
	s.current = frame
	s.mu.Unlock()
}

// Acquire remembers the current playback frame. The returned cursor moves
// the playback frame with Seek and puts it back with Release.
func (s *Scene) Acquire() *Cursor {
	return &Cursor{scene: s, saved: s.CurrentFrame()}
}

// Cursor is a scoped hold on the playback frame. Release is idempotent and
// must be deferred by whoever calls Acquire.
type Cursor struct {
	scene    *Scene
	saved    int
	released bool
}

func (c *Cursor) Seek(frame int) {
	c.scene.SetFrame(frame)
}

func (c *Cursor) Release() {
	if c.released {
		return
	}
	c.released = true
	c.scene.SetFrame(c.saved)
}

// Object is a scene object with a rest transform and an optional set of
// keyframes sorted by frame.
type Object struct {
	Name       string
	Dimensions mgl64.Vec3

	rest Transform
	keys []keyframe
}

// Transform is a location plus an XYZ Euler rotation in radians.
type Transform struct {
	Location mgl64.Vec3
	Rotation mgl64.Vec3
}

type keyframe struct {
	frame int
	Transform
}

func newObject(doc *ObjectDocument) (*Object, error) {
	if doc.Name == "" {
		return nil, errors.New("object name is required")
	}

	obj := &Object{Name: doc.Name}
	var err error
	if obj.rest.Location, err = vec3(doc.Location, doc.Name, "location"); err != nil {
		return nil, err
	}
	if obj.rest.Rotation, err = vec3(doc.Rotation, doc.Name, "rotation"); err != nil {
		return nil, err
	}
	if obj.Dimensions, err = vec3(doc.Dimensions, doc.Name, "dimensions"); err != nil {
		return nil, err
	}

	for _, kd := range doc.Keyframes {
		k := keyframe{frame: kd.Frame, Transform: obj.rest}
		if kd.Location != nil {
			if k.Location, err = vec3(kd.Location, doc.Name, "keyframe location"); err != nil {
				return nil, err
			}
		}
		if kd.Rotation != nil {
			if k.Rotation, err = vec3(kd.Rotation, doc.Name, "keyframe rotation"); err != nil {
				return nil, err
			}
		}
		obj.keys = append(obj.keys, k)
	}
	sort.SliceStable(obj.keys, func(i, j int) bool { return obj.keys[i].frame < obj.keys[j].frame })
	for i := 1; i < len(obj.keys); i++ {
		if obj.keys[i].frame == obj.keys[i-1].frame {
			return nil, fmt.Errorf("object %q has two keyframes on frame %d", doc.Name, obj.keys[i].frame)
		}
	}
	return obj, nil
}

func vec3(v []float64, object, field string) (mgl64.Vec3, error) {
	switch len(v) {
	case 0:
		return mgl64.Vec3{}, nil
	case 3:
		return mgl64.Vec3{v[0], v[1], v[2]}, nil
	default:
		return mgl64.Vec3{}, fmt.Errorf("object %q %s needs 3 components, got %d", object, field, len(v))
	}
}

// Evaluate returns the object's transform at frame. Between keyframes each
// channel is interpolated linearly; outside the keyed range the nearest
// keyframe holds.
func (o *Object) Evaluate(frame int) Transform {
	n := len(o.keys)
	switch {
	case n == 0:
		return o.rest
	case frame <= o.keys[0].frame:
		return o.keys[0].Transform
	case frame >= o.keys[n-1].frame:
		return o.keys[n-1].Transform
	}

	i := sort.Search(n, func(i int) bool { return o.keys[i].frame > frame })
	a, b := o.keys[i-1], o.keys[i]
	t := float64(frame-a.frame) / float64(b.frame-a.frame)
	return Transform{
		Location: lerp(a.Location, b.Location, t),
		Rotation: lerp(a.Rotation, b.Rotation, t),
	}
}

// WorldMatrix composes translation with the XYZ Euler rotation
// (Rz * Ry * Rx). Objects have no parents, so local and world coincide.
func (o *Object) WorldMatrix(frame int) mgl64.Mat4 {
	tr := o.Evaluate(frame)
	rot := mgl64.HomogRotate3DZ(tr.Rotation[2]).
		Mul4(mgl64.HomogRotate3DY(tr.Rotation[1])).
		Mul4(mgl64.HomogRotate3DX(tr.Rotation[0]))
	return mgl64.Translate3D(tr.Location[0], tr.Location[1], tr.Location[2]).Mul4(rot)
}

// Animated reports whether the object has any keyframes.
func (o *Object) Animated() bool {
	return len(o.keys) > 0
}

// Extent is the object's bounding dimensions.
func (o *Object) Extent() mgl64.Vec3 {
	return o.Dimensions
}

func lerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}
