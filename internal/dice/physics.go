package dice

import "math"

// Physical constants for the drop. Shared verbatim with the client-side
// renderer so a replay from the same seed looks like the server's roll.
const (
	dieSize     = 2.0
	gravityY    = -65.0
	restitution = 0.3
	floorY      = -7.0
	stepDT      = 1.0 / 60.0

	spawnX       = 6.0
	launchBase   = 3.0
	launchSpread = 5.0

	linearDamping  = 0.01
	angularDamping = 0.05

	// Unit-mass cube: I = m*s^2/6.
	invInertia = 6.0 / (dieSize * dieSize)

	// Rest detection. A body is quiet when it has floor contact and has
	// stopped bouncing; quiet bodies are steered flat, kept seated on the
	// floor, and put to sleep once aligned.
	quietSpeed    = 4.0
	quietSpin     = 5.0
	alignBlend    = 0.2
	sleepAfter    = 8
	restTolerance = 0.1 // radians off flat allowed at sleep time

	maxSteps = 10000
)

var launchOffset = vec3{0, 0, 0.2}

// faceTilt is the largest angle between a face normal and world up that
// still classifies as that face. Anything beyond it is a cocked die.
const faceTilt = 0.45

type vec3 struct{ x, y, z float64 }

func (a vec3) add(b vec3) vec3      { return vec3{a.x + b.x, a.y + b.y, a.z + b.z} }
func (a vec3) scale(s float64) vec3 { return vec3{a.x * s, a.y * s, a.z * s} }
func (a vec3) dot(b vec3) float64   { return a.x*b.x + a.y*b.y + a.z*b.z }
func (a vec3) len() float64         { return math.Sqrt(a.dot(a)) }

func (a vec3) cross(b vec3) vec3 {
	return vec3{
		a.y*b.z - a.z*b.y,
		a.z*b.x - a.x*b.z,
		a.x*b.y - a.y*b.x,
	}
}

type quat struct{ w, x, y, z float64 }

func quatFromAxisAngle(axis vec3, angle float64) quat {
	half := angle / 2
	s := math.Sin(half)
	return quat{math.Cos(half), axis.x * s, axis.y * s, axis.z * s}
}

func (q quat) mul(r quat) quat {
	return quat{
		q.w*r.w - q.x*r.x - q.y*r.y - q.z*r.z,
		q.w*r.x + q.x*r.w + q.y*r.z - q.z*r.y,
		q.w*r.y - q.x*r.z + q.y*r.w + q.z*r.x,
		q.w*r.z + q.x*r.y - q.y*r.x + q.z*r.w,
	}
}

func (q quat) normalize() quat {
	n := math.Sqrt(q.w*q.w + q.x*q.x + q.y*q.y + q.z*q.z)
	if n == 0 {
		return quat{w: 1}
	}
	return quat{q.w / n, q.x / n, q.y / n, q.z / n}
}

// rotate applies the rotation to a body-frame vector.
func (q quat) rotate(v vec3) vec3 {
	u := vec3{q.x, q.y, q.z}
	s := q.w
	return u.scale(2 * u.dot(v)).
		add(v.scale(s*s - u.dot(u))).
		add(u.cross(v).scale(2 * s))
}

// body is one falling die, a unit-mass cube.
type body struct {
	pos    vec3
	vel    vec3
	orient quat
	spin   vec3 // angular velocity, world frame
	quiet  int
	asleep bool
}

func newBody(pos vec3) *body {
	return &body{pos: pos, orient: quat{w: 1}}
}

// applyImpulse applies a linear impulse at a point relative to the center.
func (b *body) applyImpulse(imp, rel vec3) {
	b.vel = b.vel.add(imp)
	b.spin = b.spin.add(rel.cross(imp).scale(invInertia))
}

var corners = [8]vec3{
	{-1, -1, -1}, {-1, -1, 1}, {-1, 1, -1}, {-1, 1, 1},
	{1, -1, -1}, {1, -1, 1}, {1, 1, -1}, {1, 1, 1},
}

func (b *body) step(dt float64) {
	if b.asleep {
		return
	}

	b.vel.y += gravityY * dt
	b.vel = b.vel.scale(1 - linearDamping)
	b.spin = b.spin.scale(1 - angularDamping)

	b.pos = b.pos.add(b.vel.scale(dt))
	b.integrateOrientation(dt)

	contact := b.resolveFloor()

	if contact && b.vel.len() < quietSpeed && b.spin.len() < quietSpin {
		b.settle()
	} else {
		b.quiet = 0
	}
}

func (b *body) integrateOrientation(dt float64) {
	w := b.spin.scale(dt / 2)
	dq := quat{0, w.x, w.y, w.z}.mul(b.orient)
	b.orient = quat{
		b.orient.w + dq.w,
		b.orient.x + dq.x,
		b.orient.y + dq.y,
		b.orient.z + dq.z,
	}.normalize()
}

// resolveFloor pushes the body out of the floor plane and applies a contact
// impulse at the deepest corner. Reports whether the body touched the floor.
func (b *body) resolveFloor() bool {
	half := dieSize / 2
	lowY := math.Inf(1)
	var lowRel vec3
	for _, c := range corners {
		rel := b.orient.rotate(c.scale(half))
		if y := b.pos.y + rel.y; y < lowY {
			lowY = y
			lowRel = rel
		}
	}
	if lowY > floorY {
		return false
	}

	b.pos.y += floorY - lowY

	cv := b.vel.add(b.spin.cross(lowRel))
	if cv.y < 0 {
		e := restitution
		if -cv.y < -2*gravityY*stepDT {
			e = 0 // resting contact, no bounce
		}
		// Effective mass at the corner: the impulse moves the contact
		// point, not just the center, so the rotational term divides it.
		rn := lowRel.cross(vec3{0, 1, 0})
		j := -(1 + e) * cv.y / (1 + invInertia*rn.dot(rn))
		b.applyImpulse(vec3{0, j, 0}, lowRel)
		// crude friction: bleed tangential speed on every bounce
		b.vel.x *= 0.9
		b.vel.z *= 0.9
		if e == 0 {
			b.spin = b.spin.scale(0.95) // rolling resistance
		}
	}
	return true
}

// settle steers a quiet die flat onto its nearest face and puts it to sleep
// once aligned. Real dice occasionally land cocked against something; here
// the floor is bare, so a die this slow always relaxes onto a face.
func (b *body) settle() {
	normal, _ := b.upNormal()
	tilt := math.Acos(clamp(normal.dot(vec3{0, 1, 0}), -1, 1))
	if tilt > 1e-9 {
		axis := normal.cross(vec3{0, 1, 0})
		if l := axis.len(); l > 1e-9 {
			corr := quatFromAxisAngle(axis.scale(1/l), tilt*alignBlend)
			b.orient = corr.mul(b.orient).normalize()
			// Re-seat after rotating so the correction never breaks
			// floor contact and restarts the quiet count.
			b.reseat()
		}
	}
	b.vel = b.vel.scale(0.5)
	b.spin = b.spin.scale(0.5)

	b.quiet++
	if b.quiet >= sleepAfter && tilt < restTolerance {
		b.asleep = true
		b.vel = vec3{}
		b.spin = vec3{}
	}
}

// reseat drops the body so its lowest corner sits exactly on the floor.
func (b *body) reseat() {
	half := dieSize / 2
	lowY := math.Inf(1)
	for _, c := range corners {
		if y := b.pos.y + b.orient.rotate(c.scale(half)).y; y < lowY {
			lowY = y
		}
	}
	b.pos.y += floorY - lowY
}

// faceNormals maps body-frame face normals to die values. Identity
// orientation shows a 1; opposite faces sum to seven.
var faceNormals = [6]struct {
	normal vec3
	value  int
}{
	{vec3{0, 1, 0}, 1},
	{vec3{0, -1, 0}, 6},
	{vec3{1, 0, 0}, 2},
	{vec3{-1, 0, 0}, 5},
	{vec3{0, 0, 1}, 3},
	{vec3{0, 0, -1}, 4},
}

// upNormal returns the world-frame face normal closest to world up and its
// die value.
func (b *body) upNormal() (vec3, int) {
	best := vec3{}
	bestDot := math.Inf(-1)
	value := 0
	for _, f := range faceNormals {
		n := b.orient.rotate(f.normal)
		if d := n.y; d > bestDot {
			bestDot = d
			best = n
			value = f.value
		}
	}
	return best, value
}

// upFace classifies the resting orientation into a face value 1..6.
func (b *body) upFace() (int, error) {
	normal, value := b.upNormal()
	if normal.y < math.Cos(faceTilt) {
		return 0, ErrUnstableRest
	}
	return value, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
