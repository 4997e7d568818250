package smt

import (
	"sort"

	"github.com/rotisserie/eris"
)

// atomKey is the canonical identity of a difference atom x - y <= k, with
// the empty name standing for the constant-zero variable. Atoms are
// oriented so that x sorts before y; the reverse orientation is stored as
// the negation of the canonical one.
type atomKey struct {
	x, y string
	k    int
}

// compiler lowers a constraint stack to CNF. Each difference atom gets one
// SAT variable; boolean structure is Tseitin-encoded; CountEq constraints
// become sequential-counter circuits tied to the counted variable's order
// atoms.
type compiler struct {
	nvars   int
	clauses [][]int
	atoms   map[atomKey]int
	memo    map[Constraint]int
	truth   int // SAT var fixed to true, 0 until first needed
	err     error
}

func newCompiler() *compiler {
	return &compiler{
		atoms: make(map[atomKey]int),
		memo:  make(map[Constraint]int),
	}
}

func (c *compiler) fresh() int {
	c.nvars++
	return c.nvars
}

func (c *compiler) add(clause ...int) {
	c.clauses = append(c.clauses, clause)
}

// trueLit returns a literal that is always true.
func (c *compiler) trueLit() int {
	if c.truth == 0 {
		c.truth = c.fresh()
		c.add(c.truth)
	}
	return c.truth
}

func varName(v IntVar, has bool) string {
	if !has {
		return ""
	}
	return v.name
}

// atomLit interns a difference atom and returns its literal, flipping to
// the canonical orientation when needed.
func (c *compiler) atomLit(a *atomC) int {
	xn := varName(a.x, a.hasX)
	yn := varName(a.y, a.hY)
	neg := false
	k := a.k
	if xn > yn {
		// x - y <= k  ==  not (y - x <= -k-1); store the latter.
		xn, yn = yn, xn
		k = -k - 1
		neg = true
	}
	key := atomKey{x: xn, y: yn, k: k}
	v, ok := c.atoms[key]
	if !ok {
		v = c.fresh()
		c.atoms[key] = v
	}
	if neg {
		return -v
	}
	return v
}

// lit returns the literal representing a constraint, encoding its
// substructure as needed.
func (c *compiler) lit(cn Constraint) int {
	if c.err != nil {
		return 1
	}
	switch n := cn.(type) {
	case *boolC:
		if n.val {
			return c.trueLit()
		}
		return -c.trueLit()
	case *atomC:
		return c.atomLit(n)
	case *notC:
		return -c.lit(n.kid)
	case *andC:
		if v, ok := c.memo[cn]; ok {
			return v
		}
		v := c.gate(n.kids, true)
		c.memo[cn] = v
		return v
	case *orC:
		if v, ok := c.memo[cn]; ok {
			return v
		}
		v := c.gate(n.kids, false)
		c.memo[cn] = v
		return v
	case *countC:
		c.err = eris.New("smt: CountEq must be asserted directly, not nested")
		return 1
	default:
		c.err = eris.Errorf("smt: unknown constraint node %T", cn)
		return 1
	}
}

// gate emits a Tseitin definition for a conjunction (conj=true) or
// disjunction of the given operands and returns its literal.
func (c *compiler) gate(kids []Constraint, conj bool) int {
	if len(kids) == 0 {
		if conj {
			return c.trueLit()
		}
		return -c.trueLit()
	}
	lits := make([]int, len(kids))
	for i, k := range kids {
		lits[i] = c.lit(k)
	}
	if len(lits) == 1 {
		return lits[0]
	}
	v := c.fresh()
	long := make([]int, 0, len(lits)+1)
	if conj {
		for _, l := range lits {
			c.add(-v, l)
		}
		long = append(long, v)
		for _, l := range lits {
			long = append(long, -l)
		}
	} else {
		for _, l := range lits {
			c.add(v, -l)
		}
		long = append(long, -v)
		long = append(long, lits...)
	}
	c.add(long...)
	return v
}

// assert compiles one top-level constraint.
func (c *compiler) assert(cn Constraint) {
	if c.err != nil {
		return
	}
	if cc, ok := cn.(*countC); ok {
		c.assertCount(cc)
		return
	}
	c.add(c.lit(cn))
}

// assertCount encodes v == base + |{kids that hold}| with a sequential
// unary counter whose outputs are tied to the order atoms v >= base+k.
func (c *compiler) assertCount(cc *countC) {
	n := len(cc.kids)
	b := make([]int, n)
	for i, k := range cc.kids {
		b[i] = c.lit(k)
	}

	// s[j][k] is a literal for "at least k of the first j+1 operands hold"
	// (indices zero-based: j in 0..n-1, k-1 in 0..j).
	s := make([][]int, n)
	for j := 0; j < n; j++ {
		s[j] = make([]int, j+1)
		for k := 1; k <= j+1; k++ {
			switch {
			case j == 0:
				s[0][0] = b[0]
			case k == 1:
				// at least 1 among first j+1 = prev or b[j]
				x := c.fresh()
				prev := s[j-1][0]
				c.add(x, -prev)
				c.add(x, -b[j])
				c.add(-x, prev, b[j])
				s[j][0] = x
			case k == j+1:
				// all of the first j+1 hold
				x := c.fresh()
				prev := s[j-1][j-1]
				c.add(-x, prev)
				c.add(-x, b[j])
				c.add(x, -prev, -b[j])
				s[j][j] = x
			default:
				// prev >= k, or prev >= k-1 and b[j]
				t := c.fresh()
				c.add(-t, b[j])
				c.add(-t, s[j-1][k-2])
				c.add(t, -b[j], -s[j-1][k-2])
				x := c.fresh()
				c.add(x, -s[j-1][k-1])
				c.add(x, -t)
				c.add(-x, s[j-1][k-1], t)
				s[j][k-1] = x
			}
		}
	}

	// Tie counter outputs to the variable's order atoms and pin bounds.
	for k := 1; k <= n; k++ {
		a := c.lit(Ge(V(cc.v), C(cc.base+k)))
		c.add(-s[n-1][k-1], a)
		c.add(s[n-1][k-1], -a)
	}
	c.add(c.lit(Ge(V(cc.v), C(cc.base))))
	c.add(c.lit(Le(V(cc.v), C(cc.base+n))))
}

// ladder emits the implication chain between atoms over the same variable
// pair: x-y <= k implies x-y <= k' for every k' > k. This closes all
// two-variable difference lemmas statically, leaving only longer cycles to
// the lazy theory loop.
func (c *compiler) ladder() {
	type entry struct {
		k   int
		lit int
	}
	pairs := make(map[[2]string][]entry)
	for key, v := range c.atoms {
		p := [2]string{key.x, key.y}
		pairs[p] = append(pairs[p], entry{k: key.k, lit: v})
	}
	for _, es := range pairs {
		if len(es) < 2 {
			continue
		}
		sort.Slice(es, func(i, j int) bool { return es[i].k < es[j].k })
		for i := 0; i+1 < len(es); i++ {
			c.add(-es[i].lit, es[i+1].lit)
		}
	}
}

// bound is one directed difference fact a - b <= c, readable off a single
// atom literal.
type bound struct {
	c   int
	lit int
}

// triangles closes the atom graph under chaining across a shared vertex:
// when bounds on (a,b) and (b,c) imply an existing bound on (a,c), the
// implication is emitted as a clause, and when they contradict an
// existing bound on (c,a), so is the conflict. One clause per direction
// suffices since the same-pair ladders propagate it to every looser or
// tighter constant. Short difference cycles are thereby refuted inside
// the SAT solver instead of one lazy theory round at a time; only cycles
// whose chords were never mentioned as atoms reach the theory loop.
func (c *compiler) triangles() {
	bounds := make(map[[2]string][]bound, 2*len(c.atoms))
	for key, v := range c.atoms {
		bounds[[2]string{key.x, key.y}] = append(bounds[[2]string{key.x, key.y}], bound{c: key.k, lit: v})
		bounds[[2]string{key.y, key.x}] = append(bounds[[2]string{key.y, key.x}], bound{c: -key.k - 1, lit: -v})
	}
	out := make(map[string][]string)
	for p, bs := range bounds {
		sort.Slice(bs, func(i, j int) bool { return bs[i].c < bs[j].c })
		out[p[0]] = append(out[p[0]], p[1])
	}

	for ab, abs := range bounds {
		a, b := ab[0], ab[1]
		for _, cv := range out[b] {
			if cv == a {
				continue
			}
			bcs := bounds[[2]string{b, cv}]
			acs := bounds[[2]string{a, cv}]
			cas := bounds[[2]string{cv, a}]
			for _, b1 := range abs {
				for _, b2 := range bcs {
					sum := b1.c + b2.c
					// Tightest (a,c) bound at or above the sum is implied.
					if i := sort.Search(len(acs), func(i int) bool { return acs[i].c >= sum }); i < len(acs) {
						c.add(-b1.lit, -b2.lit, acs[i].lit)
					}
					// Loosest (c,a) bound still closing a negative cycle
					// with the sum is refuted.
					if j := sort.Search(len(cas), func(j int) bool { return cas[j].c+sum >= 0 }); j > 0 {
						c.add(-b1.lit, -b2.lit, -cas[j-1].lit)
					}
				}
			}
		}
	}
}
