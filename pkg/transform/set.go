package transform

// Brancher is anything that fans out into one or more transform branches.
// Both Transform (one branch) and Set (N branches) implement it.
type Brancher interface {
	Branches() []Transform
}

// Set is an ordered collection of transforms. Each element is one branch of
// a rule invocation.
type Set []Transform

// Branches returns the set itself.
func (s Set) Branches() []Transform {
	return s
}

// Branches returns t as a single branch.
func (t Transform) Branches() []Transform {
	return []Transform{t}
}

// Len returns the branch count.
func (s Set) Len() int {
	return len(s)
}

// branchesOf returns b's branches, treating nil as no branches.
func branchesOf(b Brancher) []Transform {
	if b == nil {
		return nil
	}
	return b.Branches()
}

// Cross composes every branch of a with every branch of b. The result has
// len(a)*len(b) branches; a varies slowest.
func Cross(a, b Brancher) Set {
	parents, children := branchesOf(a), branchesOf(b)
	out := make(Set, 0, len(parents)*len(children))
	for _, p := range parents {
		for _, c := range children {
			out = append(out, Compose(p, c))
		}
	}
	return out
}

// Seq crosses stages in order: every combination of one branch from each
// stage, composed first-to-last. The first stage varies slowest. Seq of no
// stages is a single identity branch.
func Seq(stages ...Brancher) Set {
	out := Set{Identity()}
	for _, stage := range stages {
		out = Cross(out, stage)
	}
	return out
}

// Replicate produces n stacked self-compositions of each branch of src:
// branch k (k = 1..n) is the source applied k times. There is no identity
// branch, so replicating a unit translation 3 times yields offsets 1, 2, 3.
// For a multi-branch source, branches are emitted source-major.
func Replicate(n int, src Brancher) Set {
	sources := branchesOf(src)
	if n <= 0 {
		return Set{}
	}
	out := make(Set, 0, n*len(sources))
	for _, t := range sources {
		acc := t
		out = append(out, acc)
		for k := 2; k <= n; k++ {
			acc = Compose(acc, t)
			out = append(out, acc)
		}
	}
	return out
}
