package space

import "sort"

// countOverflow marks a domain cardinality too large for the index
// range. DefineSplit converts it into a DefinitionError.
const countOverflow = int64(-1)

// factorizationCount returns the number of ordered ways to write extent
// as a product of parts positive integers, or countOverflow when the
// count exceeds maxSpaceSize. Computed analytically from the prime
// factorization: for a prime power p^e the exponent can be distributed
// over the parts in C(e+parts-1, parts-1) ways, and primes distribute
// independently.
//
// This keeps Size() cheap even when the full factor list is never
// materialized.
func factorizationCount(extent int64, parts int) int64 {
	count := int64(1)
	for _, e := range primeExponents(extent) {
		b := binomial(e+int64(parts)-1, int64(parts)-1)
		if b == countOverflow || count > maxSpaceSize/b {
			return countOverflow
		}
		count *= b
	}
	return count
}

// primeExponents returns the exponents of the prime factorization of n,
// in ascending prime order.
func primeExponents(n int64) []int64 {
	var exps []int64
	for p := int64(2); p*p <= n; p++ {
		if n%p != 0 {
			continue
		}
		e := int64(0)
		for n%p == 0 {
			n /= p
			e++
		}
		exps = append(exps, e)
	}
	if n > 1 {
		exps = append(exps, 1)
	}
	return exps
}

// binomial computes C(n, k) exactly, returning countOverflow once the
// running product would exceed maxSpaceSize. The partial product after
// step i equals C(n, i+1) exactly and binomials grow monotonically up
// to k <= n/2, so checking before each multiply catches every overflow
// without wrapping.
func binomial(n, k int64) int64 {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	result := int64(1)
	for i := int64(0); i < k; i++ {
		f := n - i
		if result > maxSpaceSize/f {
			return countOverflow
		}
		result = result * f / (i + 1)
	}
	return result
}

// enumerateFactorizations materializes every ordered factorization of
// extent into parts positive factors, outer-to-inner. The enumeration
// order is deterministic: at each position factors are tried in
// ascending order.
func enumerateFactorizations(extent int64, parts int) []TupleValue {
	var out []TupleValue
	current := make([]int, parts)
	var recurse func(pos int, remaining int64)
	recurse = func(pos int, remaining int64) {
		if pos == parts-1 {
			current[pos] = int(remaining)
			tuple := make(TupleValue, parts)
			copy(tuple, current)
			out = append(out, tuple)
			return
		}
		for _, d := range divisors(remaining) {
			current[pos] = int(d)
			recurse(pos+1, remaining/d)
		}
	}
	recurse(0, extent)
	return out
}

// divisors returns all positive divisors of n in ascending order.
func divisors(n int64) []int64 {
	var divs []int64
	for d := int64(1); d*d <= n; d++ {
		if n%d != 0 {
			continue
		}
		divs = append(divs, d)
		if d != n/d {
			divs = append(divs, n/d)
		}
	}
	sort.Slice(divs, func(i, j int) bool { return divs[i] < divs[j] })
	return divs
}

// enumeratePermutations materializes every permutation of [0, n) in
// lexicographic order, filtered by policy. A nil policy admits all
// permutations.
func enumeratePermutations(n int, policy ReorderPolicy) []TupleValue {
	var out []TupleValue
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for {
		if policy == nil || policy.Admit(perm) {
			tuple := make(TupleValue, n)
			copy(tuple, perm)
			out = append(out, tuple)
		}
		if !nextPermutation(perm) {
			return out
		}
	}
}

// nextPermutation advances perm to its lexicographic successor in
// place, returning false once the last permutation has been reached.
func nextPermutation(perm []int) bool {
	i := len(perm) - 2
	for i >= 0 && perm[i] >= perm[i+1] {
		i--
	}
	if i < 0 {
		return false
	}
	j := len(perm) - 1
	for perm[j] <= perm[i] {
		j--
	}
	perm[i], perm[j] = perm[j], perm[i]
	for l, r := i+1, len(perm)-1; l < r; l, r = l+1, r-1 {
		perm[l], perm[r] = perm[r], perm[l]
	}
	return true
}
