package functor

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// GetRecursionFunctor returns the Logica source for vertical unfolding of
// a recursive predicate, to depth layers, grounded on
// dialect_libraries/recursion_library.py's GetRecursionFunctor. The
// generated text names the recursive predicate "P"; callers substitute
// in the real name with a literal text replace, exactly as the original
// does, since "P" only ever appears here as that placeholder prefix.
func GetRecursionFunctor(depth int) string {
	lines := []string{"P_r0 := P_recursive_head(P_recursive: nil);"}
	for i := 0; i < depth; i++ {
		lines = append(lines, fmt.Sprintf("P_r%d := P_recursive_head(P_recursive: P_r%d);", i+1, i))
	}
	lines = append(lines, fmt.Sprintf("P := P_r%d();", depth))
	return strings.Join(lines, "\n")
}

// GetRenamingFunctor renames a recursive cover member through root's
// unfolded head, grounded on GetRenamingFunctor.
func GetRenamingFunctor(member, root string) string {
	return fmt.Sprintf("%s := %s_recursive_head(%s_recursive: %s);", member, member, root, root)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedUniqueIntersect(list []string, set map[string]struct{}) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, x := range list {
		if _, ok := set[x]; !ok {
			continue
		}
		if _, ok := seen[x]; ok {
			continue
		}
		seen[x] = struct{}{}
		out = append(out, x)
	}
	sort.Strings(out)
	return out
}

// GetFlatRecursionFunctor returns the Logica source for horizontal
// unfolding of every predicate in cover, to depth generations, grounded
// on GetFlatRecursionFunctor.
func GetFlatRecursionFunctor(depth int, cover map[string]struct{}, directArgsOf map[string][]string) string {
	var lines []string
	for _, p := range sortedKeys(cover) {
		for i := 0; i <= depth; i++ {
			var args []string
			for _, a := range sortedUniqueIntersect(directArgsOf[p], cover) {
				v := "nil"
				if i > 0 {
					v = fmt.Sprintf("%s_fr%d", a, i-1)
				}
				args = append(args, fmt.Sprintf("%s_RZero: %s", a, v))
			}
			lines = append(lines, fmt.Sprintf("%s_fr%d := %s_ROne(%s);", p, i, p, strings.Join(args, ", ")))
		}
		lines = append(lines, fmt.Sprintf("%s := %s_fr%d();", p, p, depth))
	}
	return strings.Join(lines, "\n")
}

// GetFlatIterativeRecursionFunctor returns the Logica source for
// iterative horizontal unfolding: the same generation chain as
// GetFlatRecursionFunctor, named "_ifr" and interspersed with @Ground
// annotations, ending in an @Iteration annotation that re-runs the last
// two generations repetitions more times. An optional stop predicate's
// output is additionally copied to a file the executor polls to end the
// iteration early. Grounded on GetFlatIterativeRecursionFunctor.
func GetFlatIterativeRecursionFunctor(depth int, cover map[string]struct{}, directArgsOf map[string][]string,
	ignitionSteps int, stop string) string {
	const inset = 2
	stopFileName := ""
	if stop != "" {
		stopFileName = fmt.Sprintf("/tmp/logical_stop_%d_%s.json", time.Now().UnixNano(), stop)
	}

	var lines []string
	var iterateUpper, iterateLower []string
	sortedCover := sortedKeys(cover)
	for _, p := range sortedCover {
		for i := 0; i < ignitionSteps; i++ {
			var args []string
			for _, a := range sortedUniqueIntersect(directArgsOf[p], cover) {
				v := "nil"
				if i > 0 {
					v = fmt.Sprintf("%s_ifr%d", a, i-1)
				}
				args = append(args, fmt.Sprintf("%s_RZero: %s", a, v))
			}
			lines = append(lines, fmt.Sprintf("%s_ifr%d := %s_ROne(%s);", p, i, p, strings.Join(args, ", ")))

			maybeCopyToFile := ""
			if stop != "" && stop == p {
				maybeCopyToFile = fmt.Sprintf(", copy_to_file: %q", stopFileName)
			}
			if i != ignitionSteps-inset {
				lines = append(lines, fmt.Sprintf("@Ground(%s_ifr%d%s);", p, i, maybeCopyToFile))
			} else {
				lines = append(lines, fmt.Sprintf("@Ground(%s_ifr%d, %s_ifr%d%s);", p, i, p, i-2, maybeCopyToFile))
			}
		}
		iterateUpper = append(iterateUpper, fmt.Sprintf("%s_ifr%d", p, ignitionSteps-inset-1))
		iterateLower = append(iterateLower, fmt.Sprintf("%s_ifr%d", p, ignitionSteps-inset))
		lines = append(lines, fmt.Sprintf("%s := %s_ifr%d();", p, p, ignitionSteps-1))
	}

	iterateOver := append(append([]string{}, iterateUpper...), iterateLower...)
	maybeStop := ""
	if stop != "" {
		maybeStop = fmt.Sprintf(", stop_signal: %q", stopFileName)
	}
	repetitions := (depth+1-ignitionSteps)/2 + 1
	lines = append(lines, fmt.Sprintf("@Iteration(%s, predicates: [%s], repetitions: %d%s);",
		sortedCover[0], strings.Join(iterateOver, ", "), repetitions, maybeStop))

	return strings.Join(lines, "\n")
}
