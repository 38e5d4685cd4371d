package emit_test

import (
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/funvibe/tsnc/internal/bindings"
	"github.com/funvibe/tsnc/internal/pipeline"
)

// Golden fixtures are authored as txtar archives (one "input.tsn" file
// plus one "expected.cs" file) rather than separate files on disk,
// keeping each case self-contained and diffable in one literal.

func runFixture(t *testing.T, archive string) (got, want string) {
	t.Helper()
	arc := txtar.Parse([]byte(archive))
	var input, expected string
	for _, f := range arc.Files {
		switch f.Name {
		case "input.tsn":
			input = string(f.Data)
		case "expected.cs":
			expected = string(f.Data)
		}
	}
	if input == "" || expected == "" {
		t.Fatalf("fixture missing input.tsn or expected.cs")
	}

	sources := map[string]string{"main.tsn": input}
	results, diags := pipeline.CompileProgram("test-run", sources, func(string, string) (string, bool) { return "", false }, bindings.Empty())
	if diags.HasFatal() {
		for _, d := range diags.All() {
			t.Logf("diagnostic: %s", d.Error())
		}
		t.Fatalf("compilation produced fatal diagnostics")
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 emitted module, got %d", len(results))
	}
	return results[0].Text, expected
}

func TestEmitWrapsLooseTopLevelCodeIntoMain(t *testing.T) {
	const fixture = `
-- input.tsn --
export function greet(name: string): string {
  return name;
}

console.log("hello");
-- expected.cs --
public static void Main(string[] args)
`
	got, want := runFixture(t, fixture)
	if !strings.Contains(got, strings.TrimSpace(want)) {
		t.Fatalf("expected synthesised Main, got:\n%s", got)
	}
	if !strings.Contains(got, "Main__Module") {
		// module class name is derived from the file name ("main.tsn" -> "Main"),
		// and since a named declaration coexists with loose code, Main lives in
		// the sibling Main__Module container.
		t.Fatalf("expected a Main__Module sibling container, got:\n%s", got)
	}
}

func TestEmitWidensExplicitNumberArrayToDouble(t *testing.T) {
	const fixture = `
-- input.tsn --
const values: number[] = [1, 2, 3];
-- expected.cs --
double[]
`
	got, _ := runFixture(t, fixture)
	if !strings.Contains(got, "new double[] {") {
		t.Fatalf("expected an explicit number[] to widen every element to double, got:\n%s", got)
	}
}

// TestEmitSpecialisesGenericClassPerCallSite covers end-to-end scenario 2:
// every concrete instantiation of a generic class gets its own
// deterministically-named monomorphisation, and the original generic
// declaration itself is never emitted.
func TestEmitSpecialisesGenericClassPerCallSite(t *testing.T) {
	const fixture = `
-- input.tsn --
class Box<T> {
  v: T;
  constructor(v: T) {
    this.v = v;
  }
}

const a = new Box<int>(5);
const b = new Box<string>("x");
-- expected.cs --
Box__int
Box__string
`
	got, _ := runFixture(t, fixture)
	if !strings.Contains(got, "class Box__int") {
		t.Fatalf("expected a Box__int specialisation, got:\n%s", got)
	}
	if !strings.Contains(got, "class Box__string") {
		t.Fatalf("expected a Box__string specialisation, got:\n%s", got)
	}
	if strings.Contains(got, "class Box<") || strings.Contains(got, "class Box\n") || strings.Contains(got, "class Box ") {
		t.Fatalf("original generic Box declaration must not be emitted, got:\n%s", got)
	}
}

// TestEmitNarrowsDiscriminatedUnionViaShapeTest covers end-to-end
// scenario 3: a `"k" in obj` guard lowers to a member-presence test and
// the narrowed branch accesses the member directly, without a cast.
func TestEmitNarrowsDiscriminatedUnionViaShapeTest(t *testing.T) {
	const fixture = `
-- input.tsn --
function unwrap(r: { ok: true; v: number } | { ok: false; e: string }): string {
  if ("e" in r) {
    return r.e;
  }
  return "";
}
-- expected.cs --
r.e != null
`
	got, _ := runFixture(t, fixture)
	if !strings.Contains(got, "r.e != null") {
		t.Fatalf("expected shape test on member e, got:\n%s", got)
	}
	if !strings.Contains(got, "return r.e;") {
		t.Fatalf("expected narrowed branch to access r.e without a cast, got:\n%s", got)
	}
}

// TestEmitPromotesReferencedLooseConstToPrivateField covers end-to-end
// scenario 4: an unexported loose top-level const that is nonetheless
// referenced elsewhere in the module (here, by the synthesised Main)
// must still become a private static field rather than a Main-local.
func TestEmitPromotesReferencedLooseConstToPrivateField(t *testing.T) {
	const fixture = `
-- input.tsn --
const g = "hi";
console.log(g);
-- expected.cs --
private static readonly var g = "hi";
`
	got, _ := runFixture(t, fixture)
	if !strings.Contains(got, `private static readonly var g = "hi";`) {
		t.Fatalf("expected g to be promoted to a private static field, got:\n%s", got)
	}
	if !strings.Contains(got, "Main(string[] args)") {
		t.Fatalf("expected a synthesised Main referencing g, got:\n%s", got)
	}
}

// TestEmitLowersPromiseExecutorToTaskCompletionSource covers end-to-end
// scenario 5: `new Promise<T>(executor)` lowers to a TaskCompletionSource
// wrapped in an immediately-invoked Func<Task<T>>.
func TestEmitLowersPromiseExecutorToTaskCompletionSource(t *testing.T) {
	const fixture = `
-- input.tsn --
const p = new Promise<string>((resolve) => resolve("done"));
-- expected.cs --
TaskCompletionSource<string>
`
	got, _ := runFixture(t, fixture)
	if !strings.Contains(got, "new TaskCompletionSource<string>();") {
		t.Fatalf("expected a TaskCompletionSource<string>, got:\n%s", got)
	}
	if !strings.Contains(got, "tcs.TrySetResult(value)") {
		t.Fatalf("expected a resolve helper wired to TrySetResult, got:\n%s", got)
	}
	if !strings.Contains(got, "return tcs.Task;") {
		t.Fatalf("expected the lowered lambda to return tcs.Task, got:\n%s", got)
	}
}
