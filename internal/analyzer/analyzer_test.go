package analyzer

import (
	"strings"
	"testing"

	"github.com/tova-lang/tova/internal/diagnostic"
	"github.com/tova-lang/tova/internal/parser"
)

// analyze runs the analyzer in tolerant mode and returns every diagnostic
func analyze(t *testing.T, source string) *diagnostic.Diagnostics {
	t.Helper()
	prog, err := parser.New(source).Parse()
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	result, _ := New("", true).Analyze(prog)
	return result.Diags
}

func hasError(diags *diagnostic.Diagnostics, substr string) bool {
	for _, d := range diags.Errors() {
		if strings.Contains(d.Message, substr) {
			return true
		}
	}
	return false
}

func hasWarning(diags *diagnostic.Diagnostics, substr string) bool {
	for _, d := range diags.Warnings() {
		if strings.Contains(d.Message, substr) {
			return true
		}
	}
	return false
}

func findHint(diags *diagnostic.Diagnostics, msgSubstr string) string {
	for _, d := range diags.All() {
		if strings.Contains(d.Message, msgSubstr) {
			return d.Hint
		}
	}
	return ""
}

func TestCleanProgram(t *testing.T) {
	diags := analyze(t, `
fn double(x: Int) -> Int {
    return x * 2
}

fn main() {
    print(double(21))
}
`)
	if diags.ErrorCount() != 0 {
		t.Errorf("expected no errors, got:\n%s", diags.Format("test"))
	}
}

func TestImmutableReassignment(t *testing.T) {
	diags := analyze(t, `
fn f() {
    x = 1
    x = 2
    print(x)
}
`)
	if !hasError(diags, "cannot reassign immutable binding 'x'") {
		t.Fatalf("missing immutability error:\n%s", diags.Format("test"))
	}
	hint := findHint(diags, "cannot reassign")
	if !strings.Contains(hint, "var x") {
		t.Errorf("hint should suggest var: %q", hint)
	}
}

func TestMutableReassignmentAllowed(t *testing.T) {
	diags := analyze(t, `
fn f() {
    var x = 1
    x = 2
    print(x)
}
`)
	if diags.ErrorCount() != 0 {
		t.Errorf("var reassignment should be fine:\n%s", diags.Format("test"))
	}
}

func TestFloatToIntError(t *testing.T) {
	diags := analyze(t, `
fn f() {
    x: Int = 1.5
    print(x)
}
`)
	if !hasError(diags, "cannot assign Float to 'x' of type Int") {
		t.Fatalf("missing narrowing error:\n%s", diags.Format("test"))
	}
	if !strings.Contains(findHint(diags, "cannot assign Float"), "toInt") {
		t.Errorf("hint should mention toInt")
	}
}

func TestIntToFloatWidens(t *testing.T) {
	diags := analyze(t, `
fn f() {
    x: Float = 3
    print(x)
}
`)
	if diags.ErrorCount() != 0 {
		t.Errorf("Int should widen to Float:\n%s", diags.Format("test"))
	}
}

func TestGradualTypingStaysQuiet(t *testing.T) {
	// no annotations anywhere: nothing is known, nothing is reported
	diags := analyze(t, `
fn f(a, b) {
    return a + b
}
`)
	if diags.ErrorCount() != 0 {
		t.Errorf("untyped code must not error:\n%s", diags.Format("test"))
	}
}

func TestUndefinedNameSuggestion(t *testing.T) {
	diags := analyze(t, `
fn f() {
    count = 1
    print(cuont)
}
`)
	if !hasError(diags, "undefined name 'cuont'") {
		t.Fatalf("missing undefined-name error:\n%s", diags.Format("test"))
	}
	if !strings.Contains(findHint(diags, "undefined name"), "did you mean 'count'?") {
		t.Errorf("missing suggestion, got %q", findHint(diags, "undefined name"))
	}
}

func TestExhaustivenessWarning(t *testing.T) {
	diags := analyze(t, `
type Shape {
    Circle(radius: Float)
    Square(side: Float)
    Tri(base: Float)
}

fn area(s: Shape) {
    return match s {
        Circle(r) => r * r
        Square(d) => d * d
    }
}
`)
	if !hasWarning(diags, "match is not exhaustive, missing variant: Tri") {
		t.Errorf("missing exhaustiveness warning:\n%s", diags.Format("test"))
	}
}

func TestWildcardSilencesExhaustiveness(t *testing.T) {
	diags := analyze(t, `
type Shape {
    Circle(radius: Float)
    Square(side: Float)
}

fn f(s: Shape) {
    return match s {
        Circle(r) => r
        _ => 0.0
    }
}
`)
	if hasWarning(diags, "not exhaustive") {
		t.Errorf("wildcard should cover remaining variants:\n%s", diags.Format("test"))
	}
}

func TestGuardedArmDoesNotCount(t *testing.T) {
	diags := analyze(t, `
type Flag {
    On
    Off
}

fn f(x: Flag) {
    return match x {
        On => 1
        Off if true => 2
    }
}
`)
	if !hasWarning(diags, "missing variant: Off") {
		t.Errorf("guarded arm must not count as coverage:\n%s", diags.Format("test"))
	}
}

func TestCrossTypeVariant(t *testing.T) {
	diags := analyze(t, `
type Shape {
    Circle(radius: Float)
}

type Color {
    Red
}

fn f(s: Shape) {
    return match s {
        Circle(r) => r
        Red => 0.0
    }
}
`)
	if !hasError(diags, "variant 'Red' is not part of type 'Shape'") {
		t.Errorf("missing cross-type error:\n%s", diags.Format("test"))
	}
}

func TestVariantArityMismatch(t *testing.T) {
	diags := analyze(t, `
type Pair {
    Two(a: Int, b: Int)
}

fn f(p: Pair) {
    return match p {
        Two(x) => x
        _ => 0
    }
}
`)
	if !hasError(diags, "variant 'Two' has 2 fields, pattern binds 1") {
		t.Errorf("missing arity error:\n%s", diags.Format("test"))
	}
}

func TestUnknownVariantSuggestion(t *testing.T) {
	diags := analyze(t, `
type Shape {
    Circle(radius: Float)
}

fn f(s: Shape) {
    return match s {
        Circel(r) => r
        _ => 0.0
    }
}
`)
	if !hasError(diags, "unknown variant 'Circel'") {
		t.Fatalf("missing unknown-variant error:\n%s", diags.Format("test"))
	}
	if !strings.Contains(findHint(diags, "unknown variant"), "Circle") {
		t.Errorf("missing suggestion")
	}
}

func TestAwaitOutsideAsync(t *testing.T) {
	diags := analyze(t, `
fn f() {
    x = await fetch("u")
    print(x)
}
`)
	if !hasError(diags, "'await' is only allowed inside an async function") {
		t.Fatalf("missing await error:\n%s", diags.Format("test"))
	}
	if !strings.Contains(findHint(diags, "await"), "async") {
		t.Errorf("hint should mention async")
	}
}

func TestAwaitInsideAsync(t *testing.T) {
	diags := analyze(t, `
async fn f() {
    x = await fetch("u")
    print(x)
}
`)
	if hasError(diags, "await") {
		t.Errorf("await inside async must be fine:\n%s", diags.Format("test"))
	}
}

func TestSpawnOutsideConcurrent(t *testing.T) {
	diags := analyze(t, `
fn g() { return 1 }

fn f() {
    x = spawn g()
    print(x)
}
`)
	if !hasError(diags, "'spawn' is only allowed inside a concurrent block") {
		t.Errorf("missing spawn error:\n%s", diags.Format("test"))
	}
}

func TestConcurrentBindingsVisibleAfterBlock(t *testing.T) {
	diags := analyze(t, `
async fn one() { return 1 }
async fn two() { return 2 }

async fn f() {
    concurrent {
        a = spawn one()
        b = spawn two()
    }
    print(a)
    print(b)
}
`)
	if diags.ErrorCount() != 0 {
		t.Errorf("spawn bindings must be visible after the block:\n%s", diags.Format("test"))
	}
}

func TestConcurrentRequiresAsyncFunction(t *testing.T) {
	diags := analyze(t, `
async fn one() { return 1 }

fn f() {
    concurrent {
        a = spawn one()
    }
    print(a)
}
`)
	if !hasError(diags, "'concurrent' is only allowed inside an async function") {
		t.Fatalf("missing concurrent error:\n%s", diags.Format("test"))
	}
	if !strings.Contains(findHint(diags, "'concurrent'"), "async") {
		t.Errorf("hint should mention async")
	}
}

func TestSelectRequiresAsyncFunction(t *testing.T) {
	diags := analyze(t, `
fn f() {
    ch = Channel()
    select {
        v from ch => print(v)
    }
}
`)
	if !hasError(diags, "'select' is only allowed inside an async function") {
		t.Errorf("missing select error:\n%s", diags.Format("test"))
	}
}

func TestConcurrentAtRegionTopLevel(t *testing.T) {
	// modules may await, so region top level needs no async marker
	diags := analyze(t, `
async fn one() { return 1 }

server {
    concurrent {
        a = spawn one()
    }
    print(a)
}
`)
	if hasError(diags, "only allowed inside an async function") {
		t.Errorf("top-level concurrent should pass:\n%s", diags.Format("test"))
	}
}

func TestGuardElseMustExit(t *testing.T) {
	diags := analyze(t, `
fn f(x: Int) -> Int {
    guard x > 0 else {
        print("bad")
    }
    return x
}
`)
	if !hasError(diags, "guard else block must exit") {
		t.Errorf("missing guard error:\n%s", diags.Format("test"))
	}
}

func TestGuardElseWithReturnIsFine(t *testing.T) {
	diags := analyze(t, `
fn f(x: Int) -> Int {
    guard x > 0 else {
        return 0
    }
    return x
}
`)
	if hasError(diags, "guard") {
		t.Errorf("diverging guard else should pass:\n%s", diags.Format("test"))
	}
}

func TestAllPathsReturn(t *testing.T) {
	diags := analyze(t, `
fn f(x: Int) -> Int {
    if x > 0 {
        return 1
    }
}
`)
	if !hasError(diags, "not all paths in 'f' return a value") {
		t.Errorf("missing return-path error:\n%s", diags.Format("test"))
	}
}

func TestBothBranchesReturn(t *testing.T) {
	diags := analyze(t, `
fn f(x: Int) -> Int {
    if x > 0 {
        return 1
    } else {
        return 2
    }
}
`)
	if hasError(diags, "not all paths") {
		t.Errorf("both branches return:\n%s", diags.Format("test"))
	}
}

func TestConditionMustBeBool(t *testing.T) {
	diags := analyze(t, `
fn f(x: Int) {
    if x {
        print(x)
    }
}
`)
	if !hasError(diags, "condition must be Bool, got Int") {
		t.Errorf("missing condition error:\n%s", diags.Format("test"))
	}
}

func TestUnusedWarning(t *testing.T) {
	diags := analyze(t, `
fn f() {
    x = 1
}
`)
	if !hasWarning(diags, "'x' is never used") {
		t.Fatalf("missing unused warning:\n%s", diags.Format("test"))
	}
	if !strings.Contains(findHint(diags, "never used"), "_x") {
		t.Errorf("hint should suggest underscore rename")
	}
}

func TestUnderscoreOptsOut(t *testing.T) {
	diags := analyze(t, `
fn f() {
    _x = 1
}
`)
	if hasWarning(diags, "never used") {
		t.Errorf("underscore names must not warn:\n%s", diags.Format("test"))
	}
}

func TestShadowWarning(t *testing.T) {
	diags := analyze(t, `
fn f() {
    x = 1
    if true {
        var x = 2
        print(x)
    }
    print(x)
}
`)
	if !hasWarning(diags, "shadows an outer binding") {
		t.Errorf("missing shadow warning:\n%s", diags.Format("test"))
	}
}

func TestStringRepeat(t *testing.T) {
	diags := analyze(t, `
fn f() {
    s: String = "ha" * 3
    print(s)
}
`)
	if diags.ErrorCount() != 0 {
		t.Errorf("string repetition should type as String:\n%s", diags.Format("test"))
	}

	diags = analyze(t, `
fn f() {
    s = "ha" * 1.5
    print(s)
}
`)
	if !hasError(diags, "cannot repeat String by Float") {
		t.Errorf("missing repeat error:\n%s", diags.Format("test"))
	}

	// only a literal repeats; a String variable is an ordinary operand error
	diags = analyze(t, `
fn f(s: String) {
    x = s * 3
    print(x)
}
`)
	if !hasError(diags, "invalid operands String and Int for '*'") {
		t.Errorf("variable repeat must be rejected:\n%s", diags.Format("test"))
	}
}

func TestStringConcatHint(t *testing.T) {
	diags := analyze(t, `
fn f() {
    s = "n = " + 3
    print(s)
}
`)
	if !hasError(diags, "invalid operands String and Int for '+'") {
		t.Fatalf("missing operand error:\n%s", diags.Format("test"))
	}
	if !strings.Contains(findHint(diags, "invalid operands"), "toString") {
		t.Errorf("hint should mention toString")
	}
}

func TestIfExpressionRequiresElse(t *testing.T) {
	diags := analyze(t, `
fn f(x: Bool) {
    v = if x { 1 }
    print(v)
}
`)
	if !hasError(diags, "if expression requires an else branch") {
		t.Errorf("missing if-expression error:\n%s", diags.Format("test"))
	}
}

func TestDuplicateType(t *testing.T) {
	// duplicate variants inside one type never reach the analyzer; the
	// parser rejects them first
	diags := analyze(t, `
type A {
    X
}

type A {
    Y
}
`)
	if !hasError(diags, "type 'A' is already defined") {
		t.Errorf("missing duplicate-type error:\n%s", diags.Format("test"))
	}
}

func TestSharedVariantNamesAcrossTypes(t *testing.T) {
	// unrelated types may reuse a variant name; a typed scrutinee picks
	// the right owner and exhaustiveness only considers that owner
	diags := analyze(t, `
type Light {
    Go
    Stop
}

type Machine {
    Go
    Halt
}

fn f(l: Light) {
    return match l {
        Go => 1
        Stop => 2
    }
}
`)
	if diags.ErrorCount() != 0 {
		t.Fatalf("shared variant names must be legal:\n%s", diags.Format("test"))
	}
	if hasWarning(diags, "not exhaustive") {
		t.Errorf("coverage must not leak across types sharing names:\n%s", diags.Format("test"))
	}
}

func TestSharedVariantWrongOwner(t *testing.T) {
	diags := analyze(t, `
type Light {
    Go
    Stop
}

type Machine {
    Halt
}

fn f(m: Machine) {
    return match m {
        Stop => 1
        _ => 0
    }
}
`)
	if !hasError(diags, "variant 'Stop' is not part of type 'Machine'") {
		t.Errorf("missing wrong-owner error:\n%s", diags.Format("test"))
	}
}

func TestBreakOutsideLoop(t *testing.T) {
	diags := analyze(t, `
fn f() {
    break
}
`)
	if !hasError(diags, "'break' outside of a loop") {
		t.Errorf("missing break error:\n%s", diags.Format("test"))
	}
}

func TestTolerantModeCollectsEverything(t *testing.T) {
	source := `
fn f() {
    x = 1
    x = 2
    y = unknown_name
    print(y)
}
`
	prog, err := parser.New(source).Parse()
	if err != nil {
		t.Fatal(err)
	}

	result, aerr := New("", true).Analyze(prog)
	if aerr != nil {
		t.Errorf("tolerant mode must not fail: %v", aerr)
	}
	if result.Diags.ErrorCount() < 2 {
		t.Errorf("expected both errors collected, got %d", result.Diags.ErrorCount())
	}

	_, aerr = New("", false).Analyze(prog)
	if aerr == nil {
		t.Errorf("strict mode should fail on errors")
	}
}

func TestComponentTagResolution(t *testing.T) {
	diags := analyze(t, `
client {
    fn Card(props, children) {
        return <div>hi</div>
    }

    mount("#app", <Card/>)
}
`)
	if diags.ErrorCount() != 0 {
		t.Fatalf("known component must resolve:\n%s", diags.Format("test"))
	}

	diags = analyze(t, `
client {
    mount("#app", <Banner/>)
}
`)
	if !hasError(diags, "undefined component 'Banner'") {
		t.Errorf("missing component error:\n%s", diags.Format("test"))
	}
}

func TestRegionScoping(t *testing.T) {
	diags := analyze(t, `
shared {
    fn util() {
        return 1
    }
}

server {
    fn handler() {
        return util()
    }
}
`)
	if diags.ErrorCount() != 0 {
		t.Errorf("cross-region function use should resolve:\n%s", diags.Format("test"))
	}
}
