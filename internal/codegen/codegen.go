package codegen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tova-lang/tova/internal/ast"
)

// Output holds the generated JavaScript for every target plus the deploy
// configuration. Targets that have no code are empty.
type Output struct {
	Shared string
	Client string
	Server string
	CLI    string
	Edges  map[string]string
	Deploy map[string]interface{}
}

// Targets returns a name-to-artifact view over the output, convenient for
// drivers that iterate rather than switch.
func (o *Output) Targets() map[string]interface{} {
	targets := make(map[string]interface{})
	if o.Shared != "" {
		targets["shared"] = o.Shared
	}
	if o.Client != "" {
		targets["client"] = o.Client
	}
	if o.Server != "" {
		targets["server"] = o.Server
	}
	if o.CLI != "" {
		targets["cli"] = o.CLI
	}
	if code, ok := o.Edges[""]; ok {
		targets["edge"] = code
	}
	named := make(map[string]string)
	for name, code := range o.Edges {
		if name != "" {
			named[name] = code
		}
	}
	if len(named) > 0 {
		targets["edges"] = named
	}
	if len(o.Deploy) > 0 {
		targets["deploy"] = o.Deploy
	}
	return targets
}

// codegenError reports an internal defect: the analyzer should have rejected
// anything the generator cannot lower.
func codegenError(format string, args ...interface{}) {
	panic(fmt.Sprintf("codegen: "+format, args...))
}

// Generate lowers a checked program to JavaScript, one artifact per target.
// Shared declarations are copied into each target that reaches them;
// declarations nothing references are dropped.
func Generate(prog *ast.Program) *Output {
	p := partition(prog)
	out := &Output{Edges: make(map[string]string), Deploy: make(map[string]interface{})}
	variants := collectVariantFields(prog)

	serverFns := make(map[string]bool)
	for _, s := range p.server {
		if fn, ok := s.(*ast.FnDecl); ok {
			serverFns[fn.Name] = true
		}
	}

	if len(p.shared) > 0 {
		out.Shared = generateTarget("shared", p.shared, nil, nil, p.shared, variants)
	}
	if len(p.client) > 0 {
		out.Client = generateTarget("client", p.client, p.shared, serverFns, nil, variants)
	}
	if len(p.server) > 0 {
		out.Server = generateTarget("server", p.server, p.shared, nil, nil, variants)
	}
	if len(p.cli) > 0 {
		out.CLI = generateTarget("cli", p.cli, p.shared, nil, nil, variants)
	}
	for name, stmts := range p.edges {
		label := "edge"
		if name != "" {
			label = "edge:" + name
		}
		out.Edges[name] = generateTarget(label, stmts, p.shared, nil, nil, variants)
	}

	for _, e := range p.deploy {
		out.Deploy[e.Key] = evalConfig(e)
	}
	if len(p.security) > 0 {
		security := make(map[string]interface{})
		for _, e := range p.security {
			security[e.Key] = evalConfig(e)
		}
		out.Deploy["security"] = security
	}
	return out
}

// collectVariantFields maps every variant name to its field names so match
// lowering can destructure positional patterns
func collectVariantFields(prog *ast.Program) map[string][]string {
	fields := make(map[string][]string)
	record := func(stmts []ast.Statement) {
		for _, s := range stmts {
			decl, ok := s.(*ast.TypeDecl)
			if !ok {
				continue
			}
			for _, v := range decl.Variants {
				names := make([]string, len(v.Fields))
				for i, f := range v.Fields {
					names[i] = f.Name
				}
				fields[v.Name] = names
			}
		}
	}
	record(prog.Decls)
	for _, region := range prog.Regions {
		if region.Body != nil {
			record(region.Body.Statements)
		}
	}
	return fields
}

// partitioned groups a program's statements by target
type partitioned struct {
	shared   []ast.Statement
	client   []ast.Statement
	server   []ast.Statement
	cli      []ast.Statement
	edges    map[string][]ast.Statement
	deploy   []*ast.ConfigEntry
	security []*ast.ConfigEntry
}

func partition(prog *ast.Program) *partitioned {
	p := &partitioned{edges: make(map[string][]ast.Statement)}
	p.shared = append(p.shared, prog.Decls...)
	for _, region := range prog.Regions {
		switch region.Kind {
		case "shared":
			p.shared = append(p.shared, region.Body.Statements...)
		case "client":
			p.client = append(p.client, region.Body.Statements...)
		case "server":
			p.server = append(p.server, region.Body.Statements...)
		case "cli":
			p.cli = append(p.cli, region.Body.Statements...)
		case "edge":
			p.edges[region.Name] = append(p.edges[region.Name], region.Body.Statements...)
		case "deploy":
			p.deploy = append(p.deploy, region.Entries...)
		case "security":
			p.security = append(p.security, region.Entries...)
		default:
			codegenError("unknown region kind %q", region.Kind)
		}
	}
	return p
}

// generateTarget produces one target's artifact: the runtime helpers it
// needs, RPC stubs for server functions it calls, the shared declarations it
// reaches, and its own statements. When keepAll is non-nil (the shared
// artifact), every declaration in it is kept regardless of references.
func generateTarget(target string, stmts, shared []ast.Statement, serverFns map[string]bool, keepAll []ast.Statement, variants map[string][]string) string {
	g := newGenerator(target)
	g.serverFns = serverFns
	g.variantFields = variants

	needed := shakeShared(stmts, shared, keepAll)
	for _, s := range shared {
		if name := declName(s); name != "" && needed[name] {
			if serverFns != nil && serverFns[name] {
				continue
			}
			g.stmt(s)
		}
	}

	// stub out server functions the client reaches
	if serverFns != nil {
		refs := make(map[string]bool)
		for _, s := range stmts {
			collectStmtRefs(s, refs)
		}
		var stubs []string
		for name := range serverFns {
			if refs[name] {
				stubs = append(stubs, name)
			}
		}
		sort.Strings(stubs)
		for _, name := range stubs {
			g.need("rpc_client")
			g.emitLine(fmt.Sprintf("const %s = (...args) => __rpc(%q, args);", name, name))
		}
		if len(stubs) > 0 {
			g.emitLine("")
		}
	}

	for _, s := range stmts {
		g.stmt(s)
	}

	if target == "server" {
		g.emitServerMain(stmts)
	}
	if target == "cli" {
		g.emitCLIMain(stmts)
	}
	if strings.HasPrefix(target, "edge") {
		g.emitEdgeExport(stmts)
	}

	return g.assemble()
}

// shakeShared computes which shared declarations the target statements
// reach, transitively. keepAll forces everything in it to survive.
func shakeShared(stmts, shared []ast.Statement, keepAll []ast.Statement) map[string]bool {
	providers := make(map[string][]string) // decl name -> names it references
	alias := make(map[string]string)       // variant name -> owning type decl
	var order []string
	for _, s := range shared {
		name := declName(s)
		if name == "" {
			continue
		}
		if decl, ok := s.(*ast.TypeDecl); ok {
			for _, v := range decl.Variants {
				alias[v.Name] = decl.Name
			}
		}
		refs := make(map[string]bool)
		collectStmtRefs(s, refs)
		for ref := range refs {
			providers[name] = append(providers[name], ref)
		}
		order = append(order, name)
	}

	resolve := func(name string) string {
		if contains(order, name) {
			return name
		}
		return alias[name]
	}

	needed := make(map[string]bool)
	var visit func(name string)
	visit = func(name string) {
		if needed[name] {
			return
		}
		needed[name] = true
		for _, ref := range providers[name] {
			if target := resolve(ref); target != "" {
				visit(target)
			}
		}
	}

	if keepAll != nil {
		for _, s := range keepAll {
			if name := declName(s); name != "" {
				visit(name)
			}
		}
		return needed
	}

	roots := make(map[string]bool)
	for _, s := range stmts {
		collectStmtRefs(s, roots)
	}
	for name := range roots {
		if target := resolve(name); target != "" {
			visit(target)
		}
	}
	return needed
}

func contains(list []string, name string) bool {
	for _, item := range list {
		if item == name {
			return true
		}
	}
	return false
}

// declName returns the name a top-level statement declares, or ""
func declName(s ast.Statement) string {
	switch decl := s.(type) {
	case *ast.FnDecl:
		return decl.Name
	case *ast.TypeDecl:
		return decl.Name
	case *ast.BindingStmt:
		return decl.Name
	}
	return ""
}

// evalConfig turns a config entry into a plain value for deploy.json
func evalConfig(e *ast.ConfigEntry) interface{} {
	if e.Children != nil {
		section := make(map[string]interface{})
		for _, child := range e.Children {
			section[child.Key] = evalConfig(child)
		}
		return section
	}
	return evalConfigValue(e.Value)
}

func evalConfigValue(e ast.Expression) interface{} {
	switch v := e.(type) {
	case *ast.StringLit:
		if v.Parts == nil {
			return v.Value
		}
	case *ast.IntLit:
		var n int64
		if _, err := fmt.Sscan(v.Value, &n); err == nil {
			return n
		}
	case *ast.FloatLit:
		var f float64
		if _, err := fmt.Sscan(v.Value, &f); err == nil {
			return f
		}
	case *ast.BoolLit:
		return v.Value
	case *ast.NilLit:
		return nil
	case *ast.ArrayLit:
		arr := make([]interface{}, len(v.Elements))
		for i, el := range v.Elements {
			arr[i] = evalConfigValue(el)
		}
		return arr
	case *ast.RecordLit:
		rec := make(map[string]interface{})
		for i, key := range v.Keys {
			rec[key] = evalConfigValue(v.Values[i])
		}
		return rec
	}
	line, col := e.Pos()
	codegenError("config values must be literals (line %d, column %d)", line, col)
	return nil
}
