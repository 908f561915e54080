// easydto/cmd/dtogen/main.go
package main

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"go/format"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"text/template"
)

// Adapter forms, matching the dto package helpers.
const (
	FormArg    = "arg"    // func(In) Out     -> dto.Adapt
	FormArgErr = "argErr" // func(In) (Out, error) -> dto.AdaptErr
	FormNoArg  = "noArg"  // func() Out       -> dto.Adapt0
	FormFunc   = "func"   // already a dto.Func
)

type Imports struct {
	DTO string `json:"dto"`
}

type StaticSpec struct {
	Method string `json:"method"`
	Func   string `json:"func"`
	Form   string `json:"form"`
}

type TypeSpec struct {
	// Class is the identifier used as dto_class in entity configuration.
	Class string `json:"class"`

	// Constructor is a symbol in the target package. Optional when the type is only
	// built through static methods.
	Constructor string       `json:"constructor"`
	Form        string       `json:"form"`
	Statics     []StaticSpec `json:"statics"`
}

type CallableSpec struct {
	Ref  string `json:"ref"`
	Func string `json:"func"`
	Form string `json:"form"`
}

type RegistrySpec struct {
	Package string `json:"package"`

	// FuncName defaults to RegisterDTOs.
	FuncName string `json:"funcName"`

	Imports   Imports        `json:"imports"`
	Types     []TypeSpec     `json:"types"`
	Callables []CallableSpec `json:"callables"`
}

type specError struct{ msg string }

func (e *specError) Error() string { return "dtogen: " + e.msg }

func errorf(format string, args ...any) error {
	return &specError{msg: fmt.Sprintf(format, args...)}
}

func run(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("dtogen", flag.ContinueOnError)
	fs.SetOutput(stderr)

	specPath := fs.String("spec", "", "path to registrations.json")
	outPath := fs.String("out", "", "output .gen.go file path")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*specPath) == "" {
		return errorf("missing -spec")
	}
	if strings.TrimSpace(*outPath) == "" {
		return errorf("missing -out")
	}
	return generate(*specPath, *outPath)
}

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func generate(specPath, outPath string) error {
	raw, err := os.ReadFile(specPath)
	if err != nil {
		return err
	}

	var spec RegistrySpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return errorf("parse %s: %v", filepath.ToSlash(specPath), err)
	}

	applyDefaults(&spec)
	if err := validateSpec(&spec); err != nil {
		return err
	}
	if strings.TrimSpace(spec.Imports.DTO) == "" {
		imp, err := inferDTOImport()
		if err != nil {
			return err
		}
		spec.Imports.DTO = imp
	}

	// deterministic ordering (hygiene)
	sort.Slice(spec.Types, func(i, j int) bool { return spec.Types[i].Class < spec.Types[j].Class })
	for i := range spec.Types {
		st := spec.Types[i].Statics
		sort.Slice(st, func(a, b int) bool { return st[a].Method < st[b].Method })
	}
	sort.Slice(spec.Callables, func(i, j int) bool { return spec.Callables[i].Ref < spec.Callables[j].Ref })

	data := map[string]any{
		"Spec":     spec,
		"SpecPath": filepath.ToSlash(specPath),
		"SpecHash": sha256Hex(raw),
	}

	var buf bytes.Buffer
	if err := registryTpl.Execute(&buf, data); err != nil {
		return err
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return errorf("format generated source: %v", err)
	}
	if dir := filepath.Dir(outPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(outPath, src, 0o644)
}

func applyDefaults(s *RegistrySpec) {
	if strings.TrimSpace(s.FuncName) == "" {
		s.FuncName = "RegisterDTOs"
	}
	for i := range s.Types {
		if s.Types[i].Form == "" {
			s.Types[i].Form = FormArg
		}
		for j := range s.Types[i].Statics {
			if s.Types[i].Statics[j].Form == "" {
				s.Types[i].Statics[j].Form = FormArg
			}
		}
	}
	for i := range s.Callables {
		if s.Callables[i].Form == "" {
			s.Callables[i].Form = FormArg
		}
	}
}

func validateSpec(s *RegistrySpec) error {
	if !token.IsIdentifier(s.Package) {
		return errorf("spec package must be a Go identifier, got %q", s.Package)
	}
	if !token.IsIdentifier(s.FuncName) {
		return errorf("spec funcName must be a Go identifier, got %q", s.FuncName)
	}
	if len(s.Types) == 0 && len(s.Callables) == 0 {
		return errorf("spec must declare at least one type or callable")
	}

	classes := map[string]bool{}
	for _, ty := range s.Types {
		if strings.TrimSpace(ty.Class) == "" {
			return errorf("type must have class")
		}
		if classes[ty.Class] {
			return errorf("duplicate class %q", ty.Class)
		}
		classes[ty.Class] = true

		if ty.Constructor == "" && len(ty.Statics) == 0 {
			return errorf("type %q needs a constructor or statics", ty.Class)
		}
		if ty.Constructor != "" {
			if err := checkSymbol(ty.Class, ty.Constructor, ty.Form); err != nil {
				return err
			}
		}
		methods := map[string]bool{}
		for _, st := range ty.Statics {
			if strings.TrimSpace(st.Method) == "" {
				return errorf("type %q: static must have method", ty.Class)
			}
			if strings.Contains(st.Method, "::") {
				return errorf("type %q: static method %q must not contain ::", ty.Class, st.Method)
			}
			if methods[st.Method] {
				return errorf("type %q: duplicate static method %q", ty.Class, st.Method)
			}
			methods[st.Method] = true
			if err := checkSymbol(ty.Class+"::"+st.Method, st.Func, st.Form); err != nil {
				return err
			}
		}
	}

	refs := map[string]bool{}
	for _, c := range s.Callables {
		if strings.TrimSpace(c.Ref) == "" {
			return errorf("callable must have ref")
		}
		if refs[c.Ref] {
			return errorf("duplicate callable %q", c.Ref)
		}
		refs[c.Ref] = true
		if err := checkSymbol(c.Ref, c.Func, c.Form); err != nil {
			return err
		}
	}
	return nil
}

func checkSymbol(owner, sym, form string) error {
	if !token.IsIdentifier(sym) {
		return errorf("%s: func %q must be an identifier in the target package", owner, sym)
	}
	switch form {
	case FormArg, FormArgErr, FormNoArg, FormFunc:
		return nil
	default:
		return errorf("%s: form must be one of: %s|%s|%s|%s", owner, FormArg, FormArgErr, FormNoArg, FormFunc)
	}
}

// inferDTOImport computes the import path of the dto runtime package from the go.mod
// of the module that contains dtogen.
func inferDTOImport() (string, error) {
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		return "", errorf("cannot infer dto import: runtime.Caller failed")
	}
	modRoot, modPath, err := findModule(filepath.Dir(thisFile))
	if err != nil {
		return "", errorf("cannot infer dto import: %v", err)
	}
	if !dirExists(filepath.Join(modRoot, "dto")) {
		return "", errorf("cannot infer dto import: expected runtime package dir at %s", filepath.ToSlash(filepath.Join(modRoot, "dto")))
	}
	return modPath + "/dto", nil
}

func findModule(startDir string) (modRoot string, modPath string, err error) {
	dir := startDir
	for {
		gomod := filepath.Join(dir, "go.mod")
		if fileExists(gomod) {
			b, rerr := os.ReadFile(gomod)
			if rerr != nil {
				return "", "", rerr
			}
			for _, ln := range strings.Split(string(b), "\n") {
				ln = strings.TrimSpace(ln)
				if strings.HasPrefix(ln, "module ") {
					mod := strings.TrimSpace(strings.TrimPrefix(ln, "module "))
					if mod == "" {
						return "", "", errorf("go.mod has empty module path at %s", filepath.ToSlash(gomod))
					}
					return dir, mod, nil
				}
			}
			return "", "", errorf("go.mod missing module directive at %s", filepath.ToSlash(gomod))
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", "", errorf("could not find go.mod starting from %s", filepath.ToSlash(startDir))
}

func dirExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// adapt renders the expression turning sym into a dto.Func.
func adapt(form, sym string) string {
	switch form {
	case FormArgErr:
		return "dto.AdaptErr(" + sym + ")"
	case FormNoArg:
		return "dto.Adapt0(" + sym + ")"
	case FormFunc:
		return "dto.Func(" + sym + ")"
	default:
		return "dto.Adapt(" + sym + ")"
	}
}

var registryTpl = template.Must(template.New("registry").
	Funcs(template.FuncMap{"adapt": adapt, "quote": func(s string) string { return fmt.Sprintf("%q", s) }}).
	Parse(`// Code generated by dtogen; DO NOT EDIT.
// Source: {{.SpecPath}}
// Spec-SHA256: {{.SpecHash}}

package {{.Spec.Package}}

import {{quote .Spec.Imports.DTO}}

// {{.Spec.FuncName}} registers the DTO constructors, static factory methods and
// callables of package {{.Spec.Package}}.
func {{.Spec.FuncName}}(t *dto.Types) error {
{{- range .Spec.Types}}
{{- $class := .Class}}
{{- if .Constructor}}
	if err := t.Register({{quote .Class}}, {{adapt .Form .Constructor}}); err != nil {
		return err
	}
{{- end}}
{{- range .Statics}}
	if err := t.RegisterStatic({{quote $class}}, {{quote .Method}}, {{adapt .Form .Func}}); err != nil {
		return err
	}
{{- end}}
{{- end}}
{{- range .Spec.Callables}}
	if err := t.RegisterCallable({{quote .Ref}}, {{adapt .Form .Func}}); err != nil {
		return err
	}
{{- end}}
	return nil
}
`))
