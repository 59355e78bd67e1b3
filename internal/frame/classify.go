package frame

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
)

// Class is the verdict of a Classifier.
type Class uint8

const (
	// ClassForeign frames are omitted from the call tree.
	ClassForeign Class = iota
	// ClassUser frames become tree nodes.
	ClassUser
)

// String returns the string representation of Class.
func (c Class) String() string {
	switch c {
	case ClassUser:
		return "user"
	case ClassForeign:
		return "foreign"
	default:
		return "unknown"
	}
}

// Classifier decides whether a callee belongs to the traced project.
// Implementations must be pure and must not execute the code they classify.
type Classifier interface {
	Classify(s Site) Class
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(Site) Class

// Classify calls f(s).
func (f ClassifierFunc) Classify(s Site) Class { return f(s) }

// PathClassifier classifies by file location relative to a project root.
type PathClassifier struct {
	root       string   // project root, slash separated, no trailing slash
	module     string   // main module path for trimpath builds
	tracerDirs []string // the tracer's own source directories
	goroot     string
}

// NewPathClassifier anchors the project root at the module that contains
// anchor (typically the decorated function's definition).
func NewPathClassifier(anchor Site) *PathClassifier {
	c := &PathClassifier{
		module:     mainModule(),
		tracerDirs: tracerDirs(),
		goroot:     goroot(),
	}
	if anchor.Known() && filepath.IsAbs(filepath.FromSlash(anchor.File)) {
		c.root = projectRoot(filepath.Dir(filepath.FromSlash(anchor.File)))
	}
	return c
}

// Root returns the project root directory, or "" when it could not be found.
func (c *PathClassifier) Root() string {
	return c.root
}

// Classify implements Classifier.
func (c *PathClassifier) Classify(s Site) Class {
	if !s.Known() || !strings.HasSuffix(s.File, ".go") {
		return ClassForeign
	}
	file := s.File

	if !strings.HasSuffix(file, "_test.go") {
		for _, dir := range c.tracerDirs {
			if strings.HasPrefix(file, dir+"/") && !strings.Contains(file[len(dir)+1:], "/") {
				return ClassForeign
			}
		}
	}

	if c.goroot != "" && within(file, c.goroot) {
		return ClassForeign
	}
	if strings.Contains(file, "/pkg/mod/") || strings.Contains(file, "/vendor/") {
		return ClassForeign
	}

	if c.root != "" && within(file, c.root) {
		return ClassUser
	}

	if !strings.HasPrefix(file, "/") && c.module != "" {
		if within(file, c.module) || strings.HasPrefix(s.Function, c.module+"/") || strings.HasPrefix(s.Function, c.module+".") {
			return ClassUser
		}
	}
	return ClassForeign
}

func within(file, dir string) bool {
	return file == dir || strings.HasPrefix(file, dir+"/")
}

// projectRoot walks up from dir to the nearest directory holding go.mod.
// Without one, dir itself is the root.
func projectRoot(dir string) string {
	d := dir
	for {
		if _, err := os.Stat(filepath.Join(d, "go.mod")); err == nil {
			return filepath.ToSlash(d)
		}
		parent := filepath.Dir(d)
		if parent == d {
			return filepath.ToSlash(dir)
		}
		d = parent
	}
}

var (
	moduleOnce sync.Once
	modulePath string
)

func mainModule() string {
	moduleOnce.Do(func() {
		if info, ok := debug.ReadBuildInfo(); ok {
			modulePath = info.Main.Path
		}
	})
	return modulePath
}

func goroot() string {
	//nolint:staticcheck // GOROOT of the running binary is what the stdlib frames report
	r := runtime.GOROOT()
	if r == "" {
		return ""
	}
	return strings.TrimSuffix(filepath.ToSlash(r), "/")
}

// tracerDirs lists the directories of packages registered with Skip, derived
// from the file of a known function in each.
var (
	tracerDirMu sync.Mutex
	tracerDirsV []string
)

// SkipDir registers a source directory that holds tracer code.
func SkipDir(dir string) {
	tracerDirMu.Lock()
	defer tracerDirMu.Unlock()
	tracerDirsV = append(tracerDirsV, strings.TrimSuffix(filepath.ToSlash(dir), "/"))
}

func tracerDirs() []string {
	tracerDirMu.Lock()
	defer tracerDirMu.Unlock()
	out := make([]string, len(tracerDirsV))
	copy(out, tracerDirsV)
	return out
}
