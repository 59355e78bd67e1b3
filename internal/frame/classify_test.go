package frame

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestPathClassifier(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/app\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	pkg := filepath.Join(root, "pkg", "store")
	if err := os.MkdirAll(pkg, 0o755); err != nil {
		t.Fatal(err)
	}
	rootSlash := filepath.ToSlash(root)
	anchor := Site{Function: "example.com/app/pkg/store.Open", File: rootSlash + "/pkg/store/open.go", Line: 10}

	c := NewPathClassifier(anchor)
	if c.Root() != rootSlash {
		t.Fatalf("expected root %q, got %q", rootSlash, c.Root())
	}

	tests := []struct {
		name string
		site Site
		want Class
	}{
		{"anchor itself", anchor, ClassUser},
		{"sibling package", Site{File: rootSlash + "/cmd/app/main.go"}, ClassUser},
		{"test file", Site{File: rootSlash + "/pkg/store/open_test.go"}, ClassUser},
		{"module cache", Site{File: "/home/u/go/pkg/mod/github.com/x/y@v1.0.0/y.go"}, ClassForeign},
		{"vendored", Site{File: rootSlash + "/vendor/github.com/x/y/y.go"}, ClassForeign},
		{"outside root", Site{File: "/somewhere/else/z.go"}, ClassForeign},
		{"empty file", Site{Function: "main.main"}, ClassForeign},
		{"unknown file", Site{File: "?"}, ClassForeign},
		{"autogenerated", Site{File: "<autogenerated>"}, ClassForeign},
		{"not go source", Site{File: rootSlash + "/gen/template.tmpl"}, ClassForeign},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.site); got != tt.want {
				t.Errorf("Classify(%+v) = %v, want %v", tt.site, got, tt.want)
			}
		})
	}
}

func TestPathClassifierStdlib(t *testing.T) {
	_, self, _, _ := runtime.Caller(0)
	c := NewPathClassifier(Site{File: filepath.ToSlash(self)})

	stdlib := FuncSite(filepath.Join)
	if stdlib.File == "" {
		t.Skip("no file information for stdlib")
	}
	if got := c.Classify(stdlib); got != ClassForeign {
		t.Errorf("expected stdlib %s to be foreign, got %v", stdlib.File, got)
	}
}

func TestPathClassifierWithoutGoMod(t *testing.T) {
	dir := t.TempDir()
	// Only the directory of the anchor counts when no go.mod is found above it.
	// TempDir normally lives outside any module.
	c := NewPathClassifier(Site{File: filepath.ToSlash(filepath.Join(dir, "main.go"))})
	if c.Root() == "" {
		t.Fatal("expected a root")
	}
	if got := c.Classify(Site{File: filepath.ToSlash(filepath.Join(dir, "util.go"))}); got != ClassUser {
		t.Errorf("expected file next to the anchor to be user, got %v", got)
	}
}

func TestPathClassifierTracerDirs(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/app\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	lib := filepath.Join(root, "tracer")
	SkipDir(lib)
	t.Cleanup(func() {
		tracerDirMu.Lock()
		tracerDirsV = tracerDirsV[:len(tracerDirsV)-1]
		tracerDirMu.Unlock()
	})

	c := NewPathClassifier(Site{File: filepath.ToSlash(filepath.Join(root, "main.go"))})
	libSlash := filepath.ToSlash(lib)

	if got := c.Classify(Site{File: libSlash + "/wrap.go"}); got != ClassForeign {
		t.Errorf("tracer source should be foreign, got %v", got)
	}
	if got := c.Classify(Site{File: libSlash + "/wrap_test.go"}); got != ClassUser {
		t.Errorf("tracer tests should be user, got %v", got)
	}
	if got := c.Classify(Site{File: libSlash + "/sub/helper.go"}); got != ClassUser {
		t.Errorf("subdirectories of the tracer are not excluded, got %v", got)
	}
}

func TestClassifierFunc(t *testing.T) {
	var c Classifier = ClassifierFunc(func(s Site) Class {
		if s.Line > 10 {
			return ClassUser
		}
		return ClassForeign
	})
	if c.Classify(Site{Line: 11}) != ClassUser || c.Classify(Site{Line: 1}) != ClassForeign {
		t.Error("ClassifierFunc did not delegate")
	}
}
