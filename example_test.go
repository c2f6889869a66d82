package bagger_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/aretw0/bagger"
)

// Example_basic builds an exploded bag from a parameter file and verifies it.
func Example_basic() {
	tmpDir, err := os.MkdirTemp("", "bagger-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	src := filepath.Join(tmpDir, "src")
	if err := os.MkdirAll(src, 0o755); err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "hello.txt"), []byte("hello"), 0o644); err != nil {
		log.Fatal(err)
	}

	params := "package:\n  name: hello\n  location: out\n  archive: exploded\ncontent:\n  root: src\n"
	paramFile := filepath.Join(tmpDir, "bagger.yaml")
	if err := os.WriteFile(paramFile, []byte(params), 0o644); err != nil {
		log.Fatal(err)
	}

	f, err := bagger.LoadParams(paramFile)
	if err != nil {
		log.Fatal(err)
	}
	if _, err := bagger.Build(context.Background(), f); err != nil {
		log.Fatal(err)
	}

	in, err := bagger.Inspect(filepath.Join(tmpDir, "out", "hello"))
	if err != nil {
		log.Fatal(err)
	}
	oxum, _ := in.Info.First("Payload-Oxum")
	fmt.Println("valid:", in.Report.Valid())
	fmt.Println("payload:", oxum)
	// Output:
	// valid: true
	// payload: 5.1
}

// ExampleBuild writes a gzip-compressed tarball.
func ExampleBuild() {
	tmpDir, err := os.MkdirTemp("", "bagger-tar-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	src := filepath.Join(tmpDir, "survey")
	if err := os.MkdirAll(filepath.Join(src, "waves"), 0o755); err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "waves", "w1.csv"), []byte("id\n1\n"), 0o644); err != nil {
		log.Fatal(err)
	}

	f := &bagger.Params{}
	f.Package.Location = filepath.Join(tmpDir, "packages")
	f.Package.Compression = "gzip"
	f.Content.Root = src

	pkg, err := bagger.Build(context.Background(), f)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(pkg.Name, pkg.ContentType)
	// Output:
	// survey.tar.gz application/gzip
}
