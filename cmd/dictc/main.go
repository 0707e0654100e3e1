// Command dictc compiles Ispell/Hunspell rule files into dictionary images
// and inspects compiled ones.
//
//	dictc compile [-j N] [-zstd] <dict>:<affix>:<out> ...
//	dictc inspect <image> ...
//
// Outputs ending in .zst are zstd-compressed; inspect decompresses them
// transparently.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/sync/errgroup"

	"github.com/lexcraft/spellix/dict"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "compile":
		err = runCompile(logger, os.Args[2:])
	case "inspect":
		err = runInspect(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error(os.Args[1]+" failed", "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  dictc compile [-j N] [-zstd] <dict>:<affix>:<out> ...
  dictc inspect <image> ...`)
}

func runCompile(logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	jobs := fs.Int("j", runtime.NumCPU(), "max concurrent compilations")
	forceZstd := fs.Bool("zstd", false, "compress outputs regardless of extension")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("no dictionaries given")
	}

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(*jobs)
	for _, spec := range fs.Args() {
		parts := strings.SplitN(spec, ":", 3)
		if len(parts) != 3 {
			return fmt.Errorf("bad spec %q, want dict:affix:out", spec)
		}
		dictFile, affFile, out := parts[0], parts[1], parts[2]
		g.Go(func() error {
			img, err := dict.Compile(dictFile, affFile)
			if err != nil {
				return err
			}
			compress := *forceZstd || strings.HasSuffix(out, ".zst")
			if err := writeImage(out, img, compress); err != nil {
				return err
			}
			logger.Info("compiled",
				"dict", dictFile,
				"affix", affFile,
				"out", out,
				"size", len(img),
			)
			return nil
		})
	}
	return g.Wait()
}

func writeImage(path string, img []byte, compress bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if !compress {
		_, err = f.Write(img)
		return err
	}
	zw, err := zstd.NewWriter(f)
	if err != nil {
		return err
	}
	if _, err := zw.Write(img); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

func runInspect(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no images given")
	}
	for _, path := range args {
		data, err := readImage(path)
		if err != nil {
			return err
		}
		img, err := dict.Open(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		st := img.Stats()
		fmt.Printf("%s:\n", path)
		fmt.Printf("  size          %d\n", st.Size)
		fmt.Printf("  flag mode     %s\n", st.FlagMode)
		fmt.Printf("  compound      %v\n", st.UsesCompound)
		fmt.Printf("  word nodes    %d\n", st.WordNodes)
		fmt.Printf("  affix rules   %d\n", st.AffixRules)
		fmt.Printf("  flag sets     %d\n", st.FlagSets)
		fmt.Printf("  compound idx  %d\n", st.CompoundRules)
	}
	return nil
}

func readImage(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.HasSuffix(path, ".zst") {
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	}
	return io.ReadAll(f)
}
